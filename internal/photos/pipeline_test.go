package photos

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func fixedToken(token string) Opt {
	return WithTokenGenerator(func() (string, error) { return token, nil })
}

func decodeStored(t *testing.T, dir, name string) (image.Image, string) {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	img, format, err := image.Decode(f)
	require.NoError(t, err)
	return img, format
}

func TestPipeline_Ingest(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		data       func(t *testing.T) []byte
		wantName   string
		wantW      int
		wantH      int
		wantFormat string
	}{
		{
			name:       "landscape jpeg is scaled down",
			filename:   "Minha Foto.JPG",
			data:       func(t *testing.T) []byte { return jpegBytes(t, 800, 600) },
			wantName:   "0123456789abcdef.jpg",
			wantW:      400,
			wantH:      300,
			wantFormat: "jpeg",
		},
		{
			name:       "portrait png is scaled down",
			filename:   "avatar.png",
			data:       func(t *testing.T) []byte { return pngBytes(t, 300, 900) },
			wantName:   "0123456789abcdef.png",
			wantW:      133,
			wantH:      400,
			wantFormat: "png",
		},
		{
			name:       "small image is not upscaled",
			filename:   "tiny.jpg",
			data:       func(t *testing.T) []byte { return jpegBytes(t, 120, 80) },
			wantName:   "0123456789abcdef.jpg",
			wantW:      120,
			wantH:      80,
			wantFormat: "jpeg",
		},
		{
			name:       "png content with jpg extension is re-encoded as jpeg",
			filename:   "mislabeled.jpg",
			data:       func(t *testing.T) []byte { return pngBytes(t, 500, 500) },
			wantName:   "0123456789abcdef.jpg",
			wantW:      400,
			wantH:      400,
			wantFormat: "jpeg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			p := NewPipeline(NewLocalStorage(dir), fixedToken("0123456789abcdef"))

			name, err := p.Ingest(context.Background(), tt.filename, bytes.NewReader(tt.data(t)))
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)

			img, format := decodeStored(t, dir, name)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}
}

func TestPipeline_Ingest_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static", "imagens")
	p := NewPipeline(NewLocalStorage(dir))

	name, err := p.Ingest(context.Background(), "me.png", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9a-f]{16}\.png$`, name)
	_, err = os.Stat(filepath.Join(dir, name))
	assert.NoError(t, err)
}

func TestPipeline_Ingest_UniqueNames(t *testing.T) {
	p := NewPipeline(NewLocalStorage(t.TempDir()))
	data := pngBytes(t, 10, 10)

	first, err := p.Ingest(context.Background(), "me.png", bytes.NewReader(data))
	require.NoError(t, err)
	second, err := p.Ingest(context.Background(), "me.png", bytes.NewReader(data))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPipeline_Ingest_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(NewLocalStorage(dir))

	name, err := p.Ingest(context.Background(), "broken.jpg", strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, ErrDecode)
	assert.Empty(t, name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// forgedPNG returns a tiny PNG whose header claims w x h pixels.
func forgedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestPipeline_Ingest_PixelLimit(t *testing.T) {
	tests := []struct {
		name string
		opts []Opt
		data func(t *testing.T) []byte
	}{
		{
			name: "forged header",
			data: func(t *testing.T) []byte { return forgedPNG(t, 60000, 60000) },
		},
		{
			name: "real image above custom limit",
			opts: []Opt{WithMaxPixels(50 * 50)},
			data: func(t *testing.T) []byte { return pngBytes(t, 100, 100) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			p := NewPipeline(NewLocalStorage(dir), tt.opts...)

			name, err := p.Ingest(context.Background(), "big.png", bytes.NewReader(tt.data(t)))
			assert.ErrorIs(t, err, ErrDecode)
			assert.Empty(t, name)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestPipeline_Ingest_AtPixelLimit(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(NewLocalStorage(dir), WithMaxPixels(100*100), fixedToken("00000000000000aa"))

	name, err := p.Ingest(context.Background(), "ok.png", bytes.NewReader(pngBytes(t, 100, 100)))
	require.NoError(t, err)

	img, format := decodeStored(t, dir, name)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestPipeline_Ingest_BadExtension(t *testing.T) {
	p := NewPipeline(NewLocalStorage(t.TempDir()))

	_, err := p.Ingest(context.Background(), "noextension", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, ErrUnsupportedExtension)

	_, err = p.Ingest(context.Background(), "photo.gif", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestThumbnail_AspectRatio(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{1600, 1200, 400, 300},
		{1000, 1000, 400, 400},
		{401, 100, 400, 100},
		{100, 4000, 10, 400},
		{400, 400, 400, 400},
		{5000, 1, 400, 1},
	}

	for _, tt := range tests {
		img := Thumbnail(image.NewRGBA(image.Rect(0, 0, tt.w, tt.h)), 400)
		assert.Equal(t, tt.wantW, img.Bounds().Dx(), "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, img.Bounds().Dy(), "%dx%d", tt.w, tt.h)
	}
}

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.jpg", "photo.jpg"},
		{"My Photo.JPG", "My_Photo.JPG"},
		{"../../etc/passwd", "etc_passwd"},
		{`C:\Users\me\pic.png`, "C_Users_me_pic.png"},
		{"fötö.png", "ft.png"},
		{".hidden.png", "hidden.png"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SecureFilename(tt.in), tt.in)
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("0123456789abcdef.jpg"))
	assert.NoError(t, ValidateName(models.DefaultPhoto))

	for _, bad := range []string{"", ".", "..", "../x.jpg", "a/b.jpg", `a\b.jpg`, "a b.jpg"} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}

func TestPipeline_OpenAndRemove(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(NewLocalStorage(dir), fixedToken("aaaaaaaaaaaaaaaa"))
	ctx := context.Background()

	name, err := p.Ingest(ctx, "me.png", bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)

	rc, contentType, err := p.Open(ctx, name)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "image/png", contentType)
	assert.NotEmpty(t, data)

	require.NoError(t, p.Remove(ctx, name))
	_, _, err = p.Open(ctx, name)
	assert.ErrorIs(t, err, ErrNotFound)

	// removing twice is harmless
	assert.NoError(t, p.Remove(ctx, name))

	_, _, err = p.Open(ctx, "../secret")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestPipeline_EnsureDefault(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(NewLocalStorage(dir))
	ctx := context.Background()

	require.NoError(t, p.EnsureDefault(ctx))
	img, format := decodeStored(t, dir, models.DefaultPhoto)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, DefaultMaxSide, img.Bounds().Dx())

	info, err := os.Stat(filepath.Join(dir, models.DefaultPhoto))
	require.NoError(t, err)

	// existing placeholder is left alone
	require.NoError(t, p.EnsureDefault(ctx))
	again, err := os.Stat(filepath.Join(dir, models.DefaultPhoto))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())

	// the sentinel is never removed
	require.NoError(t, p.Remove(ctx, models.DefaultPhoto))
	_, err = os.Stat(filepath.Join(dir, models.DefaultPhoto))
	assert.NoError(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("a.jpg"))
	assert.Equal(t, "image/jpeg", ContentType("a.JPEG"))
	assert.Equal(t, "image/png", ContentType("a.png"))
	assert.Equal(t, "application/octet-stream", ContentType("a.bin"))
}
