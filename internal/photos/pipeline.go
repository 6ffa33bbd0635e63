// Package photos ingests uploaded profile photos: it names, decodes,
// thumbnails and stores them.
package photos

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"regexp"
	"strings"

	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/models"
	"golang.org/x/image/draw"
)

// DefaultMaxSide bounds both dimensions of a stored photo.
const DefaultMaxSide = 400

// DefaultMaxPixels bounds width*height of an upload before it is decoded.
const DefaultMaxPixels = 25_000_000

// tokenBytes yields 16 hex characters per generated name.
const tokenBytes = 8

var (
	// ErrDecode is returned when the uploaded bytes are not a decodable image.
	ErrDecode = errors.New("uploaded file is not a valid image")
	// ErrUnsupportedExtension is returned for extensions the encoder cannot write.
	ErrUnsupportedExtension = errors.New("unsupported image extension")
	// ErrNotFound is returned when a stored photo does not exist.
	ErrNotFound = errors.New("photo not found")
	// ErrInvalidName is returned for names that could escape the storage root.
	ErrInvalidName = errors.New("invalid photo name")
)

// Storage persists encoded photos under opaque names.
type Storage interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) (bool, error)
	Remove(ctx context.Context, name string) error
}

// Pipeline turns uploads into stored thumbnails.
type Pipeline struct {
	storage   Storage
	maxSide   int
	maxPixels int
	newToken  func() (string, error)
}

// Opt configures a Pipeline.
type Opt func(*Pipeline)

// WithMaxSide overrides DefaultMaxSide.
func WithMaxSide(n int) Opt {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxSide = n
		}
	}
}

// WithMaxPixels overrides DefaultMaxPixels.
func WithMaxPixels(n int) Opt {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxPixels = n
		}
	}
}

// WithTokenGenerator overrides the random name generator.
func WithTokenGenerator(gen func() (string, error)) Opt {
	return func(p *Pipeline) {
		p.newToken = gen
	}
}

// NewPipeline creates a pipeline writing to storage.
func NewPipeline(storage Storage, opts ...Opt) *Pipeline {
	p := &Pipeline{
		storage:   storage,
		maxSide:   DefaultMaxSide,
		maxPixels: DefaultMaxPixels,
		newToken:  randomToken,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func randomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Ingest stores the upload read from src and returns its generated name.
// The extension of filename must already be validated by the caller.
// Nothing is written when decoding fails.
func (p *Pipeline) Ingest(ctx context.Context, filename string, src io.Reader) (string, error) {
	ext, err := extension(filename)
	if err != nil {
		return "", err
	}

	token, err := p.newToken()
	if err != nil {
		return "", fmt.Errorf("generate photo name: %w", err)
	}
	name := token + "." + ext

	// The header is read twice: once to size-check, once to decode.
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(src, &header))
	if err != nil {
		logger.FromContext(ctx).Warnw("failed to decode uploaded photo", "filename", filename, "error", err)
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		logger.FromContext(ctx).Warnw("uploaded photo too large", "filename", filename, "width", cfg.Width, "height", cfg.Height)
		return "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, p.maxPixels)
	}

	img, format, err := image.Decode(io.MultiReader(&header, src))
	if err != nil {
		logger.FromContext(ctx).Warnw("failed to decode uploaded photo", "filename", filename, "error", err)
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	thumb := Thumbnail(img, p.maxSide)

	data, contentType, err := encode(thumb, ext)
	if err != nil {
		return "", err
	}

	if err := p.storage.Save(ctx, name, data, contentType); err != nil {
		logger.FromContext(ctx).Errorw("failed to store photo", "name", name, "error", err)
		return "", fmt.Errorf("store photo: %w", err)
	}

	logger.FromContext(ctx).Infow("photo stored",
		"name", name,
		"source_format", format,
		"width", thumb.Bounds().Dx(),
		"height", thumb.Bounds().Dy(),
		"size", len(data),
	)

	return name, nil
}

// Open streams a stored photo and reports its content type.
func (p *Pipeline) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if err := ValidateName(name); err != nil {
		return nil, "", err
	}
	rc, err := p.storage.Open(ctx, name)
	if err != nil {
		return nil, "", err
	}
	return rc, ContentType(name), nil
}

// Remove deletes a stored photo. The sentinel default photo is never removed.
func (p *Pipeline) Remove(ctx context.Context, name string) error {
	if name == "" || name == models.DefaultPhoto {
		return nil
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	return p.storage.Remove(ctx, name)
}

// EnsureDefault writes a neutral placeholder under the sentinel name when storage lacks one.
func (p *Pipeline) EnsureDefault(ctx context.Context) error {
	ok, err := p.storage.Exists(ctx, models.DefaultPhoto)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, p.maxSide, p.maxSide))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}}, image.Point{}, draw.Src)

	data, contentType, err := encode(img, "jpg")
	if err != nil {
		return err
	}
	return p.storage.Save(ctx, models.DefaultPhoto, data, contentType)
}

// Thumbnail scales img down so that neither side exceeds maxSide, keeping the
// aspect ratio. Images already within the bound are returned unchanged.
func Thumbnail(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}

	var nw, nh int
	if w >= h {
		nw = maxSide
		nh = (h*maxSide + w/2) / w
	} else {
		nh = maxSide
		nw = (w*maxSide + h/2) / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func encode(img image.Image, ext string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch ext {
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
	default:
		return nil, "", ErrUnsupportedExtension
	}
	return buf.Bytes(), ContentType("." + ext), nil
}

// ContentType maps a photo name to its MIME type.
func ContentType(name string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".png"):
		return "image/png"
	case strings.HasSuffix(strings.ToLower(name), ".jpg"), strings.HasSuffix(strings.ToLower(name), ".jpeg"):
		return "image/jpeg"
	}
	return "application/octet-stream"
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces an uploaded filename to a flat ASCII name that cannot
// traverse directories.
func SecureFilename(filename string) string {
	filename = strings.NewReplacer("/", " ", "\\", " ").Replace(filename)
	filename = strings.Join(strings.Fields(filename), "_")
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")
	return strings.Trim(filename, "._")
}

func extension(filename string) (string, error) {
	safe := SecureFilename(filename)
	i := strings.LastIndex(safe, ".")
	if i < 0 || i == len(safe)-1 {
		return "", ErrUnsupportedExtension
	}
	ext := strings.ToLower(safe[i+1:])
	switch ext {
	case "jpg", "jpeg", "png":
		return ext, nil
	}
	return "", ErrUnsupportedExtension
}

// ValidateName rejects names that are not a single flat path element.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || name != SecureFilename(name) {
		return ErrInvalidName
	}
	return nil
}
