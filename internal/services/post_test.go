package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOwner(t *testing.T) {
	post := &models.Post{ID: 1, UserID: 5}

	assert.True(t, IsOwner(5, post))
	assert.False(t, IsOwner(6, post))
	assert.False(t, IsOwner(0, &models.Post{ID: 2}))
	assert.False(t, IsOwner(5, nil))
}

func TestPostService_Create(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	reader := NewMockPostReader(ctrl)
	writer := NewMockPostWriter(ctrl)
	kw := NewMockKafkaWriter(ctrl)

	svc := NewPostService(reader, writer, kw)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	writer.EXPECT().Create(ctx, int64(5), "Hello", "World", fixed).Return(int64(42), nil)
	kw.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
		require.Len(t, msgs, 1)
		assert.Equal(t, "42", string(msgs[0].Key))

		var event models.PostEvent
		require.NoError(t, json.Unmarshal(msgs[0].Value, &event))
		assert.Equal(t, models.PostCreated, event.Operation)
		assert.Equal(t, int64(42), event.PostID)
		assert.Equal(t, int64(5), event.UserID)
		assert.Equal(t, fixed.Unix(), event.Timestamp)
		assert.NotEmpty(t, event.EventID)
		return nil
	})

	post, err := svc.Create(ctx, 5, "Hello", "World")
	require.NoError(t, err)
	assert.Equal(t, int64(42), post.ID)
	assert.Equal(t, int64(5), post.UserID)
	assert.Equal(t, fixed, post.CreatedAt)
}

func TestPostService_CreateWithoutKafka(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	writer := NewMockPostWriter(ctrl)
	writer.EXPECT().Create(ctx, int64(5), "t", "b", gomock.Any()).Return(int64(1), nil)

	svc := NewPostService(NewMockPostReader(ctrl), writer, nil)
	_, err := svc.Create(ctx, 5, "t", "b")
	assert.NoError(t, err)
}

func TestPostService_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	writer := NewMockPostWriter(ctrl)
	kw := NewMockKafkaWriter(ctrl)
	writer.EXPECT().Create(ctx, int64(5), "t", "b", gomock.Any()).Return(int64(1), nil)
	kw.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	svc := NewPostService(NewMockPostReader(ctrl), writer, kw)
	_, err := svc.Create(ctx, 5, "t", "b")
	assert.NoError(t, err)
}

func TestPostService_Get(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	reader := NewMockPostReader(ctrl)
	svc := NewPostService(reader, NewMockPostWriter(ctrl), nil)

	reader.EXPECT().GetByID(ctx, int64(9)).Return(nil, sql.ErrNoRows)
	_, err := svc.Get(ctx, 9)
	assert.ErrorIs(t, err, ErrPostNotFound)

	reader.EXPECT().GetByID(ctx, int64(10)).Return(nil, errors.New("db error"))
	_, err = svc.Get(ctx, 10)
	assert.EqualError(t, err, "db error")
}

func TestPostService_UpdateAndDeleteOwnership(t *testing.T) {
	const (
		alice = int64(1)
		bob   = int64(2)
	)
	stored := func() *models.Post {
		return &models.Post{ID: 7, Title: "Hello", Body: "World", UserID: alice}
	}

	tests := []struct {
		name    string
		actor   int64
		found   bool
		wantErr error
	}{
		{name: "owner", actor: alice, found: true},
		{name: "other user", actor: bob, found: true, wantErr: ErrForbidden},
		{name: "missing post", actor: alice, found: false, wantErr: ErrPostNotFound},
	}

	for _, tt := range tests {
		t.Run("update by "+tt.name, func(t *testing.T) {
			ctx := context.Background()
			ctrl := gomock.NewController(t)
			reader := NewMockPostReader(ctrl)
			writer := NewMockPostWriter(ctrl)
			svc := NewPostService(reader, writer, nil)

			if tt.found {
				reader.EXPECT().GetByID(ctx, int64(7)).Return(stored(), nil)
			} else {
				reader.EXPECT().GetByID(ctx, int64(7)).Return(nil, sql.ErrNoRows)
			}
			if tt.wantErr == nil {
				writer.EXPECT().Update(ctx, int64(7), "New", "Body").Return(nil)
			}

			post, err := svc.Update(ctx, tt.actor, 7, "New", "Body")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, post)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "New", post.Title)
			assert.Equal(t, alice, post.UserID)
		})

		t.Run("delete by "+tt.name, func(t *testing.T) {
			ctx := context.Background()
			ctrl := gomock.NewController(t)
			reader := NewMockPostReader(ctrl)
			writer := NewMockPostWriter(ctrl)
			svc := NewPostService(reader, writer, nil)

			if tt.found {
				reader.EXPECT().GetByID(ctx, int64(7)).Return(stored(), nil)
			} else {
				reader.EXPECT().GetByID(ctx, int64(7)).Return(nil, sql.ErrNoRows)
			}
			if tt.wantErr == nil {
				writer.EXPECT().Delete(ctx, int64(7)).Return(nil)
			}

			err := svc.Delete(ctx, tt.actor, 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPostService_ListAndCount(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	reader := NewMockPostReader(ctrl)
	svc := NewPostService(reader, NewMockPostWriter(ctrl), nil)

	posts := []models.Post{{ID: 3}, {ID: 2}, {ID: 1}}
	reader.EXPECT().List(ctx).Return(posts, nil)
	reader.EXPECT().CountByUser(ctx, int64(1)).Return(3, nil)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, posts, got)

	n, err := svc.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
