package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"modulehub/internal/config"
	"modulehub/internal/models"
	"modulehub/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mediaRepoStub is a stub for repository.MediaRepository.
type mediaRepoStub struct {
	createImageFn func(context.Context, *models.Image) error
	createVideoFn func(context.Context, *models.Video) error
	listImagesFn  func(context.Context, uint) ([]models.Image, error)
	getImageFn    func(context.Context, uint, uint) (*models.Image, error)
	listVideosFn  func(context.Context, uint) ([]models.Video, error)
	getVideoFn    func(context.Context, uint, uint) (*models.Video, error)
	wallImagesFn  func(context.Context, *uint) ([]models.Image, error)
	wallVideosFn  func(context.Context, *uint) ([]models.Video, error)
}

func (s *mediaRepoStub) CreateImage(ctx context.Context, img *models.Image) error {
	return s.createImageFn(ctx, img)
}
func (s *mediaRepoStub) CreateVideo(ctx context.Context, v *models.Video) error {
	return s.createVideoFn(ctx, v)
}
func (s *mediaRepoStub) ListImagesByUser(ctx context.Context, userID uint) ([]models.Image, error) {
	return s.listImagesFn(ctx, userID)
}
func (s *mediaRepoStub) GetImageForUser(ctx context.Context, userID, id uint) (*models.Image, error) {
	return s.getImageFn(ctx, userID, id)
}
func (s *mediaRepoStub) ListVideosByUser(ctx context.Context, userID uint) ([]models.Video, error) {
	return s.listVideosFn(ctx, userID)
}
func (s *mediaRepoStub) GetVideoForUser(ctx context.Context, userID, id uint) (*models.Video, error) {
	return s.getVideoFn(ctx, userID, id)
}
func (s *mediaRepoStub) WallImages(ctx context.Context, userID *uint) ([]models.Image, error) {
	return s.wallImagesFn(ctx, userID)
}
func (s *mediaRepoStub) WallVideos(ctx context.Context, userID *uint) ([]models.Video, error) {
	return s.wallVideosFn(ctx, userID)
}

func noopMediaRepo() *mediaRepoStub {
	return &mediaRepoStub{
		createImageFn: func(_ context.Context, img *models.Image) error { img.ID = 1; return nil },
		createVideoFn: func(_ context.Context, v *models.Video) error { v.ID = 1; return nil },
		listImagesFn:  func(_ context.Context, _ uint) ([]models.Image, error) { return nil, nil },
		getImageFn:    func(_ context.Context, _, _ uint) (*models.Image, error) { return &models.Image{}, nil },
		listVideosFn:  func(_ context.Context, _ uint) ([]models.Video, error) { return nil, nil },
		getVideoFn:    func(_ context.Context, _, _ uint) (*models.Video, error) { return &models.Video{}, nil },
		wallImagesFn:  func(_ context.Context, _ *uint) ([]models.Image, error) { return nil, nil },
		wallVideosFn:  func(_ context.Context, _ *uint) ([]models.Video, error) { return nil, nil },
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newCameraService(t *testing.T, repo *mediaRepoStub) (*CameraService, *storage.LocalStore) {
	t.Helper()
	store := storage.NewLocalStore(t.TempDir(), "/media")
	return NewCameraService(repo, store, &config.Config{MediaMaxUploadMB: 1}), store
}

func TestCameraService_UploadImageStoresOriginalAndThumbnail(t *testing.T) {
	repo := noopMediaRepo()
	var saved *models.Image
	repo.createImageFn = func(_ context.Context, img *models.Image) error {
		img.ID = 7
		saved = img
		return nil
	}
	svc, store := newCameraService(t, repo)

	uid := uint(3)
	img, err := svc.UploadImage(context.Background(), UploadImageInput{UserID: &uid, Filename: "a.png", Content: testPNG(t, 600, 300)})
	require.NoError(t, err)
	assert.Equal(t, uint(7), img.ID)
	assert.Equal(t, &uid, saved.UserID)
	assert.Equal(t, "image/png", saved.ContentType)
	assert.Equal(t, 600, saved.Width)

	for _, key := range []string{saved.Path, saved.ThumbnailPath} {
		_, statErr := os.Stat(filepath.Join(store.Root(), filepath.FromSlash(key)))
		assert.NoError(t, statErr, key)
	}
	assert.Equal(t, ".webp", filepath.Ext(saved.ThumbnailPath))

	view := svc.ImageView(img)
	assert.Equal(t, "/media/"+saved.Path, view.Image)
}

func TestCameraService_UploadImageRejections(t *testing.T) {
	svc, _ := newCameraService(t, noopMediaRepo())

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"not an image", []byte("<html>hello</html>")},
		{"too large", append(testPNG(t, 2, 2), make([]byte, 2*1024*1024)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadImage(context.Background(), UploadImageInput{Content: tt.content})
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeValidation, appErr.Code)
		})
	}
}

func TestCameraService_UploadImageCleansUpOnRepoFailure(t *testing.T) {
	repo := noopMediaRepo()
	repo.createImageFn = func(_ context.Context, _ *models.Image) error { return errors.New("db down") }
	svc, store := newCameraService(t, repo)

	_, err := svc.UploadImage(context.Background(), UploadImageInput{Content: testPNG(t, 10, 10)})
	require.Error(t, err)

	entries, _ := os.ReadDir(filepath.Join(store.Root(), "img"))
	for _, e := range entries {
		assert.True(t, e.IsDir(), "unexpected leftover %s", e.Name())
	}
}

func TestCameraService_UploadVideo(t *testing.T) {
	svc, _ := newCameraService(t, noopMediaRepo())
	ctx := context.Background()

	linked, err := svc.UploadVideo(ctx, UploadVideoInput{Source: models.VideoSourceYouTube, URL: "https://youtu.be/abc"})
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/abc", svc.VideoView(linked).Video)

	local, err := svc.UploadVideo(ctx, UploadVideoInput{Filename: "clip.mp4", Content: []byte("not really mp4 bytes")})
	require.NoError(t, err)
	assert.Equal(t, models.VideoSourceLocal, local.Source)
	assert.Equal(t, ".mp4", filepath.Ext(local.Path))

	_, err = svc.UploadVideo(ctx, UploadVideoInput{Source: models.VideoSourceVimeo})
	assert.Equal(t, models.CodeValidation, err.(*models.AppError).Code)

	_, err = svc.UploadVideo(ctx, UploadVideoInput{Source: "dailymotion", URL: "https://example.com"})
	assert.Equal(t, models.CodeValidation, err.(*models.AppError).Code)

	_, err = svc.UploadVideo(ctx, UploadVideoInput{Filename: "notes.txt", Content: []byte("plain text")})
	assert.Equal(t, models.CodeValidation, err.(*models.AppError).Code)
}

func TestCameraService_WallMergesAscending(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := noopMediaRepo()
	repo.wallImagesFn = func(_ context.Context, _ *uint) ([]models.Image, error) {
		return []models.Image{
			{ID: 1, Path: "img/1.png", CreatedAt: base},
			{ID: 2, Path: "img/2.png", CreatedAt: base.Add(2 * time.Hour)},
		}, nil
	}
	repo.wallVideosFn = func(_ context.Context, _ *uint) ([]models.Video, error) {
		return []models.Video{{ID: 9, Path: "video/9.mp4", Source: models.VideoSourceLocal, CreatedAt: base.Add(time.Hour)}}, nil
	}
	svc, _ := newCameraService(t, repo)

	items, err := svc.Wall(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "/media/img/1.png", items[0].Image)
	assert.Equal(t, "/media/video/9.mp4", items[1].Video)
	assert.Equal(t, uint(2), items[2].ID)
}
