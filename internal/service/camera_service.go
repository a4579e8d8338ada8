package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"modulehub/internal/config"
	"modulehub/internal/models"
	"modulehub/internal/observability"
	"modulehub/internal/repository"
	"modulehub/internal/storage"

	"github.com/google/uuid"
)

const DefaultMaxUploadSizeMB = 20

// UploadImageInput is a multipart image upload. A nil UserID stores a public image.
type UploadImageInput struct {
	UserID      *uint
	Filename    string
	ContentType string
	Content     []byte
}

// UploadVideoInput is a multipart video upload or an external link.
type UploadVideoInput struct {
	UserID    *uint
	Filename  string
	Content   []byte
	Thumbnail []byte
	URL       string
	Source    models.VideoSource
}

// ImageView is the public representation of an image.
type ImageView struct {
	ID        uint      `json:"id"`
	Image     string    `json:"image"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoView is the public representation of a video.
type VideoView struct {
	ID        uint               `json:"id"`
	Video     string             `json:"video"`
	Thumbnail string             `json:"thumbnail,omitempty"`
	URL       string             `json:"url,omitempty"`
	Source    models.VideoSource `json:"source"`
	CreatedAt time.Time          `json:"created_at"`
}

// WallItem is one entry of the user wall: an image or a video.
type WallItem struct {
	ID        uint               `json:"id"`
	Image     string             `json:"image,omitempty"`
	Video     string             `json:"video,omitempty"`
	Source    models.VideoSource `json:"source,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

type CameraService struct {
	repo     repository.MediaRepository
	store    storage.MediaStore
	maxBytes int64
}

func NewCameraService(repo repository.MediaRepository, store storage.MediaStore, cfg *config.Config) *CameraService {
	maxMB := DefaultMaxUploadSizeMB
	if cfg != nil && cfg.MediaMaxUploadMB > 0 {
		maxMB = cfg.MediaMaxUploadMB
	}
	return &CameraService{repo: repo, store: store, maxBytes: int64(maxMB) * 1024 * 1024}
}

func (s *CameraService) UploadImage(ctx context.Context, in UploadImageInput) (img *models.Image, err error) {
	defer func() { s.recordUpload("image", err) }()

	if len(in.Content) == 0 {
		return nil, models.NewFieldValidationError(map[string]string{"image": "No file was submitted."})
	}
	if int64(len(in.Content)) > s.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewFieldValidationError(map[string]string{
			"image": "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
		})
	}
	thumb, width, height, err := thumbnail(in.Content)
	if err != nil {
		return nil, models.NewFieldValidationError(map[string]string{
			"image": "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
		})
	}

	id := uuid.NewString()
	key := path.Join("img", id+imageExtension(detected))
	thumbKey := path.Join("img", "thumbnails", id+".webp")

	written, err := s.putAll(ctx, []pendingObject{
		{key: key, data: in.Content, contentType: detected},
		{key: thumbKey, data: thumb, contentType: "image/webp"},
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	img = &models.Image{
		UserID:        in.UserID,
		Path:          key,
		ThumbnailPath: thumbKey,
		ContentType:   detected,
		SizeBytes:     int64(len(in.Content)),
		Width:         width,
		Height:        height,
	}
	if err := s.repo.CreateImage(ctx, img); err != nil {
		s.cleanup(ctx, written)
		return nil, models.NewInternalError(err)
	}
	return img, nil
}

func (s *CameraService) UploadVideo(ctx context.Context, in UploadVideoInput) (v *models.Video, err error) {
	defer func() { s.recordUpload("video", err) }()

	source := in.Source
	if source == "" {
		source = models.VideoSourceLocal
	}
	if !source.Valid() {
		return nil, models.NewFieldValidationError(map[string]string{"source": fmt.Sprintf("%q is not a valid choice.", source)})
	}

	v = &models.Video{UserID: in.UserID, Source: source}
	var objects []pendingObject

	if source == models.VideoSourceLocal || len(in.Content) > 0 {
		if len(in.Content) == 0 {
			return nil, models.NewFieldValidationError(map[string]string{"video": "No file was submitted."})
		}
		if int64(len(in.Content)) > s.maxBytes {
			return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
		}
		ext := strings.ToLower(path.Ext(in.Filename))
		contentType, ok := videoExtensions[ext]
		detected := normalizeContentType(http.DetectContentType(in.Content))
		if strings.HasPrefix(detected, "video/") {
			contentType, ok = detected, true
			if ext == "" {
				ext = ".mp4"
			}
		}
		if !ok {
			return nil, models.NewFieldValidationError(map[string]string{"video": "Unsupported video format."})
		}
		v.Path = path.Join("video", uuid.NewString()+ext)
		objects = append(objects, pendingObject{key: v.Path, data: in.Content, contentType: contentType})
	}

	if in.URL != "" {
		u, perr := url.ParseRequestURI(in.URL)
		if perr != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, models.NewFieldValidationError(map[string]string{"url": "Enter a valid URL."})
		}
		v.URL = in.URL
	} else if source != models.VideoSourceLocal {
		return nil, models.NewFieldValidationError(map[string]string{"url": "This field is required for external videos."})
	}

	if len(in.Thumbnail) > 0 {
		thumb, _, _, terr := thumbnail(in.Thumbnail)
		if terr != nil {
			return nil, models.NewFieldValidationError(map[string]string{"thumbnail": "Upload a valid image."})
		}
		v.ThumbnailPath = path.Join("img", "thumbnails", uuid.NewString()+".webp")
		objects = append(objects, pendingObject{key: v.ThumbnailPath, data: thumb, contentType: "image/webp"})
	}

	written, err := s.putAll(ctx, objects)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.repo.CreateVideo(ctx, v); err != nil {
		s.cleanup(ctx, written)
		return nil, models.NewInternalError(err)
	}
	return v, nil
}

func (s *CameraService) ListImages(ctx context.Context, userID uint) ([]ImageView, error) {
	images, err := s.repo.ListImagesByUser(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make([]ImageView, 0, len(images))
	for i := range images {
		out = append(out, s.ImageView(&images[i]))
	}
	return out, nil
}

func (s *CameraService) GetImage(ctx context.Context, userID, imageID uint) (ImageView, error) {
	img, err := s.repo.GetImageForUser(ctx, userID, imageID)
	if err != nil {
		return ImageView{}, translate(err, "Image", imageID)
	}
	return s.ImageView(img), nil
}

func (s *CameraService) ListVideos(ctx context.Context, userID uint) ([]VideoView, error) {
	videos, err := s.repo.ListVideosByUser(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make([]VideoView, 0, len(videos))
	for i := range videos {
		out = append(out, s.VideoView(&videos[i]))
	}
	return out, nil
}

func (s *CameraService) GetVideo(ctx context.Context, userID, videoID uint) (VideoView, error) {
	v, err := s.repo.GetVideoForUser(ctx, userID, videoID)
	if err != nil {
		return VideoView{}, translate(err, "Video", videoID)
	}
	return s.VideoView(v), nil
}

// Wall merges the caller's media with public media, oldest first.
func (s *CameraService) Wall(ctx context.Context, userID *uint) ([]WallItem, error) {
	images, err := s.repo.WallImages(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	videos, err := s.repo.WallVideos(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	items := make([]WallItem, 0, len(images)+len(videos))
	for i := range images {
		items = append(items, WallItem{ID: images[i].ID, Image: s.store.URL(images[i].Path), CreatedAt: images[i].CreatedAt})
	}
	for i := range videos {
		vv := s.VideoView(&videos[i])
		items = append(items, WallItem{ID: vv.ID, Video: vv.Video, Source: vv.Source, CreatedAt: vv.CreatedAt})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (s *CameraService) ImageView(img *models.Image) ImageView {
	view := ImageView{ID: img.ID, Image: s.store.URL(img.Path), CreatedAt: img.CreatedAt}
	if img.ThumbnailPath != "" {
		view.Thumbnail = s.store.URL(img.ThumbnailPath)
	}
	return view
}

// VideoView falls back to the external URL for linked videos.
func (s *CameraService) VideoView(v *models.Video) VideoView {
	view := VideoView{ID: v.ID, URL: v.URL, Source: v.Source, CreatedAt: v.CreatedAt}
	if v.Path != "" {
		view.Video = s.store.URL(v.Path)
	} else {
		view.Video = v.URL
	}
	if v.ThumbnailPath != "" {
		view.Thumbnail = s.store.URL(v.ThumbnailPath)
	}
	return view
}

type pendingObject struct {
	key         string
	data        []byte
	contentType string
}

func (s *CameraService) putAll(ctx context.Context, objects []pendingObject) ([]string, error) {
	written := make([]string, 0, len(objects))
	for _, o := range objects {
		if err := s.store.Put(ctx, o.key, o.data, o.contentType); err != nil {
			s.cleanup(ctx, written)
			return nil, err
		}
		written = append(written, o.key)
	}
	return written, nil
}

func (s *CameraService) cleanup(ctx context.Context, keys []string) {
	for _, k := range keys {
		_ = s.store.Delete(ctx, k)
	}
}

func (s *CameraService) recordUpload(kind string, err error) {
	result := "ok"
	var appErr *models.AppError
	switch {
	case err == nil:
	case errors.As(err, &appErr) && appErr.Code == models.CodeValidation:
		result = "rejected"
	default:
		result = "error"
	}
	observability.MediaUploads.WithLabelValues(kind, s.store.Name(), result).Inc()
}
