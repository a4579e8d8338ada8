package repository

import (
	"context"

	"modulehub/internal/models"
	"modulehub/internal/observability"

	"gorm.io/gorm"
)

// MediaRepository persists camera images and videos.
type MediaRepository interface {
	CreateImage(ctx context.Context, img *models.Image) error
	CreateVideo(ctx context.Context, v *models.Video) error
	ListImagesByUser(ctx context.Context, userID uint) ([]models.Image, error)
	GetImageForUser(ctx context.Context, userID, imageID uint) (*models.Image, error)
	ListVideosByUser(ctx context.Context, userID uint) ([]models.Video, error)
	GetVideoForUser(ctx context.Context, userID, videoID uint) (*models.Video, error)
	// WallImages returns the user's images plus public ones. A nil userID returns public images only.
	WallImages(ctx context.Context, userID *uint) ([]models.Image, error)
	WallVideos(ctx context.Context, userID *uint) ([]models.Video, error)
}

type mediaRepository struct {
	db     *gorm.DB
	images *observability.RepoLogger
	videos *observability.RepoLogger
}

// NewMediaRepository returns a new MediaRepository implementation.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{
		db:     db,
		images: observability.NewRepoLogger("images"),
		videos: observability.NewRepoLogger("videos"),
	}
}

func (r *mediaRepository) CreateImage(ctx context.Context, img *models.Image) error {
	defer observability.TrackQuery("create", "images")()
	if err := r.db.WithContext(ctx).Create(img).Error; err != nil {
		r.images.LogError(ctx, err, "create")
		return err
	}
	r.images.LogCreate(ctx, map[string]any{"image_id": img.ID, "size_bytes": img.SizeBytes})
	return nil
}

func (r *mediaRepository) CreateVideo(ctx context.Context, v *models.Video) error {
	defer observability.TrackQuery("create", "videos")()
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		r.videos.LogError(ctx, err, "create")
		return err
	}
	r.videos.LogCreate(ctx, map[string]any{"video_id": v.ID, "source": string(v.Source)})
	return nil
}

func (r *mediaRepository) ListImagesByUser(ctx context.Context, userID uint) ([]models.Image, error) {
	var images []models.Image
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&images).Error
	return images, err
}

func (r *mediaRepository) GetImageForUser(ctx context.Context, userID, imageID uint) (*models.Image, error) {
	var img models.Image
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", imageID, userID).
		First(&img).Error
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *mediaRepository) ListVideosByUser(ctx context.Context, userID uint) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&videos).Error
	return videos, err
}

func (r *mediaRepository) GetVideoForUser(ctx context.Context, userID, videoID uint) (*models.Video, error) {
	var v models.Video
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", videoID, userID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *mediaRepository) WallImages(ctx context.Context, userID *uint) ([]models.Image, error) {
	defer observability.TrackQuery("wall", "images")()
	var images []models.Image
	err := wallScope(r.db.WithContext(ctx), userID).Order("created_at ASC").Find(&images).Error
	return images, err
}

func (r *mediaRepository) WallVideos(ctx context.Context, userID *uint) ([]models.Video, error) {
	defer observability.TrackQuery("wall", "videos")()
	var videos []models.Video
	err := wallScope(r.db.WithContext(ctx), userID).Order("created_at ASC").Find(&videos).Error
	return videos, err
}

func wallScope(db *gorm.DB, userID *uint) *gorm.DB {
	if userID == nil {
		return db.Where("user_id IS NULL")
	}
	return db.Where("user_id = ? OR user_id IS NULL", *userID)
}
