package server

import (
	"io"
	"mime/multipart"

	"modulehub/internal/models"
	"modulehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) cameraRoutes(r fiber.Router) {
	r.Post("/upload_image", s.UploadImage)
	r.Post("/upload_video", s.UploadVideo)
	r.Get("/user_wall", s.GetUserWall)

	protected := r.Group("", s.AuthRequired())
	protected.Get("/photos/user", s.GetMyPhotos)
	protected.Get("/photos/user/:id", s.GetMyPhoto)
	protected.Get("/videos/user", s.GetMyVideos)
	protected.Get("/videos/user/:id", s.GetMyVideo)
}

// readFormFile returns the bytes of an optional multipart file field.
// A missing field, or a body that is not multipart, yields nil content.
func readFormFile(c *fiber.Ctx, field string) ([]byte, *multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, err
	}
	return data, fh, nil
}

// uploader is the authenticated caller of an optionally authenticated upload.
func (s *Server) uploader(c *fiber.Ctx) *uint {
	if userID, ok := s.optionalUserID(c); ok {
		return &userID
	}
	return nil
}

// UploadImage handles POST /modules/camera/upload_image
// @Summary Upload an image
// @Description Stores the original and a webp thumbnail. The owner is recorded when a token is sent.
// @Tags camera
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Success 201 {object} service.ImageView
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/camera/upload_image [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	data, fh, err := readFormFile(c, "image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Failed to read uploaded file"))
	}

	in := service.UploadImageInput{UserID: s.uploader(c), Content: data}
	if fh != nil {
		in.Filename = fh.Filename
		in.ContentType = fh.Header.Get("Content-Type")
	}

	img, err := s.cameraService.UploadImage(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.cameraService.ImageView(img))
}

// UploadVideo handles POST /modules/camera/upload_video
// @Summary Upload a video or link an external one
// @Tags camera
// @Accept multipart/form-data
// @Produce json
// @Param video formData file false "Video file"
// @Param thumbnail formData file false "Thumbnail image"
// @Param url formData string false "External URL"
// @Param source formData string false "local, vimeo or youtube"
// @Success 201 {object} service.VideoView
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/camera/upload_video [post]
func (s *Server) UploadVideo(c *fiber.Ctx) error {
	data, fh, err := readFormFile(c, "video")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Failed to read uploaded file"))
	}
	thumb, _, err := readFormFile(c, "thumbnail")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Failed to read uploaded thumbnail"))
	}

	in := service.UploadVideoInput{
		UserID:    s.uploader(c),
		Content:   data,
		Thumbnail: thumb,
		URL:       c.FormValue("url"),
		Source:    models.VideoSource(c.FormValue("source")),
	}
	if fh != nil {
		in.Filename = fh.Filename
	}

	v, err := s.cameraService.UploadVideo(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.cameraService.VideoView(v))
}

// GetUserWall handles GET /modules/camera/user_wall
// @Summary Caller's media merged with public media, oldest first
// @Tags camera
// @Produce json
// @Success 200 {array} service.WallItem
// @Router /modules/camera/user_wall [get]
func (s *Server) GetUserWall(c *fiber.Ctx) error {
	items, err := s.cameraService.Wall(c.UserContext(), s.uploader(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(items)
}

// GetMyPhotos handles GET /modules/camera/photos/user
// @Summary Caller's images
// @Tags camera
// @Security BearerAuth
// @Produce json
// @Success 200 {array} service.ImageView
// @Router /modules/camera/photos/user [get]
func (s *Server) GetMyPhotos(c *fiber.Ctx) error {
	images, err := s.cameraService.ListImages(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(images)
}

// GetMyPhoto handles GET /modules/camera/photos/user/:id
func (s *Server) GetMyPhoto(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	img, err := s.cameraService.GetImage(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(img)
}

// GetMyVideos handles GET /modules/camera/videos/user
func (s *Server) GetMyVideos(c *fiber.Ctx) error {
	videos, err := s.cameraService.ListVideos(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(videos)
}

// GetMyVideo handles GET /modules/camera/videos/user/:id
func (s *Server) GetMyVideo(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	v, err := s.cameraService.GetVideo(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(v)
}
