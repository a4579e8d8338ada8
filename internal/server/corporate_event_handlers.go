package server

import (
	"context"
	"time"

	"modulehub/internal/middleware"
	"modulehub/internal/models"
	"modulehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime     string `json:"start_time" validate:"omitempty,max=8"`
	SessionNumber int    `json:"session_number"`
	Image         string `json:"image" validate:"max=500"`
	Sort          int    `json:"sort"`
	Description   string `json:"description"`
}

type activityRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"omitempty,max=8"`
	Location    string `json:"location" validate:"max=255"`
	Image       string `json:"image" validate:"max=500"`
	Description string `json:"description"`
}

type attachmentRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	File string `json:"file" validate:"required,max=500"`
}

type teamMemberRequest struct {
	Select           string `json:"select" validate:"required,oneof=team board"`
	ConnectProfileID uint   `json:"connect_user" validate:"required"`
}

type offeringRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Image       string `json:"image" validate:"max=500"`
}

type connectRequestBody struct {
	Receiver uint `json:"receiver" validate:"required"`
}

func (s *Server) corporateEventRoutes(r fiber.Router) {
	r.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	r.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	protected := r.Group("", s.AuthRequired())
	protected.Post("/logout", s.Logout)
	protected.Get("/user", s.GetCurrentUser)
	protected.Get("/home", s.GetHome)

	protected.Get("/sessions", s.GetSessions)
	protected.Post("/sessions/:id/join", s.JoinSession)
	protected.Delete("/sessions/:id/join", s.LeaveSession)
	protected.Get("/sessions/:id", s.GetSession)

	protected.Get("/activities", s.GetActivities)
	protected.Post("/activities/:id/join", s.JoinActivity)
	protected.Delete("/activities/:id/join", s.LeaveActivity)
	protected.Get("/activities/:id", s.GetActivity)

	// Specific /me route before generic /:id
	protected.Put("/connect_profiles/me", s.UpdateMyConnectProfile)
	protected.Get("/connect_profiles", s.GetConnectProfiles)
	protected.Get("/connect_profiles/:id", s.GetConnectProfile)

	protected.Get("/connect_requests", s.GetConnectRequests)
	protected.Post("/connect_requests", s.CreateConnectRequest)
	protected.Post("/connect_requests/:id/accept", s.AcceptConnectRequest)
	protected.Post("/connect_requests/:id/reject", s.RejectConnectRequest)

	protected.Get("/team", s.GetTeam)
	protected.Get("/offerings", s.GetOfferings)
	protected.Get("/offerings/:id", s.GetOffering)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Post("/sessions", s.CreateSession)
	admin.Post("/sessions/:id/attachments", s.CreateSessionAttachment)
	admin.Post("/activities", s.CreateActivity)
	admin.Post("/activities/:id/attachments", s.CreateActivityAttachment)
	admin.Post("/team", s.CreateTeamMember)
	admin.Post("/offerings", s.CreateOffering)
}

// Signup handles POST /modules/corporate-event/signup
// @Summary Register an attendee
// @Tags corporate-event
// @Accept json
// @Produce json
// @Param request body signupRequest true "Signup request"
// @Success 201 {object} models.UserSummary
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/corporate-event/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	user, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user.Summary())
}

// Login handles POST /modules/corporate-event/login
// @Summary Obtain an access token
// @Tags corporate-event
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login credentials"
// @Success 200 {object} object{token=string,expires_at=string,user=models.UserSummary}
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/corporate-event/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return nil
	}

	res, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User.Summary(),
	})
}

// Logout handles POST /modules/corporate-event/logout
// @Summary Revoke the current token
// @Tags corporate-event
// @Security BearerAuth
// @Success 204
// @Router /modules/corporate-event/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("claims").(middleware.TokenClaims)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCurrentUser handles GET /modules/corporate-event/user
// @Summary Current attendee
// @Tags corporate-event
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.UserSummary
// @Router /modules/corporate-event/user [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	user, err := s.authService.CurrentUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user.Summary())
}

// GetHome handles GET /modules/corporate-event/home
// @Summary Personal agenda of joined sessions and activities
// @Tags corporate-event
// @Security BearerAuth
// @Produce json
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {array} service.AgendaItem
// @Router /modules/corporate-event/home [get]
func (s *Server) GetHome(c *fiber.Ctx) error {
	items, err := s.eventService.Home(c.UserContext(), currentUserID(c), c.Query("date"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(items)
}

// GetSessions handles GET /modules/corporate-event/sessions
// @Summary List sessions
// @Tags corporate-event
// @Security BearerAuth
// @Produce json
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {array} models.Session
// @Router /modules/corporate-event/sessions [get]
func (s *Server) GetSessions(c *fiber.Ctx) error {
	sessions, err := s.eventService.Sessions(c.UserContext(), c.Query("date"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(sessions)
}

// GetSession handles GET /modules/corporate-event/sessions/:id
func (s *Server) GetSession(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	session, err := s.eventService.Session(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(session)
}

// JoinSession handles POST /modules/corporate-event/sessions/:id/join
func (s *Server) JoinSession(c *fiber.Ctx) error {
	return s.attendance(c, s.eventService.JoinSession)
}

// LeaveSession handles DELETE /modules/corporate-event/sessions/:id/join
func (s *Server) LeaveSession(c *fiber.Ctx) error {
	return s.attendance(c, s.eventService.LeaveSession)
}

// GetActivities handles GET /modules/corporate-event/activities
func (s *Server) GetActivities(c *fiber.Ctx) error {
	activities, err := s.eventService.Activities(c.UserContext(), c.Query("date"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(activities)
}

// GetActivity handles GET /modules/corporate-event/activities/:id
func (s *Server) GetActivity(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	activity, err := s.eventService.Activity(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(activity)
}

// JoinActivity handles POST /modules/corporate-event/activities/:id/join
func (s *Server) JoinActivity(c *fiber.Ctx) error {
	return s.attendance(c, s.eventService.JoinActivity)
}

// LeaveActivity handles DELETE /modules/corporate-event/activities/:id/join
func (s *Server) LeaveActivity(c *fiber.Ctx) error {
	return s.attendance(c, s.eventService.LeaveActivity)
}

func (s *Server) attendance(c *fiber.Ctx, apply func(ctx context.Context, userID, id uint) error) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	if err := apply(c.UserContext(), currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetConnectProfiles handles GET /modules/corporate-event/connect_profiles
// @Summary Other attendees' connect profiles
// @Tags corporate-event
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.ConnectProfile
// @Router /modules/corporate-event/connect_profiles [get]
func (s *Server) GetConnectProfiles(c *fiber.Ctx) error {
	profiles, err := s.eventService.ConnectProfiles(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profiles)
}

// GetConnectProfile handles GET /modules/corporate-event/connect_profiles/:id
func (s *Server) GetConnectProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	profile, err := s.eventService.ConnectProfile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyConnectProfile handles PUT /modules/corporate-event/connect_profiles/me
func (s *Server) UpdateMyConnectProfile(c *fiber.Ctx) error {
	var req service.ConnectProfileInput
	if err := bind(c, &req); err != nil {
		return nil
	}
	profile, err := s.eventService.SaveMyProfile(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// GetConnectRequests handles GET /modules/corporate-event/connect_requests
func (s *Server) GetConnectRequests(c *fiber.Ctx) error {
	requests, err := s.eventService.ConnectRequests(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(requests)
}

// CreateConnectRequest handles POST /modules/corporate-event/connect_requests
// @Summary Ask another attendee to connect
// @Tags corporate-event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body connectRequestBody true "Receiver"
// @Success 201 {object} models.UserConnectRequest
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/corporate-event/connect_requests [post]
func (s *Server) CreateConnectRequest(c *fiber.Ctx) error {
	var req connectRequestBody
	if err := bind(c, &req); err != nil {
		return nil
	}
	created, err := s.eventService.RequestConnect(c.UserContext(), currentUserID(c), req.Receiver)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// AcceptConnectRequest handles POST /modules/corporate-event/connect_requests/:id/accept
func (s *Server) AcceptConnectRequest(c *fiber.Ctx) error {
	return s.answerConnect(c, true)
}

// RejectConnectRequest handles POST /modules/corporate-event/connect_requests/:id/reject
func (s *Server) RejectConnectRequest(c *fiber.Ctx) error {
	return s.answerConnect(c, false)
}

func (s *Server) answerConnect(c *fiber.Ctx, accept bool) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	answered, err := s.eventService.AnswerConnect(c.UserContext(), currentUserID(c), id, accept)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(answered)
}

// GetTeam handles GET /modules/corporate-event/team
// @Summary Team or board members ordered by last name
// @Tags corporate-event
// @Security BearerAuth
// @Produce json
// @Param select query string false "team or board"
// @Success 200 {array} models.TeamMember
// @Failure 400 {object} models.ErrorResponse
// @Router /modules/corporate-event/team [get]
func (s *Server) GetTeam(c *fiber.Ctx) error {
	members, err := s.eventService.Team(c.UserContext(), c.Query("select"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(members)
}

// GetOfferings handles GET /modules/corporate-event/offerings
func (s *Server) GetOfferings(c *fiber.Ctx) error {
	offerings, err := s.eventService.Offerings(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(offerings)
}

// GetOffering handles GET /modules/corporate-event/offerings/:id
func (s *Server) GetOffering(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	offering, err := s.eventService.Offering(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(offering)
}

// CreateSession handles POST /modules/corporate-event/admin/sessions
func (s *Server) CreateSession(c *fiber.Ctx) error {
	var req sessionRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	session := &models.Session{
		Title:         req.Title,
		Date:          req.Date,
		StartTime:     req.StartTime,
		SessionNumber: req.SessionNumber,
		Image:         req.Image,
		Sort:          req.Sort,
		Description:   req.Description,
	}
	if err := s.eventService.CreateSession(c.UserContext(), session); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// CreateSessionAttachment handles POST /modules/corporate-event/admin/sessions/:id/attachments
func (s *Server) CreateSessionAttachment(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	var req attachmentRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	attachment := &models.SessionAttachment{SessionID: id, Name: req.Name, File: req.File}
	if err := s.eventService.AddSessionAttachment(c.UserContext(), attachment); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(attachment)
}

// CreateActivity handles POST /modules/corporate-event/admin/activities
func (s *Server) CreateActivity(c *fiber.Ctx) error {
	var req activityRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	activity := &models.Activity{
		Title:       req.Title,
		Date:        req.Date,
		StartTime:   req.StartTime,
		Location:    req.Location,
		Image:       req.Image,
		Description: req.Description,
	}
	if err := s.eventService.CreateActivity(c.UserContext(), activity); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

// CreateActivityAttachment handles POST /modules/corporate-event/admin/activities/:id/attachments
func (s *Server) CreateActivityAttachment(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	var req attachmentRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	attachment := &models.ActivityAttachment{ActivityID: id, Name: req.Name, File: req.File}
	if err := s.eventService.AddActivityAttachment(c.UserContext(), attachment); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(attachment)
}

// CreateTeamMember handles POST /modules/corporate-event/admin/team
func (s *Server) CreateTeamMember(c *fiber.Ctx) error {
	var req teamMemberRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	member := &models.TeamMember{Select: req.Select, ConnectProfileID: req.ConnectProfileID}
	if err := s.eventService.AddTeamMember(c.UserContext(), member); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// CreateOffering handles POST /modules/corporate-event/admin/offerings
func (s *Server) CreateOffering(c *fiber.Ctx) error {
	var req offeringRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	offering := &models.Offering{Title: req.Title, Description: req.Description, Image: req.Image}
	if err := s.eventService.CreateOffering(c.UserContext(), offering); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(offering)
}
