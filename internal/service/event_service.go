package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"modulehub/internal/cache"
	"modulehub/internal/models"
	"modulehub/internal/repository"
)

// Agenda item kinds.
const (
	AgendaSession  = "session"
	AgendaActivity = "activity"
)

const agendaTimeLayout = "03:04 PM"

// AttachmentView is a file attached to a session or an activity.
type AttachmentView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	File string `json:"file"`
}

// AgendaItem is one joined session or activity on a user's home screen.
type AgendaItem struct {
	ID             uint             `json:"id"`
	Type           string           `json:"type"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Image          string           `json:"image"`
	Date           string           `json:"date"`
	StartTime      string           `json:"start_time"`
	StartTimeStamp string           `json:"start_time_stamp"`
	Attachments    []AttachmentView `json:"attachments"`
}

// ConnectProfileInput updates the caller's connect profile.
type ConnectProfileInput struct {
	Image       string `json:"image" validate:"max=500"`
	Designation string `json:"designation" validate:"max=255"`
	Company     string `json:"company" validate:"max=255"`
	Bio         string `json:"bio"`
}

// EventService implements the corporate-event module.
type EventService struct {
	repo  repository.EventRepository
	users repository.UserRepository
}

// NewEventService returns a new EventService.
func NewEventService(repo repository.EventRepository, users repository.UserRepository) *EventService {
	return &EventService{repo: repo, users: users}
}

// FormatStartTime renders an HH:MM[:SS] time as "03:04 PM". Unparseable values are returned unchanged.
func FormatStartTime(raw string) string {
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(agendaTimeLayout)
		}
	}
	return raw
}

// Sessions lists sessions, optionally for a single date.
func (s *EventService) Sessions(ctx context.Context, date string) ([]models.Session, error) {
	var sessions []models.Session
	err := cache.Aside(ctx, cache.SessionsKey(date), &sessions, cache.SessionsTTL, func() error {
		var ferr error
		sessions, ferr = s.repo.ListSessions(ctx, date)
		return ferr
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, nil
}

func (s *EventService) Session(ctx context.Context, id uint) (*models.Session, error) {
	session, err := s.repo.GetSession(ctx, id)
	return session, translate(err, "Session", id)
}

// CreateSession adds a session and drops every cached session listing.
func (s *EventService) CreateSession(ctx context.Context, session *models.Session) error {
	if strings.TrimSpace(session.Title) == "" {
		return models.NewFieldValidationError(map[string]string{"title": "This field is required."})
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return translate(err, "Session", nil)
	}
	cache.InvalidatePattern(ctx, cache.SessionsKey("*"))
	return nil
}

func (s *EventService) AddSessionAttachment(ctx context.Context, a *models.SessionAttachment) error {
	if _, err := s.Session(ctx, a.SessionID); err != nil {
		return err
	}
	if err := s.repo.AddSessionAttachment(ctx, a); err != nil {
		return translate(err, "Attachment", nil)
	}
	cache.InvalidatePattern(ctx, cache.SessionsKey("*"))
	return nil
}

func (s *EventService) Activities(ctx context.Context, date string) ([]models.Activity, error) {
	activities, err := s.repo.ListActivities(ctx, date)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	return activities, nil
}

func (s *EventService) Activity(ctx context.Context, id uint) (*models.Activity, error) {
	activity, err := s.repo.GetActivity(ctx, id)
	return activity, translate(err, "Activity", id)
}

func (s *EventService) CreateActivity(ctx context.Context, a *models.Activity) error {
	if strings.TrimSpace(a.Title) == "" {
		return models.NewFieldValidationError(map[string]string{"title": "This field is required."})
	}
	return translate(s.repo.CreateActivity(ctx, a), "Activity", nil)
}

func (s *EventService) AddActivityAttachment(ctx context.Context, a *models.ActivityAttachment) error {
	if _, err := s.Activity(ctx, a.ActivityID); err != nil {
		return err
	}
	return translate(s.repo.AddActivityAttachment(ctx, a), "Attachment", nil)
}

// JoinSession adds the session to the user's agenda. Joining twice is a no-op.
func (s *EventService) JoinSession(ctx context.Context, userID, sessionID uint) error {
	if _, err := s.Session(ctx, sessionID); err != nil {
		return err
	}
	return translate(s.repo.JoinSession(ctx, userID, sessionID), "Session", sessionID)
}

func (s *EventService) LeaveSession(ctx context.Context, userID, sessionID uint) error {
	return translate(s.repo.LeaveSession(ctx, userID, sessionID), "Session", sessionID)
}

// JoinActivity adds the activity to the user's agenda. Joining twice is a no-op.
func (s *EventService) JoinActivity(ctx context.Context, userID, activityID uint) error {
	if _, err := s.Activity(ctx, activityID); err != nil {
		return err
	}
	return translate(s.repo.JoinActivity(ctx, userID, activityID), "Activity", activityID)
}

func (s *EventService) LeaveActivity(ctx context.Context, userID, activityID uint) error {
	return translate(s.repo.LeaveActivity(ctx, userID, activityID), "Activity", activityID)
}

// Home returns the user's joined sessions and activities ordered by start time.
func (s *EventService) Home(ctx context.Context, userID uint, date string) ([]AgendaItem, error) {
	sessions, err := s.repo.JoinedSessions(ctx, userID, date)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	activities, err := s.repo.JoinedActivities(ctx, userID, date)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	items := make([]AgendaItem, 0, len(sessions)+len(activities))
	for _, ss := range sessions {
		attachments := make([]AttachmentView, 0, len(ss.Attachments))
		for _, a := range ss.Attachments {
			attachments = append(attachments, AttachmentView{ID: a.ID, Name: a.Name, File: a.File})
		}
		items = append(items, AgendaItem{
			ID:             ss.ID,
			Type:           AgendaSession,
			Title:          ss.Title,
			Description:    ss.Description,
			Image:          ss.Image,
			Date:           ss.Date,
			StartTime:      FormatStartTime(ss.StartTime),
			StartTimeStamp: ss.StartTime,
			Attachments:    attachments,
		})
	}
	for _, a := range activities {
		attachments := make([]AttachmentView, 0, len(a.Attachments))
		for _, att := range a.Attachments {
			attachments = append(attachments, AttachmentView{ID: att.ID, Name: att.Name, File: att.File})
		}
		items = append(items, AgendaItem{
			ID:             a.ID,
			Type:           AgendaActivity,
			Title:          a.Title,
			Description:    a.Description,
			Image:          a.Image,
			Date:           a.Date,
			StartTime:      FormatStartTime(a.StartTime),
			StartTimeStamp: a.StartTime,
			Attachments:    attachments,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartTimeStamp < items[j].StartTimeStamp
	})
	return items, nil
}

// ConnectProfiles lists every profile except the caller's.
func (s *EventService) ConnectProfiles(ctx context.Context, userID uint) ([]models.ConnectProfile, error) {
	profiles, err := s.repo.ListConnectProfiles(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if profiles == nil {
		profiles = []models.ConnectProfile{}
	}
	return profiles, nil
}

func (s *EventService) ConnectProfile(ctx context.Context, id uint) (*models.ConnectProfile, error) {
	p, err := s.repo.GetConnectProfile(ctx, id)
	return p, translate(err, "Connect profile", id)
}

// SaveMyProfile creates or replaces the caller's connect profile.
func (s *EventService) SaveMyProfile(ctx context.Context, userID uint, in ConnectProfileInput) (*models.ConnectProfile, error) {
	p, err := s.repo.GetConnectProfileByUser(ctx, userID)
	if err != nil {
		if !isNotFound(err) {
			return nil, models.NewInternalError(err)
		}
		p = &models.ConnectProfile{UserID: userID}
	}
	p.Image = in.Image
	p.Designation = in.Designation
	p.Company = in.Company
	p.Bio = in.Bio
	if err := s.repo.SaveConnectProfile(ctx, p); err != nil {
		return nil, translate(err, "Connect profile", nil)
	}
	saved, err := s.repo.GetConnectProfileByUser(ctx, userID)
	return saved, translate(err, "Connect profile", p.ID)
}

// ConnectRequests lists requests sent or received by userID.
func (s *EventService) ConnectRequests(ctx context.Context, userID uint) ([]models.UserConnectRequest, error) {
	reqs, err := s.repo.ListConnectRequests(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if reqs == nil {
		reqs = []models.UserConnectRequest{}
	}
	return reqs, nil
}

// RequestConnect asks receiverID to connect with requesterID.
func (s *EventService) RequestConnect(ctx context.Context, requesterID, receiverID uint) (*models.UserConnectRequest, error) {
	if receiverID == 0 {
		return nil, models.NewFieldValidationError(map[string]string{"receiver": "This field is required."})
	}
	if requesterID == receiverID {
		return nil, models.NewValidationError("You cannot connect with yourself")
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, translate(err, "User", receiverID)
	}
	req := &models.UserConnectRequest{
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      models.RequestStatusPending,
	}
	if err := s.repo.CreateConnectRequest(ctx, req); err != nil {
		return nil, translate(err, "Connect request", nil)
	}
	return req, nil
}

// AnswerConnect accepts or rejects a pending request addressed to userID.
func (s *EventService) AnswerConnect(ctx context.Context, userID, id uint, accept bool) (*models.UserConnectRequest, error) {
	req, err := s.repo.GetConnectRequest(ctx, id)
	if err != nil {
		return nil, translate(err, "Connect request", id)
	}
	if req.ReceiverID != userID {
		return nil, models.NewForbiddenError("Only the receiver can answer a connect request")
	}
	if req.Status != models.RequestStatusPending {
		return nil, models.NewValidationError("Connect request was already answered")
	}
	status := models.RequestStatusRejected
	if accept {
		status = models.RequestStatusAccepted
	}
	if err := s.repo.UpdateConnectRequestStatus(ctx, id, status); err != nil {
		return nil, translate(err, "Connect request", id)
	}
	req.Status = status
	return req, nil
}

func validTeamGroup(group string) bool {
	return group == models.TeamSelectTeam || group == models.TeamSelectBoard
}

// Team lists team or board members ordered by the member's last name.
func (s *EventService) Team(ctx context.Context, group string) ([]models.TeamMember, error) {
	if group != "" && !validTeamGroup(group) {
		return nil, models.NewFieldValidationError(map[string]string{"select": `"` + group + `" is not a valid choice.`})
	}
	members, err := s.repo.ListTeam(ctx, group)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	sort.SliceStable(members, func(i, j int) bool {
		return strings.ToLower(members[i].ConnectUser.User.LastName()) < strings.ToLower(members[j].ConnectUser.User.LastName())
	})
	if members == nil {
		members = []models.TeamMember{}
	}
	return members, nil
}

func (s *EventService) AddTeamMember(ctx context.Context, m *models.TeamMember) error {
	if !validTeamGroup(m.Select) {
		return models.NewFieldValidationError(map[string]string{"select": `"` + m.Select + `" is not a valid choice.`})
	}
	if _, err := s.ConnectProfile(ctx, m.ConnectProfileID); err != nil {
		return err
	}
	return translate(s.repo.CreateTeamMember(ctx, m), "Team member", nil)
}

func (s *EventService) Offerings(ctx context.Context) ([]models.Offering, error) {
	offerings, err := s.repo.ListOfferings(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if offerings == nil {
		offerings = []models.Offering{}
	}
	return offerings, nil
}

func (s *EventService) Offering(ctx context.Context, id uint) (*models.Offering, error) {
	o, err := s.repo.GetOffering(ctx, id)
	return o, translate(err, "Offering", id)
}

func (s *EventService) CreateOffering(ctx context.Context, o *models.Offering) error {
	if strings.TrimSpace(o.Title) == "" {
		return models.NewFieldValidationError(map[string]string{"title": "This field is required."})
	}
	return translate(s.repo.CreateOffering(ctx, o), "Offering", nil)
}
