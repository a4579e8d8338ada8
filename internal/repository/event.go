package repository

import (
	"context"

	"modulehub/internal/models"
	"modulehub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventRepository persists corporate-event content and attendance.
type EventRepository interface {
	ListSessions(ctx context.Context, date string) ([]models.Session, error)
	GetSession(ctx context.Context, id uint) (*models.Session, error)
	CreateSession(ctx context.Context, s *models.Session) error
	AddSessionAttachment(ctx context.Context, a *models.SessionAttachment) error

	ListActivities(ctx context.Context, date string) ([]models.Activity, error)
	GetActivity(ctx context.Context, id uint) (*models.Activity, error)
	CreateActivity(ctx context.Context, a *models.Activity) error
	AddActivityAttachment(ctx context.Context, a *models.ActivityAttachment) error

	// Join and leave operations are idempotent.
	JoinSession(ctx context.Context, userID, sessionID uint) error
	LeaveSession(ctx context.Context, userID, sessionID uint) error
	JoinActivity(ctx context.Context, userID, activityID uint) error
	LeaveActivity(ctx context.Context, userID, activityID uint) error
	JoinedSessions(ctx context.Context, userID uint, date string) ([]models.Session, error)
	JoinedActivities(ctx context.Context, userID uint, date string) ([]models.Activity, error)

	ListConnectProfiles(ctx context.Context, excludeUserID uint) ([]models.ConnectProfile, error)
	GetConnectProfile(ctx context.Context, id uint) (*models.ConnectProfile, error)
	GetConnectProfileByUser(ctx context.Context, userID uint) (*models.ConnectProfile, error)
	SaveConnectProfile(ctx context.Context, p *models.ConnectProfile) error

	CreateConnectRequest(ctx context.Context, req *models.UserConnectRequest) error
	GetConnectRequest(ctx context.Context, id uint) (*models.UserConnectRequest, error)
	ListConnectRequests(ctx context.Context, userID uint) ([]models.UserConnectRequest, error)
	UpdateConnectRequestStatus(ctx context.Context, id uint, status models.RequestStatus) error

	ListTeam(ctx context.Context, group string) ([]models.TeamMember, error)
	CreateTeamMember(ctx context.Context, m *models.TeamMember) error

	ListOfferings(ctx context.Context) ([]models.Offering, error)
	GetOffering(ctx context.Context, id uint) (*models.Offering, error)
	CreateOffering(ctx context.Context, o *models.Offering) error
}

type eventRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewEventRepository returns a new EventRepository implementation.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db, log: observability.NewRepoLogger("sessions")}
}

func onDate(date string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if date == "" {
			return db
		}
		return db.Where("date = ?", date)
	}
}

func (r *eventRepository) ListSessions(ctx context.Context, date string) ([]models.Session, error) {
	defer observability.TrackQuery("list", "sessions")()
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Scopes(onDate(date)).
		Preload("Attachments").
		Order("sort ASC, date ASC, start_time ASC, id ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *eventRepository) GetSession(ctx context.Context, id uint) (*models.Session, error) {
	var s models.Session
	if err := r.db.WithContext(ctx).Preload("Attachments").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *eventRepository) CreateSession(ctx context.Context, s *models.Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return err
	}
	r.log.LogCreate(ctx, map[string]any{"session_id": s.ID, "date": s.Date})
	return nil
}

func (r *eventRepository) AddSessionAttachment(ctx context.Context, a *models.SessionAttachment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *eventRepository) ListActivities(ctx context.Context, date string) ([]models.Activity, error) {
	defer observability.TrackQuery("list", "activities")()
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Scopes(onDate(date)).
		Preload("Attachments").
		Order("date ASC, start_time ASC, id ASC").
		Find(&activities).Error
	return activities, err
}

func (r *eventRepository) GetActivity(ctx context.Context, id uint) (*models.Activity, error) {
	var a models.Activity
	if err := r.db.WithContext(ctx).Preload("Attachments").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *eventRepository) CreateActivity(ctx context.Context, a *models.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *eventRepository) AddActivityAttachment(ctx context.Context, a *models.ActivityAttachment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *eventRepository) JoinSession(ctx context.Context, userID, sessionID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.UserSession{UserID: userID, SessionID: sessionID}).Error
}

func (r *eventRepository) LeaveSession(ctx context.Context, userID, sessionID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&models.UserSession{}).Error
}

func (r *eventRepository) JoinActivity(ctx context.Context, userID, activityID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.UserActivity{UserID: userID, ActivityID: activityID}).Error
}

func (r *eventRepository) LeaveActivity(ctx context.Context, userID, activityID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		Delete(&models.UserActivity{}).Error
}

func (r *eventRepository) JoinedSessions(ctx context.Context, userID uint, date string) ([]models.Session, error) {
	var sessions []models.Session
	q := r.db.WithContext(ctx).
		Joins("JOIN user_sessions ON user_sessions.session_id = sessions.id").
		Where("user_sessions.user_id = ?", userID)
	if date != "" {
		q = q.Where("sessions.date = ?", date)
	}
	err := q.Preload("Attachments").Order("sessions.start_time ASC").Find(&sessions).Error
	return sessions, err
}

func (r *eventRepository) JoinedActivities(ctx context.Context, userID uint, date string) ([]models.Activity, error) {
	var activities []models.Activity
	q := r.db.WithContext(ctx).
		Joins("JOIN user_activities ON user_activities.activity_id = activities.id").
		Where("user_activities.user_id = ?", userID)
	if date != "" {
		q = q.Where("activities.date = ?", date)
	}
	err := q.Preload("Attachments").Order("activities.start_time ASC").Find(&activities).Error
	return activities, err
}

func (r *eventRepository) ListConnectProfiles(ctx context.Context, excludeUserID uint) ([]models.ConnectProfile, error) {
	var profiles []models.ConnectProfile
	q := r.db.WithContext(ctx).Preload("User")
	if excludeUserID != 0 {
		q = q.Where("user_id <> ?", excludeUserID)
	}
	err := q.Order("id ASC").Find(&profiles).Error
	return profiles, err
}

func (r *eventRepository) GetConnectProfile(ctx context.Context, id uint) (*models.ConnectProfile, error) {
	var p models.ConnectProfile
	if err := r.db.WithContext(ctx).Preload("User").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *eventRepository) GetConnectProfileByUser(ctx context.Context, userID uint) (*models.ConnectProfile, error) {
	var p models.ConnectProfile
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *eventRepository) SaveConnectProfile(ctx context.Context, p *models.ConnectProfile) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *eventRepository) CreateConnectRequest(ctx context.Context, req *models.UserConnectRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *eventRepository) GetConnectRequest(ctx context.Context, id uint) (*models.UserConnectRequest, error) {
	var req models.UserConnectRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *eventRepository) ListConnectRequests(ctx context.Context, userID uint) ([]models.UserConnectRequest, error) {
	var reqs []models.UserConnectRequest
	err := r.db.WithContext(ctx).
		Scopes(Involving("requester_id", "receiver_id", userID)).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *eventRepository) UpdateConnectRequestStatus(ctx context.Context, id uint, status models.RequestStatus) error {
	res := r.db.WithContext(ctx).Model(&models.UserConnectRequest{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListTeam returns members of group, or every member when group is empty.
func (r *eventRepository) ListTeam(ctx context.Context, group string) ([]models.TeamMember, error) {
	var members []models.TeamMember
	q := r.db.WithContext(ctx).Preload("ConnectUser.User")
	if group != "" {
		q = q.Where("select_group = ?", group)
	}
	err := q.Order("id ASC").Find(&members).Error
	return members, err
}

func (r *eventRepository) CreateTeamMember(ctx context.Context, m *models.TeamMember) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

func (r *eventRepository) ListOfferings(ctx context.Context) ([]models.Offering, error) {
	var offerings []models.Offering
	err := r.db.WithContext(ctx).Order("id ASC").Find(&offerings).Error
	return offerings, err
}

func (r *eventRepository) GetOffering(ctx context.Context, id uint) (*models.Offering, error) {
	var o models.Offering
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *eventRepository) CreateOffering(ctx context.Context, o *models.Offering) error {
	return r.db.WithContext(ctx).Create(o).Error
}
