package service

import (
	"context"
	"testing"

	"modulehub/internal/cache"
	"modulehub/internal/models"
	"modulehub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupEvents(t *testing.T) (*EventService, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	return NewEventService(repository.NewEventRepository(db), repository.NewUserRepository(db)), db
}

func TestFormatStartTime(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"09:05:00", "09:05 AM"},
		{"15:30:00", "03:30 PM"},
		{"00:00:00", "12:00 AM"},
		{"12:15", "12:15 PM"},
		{"soon", "soon"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatStartTime(tt.in))
		})
	}
}

func TestEventService_HomeAgenda(t *testing.T) {
	svc, db := setupEvents(t)
	ctx := context.Background()
	u := seedUser(t, db, "attendee")

	afternoon := &models.Session{Title: "Panel", Date: "2024-06-01", StartTime: "14:00:00"}
	morning := &models.Session{Title: "Keynote", Date: "2024-06-01", StartTime: "09:00:00"}
	otherDay := &models.Session{Title: "Wrap-up", Date: "2024-06-02", StartTime: "08:00:00"}
	for _, s := range []*models.Session{afternoon, morning, otherDay} {
		require.NoError(t, svc.CreateSession(ctx, s))
	}
	lunch := &models.Activity{Title: "Lunch", Date: "2024-06-01", StartTime: "12:30:00"}
	require.NoError(t, svc.CreateActivity(ctx, lunch))
	require.NoError(t, svc.AddActivityAttachment(ctx, &models.ActivityAttachment{ActivityID: lunch.ID, Name: "menu", File: "menu.pdf"}))

	for _, s := range []*models.Session{afternoon, morning, otherDay} {
		require.NoError(t, svc.JoinSession(ctx, u.ID, s.ID))
	}
	require.NoError(t, svc.JoinSession(ctx, u.ID, morning.ID), "joining twice is a no-op")
	require.NoError(t, svc.JoinActivity(ctx, u.ID, lunch.ID))

	items, err := svc.Home(ctx, u.ID, "2024-06-01")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"Keynote", "Lunch", "Panel"}, []string{items[0].Title, items[1].Title, items[2].Title})
	assert.Equal(t, AgendaSession, items[0].Type)
	assert.Equal(t, AgendaActivity, items[1].Type)
	assert.Equal(t, "12:30 PM", items[1].StartTime)
	assert.Equal(t, "12:30:00", items[1].StartTimeStamp)
	require.Len(t, items[1].Attachments, 1)
	assert.Equal(t, "menu", items[1].Attachments[0].Name)
	assert.NotNil(t, items[0].Attachments)

	all, err := svc.Home(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, svc.LeaveSession(ctx, u.ID, afternoon.ID))
	require.NoError(t, svc.LeaveSession(ctx, u.ID, afternoon.ID))
	items, err = svc.Home(ctx, u.ID, "2024-06-01")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	assert.Equal(t, models.CodeNotFound, appCode(t, svc.JoinSession(ctx, u.ID, 999)))
}

func TestEventService_SessionsCacheInvalidatedOnCreate(t *testing.T) {
	svc, _ := setupEvents(t)
	mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateSession(ctx, &models.Session{Title: "One", Date: "2024-06-01", StartTime: "09:00:00"}))
	first, err := svc.Sessions(ctx, "")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists(cache.SessionsKey("")))

	require.NoError(t, svc.CreateSession(ctx, &models.Session{Title: "Two", Date: "2024-06-01", StartTime: "10:00:00"}))
	assert.False(t, mr.Exists(cache.SessionsKey("")))
	second, err := svc.Sessions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, second, 2)

	assert.Equal(t, models.CodeValidation, appCode(t, svc.CreateSession(ctx, &models.Session{Title: " "})))
}

func TestEventService_ConnectRequests(t *testing.T) {
	svc, db := setupEvents(t)
	ctx := context.Background()
	ann := seedUser(t, db, "ann")
	ben := seedUser(t, db, "ben")

	_, err := svc.RequestConnect(ctx, ann.ID, ann.ID)
	assert.Equal(t, models.CodeValidation, appCode(t, err))
	_, err = svc.RequestConnect(ctx, ann.ID, 999)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))

	req, err := svc.RequestConnect(ctx, ann.ID, ben.ID)
	require.NoError(t, err)
	_, err = svc.RequestConnect(ctx, ann.ID, ben.ID)
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	_, err = svc.AnswerConnect(ctx, ann.ID, req.ID, true)
	assert.Equal(t, models.CodeForbidden, appCode(t, err))

	answered, err := svc.AnswerConnect(ctx, ben.ID, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, answered.Status)

	_, err = svc.AnswerConnect(ctx, ben.ID, req.ID, false)
	assert.Equal(t, models.CodeValidation, appCode(t, err))

	list, err := svc.ConnectRequests(ctx, ann.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEventService_ProfilesAndTeam(t *testing.T) {
	svc, db := setupEvents(t)
	ctx := context.Background()
	zed := seedUser(t, db, "zed")
	amy := seedUser(t, db, "amy")
	require.NoError(t, db.Model(zed).Update("name", "Zed Adams").Error)
	require.NoError(t, db.Model(amy).Update("name", "Amy Zimmer").Error)

	zp, err := svc.SaveMyProfile(ctx, zed.ID, ConnectProfileInput{Company: "Acme", Designation: "CTO"})
	require.NoError(t, err)
	assert.Equal(t, "Zed Adams", zp.User.Name)
	zp, err = svc.SaveMyProfile(ctx, zed.ID, ConnectProfileInput{Company: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", zp.Company)
	ap, err := svc.SaveMyProfile(ctx, amy.ID, ConnectProfileInput{Company: "Initech"})
	require.NoError(t, err)

	others, err := svc.ConnectProfiles(ctx, zed.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, amy.ID, others[0].UserID)

	require.NoError(t, svc.AddTeamMember(ctx, &models.TeamMember{Select: models.TeamSelectTeam, ConnectProfileID: ap.ID}))
	require.NoError(t, svc.AddTeamMember(ctx, &models.TeamMember{Select: models.TeamSelectTeam, ConnectProfileID: zp.ID}))
	assert.Equal(t, models.CodeValidation, appCode(t, svc.AddTeamMember(ctx, &models.TeamMember{Select: "crew", ConnectProfileID: zp.ID})))

	team, err := svc.Team(ctx, models.TeamSelectTeam)
	require.NoError(t, err)
	require.Len(t, team, 2)
	assert.Equal(t, "Zed Adams", team[0].ConnectUser.User.Name)
	assert.Equal(t, "Amy Zimmer", team[1].ConnectUser.User.Name)

	board, err := svc.Team(ctx, models.TeamSelectBoard)
	require.NoError(t, err)
	assert.Empty(t, board)

	_, err = svc.Team(ctx, "crew")
	assert.Equal(t, models.CodeValidation, appCode(t, err))
}
