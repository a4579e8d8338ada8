package database

import (
	"testing"

	"modulehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPersistentModels_IncludesEveryModule(t *testing.T) {
	want := map[string]bool{
		"*models.StripeUserProfile":  false,
		"*models.Image":              false,
		"*models.Post":               false,
		"*models.ChatMessage":        false,
		"*models.UserConnectRequest": false,
	}
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.StripeUserProfile:
			want["*models.StripeUserProfile"] = true
		case *models.Image:
			want["*models.Image"] = true
		case *models.Post:
			want["*models.Post"] = true
		case *models.ChatMessage:
			want["*models.ChatMessage"] = true
		case *models.UserConnectRequest:
			want["*models.UserConnectRequest"] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "PersistentModels should include %s", name)
	}
}

func TestPersistentModels_AutoMigrateOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(PersistentModels()...))

	assert.True(t, db.Migrator().HasTable(&models.UserSubscriptionHistory{}))
	assert.True(t, db.Migrator().HasTable("follow_requests"))
	assert.True(t, db.Migrator().HasTable("activities"))
}
