package database

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// Migration is a versioned schema step. Steps are code so they can reuse the
// GORM models and run unchanged against PostgreSQL and SQLite.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
	Down    func(tx *gorm.DB) error
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "module_tables",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(PersistentModels()...)
		},
		Down: func(tx *gorm.DB) error {
			all := PersistentModels()
			for i := len(all) - 1; i >= 0; i-- {
				if err := tx.Migrator().DropTable(all[i]); err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		Version: 2,
		Name:    "subscription_lookup_indexes",
		Up: func(tx *gorm.DB) error {
			return execAll(tx,
				"CREATE INDEX IF NOT EXISTS idx_user_subscriptions_subscription_id ON user_subscriptions (subscription_id)",
				"CREATE INDEX IF NOT EXISTS idx_stripe_webhook_logs_type ON stripe_webhook_logs (type)",
			)
		},
		Down: func(tx *gorm.DB) error {
			return execAll(tx,
				"DROP INDEX IF EXISTS idx_user_subscriptions_subscription_id",
				"DROP INDEX IF EXISTS idx_stripe_webhook_logs_type",
			)
		},
	},
}

func init() {
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
}

func execAll(tx *gorm.DB, statements ...string) error {
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetMigrations returns the registered migrations in version order.
func GetMigrations() []Migration {
	return migrations
}

// GetMigrationByVersion returns the migration with the given version, or nil.
func GetMigrationByVersion(version int) *Migration {
	for i := range migrations {
		if migrations[i].Version == version {
			return &migrations[i]
		}
	}
	return nil
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}
