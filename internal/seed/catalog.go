package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"modulehub/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the reference data every environment needs: plans, store
// products and the event agenda.
type Catalog struct {
	Plans         []CatalogPlan     `yaml:"plans"`
	AppleProducts []CatalogProduct  `yaml:"apple_products"`
	Offerings     []CatalogOffering `yaml:"offerings"`
	Sessions      []CatalogSession  `yaml:"sessions"`
	Activities    []CatalogActivity `yaml:"activities"`
}

type CatalogPlan struct {
	PriceID     string  `yaml:"price_id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	PlanType    string  `yaml:"plan_type"`
	Interval    string  `yaml:"interval"`
}

type CatalogProduct struct {
	ProductID string `yaml:"product_id"`
	Name      string `yaml:"name"`
}

type CatalogOffering struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

type CatalogAttachment struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

type CatalogSession struct {
	Title         string              `yaml:"title"`
	Date          string              `yaml:"date"`
	StartTime     string              `yaml:"start_time"`
	SessionNumber int                 `yaml:"session_number"`
	Description   string              `yaml:"description"`
	Image         string              `yaml:"image"`
	Attachments   []CatalogAttachment `yaml:"attachments"`
}

type CatalogActivity struct {
	Title       string              `yaml:"title"`
	Date        string              `yaml:"date"`
	StartTime   string              `yaml:"start_time"`
	Location    string              `yaml:"location"`
	Description string              `yaml:"description"`
	Attachments []CatalogAttachment `yaml:"attachments"`
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file from disk.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML catalog. Unknown keys are rejected.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, p := range cat.Plans {
		if p.PriceID == "" {
			return nil, fmt.Errorf("parse catalog: plan %d has no price_id", i)
		}
	}
	for i, p := range cat.AppleProducts {
		if p.ProductID == "" {
			return nil, fmt.Errorf("parse catalog: apple product %d has no product_id", i)
		}
	}
	return &cat, nil
}

// ApplyCatalog upserts the catalog. Running it twice leaves one row per item.
func ApplyCatalog(db *gorm.DB, cat *Catalog) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, p := range cat.Plans {
			plan := models.SubscriptionPlan{
				PriceID:     p.PriceID,
				Name:        p.Name,
				Description: p.Description,
				Price:       p.Price,
				PlanType:    p.PlanType,
				Interval:    p.Interval,
				IsActive:    true,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "price_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "plan_type", "interval", "updated_at"}),
			}).Create(&plan).Error; err != nil {
				return fmt.Errorf("seed plan %s: %w", p.PriceID, err)
			}
		}

		for _, p := range cat.AppleProducts {
			product := models.AppleIAPProduct{ProductID: p.ProductID, Name: p.Name, IsActive: true}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
			}).Create(&product).Error; err != nil {
				return fmt.Errorf("seed apple product %s: %w", p.ProductID, err)
			}
		}

		for _, o := range cat.Offerings {
			offering := models.Offering{Title: o.Title}
			if err := tx.Where(models.Offering{Title: o.Title}).
				Assign(models.Offering{Description: o.Description, Image: o.Image}).
				FirstOrCreate(&offering).Error; err != nil {
				return fmt.Errorf("seed offering %s: %w", o.Title, err)
			}
		}

		for _, s := range cat.Sessions {
			if err := applySession(tx, s); err != nil {
				return fmt.Errorf("seed session %s: %w", s.Title, err)
			}
		}
		for _, a := range cat.Activities {
			if err := applyActivity(tx, a); err != nil {
				return fmt.Errorf("seed activity %s: %w", a.Title, err)
			}
		}
		return nil
	})
}

func applySession(tx *gorm.DB, s CatalogSession) error {
	var session models.Session
	err := tx.Where(models.Session{Title: s.Title, Date: s.Date}).
		Assign(models.Session{StartTime: s.StartTime, SessionNumber: s.SessionNumber, Description: s.Description, Image: s.Image}).
		FirstOrCreate(&session).Error
	if err != nil {
		return err
	}
	for _, a := range s.Attachments {
		att := models.SessionAttachment{SessionID: session.ID, Name: a.Name}
		if err := tx.Where(att).Assign(models.SessionAttachment{File: a.File}).FirstOrCreate(&att).Error; err != nil {
			return err
		}
	}
	return nil
}

func applyActivity(tx *gorm.DB, a CatalogActivity) error {
	var activity models.Activity
	err := tx.Where(models.Activity{Title: a.Title, Date: a.Date}).
		Assign(models.Activity{StartTime: a.StartTime, Location: a.Location, Description: a.Description}).
		FirstOrCreate(&activity).Error
	if err != nil {
		return err
	}
	for _, f := range a.Attachments {
		att := models.ActivityAttachment{ActivityID: activity.ID, Name: f.Name}
		if err := tx.Where(att).Assign(models.ActivityAttachment{File: f.File}).FirstOrCreate(&att).Error; err != nil {
			return err
		}
	}
	return nil
}
