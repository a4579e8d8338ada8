package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope narrows a list query.
type Scope func(*gorm.DB) *gorm.DB

// Store is plain CRUD over a single table.
type Store[T any] interface {
	List(ctx context.Context, scopes ...Scope) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, row *T) error
	Delete(ctx context.Context, id uint) error
}

type gormStore[T any] struct {
	db    *gorm.DB
	order string
}

// NewStore returns a Store ordering list results by order.
func NewStore[T any](db *gorm.DB, order string) Store[T] {
	return &gormStore[T]{db: db, order: order}
}

func (s *gormStore[T]) List(ctx context.Context, scopes ...Scope) ([]T, error) {
	var rows []T
	q := s.db.WithContext(ctx)
	for _, scope := range scopes {
		q = scope(q)
	}
	if s.order != "" {
		q = q.Order(s.order)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (s *gormStore[T]) Get(ctx context.Context, id uint) (*T, error) {
	var row T
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *gormStore[T]) Create(ctx context.Context, row *T) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error
}

func (s *gormStore[T]) Update(ctx context.Context, row *T) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(row).Error
}

func (s *gormStore[T]) Delete(ctx context.Context, id uint) error {
	var row T
	res := s.db.WithContext(ctx).Delete(&row, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ByUser restricts rows to those owned by userID in column.
func ByUser(column string, userID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: userID})
	}
}

// Involving restricts rows to those where userID appears in either column.
func Involving(a, b string, userID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Or(
			clause.Eq{Column: clause.Column{Name: a}, Value: userID},
			clause.Eq{Column: clause.Column{Name: b}, Value: userID},
		))
	}
}

// WithPage applies limit and offset.
func WithPage(p Page) Scope {
	return p.apply
}
