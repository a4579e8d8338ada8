package repository

import (
	"context"

	"modulehub/internal/models"
	"modulehub/internal/observability"

	"gorm.io/gorm"
)

// ChatRepository persists one-to-one chat messages.
type ChatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	// LatestPerCounterpart returns the newest message exchanged with each counterpart, newest first.
	LatestPerCounterpart(ctx context.Context, userID uint) ([]models.ChatMessage, error)
	Conversation(ctx context.Context, userID, otherID uint) ([]models.ChatMessage, error)
}

type chatRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewChatRepository returns a new ChatRepository implementation.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db, log: observability.NewRepoLogger("chat_messages")}
}

func (r *chatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	defer observability.TrackQuery("create", "chat_messages")()
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]any{
		"message_id":  msg.ID,
		"receiver_id": msg.ReceiverID,
	})
	return nil
}

func (r *chatRepository) LatestPerCounterpart(ctx context.Context, userID uint) ([]models.ChatMessage, error) {
	defer observability.TrackQuery("latest", "chat_messages")()
	var msgs []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{})
	latest := make([]models.ChatMessage, 0)
	for _, m := range msgs {
		other := m.Counterpart(userID)
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		latest = append(latest, m)
	}
	return latest, nil
}

func (r *chatRepository) Conversation(ctx context.Context, userID, otherID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}
