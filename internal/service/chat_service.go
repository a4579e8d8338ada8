package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"modulehub/internal/middleware"
	"modulehub/internal/models"
	"modulehub/internal/observability"
	"modulehub/internal/repository"
)

// ChatPublisher fans a sent message out to listening clients.
type ChatPublisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
	PublishMatch(ctx context.Context, a, b uint, payload string) error
}

// ChatListEntry is the latest message exchanged with one counterpart.
type ChatListEntry struct {
	User        models.UserSummary `json:"user"`
	LastMessage ChatMessageView    `json:"last_message"`
}

// ChatMessageView is a message as seen by one participant.
type ChatMessageView struct {
	ID        uint      `json:"id"`
	Sender    uint      `json:"sender"`
	Receiver  uint      `json:"receiver"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsSender  bool      `json:"is_sender"`
}

// ChatDetails is a conversation with the counterpart's summary.
type ChatDetails struct {
	Messages []ChatMessageView  `json:"messages"`
	User     models.UserSummary `json:"user"`
}

// chatEvent is published for every sent message.
type chatEvent struct {
	Type    string          `json:"type"`
	Payload ChatMessageView `json:"payload"`
}

// ChatService implements one-to-one messaging.
type ChatService struct {
	chats     repository.ChatRepository
	users     repository.UserRepository
	publisher ChatPublisher
}

// NewChatService returns a new ChatService. publisher may be nil.
func NewChatService(chats repository.ChatRepository, users repository.UserRepository, publisher ChatPublisher) *ChatService {
	return &ChatService{chats: chats, users: users, publisher: publisher}
}

func viewOf(m models.ChatMessage, userID uint) ChatMessageView {
	return ChatMessageView{
		ID:        m.ID,
		Sender:    m.SenderID,
		Receiver:  m.ReceiverID,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
		IsSender:  m.SenderID == userID,
	}
}

// ChatList returns one entry per counterpart of userID, newest conversation first.
func (s *ChatService) ChatList(ctx context.Context, userID uint) ([]ChatListEntry, error) {
	latest, err := s.chats.LatestPerCounterpart(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	ids := make([]uint, 0, len(latest))
	for _, m := range latest {
		ids = append(ids, m.Counterpart(userID))
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]ChatListEntry, 0, len(latest))
	for _, m := range latest {
		u, ok := byID[m.Counterpart(userID)]
		if !ok {
			// counterpart was deleted
			continue
		}
		out = append(out, ChatListEntry{User: u.Summary(), LastMessage: viewOf(m, userID)})
	}
	return out, nil
}

// ChatDetails returns the conversation between userID and otherID.
func (s *ChatService) ChatDetails(ctx context.Context, userID, otherID uint) (*ChatDetails, error) {
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, translate(err, "User", otherID)
	}
	msgs, err := s.chats.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	views := make([]ChatMessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, viewOf(m, userID))
	}
	return &ChatDetails{Messages: views, User: other.Summary()}, nil
}

// SendMessage stores a message and notifies both participants.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID uint, text string) (*ChatMessageView, error) {
	fields := map[string]string{}
	if receiverID == 0 {
		fields["receiver"] = "This field is required."
	}
	if strings.TrimSpace(text) == "" {
		fields["message"] = "This field may not be blank."
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, translate(err, "User", receiverID)
	}

	msg := &models.ChatMessage{SenderID: senderID, ReceiverID: receiverID, Message: text}
	if err := s.chats.Create(ctx, msg); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.ChatMessages.WithLabelValues("firebase-basic-chat").Inc()

	view := viewOf(*msg, senderID)
	s.publish(ctx, *msg)
	return &view, nil
}

// publish is best effort: a stored message is never rolled back because fan-out failed.
func (s *ChatService) publish(ctx context.Context, msg models.ChatMessage) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(chatEvent{Type: "chat_message", Payload: viewOf(msg, msg.ReceiverID)})
	if err != nil {
		return
	}
	if err := s.publisher.PublishMatch(ctx, msg.SenderID, msg.ReceiverID, string(payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "match trigger failed", "message_id", msg.ID, "error", err)
	}
	if err := s.publisher.PublishUser(ctx, msg.ReceiverID, string(payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "receiver notification failed", "message_id", msg.ID, "error", err)
	}
}
