package services

import (
	"context"
	"time"

	"airport_manager/internal/models"
)

// The Redis-backed stores used by the services. *redis.Client implements all
// of them.

type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error
	Invalidate(ctx context.Context, tags ...string) error
}

type NoteStore interface {
	PushNote(ctx context.Context, userID uint, note models.Note) error
	ListNotes(ctx context.Context, userID uint) ([]models.Note, error)
	RemoveNote(ctx context.Context, userID uint, id string) (bool, error)
}

type DraftStore interface {
	SetDraft(ctx context.Context, userID uint, draft *models.OrderDraft, ttl time.Duration) error
	GetDraft(ctx context.Context, userID uint) (*models.OrderDraft, error)
	DeleteDraft(ctx context.Context, userID uint) error
}

type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type ChangePublisher interface {
	PublishChange(ctx context.Context, ev models.ChangeEvent) error
}

type ChangeSubscriber interface {
	SubscribeChanges(ctx context.Context) (<-chan models.ChangeEvent, error)
}

// MessageSender delivers a text message to a phone number.
type MessageSender interface {
	SendTextMessage(ctx context.Context, phone, message string) error
}
