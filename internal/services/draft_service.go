package services

import (
	"context"
	"fmt"
	"time"

	"airport_manager/internal/models"
)

// DraftService autosaves the single in-progress new-order form of a user.
// OrderService clears the draft after a successful create.
type DraftService interface {
	GetDraft(ctx context.Context, sess Session) (*models.OrderDraft, error)
	SaveDraft(ctx context.Context, sess Session, draft models.OrderDraft) (*models.OrderDraft, error)
	DiscardDraft(ctx context.Context, sess Session) error
}

type draftService struct {
	store DraftStore
	ttl   time.Duration
	now   func() time.Time
}

func NewDraftService(store DraftStore, opts Options) DraftService {
	opts = opts.withDefaults()
	return &draftService{store: store, ttl: opts.DraftTTL, now: opts.Now}
}

// GetDraft returns ErrNotFound when there is no saved draft.
func (s *draftService) GetDraft(ctx context.Context, sess Session) (*models.OrderDraft, error) {
	d, err := s.store.GetDraft(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *draftService) SaveDraft(ctx context.Context, sess Session, draft models.OrderDraft) (*models.OrderDraft, error) {
	draft.SavedAt = s.now().UTC()
	if draft.Items == nil {
		draft.Items = []models.DraftItem{}
	}
	if err := s.store.SetDraft(ctx, sess.UserID, &draft, s.ttl); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return &draft, nil
}

func (s *draftService) DiscardDraft(ctx context.Context, sess Session) error {
	return s.store.DeleteDraft(ctx, sess.UserID)
}
