package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"airport_manager/internal/models"

	"github.com/google/uuid"
)

// NoteService keeps a user's quick notes, newest first. Notes are not
// part of the order data and never reach the database.
type NoteService interface {
	ListNotes(ctx context.Context, sess Session) ([]models.Note, error)
	AddNote(ctx context.Context, sess Session, text string) (*models.Note, error)
	DeleteNote(ctx context.Context, sess Session, id string) error
}

type noteService struct {
	store NoteStore
	now   func() time.Time
}

func NewNoteService(store NoteStore) NoteService {
	return &noteService{store: store, now: time.Now}
}

func (s *noteService) ListNotes(ctx context.Context, sess Session) ([]models.Note, error) {
	notes, err := s.store.ListNotes(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes, nil
}

func (s *noteService) AddNote(ctx context.Context, sess Session, text string) (*models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyNote
	}
	note := models.Note{ID: uuid.NewString(), Text: text, CreatedAt: s.now().UTC()}
	if err := s.store.PushNote(ctx, sess.UserID, note); err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	return &note, nil
}

func (s *noteService) DeleteNote(ctx context.Context, sess Session, id string) error {
	ok, err := s.store.RemoveNote(ctx, sess.UserID, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
