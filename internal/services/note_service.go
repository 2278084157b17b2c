package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
)

// NoteService stores each user's private notes.
type NoteService struct {
	db *gorm.DB
}

type NoteRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func NewNoteService(db *gorm.DB) *NoteService {
	return &NoteService{db: db}
}

func (s *NoteService) List(ctx context.Context, actor permissions.Actor) ([]models.PersonalNote, error) {
	var notes []models.PersonalNote
	if err := s.db.WithContext(ctx).
		Where("shop_id = ? AND user_id = ?", actor.ShopID, actor.UserID).
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return notes, nil
}

func (s *NoteService) Create(ctx context.Context, actor permissions.Actor, req *NoteRequest) (*models.PersonalNote, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrValidation)
	}

	note := &models.PersonalNote{
		ShopID:  actor.ShopID,
		UserID:  actor.UserID,
		Content: content,
	}
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

// Delete removes a note only when it belongs to the caller.
func (s *NoteService) Delete(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND shop_id = ? AND user_id = ?", id, actor.ShopID, actor.UserID).
		Delete(&models.PersonalNote{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
