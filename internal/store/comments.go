package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/notes-bin/imgshare/internal/model"
)

func (s *Store) CreateComment(ctx context.Context, c *model.Comment) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", translate(err))
	}
	return nil
}

func (s *Store) GetComment(ctx context.Context, id uint) (*model.Comment, error) {
	var c model.Comment
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// UpdateCommentText changes only the body; authorship and image never move.
func (s *Store) UpdateCommentText(ctx context.Context, c *model.Comment) error {
	err := s.db.WithContext(ctx).Model(c).Update("comment_text", c.CommentText).Error
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", translate(err))
	}
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&model.Comment{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (s *Store) ListComments(ctx context.Context, imageID uint, page Page) ([]model.Comment, int64, error) {
	var (
		comments []model.Comment
		total    int64
	)
	q := s.db.WithContext(ctx).Model(&model.Comment{}).Where("image_id = ?", imageID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	if err := page.apply(q.Order("created_at, id")).Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}
