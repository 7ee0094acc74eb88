package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/notes-bin/imgshare/internal/model"
)

// GetVote returns nil, nil when the user has not voted on the image.
func (s *Store) GetVote(ctx context.Context, imageID, userID uint) (*model.Vote, error) {
	var v model.Vote
	err := s.db.WithContext(ctx).Where("image_id = ? AND user_id = ?", imageID, userID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &v, nil
}

// CreateVote fails with ErrDuplicate when a concurrent request created the
// same (image, user) vote first.
func (s *Store) CreateVote(ctx context.Context, v *model.Vote) error {
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("failed to create vote: %w", translate(err))
	}
	return nil
}

func (s *Store) SetUpvote(ctx context.Context, v *model.Vote, upvote bool) error {
	if err := s.db.WithContext(ctx).Model(v).Update("upvote", upvote).Error; err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	return nil
}

func (s *Store) DeleteVote(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&model.Vote{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

func (s *Store) ListVotes(ctx context.Context, imageID uint) ([]model.Vote, error) {
	var votes []model.Vote
	if err := s.db.WithContext(ctx).Where("image_id = ?", imageID).Order("id").Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

func (s *Store) CountVotes(ctx context.Context, imageID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Vote{}).Where("image_id = ?", imageID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}

// GetFavourite returns nil, nil when the image is not among the user's favourites.
func (s *Store) GetFavourite(ctx context.Context, imageID, userID uint) (*model.Favourite, error) {
	var f model.Favourite
	err := s.db.WithContext(ctx).Where("image_id = ? AND user_id = ?", imageID, userID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get favourite: %w", err)
	}
	return &f, nil
}

func (s *Store) CreateFavourite(ctx context.Context, f *model.Favourite) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("failed to create favourite: %w", translate(err))
	}
	return nil
}

func (s *Store) DeleteFavourite(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&model.Favourite{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete favourite: %w", err)
	}
	return nil
}

func (s *Store) ListFavourites(ctx context.Context, imageID uint) ([]model.Favourite, error) {
	var favs []model.Favourite
	if err := s.db.WithContext(ctx).Where("image_id = ?", imageID).Order("id").Find(&favs).Error; err != nil {
		return nil, fmt.Errorf("failed to list favourites: %w", err)
	}
	return favs, nil
}

func (s *Store) CountFavourites(ctx context.Context, imageID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Favourite{}).Where("image_id = ?", imageID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count favourites: %w", err)
	}
	return n, nil
}
