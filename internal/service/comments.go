package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/model"
	"github.com/notes-bin/imgshare/internal/store"
)

type CommentInput struct {
	CommentText string `json:"comment_text" validate:"required"`
}

func (in *CommentInput) normalize() error {
	in.CommentText = strings.TrimSpace(in.CommentText)
	return validate(in)
}

func (s *Service) ListComments(ctx context.Context, actor authz.Actor, imageID uint, page store.Page) (Page[model.Comment], error) {
	img, err := s.loadImage(ctx, imageID)
	if err != nil {
		return Page[model.Comment]{}, err
	}
	if err := check(authz.Comments(actor, img, http.MethodGet)); err != nil {
		return Page[model.Comment]{}, err
	}
	comments, total, err := s.store.ListComments(ctx, img.ID, page)
	if err != nil {
		return Page[model.Comment]{}, err
	}
	return newPage(page, total, comments), nil
}

// CreateComment attaches a comment by the actor. Author, image and
// timestamp are always set here.
func (s *Service) CreateComment(ctx context.Context, actor authz.Actor, imageID uint, in CommentInput) (*model.Comment, error) {
	img, err := s.loadImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if err := check(authz.Comments(actor, img, http.MethodPost)); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c := &model.Comment{
		ImageID:     img.ID,
		UserID:      actor.UserID,
		CommentText: in.CommentText,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// commentTarget loads a comment with its image and checks the edit rule.
func (s *Service) commentTarget(ctx context.Context, actor authz.Actor, id uint) (*model.Comment, error) {
	c, err := s.loadComment(ctx, id)
	if err != nil {
		return nil, err
	}
	img, err := s.store.GetImage(ctx, c.ImageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := check(authz.Comment(actor, c, img)); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateComment(ctx context.Context, actor authz.Actor, id uint, in CommentInput) (*model.Comment, error) {
	c, err := s.commentTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c.CommentText = in.CommentText
	if err := s.store.UpdateCommentText(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, actor authz.Actor, id uint) error {
	c, err := s.commentTarget(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.store.DeleteComment(ctx, c.ID)
}
