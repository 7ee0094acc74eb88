// Package service implements the resource controllers. Each operation loads
// the target, asks the authorization engine, then reads or mutates through
// the store. Nothing about an image or user is cached between calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/notes-bin/imgshare/internal/auth"
	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/metrics"
	"github.com/notes-bin/imgshare/internal/model"
	"github.com/notes-bin/imgshare/internal/storage"
	"github.com/notes-bin/imgshare/internal/store"
)

// Views counts image views. The redis client implements it.
type Views interface {
	IncrementView(ctx context.Context, imageID uint) error
	Views(ctx context.Context, imageID uint) (int64, error)
	TopViewed(ctx context.Context, n int64) ([]uint, error)
	ForgetImage(ctx context.Context, imageID uint) error
}

type Service struct {
	store   *store.Store
	files   storage.Storage
	auth    *auth.Auth
	views   Views
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithViews enables view counting.
func WithViews(v Views) Option {
	return func(s *Service) { s.views = v }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now, used for the trending window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st *store.Store, files storage.Storage, a *auth.Auth, opts ...Option) *Service {
	s := &Service{store: st, files: files, auth: a, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Page is one page of a list together with the total count.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

func newPage[T any](p store.Page, total int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{Count: total, Page: p.Number, PageSize: p.Size, Results: results}
}

func (s *Service) loadImage(ctx context.Context, id uint) (*model.Image, error) {
	img, err := s.store.GetImage(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load image %d: %w", id, err)
	}
	return img, nil
}

func (s *Service) loadComment(ctx context.Context, id uint) (*model.Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load comment %d: %w", id, err)
	}
	return c, nil
}

func (s *Service) loadUser(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return u, nil
}

// ImageAction names a write on an image that carries a request body.
type ImageAction int

const (
	ActionUpdateImage ImageAction = iota
	ActionToggle
	ActionComment
	ActionReport
)

// AuthorizeImage resolves the image and applies the rule for action without
// changing anything. It lets callers report a missing or forbidden target
// ahead of a malformed request body.
func (s *Service) AuthorizeImage(ctx context.Context, actor authz.Actor, id uint, action ImageAction) error {
	img, err := s.loadImage(ctx, id)
	if err != nil {
		return err
	}
	switch action {
	case ActionUpdateImage:
		return check(authz.Image(actor, img, http.MethodPut))
	case ActionToggle:
		return check(authz.Toggle(actor, img))
	case ActionComment:
		return check(authz.Comments(actor, img, http.MethodPost))
	case ActionReport:
		return check(authz.Reports(actor, img, http.MethodPost))
	default:
		return fmt.Errorf("unknown image action %d", action)
	}
}

// AuthorizeComment is AuthorizeImage for edits of a single comment.
func (s *Service) AuthorizeComment(ctx context.Context, actor authz.Actor, id uint) error {
	_, err := s.commentTarget(ctx, actor, id)
	return err
}
