package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/model"
	"github.com/notes-bin/imgshare/internal/store"
)

type ReportInput struct {
	Comment string `json:"comment"`
}

func (s *Service) ListReports(ctx context.Context, actor authz.Actor, imageID uint, page store.Page) (Page[model.Report], error) {
	img, err := s.loadImage(ctx, imageID)
	if err != nil {
		return Page[model.Report]{}, err
	}
	if err := check(authz.Reports(actor, img, http.MethodGet)); err != nil {
		return Page[model.Report]{}, err
	}
	reports, total, err := s.store.ListReports(ctx, img.ID, page)
	if err != nil {
		return Page[model.Report]{}, err
	}
	return newPage(page, total, reports), nil
}

// CreateReport files a report against an image. Anonymous reporters are
// recorded without a user.
func (s *Service) CreateReport(ctx context.Context, actor authz.Actor, imageID uint, in ReportInput) (*model.Report, error) {
	img, err := s.loadImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if err := check(authz.Reports(actor, img, http.MethodPost)); err != nil {
		return nil, err
	}
	r := &model.Report{
		ImageID:   img.ID,
		Comment:   in.Comment,
		CreatedAt: s.now(),
	}
	if actor.Authenticated() {
		id := actor.UserID
		r.UserID = &id
	}
	if err := s.store.CreateReport(ctx, r); err != nil {
		return nil, err
	}
	slog.Info("Image reported", "image_id", img.ID, "report_id", r.ID)
	return r, nil
}
