package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/notes-bin/imgshare/internal/model"
)

func (s *Store) CreateReport(ctx context.Context, r *model.Report) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", translate(err))
	}
	return nil
}

func (s *Store) ListReports(ctx context.Context, imageID uint, page Page) ([]model.Report, int64, error) {
	var (
		reports []model.Report
		total   int64
	)
	q := s.db.WithContext(ctx).Model(&model.Report{}).Where("image_id = ?", imageID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}
	if err := page.apply(q.Order("id")).Find(&reports).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, total, nil
}
