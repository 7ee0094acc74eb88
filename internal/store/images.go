package store

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/notes-bin/imgshare/internal/model"
)

// ImageFilter narrows image lists. Zero values disable a condition.
type ImageFilter struct {
	PublicOnly        bool
	Public            *bool // visibility filter
	OwnerID           *uint
	Anonymous         *bool // true: no owner, false: any owner
	Username          string
	UsernamePrefix    string     // case-insensitive
	CreatedAt         *time.Time // exact creation instant
	CreatedSince      *time.Time // inclusive
	CreatedBefore     *time.Time // exclusive
	DescriptionPrefix string
	DescriptionUnder  *int // description shorter than this many characters
	VotedBy           uint
	Upvote            *bool // only with VotedBy
	FavouritedBy      uint
	Newest            bool
}

// ImageStats holds the per-image relation counts shown in listings.
type ImageStats struct {
	Comments   int64
	Upvotes    int64
	Downvotes  int64
	Favourites int64
	Reports    int64
}

func (s *Store) CreateImage(ctx context.Context, img *model.Image) error {
	if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
		return fmt.Errorf("failed to create image: %w", translate(err))
	}
	return nil
}

func (s *Store) GetImage(ctx context.Context, id uint) (*model.Image, error) {
	var img model.Image
	if err := s.db.WithContext(ctx).First(&img, id).Error; err != nil {
		return nil, translate(err)
	}
	return &img, nil
}

// UpdateImage persists the editable fields of img.
func (s *Store) UpdateImage(ctx context.Context, img *model.Image) error {
	err := s.db.WithContext(ctx).Model(img).Select("title", "description", "public").Updates(img).Error
	if err != nil {
		return fmt.Errorf("failed to update image: %w", translate(err))
	}
	return nil
}

// DeleteImage removes the image together with its comments, votes,
// favourites and reports in one transaction.
func (s *Store) DeleteImage(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dep := range []any{&model.Comment{}, &model.Vote{}, &model.Favourite{}, &model.Report{}} {
			if err := tx.Where("image_id = ?", id).Delete(dep).Error; err != nil {
				return fmt.Errorf("failed to delete dependents of image %d: %w", id, err)
			}
		}
		res := tx.Delete(&model.Image{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete image %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListImages(ctx context.Context, f ImageFilter, page Page) ([]model.Image, int64, error) {
	var (
		images []model.Image
		total  int64
	)
	q := s.imageQuery(ctx, f).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count images: %w", err)
	}

	order := "images.created_at, images.id"
	if f.Newest {
		order = "images.created_at DESC, images.id DESC"
	}
	if err := page.apply(q.Order(order)).Find(&images).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list images: %w", err)
	}
	return images, total, nil
}

func (s *Store) imageQuery(ctx context.Context, f ImageFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Image{})
	if f.PublicOnly {
		q = q.Where("images.public = ?", true)
	}
	if f.Public != nil {
		q = q.Where("images.public = ?", *f.Public)
	}
	if f.OwnerID != nil {
		q = q.Where("images.user_id = ?", *f.OwnerID)
	}
	if f.Anonymous != nil {
		if *f.Anonymous {
			q = q.Where("images.user_id IS NULL")
		} else {
			q = q.Where("images.user_id IS NOT NULL")
		}
	}
	if f.Username != "" {
		q = q.Where("images.user_id IN (SELECT id FROM users WHERE username = ?)", f.Username)
	}
	if f.UsernamePrefix != "" {
		prefix := strings.ToLower(f.UsernamePrefix)
		q = q.Where("images.user_id IN (SELECT id FROM users WHERE LOWER(SUBSTR(username, 1, ?)) = ?)",
			utf8.RuneCountInString(prefix), prefix)
	}
	if f.CreatedAt != nil {
		q = q.Where("images.created_at = ?", *f.CreatedAt)
	}
	if f.CreatedSince != nil {
		q = q.Where("images.created_at >= ?", *f.CreatedSince)
	}
	if f.CreatedBefore != nil {
		q = q.Where("images.created_at < ?", *f.CreatedBefore)
	}
	if f.DescriptionPrefix != "" {
		q = q.Where("SUBSTR(images.description, 1, ?) = ?",
			utf8.RuneCountInString(f.DescriptionPrefix), f.DescriptionPrefix)
	}
	if f.DescriptionUnder != nil {
		q = q.Where("LENGTH(images.description) < ?", *f.DescriptionUnder)
	}
	if f.VotedBy != 0 {
		if f.Upvote != nil {
			q = q.Where("images.id IN (SELECT image_id FROM votes WHERE user_id = ? AND upvote = ?)", f.VotedBy, *f.Upvote)
		} else {
			q = q.Where("images.id IN (SELECT image_id FROM votes WHERE user_id = ?)", f.VotedBy)
		}
	}
	if f.FavouritedBy != 0 {
		q = q.Where("images.id IN (SELECT image_id FROM favourites WHERE user_id = ?)", f.FavouritedBy)
	}
	return q
}

// Stats returns relation counts keyed by image id. Images without relations
// are present with zero counts.
func (s *Store) Stats(ctx context.Context, ids []uint) (map[uint]ImageStats, error) {
	stats := make(map[uint]ImageStats, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}
	for _, id := range ids {
		stats[id] = ImageStats{}
	}

	type countRow struct {
		ImageID uint
		N       int64
	}
	count := func(m any, apply func(st *ImageStats, n int64)) error {
		var rows []countRow
		err := s.db.WithContext(ctx).Model(m).
			Select("image_id, COUNT(*) AS n").
			Where("image_id IN ?", ids).
			Group("image_id").
			Scan(&rows).Error
		if err != nil {
			return err
		}
		for _, r := range rows {
			st := stats[r.ImageID]
			apply(&st, r.N)
			stats[r.ImageID] = st
		}
		return nil
	}

	if err := count(&model.Comment{}, func(st *ImageStats, n int64) { st.Comments = n }); err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	if err := count(&model.Favourite{}, func(st *ImageStats, n int64) { st.Favourites = n }); err != nil {
		return nil, fmt.Errorf("failed to count favourites: %w", err)
	}
	if err := count(&model.Report{}, func(st *ImageStats, n int64) { st.Reports = n }); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	var votes []struct {
		ImageID uint
		Upvote  bool
		N       int64
	}
	err := s.db.WithContext(ctx).Model(&model.Vote{}).
		Select("image_id, upvote, COUNT(*) AS n").
		Where("image_id IN ?", ids).
		Group("image_id, upvote").
		Scan(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	for _, v := range votes {
		st := stats[v.ImageID]
		if v.Upvote {
			st.Upvotes += v.N
		} else {
			st.Downvotes += v.N
		}
		stats[v.ImageID] = st
	}
	return stats, nil
}

// RecentVoterCounts counts distinct voting users per image for votes created
// at or after since. Images without such votes are absent from the map.
func (s *Store) RecentVoterCounts(ctx context.Context, since time.Time) (map[uint]int64, error) {
	var rows []struct {
		ImageID uint
		N       int64
	}
	err := s.db.WithContext(ctx).Model(&model.Vote{}).
		Select("image_id, COUNT(DISTINCT user_id) AS n").
		Where("created_at >= ?", since).
		Group("image_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recent voters: %w", err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.ImageID] = r.N
	}
	return counts, nil
}
