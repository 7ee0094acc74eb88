package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/model"
	"github.com/notes-bin/imgshare/internal/storage"
	"github.com/notes-bin/imgshare/internal/store"
	"github.com/notes-bin/imgshare/internal/trending"
)

// ImageSummary is a list entry: the image and its relation counts.
type ImageSummary struct {
	Image model.Image
	Stats store.ImageStats
}

// ImageDetail embeds every relation of the image.
type ImageDetail struct {
	Image      model.Image
	Stats      store.ImageStats
	Comments   []model.Comment
	Votes      []model.Vote
	Favourites []model.Favourite
	Reports    []model.Report
	Views      int64
}

// TrendingImage is an image with the number of distinct users who voted on
// it inside the trending window.
type TrendingImage struct {
	ImageSummary
	RecentVoters int64
}

// ImageQuery holds the optional filters of the public listings.
type ImageQuery struct {
	Anonymous         *bool
	Username          string // "me" selects the actor's own images
	UsernamePrefix    string // case-insensitive
	UserID            *uint
	CreatedAt         *time.Time
	CreatedFrom       *time.Time // day, inclusive
	CreatedUntil      *time.Time // day, inclusive
	DescriptionLength *int       // description shorter than this
	Newest            bool
}

// OwnImageQuery holds the filters of the actor's own image list.
type OwnImageQuery struct {
	Public            *bool
	CreatedAt         *time.Time
	CreatedAfterYear  *int
	DescriptionPrefix string
	Newest            bool
}

// startOfDay truncates t to midnight UTC of its calendar day.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type NewImage struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description" validate:"max=255"`
	Public      *bool     `json:"public"` // defaults to true
	Filename    string    `json:"-"`
	ContentType string    `json:"-"`
	Size        int64     `json:"-"`
	Body        io.Reader `json:"-"`
}

// ImageUpdate changes only the fields that are set.
type ImageUpdate struct {
	Title       *string `json:"title" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Public      *bool   `json:"public"`
}

// filterFor resolves username=me to the actor's own username.
func (s *Service) filterFor(ctx context.Context, actor authz.Actor, q ImageQuery) (store.ImageFilter, error) {
	f := store.ImageFilter{
		OwnerID:          q.UserID,
		Anonymous:        q.Anonymous,
		Username:         q.Username,
		UsernamePrefix:   q.UsernamePrefix,
		CreatedAt:        q.CreatedAt,
		DescriptionUnder: q.DescriptionLength,
		Newest:           q.Newest,
	}
	if q.CreatedFrom != nil {
		since := startOfDay(*q.CreatedFrom)
		f.CreatedSince = &since
	}
	if q.CreatedUntil != nil {
		before := startOfDay(*q.CreatedUntil).AddDate(0, 0, 1)
		f.CreatedBefore = &before
	}
	if strings.EqualFold(q.Username, "me") && actor.Authenticated() {
		u, err := s.loadUser(ctx, actor.UserID)
		if err != nil {
			return f, err
		}
		f.Username = u.Username
	}
	return f, nil
}

func (s *Service) summarize(ctx context.Context, images []model.Image) ([]ImageSummary, error) {
	ids := make([]uint, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	stats, err := s.store.Stats(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ImageSummary, len(images))
	for i, img := range images {
		out[i] = ImageSummary{Image: img, Stats: stats[img.ID]}
	}
	return out, nil
}

func (s *Service) listSummaries(ctx context.Context, f store.ImageFilter, page store.Page) (Page[ImageSummary], error) {
	images, total, err := s.store.ListImages(ctx, f, page)
	if err != nil {
		return Page[ImageSummary]{}, err
	}
	summaries, err := s.summarize(ctx, images)
	if err != nil {
		return Page[ImageSummary]{}, err
	}
	return newPage(page, total, summaries), nil
}

// ListImages returns public images, or every image for an admin.
func (s *Service) ListImages(ctx context.Context, actor authz.Actor, q ImageQuery, page store.Page) (Page[ImageSummary], error) {
	scope, d := authz.ImageList(actor, false)
	if err := check(d); err != nil {
		return Page[ImageSummary]{}, err
	}
	f, err := s.filterFor(ctx, actor, q)
	if err != nil {
		return Page[ImageSummary]{}, err
	}
	f.PublicOnly = !scope.All
	return s.listSummaries(ctx, f, page)
}

// Trending ranks public images by distinct voters in the trailing window.
// Images without recent votes follow in listing order.
func (s *Service) Trending(ctx context.Context, actor authz.Actor, q ImageQuery, page store.Page) (Page[TrendingImage], error) {
	f, err := s.filterFor(ctx, actor, q)
	if err != nil {
		return Page[TrendingImage]{}, err
	}
	f.PublicOnly = true
	images, total, err := s.store.ListImages(ctx, f, store.Page{})
	if err != nil {
		return Page[TrendingImage]{}, err
	}
	counts, err := s.store.RecentVoterCounts(ctx, trending.Since(s.now()))
	if err != nil {
		return Page[TrendingImage]{}, err
	}
	ranked := trending.Rank(images, counts)

	lo, hi := 0, len(ranked)
	if page.Size > 0 {
		lo = min(page.Offset(), len(ranked))
		hi = min(lo+page.Size, len(ranked))
	}
	window := ranked[lo:hi]

	pageImages := make([]model.Image, len(window))
	for i, e := range window {
		pageImages[i] = e.Image
	}
	summaries, err := s.summarize(ctx, pageImages)
	if err != nil {
		return Page[TrendingImage]{}, err
	}
	out := make([]TrendingImage, len(window))
	for i, e := range window {
		out[i] = TrendingImage{ImageSummary: summaries[i], RecentVoters: e.Voters}
	}
	return newPage(page, total, out), nil
}

// Popular returns up to n of the most viewed images the actor may see.
func (s *Service) Popular(ctx context.Context, actor authz.Actor, n int) ([]ImageSummary, error) {
	if s.views == nil || n <= 0 {
		return []ImageSummary{}, nil
	}
	ids, err := s.views.TopViewed(ctx, int64(n))
	if err != nil {
		return nil, fmt.Errorf("failed to read view ranking: %w", err)
	}
	images := make([]model.Image, 0, len(ids))
	for _, id := range ids {
		img, err := s.store.GetImage(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if authz.Image(actor, img, http.MethodGet) == authz.Allow {
			images = append(images, *img)
		}
	}
	return s.summarize(ctx, images)
}

// MyImages lists the actor's own images.
func (s *Service) MyImages(ctx context.Context, actor authz.Actor, q OwnImageQuery, page store.Page) (Page[ImageSummary], error) {
	scope, d := authz.ImageList(actor, true)
	if err := check(d); err != nil {
		return Page[ImageSummary]{}, err
	}
	f := store.ImageFilter{
		OwnerID:           scope.OwnerID,
		Public:            q.Public,
		CreatedAt:         q.CreatedAt,
		DescriptionPrefix: q.DescriptionPrefix,
		Newest:            q.Newest,
	}
	if q.CreatedAfterYear != nil {
		since := time.Date(*q.CreatedAfterYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		f.CreatedSince = &since
	}
	return s.listSummaries(ctx, f, page)
}

// MyVoted lists images the actor voted on; upvote narrows to one direction.
func (s *Service) MyVoted(ctx context.Context, actor authz.Actor, upvote *bool, page store.Page) (Page[ImageSummary], error) {
	if !actor.Authenticated() {
		return Page[ImageSummary]{}, ErrUnauthenticated
	}
	return s.listSummaries(ctx, store.ImageFilter{VotedBy: actor.UserID, Upvote: upvote}, page)
}

func (s *Service) MyFavourites(ctx context.Context, actor authz.Actor, newest bool, page store.Page) (Page[ImageSummary], error) {
	if !actor.Authenticated() {
		return Page[ImageSummary]{}, ErrUnauthenticated
	}
	return s.listSummaries(ctx, store.ImageFilter{FavouritedBy: actor.UserID, Newest: newest}, page)
}

// CreateImage stores the payload and then the row. Anonymous uploads must
// be public.
func (s *Service) CreateImage(ctx context.Context, actor authz.Actor, in NewImage) (*ImageSummary, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validate(&in); err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, invalid("file", "file is required")
	}
	public := true
	if in.Public != nil {
		public = *in.Public
	}
	if !actor.Authenticated() && !public {
		return nil, invalid("public", "Anonymous user can have only public images")
	}

	key := storage.NewKey(in.Filename)
	if err := s.files.Save(ctx, key, in.Body, in.Size, in.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store image payload: %w", err)
	}

	img := &model.Image{
		Title:       in.Title,
		Description: in.Description,
		Public:      public,
		File:        key,
	}
	if actor.Authenticated() {
		id := actor.UserID
		img.UserID = &id
	}
	if err := s.store.CreateImage(ctx, img); err != nil {
		if derr := s.files.Delete(ctx, key); derr != nil {
			slog.Warn("Failed to remove orphaned payload", "key", key, "error", derr)
		}
		return nil, err
	}
	slog.Info("Image uploaded", "image_id", img.ID, "owner", img.UserID, "public", public)
	return &ImageSummary{Image: *img}, nil
}

func (s *Service) GetImage(ctx context.Context, actor authz.Actor, id uint) (*ImageDetail, error) {
	img, err := s.loadImage(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := check(authz.Image(actor, img, http.MethodGet)); err != nil {
		return nil, err
	}
	return s.detail(ctx, img)
}

func (s *Service) detail(ctx context.Context, img *model.Image) (*ImageDetail, error) {
	stats, err := s.store.Stats(ctx, []uint{img.ID})
	if err != nil {
		return nil, err
	}
	comments, _, err := s.store.ListComments(ctx, img.ID, store.Page{})
	if err != nil {
		return nil, err
	}
	votes, err := s.store.ListVotes(ctx, img.ID)
	if err != nil {
		return nil, err
	}
	favourites, err := s.store.ListFavourites(ctx, img.ID)
	if err != nil {
		return nil, err
	}
	reports, _, err := s.store.ListReports(ctx, img.ID, store.Page{})
	if err != nil {
		return nil, err
	}
	d := &ImageDetail{
		Image:      *img,
		Stats:      stats[img.ID],
		Comments:   comments,
		Votes:      votes,
		Favourites: favourites,
		Reports:    reports,
	}
	if s.views != nil {
		n, err := s.views.Views(ctx, img.ID)
		if err != nil {
			slog.Warn("Failed to read view counter", "image_id", img.ID, "error", err)
		}
		d.Views = n
	}
	return d, nil
}

func (s *Service) UpdateImage(ctx context.Context, actor authz.Actor, id uint, in ImageUpdate) (*ImageDetail, error) {
	img, err := s.loadImage(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := check(authz.Image(actor, img, http.MethodPut)); err != nil {
		return nil, err
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("title", "title may not be blank")
		}
		img.Title = title
	}
	if in.Description != nil {
		img.Description = *in.Description
	}
	if in.Public != nil {
		img.Public = *in.Public
	}
	if err := s.store.UpdateImage(ctx, img); err != nil {
		return nil, err
	}
	return s.detail(ctx, img)
}

// DeleteImage removes the payload, then the row with all its relations.
// A payload that cannot be removed only produces a warning.
func (s *Service) DeleteImage(ctx context.Context, actor authz.Actor, id uint) error {
	img, err := s.loadImage(ctx, id)
	if err != nil {
		return err
	}
	if err := check(authz.Image(actor, img, http.MethodDelete)); err != nil {
		return err
	}

	if err := s.files.Delete(ctx, img.File); err != nil {
		slog.Warn("Failed to delete image payload", "image_id", img.ID, "key", img.File, "error", err)
	}
	if err := s.store.DeleteImage(ctx, img.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrImageNotFound
		}
		return err
	}
	if s.views != nil {
		if err := s.views.ForgetImage(ctx, img.ID); err != nil {
			slog.Warn("Failed to drop view counter", "image_id", img.ID, "error", err)
		}
	}
	slog.Info("Image deleted", "image_id", img.ID, "by", actor.UserID)
	return nil
}

// OpenImageFile returns the payload of a visible image and counts a view.
// The caller closes the reader.
func (s *Service) OpenImageFile(ctx context.Context, actor authz.Actor, id uint) (*model.Image, io.ReadCloser, error) {
	img, err := s.loadImage(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := check(authz.Image(actor, img, http.MethodGet)); err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, img.File)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil, ErrFileNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open payload of image %d: %w", img.ID, err)
	}
	if s.views != nil {
		if err := s.views.IncrementView(ctx, img.ID); err != nil {
			slog.Warn("Failed to count image view", "image_id", img.ID, "error", err)
		}
	}
	return img, rc, nil
}

// FavouritesArchive writes a zip of the actor's favourite images to w and
// returns the number of files included.
func (s *Service) FavouritesArchive(ctx context.Context, actor authz.Actor, w io.Writer) (int, error) {
	if !actor.Authenticated() {
		return 0, ErrUnauthenticated
	}
	images, _, err := s.store.ListImages(ctx, store.ImageFilter{FavouritedBy: actor.UserID}, store.Page{})
	if err != nil {
		return 0, err
	}
	keys := make([]string, len(images))
	for i, img := range images {
		keys[i] = img.File
	}
	return storage.WriteZip(ctx, s.files, w, keys)
}
