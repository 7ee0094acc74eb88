package api

import (
	"fmt"
	"time"

	"github.com/notes-bin/imgshare/internal/model"
	"github.com/notes-bin/imgshare/internal/service"
)

type imageView struct {
	ID             uint      `json:"id"`
	User           *uint     `json:"user"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Public         bool      `json:"public"`
	File           string    `json:"file"`
	CreatedAt      time.Time `json:"created_at"`
	CommentCount   int64     `json:"comment_count"`
	UpvoteCount    int64     `json:"upvote_count"`
	DownvoteCount  int64     `json:"downvote_count"`
	FavouriteCount int64     `json:"favourite_count"`
	ReportCount    int64     `json:"report_count"`
}

type imageDetailView struct {
	imageView
	Comments   []model.Comment   `json:"comments"`
	Votes      []model.Vote      `json:"votes"`
	Favourites []model.Favourite `json:"favourites"`
	Reports    []model.Report    `json:"reports"`
	Views      int64             `json:"views"`
}

type trendingView struct {
	imageView
	RecentVoters int64 `json:"recent_voters"`
}

type sessionView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

func toImageView(s service.ImageSummary) imageView {
	img := s.Image
	return imageView{
		ID:             img.ID,
		User:           img.UserID,
		Title:          img.Title,
		Description:    img.Description,
		Public:         img.Public,
		File:           fmt.Sprintf("/images/%d/file", img.ID),
		CreatedAt:      img.CreatedAt,
		CommentCount:   s.Stats.Comments,
		UpvoteCount:    s.Stats.Upvotes,
		DownvoteCount:  s.Stats.Downvotes,
		FavouriteCount: s.Stats.Favourites,
		ReportCount:    s.Stats.Reports,
	}
}

func toDetailView(d *service.ImageDetail) imageDetailView {
	return imageDetailView{
		imageView:  toImageView(service.ImageSummary{Image: d.Image, Stats: d.Stats}),
		Comments:   orEmpty(d.Comments),
		Votes:      orEmpty(d.Votes),
		Favourites: orEmpty(d.Favourites),
		Reports:    orEmpty(d.Reports),
		Views:      d.Views,
	}
}

func toTrendingView(t service.TrendingImage) trendingView {
	return trendingView{imageView: toImageView(t.ImageSummary), RecentVoters: t.RecentVoters}
}

func toSessionView(s *service.Session) sessionView {
	return sessionView{ID: s.User.ID, Username: s.User.Username, Email: s.User.Email, Token: s.Token}
}

func mapPage[T, V any](p service.Page[T], f func(T) V) service.Page[V] {
	out := make([]V, len(p.Results))
	for i, item := range p.Results {
		out[i] = f(item)
	}
	return service.Page[V]{Count: p.Count, Page: p.Page, PageSize: p.PageSize, Results: out}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
