package store_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notes-bin/imgshare/internal/model"
	"github.com/notes-bin/imgshare/internal/store"
	"github.com/notes-bin/imgshare/internal/testinfra"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testinfra.NewDB(t))
}

func mustUser(t *testing.T, s *store.Store, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mustImage(t *testing.T, s *store.Store, owner *model.User, public bool) *model.Image {
	t.Helper()
	img := &model.Image{Title: "img", Public: public, File: "f.png"}
	if owner != nil {
		img.UserID = &owner.ID
	}
	require.NoError(t, s.CreateImage(context.Background(), img))
	return img
}

func ptr[T any](v T) *T { return &v }

func TestStore_DeleteImageCascades(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	owner := mustUser(t, s, "owner")
	other := mustUser(t, s, "other")
	img := mustImage(t, s, owner, true)
	keep := mustImage(t, s, owner, true)

	require.NoError(t, s.CreateComment(ctx, &model.Comment{ImageID: img.ID, UserID: other.ID, CommentText: "hi"}))
	require.NoError(t, s.CreateVote(ctx, &model.Vote{ImageID: img.ID, UserID: other.ID, Upvote: true}))
	require.NoError(t, s.CreateFavourite(ctx, &model.Favourite{ImageID: img.ID, UserID: other.ID}))
	require.NoError(t, s.CreateReport(ctx, &model.Report{ImageID: img.ID, Comment: "spam"}))
	require.NoError(t, s.CreateVote(ctx, &model.Vote{ImageID: keep.ID, UserID: other.ID, Upvote: false}))

	require.NoError(t, s.DeleteImage(ctx, img.ID))

	_, err := s.GetImage(ctx, img.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	stats, err := s.Stats(ctx, []uint{img.ID, keep.ID})
	require.NoError(t, err)
	assert.Equal(t, store.ImageStats{}, stats[img.ID])
	assert.Equal(t, int64(1), stats[keep.ID].Downvotes)

	assert.ErrorIs(t, s.DeleteImage(ctx, img.ID), store.ErrNotFound)
}

func TestStore_VoteAndFavouriteUniqueness(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := mustUser(t, s, "voter")
	img := mustImage(t, s, nil, true)

	require.NoError(t, s.CreateVote(ctx, &model.Vote{ImageID: img.ID, UserID: u.ID, Upvote: true}))
	err := s.CreateVote(ctx, &model.Vote{ImageID: img.ID, UserID: u.ID, Upvote: false})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	require.NoError(t, s.CreateFavourite(ctx, &model.Favourite{ImageID: img.ID, UserID: u.ID}))
	err = s.CreateFavourite(ctx, &model.Favourite{ImageID: img.ID, UserID: u.ID})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	n, err := s.CountVotes(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_GetVoteAbsent(t *testing.T) {
	s := newStore(t)
	v, err := s.GetVote(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Nil(t, v)

	f, err := s.GetFavourite(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestStore_ListImagesFilters(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	pubAlice := mustImage(t, s, alice, true)
	privAlice := mustImage(t, s, alice, false)
	anon := mustImage(t, s, nil, true)
	pubBob := mustImage(t, s, bob, true)

	require.NoError(t, s.CreateVote(ctx, &model.Vote{ImageID: pubBob.ID, UserID: alice.ID, Upvote: true}))
	require.NoError(t, s.CreateVote(ctx, &model.Vote{ImageID: anon.ID, UserID: alice.ID, Upvote: false}))
	require.NoError(t, s.CreateFavourite(ctx, &model.Favourite{ImageID: pubBob.ID, UserID: alice.ID}))

	ids := func(images []model.Image) []uint {
		out := make([]uint, 0, len(images))
		for _, img := range images {
			out = append(out, img.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter store.ImageFilter
		want   []uint
	}{
		{"all", store.ImageFilter{}, []uint{pubAlice.ID, privAlice.ID, anon.ID, pubBob.ID}},
		{"public only", store.ImageFilter{PublicOnly: true}, []uint{pubAlice.ID, anon.ID, pubBob.ID}},
		{"owner", store.ImageFilter{OwnerID: &alice.ID}, []uint{pubAlice.ID, privAlice.ID}},
		{"owner private", store.ImageFilter{OwnerID: &alice.ID, Public: ptr(false)}, []uint{privAlice.ID}},
		{"anonymous", store.ImageFilter{Anonymous: ptr(true)}, []uint{anon.ID}},
		{"username", store.ImageFilter{Username: "bob"}, []uint{pubBob.ID}},
		{"voted", store.ImageFilter{VotedBy: alice.ID}, []uint{anon.ID, pubBob.ID}},
		{"voted up", store.ImageFilter{VotedBy: alice.ID, Upvote: ptr(true)}, []uint{pubBob.ID}},
		{"favourites", store.ImageFilter{FavouritedBy: alice.ID}, []uint{pubBob.ID}},
		{"newest", store.ImageFilter{PublicOnly: true, Newest: true}, []uint{pubBob.ID, anon.ID, pubAlice.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images, total, err := s.ListImages(ctx, tt.filter, store.Page{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(images))
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}

	t.Run("paginated", func(t *testing.T) {
		images, total, err := s.ListImages(ctx, store.ImageFilter{}, store.NewPage(2, 3))
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []uint{pubBob.ID}, ids(images))
	})

	t.Run("past the end", func(t *testing.T) {
		images, total, err := s.ListImages(ctx, store.ImageFilter{}, store.NewPage(461168601842738792, 20))
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Empty(t, images)
	})
}

func TestStore_ListImagesAttributeFilters(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	alice := mustUser(t, s, "Alice")
	alistair := mustUser(t, s, "alistair")
	bob := mustUser(t, s, "bob")

	at := func(y int, m time.Month, d, h int) time.Time {
		return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	}
	create := func(owner *model.User, desc string, created time.Time) *model.Image {
		img := &model.Image{Title: "img", Description: desc, Public: true, File: "f.png", UserID: &owner.ID, CreatedAt: created}
		require.NoError(t, s.CreateImage(ctx, img))
		return img
	}
	old := create(alice, "sunset over the bay", at(2022, time.December, 31, 23))
	mid := create(alistair, "sun", at(2023, time.March, 1, 0))
	late := create(bob, "a much longer description", at(2023, time.March, 2, 12))

	ids := func(images []model.Image) []uint {
		out := make([]uint, 0, len(images))
		for _, img := range images {
			out = append(out, img.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter store.ImageFilter
		want   []uint
	}{
		{"username prefix ignores case", store.ImageFilter{UsernamePrefix: "ALI"}, []uint{old.ID, mid.ID}},
		{"username prefix exact", store.ImageFilter{UsernamePrefix: "alis"}, []uint{mid.ID}},
		{"created at", store.ImageFilter{CreatedAt: ptr(at(2023, time.March, 1, 0))}, []uint{mid.ID}},
		{"created since", store.ImageFilter{CreatedSince: ptr(at(2023, time.January, 1, 0))}, []uint{mid.ID, late.ID}},
		{"created before", store.ImageFilter{CreatedBefore: ptr(at(2023, time.March, 2, 0))}, []uint{old.ID, mid.ID}},
		{"created range", store.ImageFilter{CreatedSince: ptr(at(2023, time.March, 1, 0)), CreatedBefore: ptr(at(2023, time.March, 2, 0))}, []uint{mid.ID}},
		{"description prefix", store.ImageFilter{DescriptionPrefix: "sun"}, []uint{old.ID, mid.ID}},
		{"description prefix is case sensitive", store.ImageFilter{DescriptionPrefix: "Sun"}, []uint{}},
		{"description shorter than", store.ImageFilter{DescriptionUnder: ptr(20)}, []uint{old.ID, mid.ID}},
		{"description shorter than zero", store.ImageFilter{DescriptionUnder: ptr(0)}, []uint{}},
		{"owner and prefix", store.ImageFilter{OwnerID: &alice.ID, DescriptionPrefix: "sun"}, []uint{old.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images, total, err := s.ListImages(ctx, tt.filter, store.Page{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(images))
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}
}

func TestStore_RecentVoterCounts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u1 := mustUser(t, s, "u1")
	u2 := mustUser(t, s, "u2")
	fresh := mustImage(t, s, nil, true)
	stale := mustImage(t, s, nil, true)

	now := time.Now()
	require.NoError(t, s.CreateVote(ctx, &model.Vote{ImageID: fresh.ID, UserID: u1.ID, Upvote: true, CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.CreateVote(ctx, &model.Vote{ImageID: fresh.ID, UserID: u2.ID, Upvote: false, CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, s.CreateVote(ctx, &model.Vote{ImageID: stale.ID, UserID: u1.ID, Upvote: true, CreatedAt: now.Add(-25 * time.Hour)}))

	counts, err := s.RecentVoterCounts(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[fresh.ID])
	_, ok := counts[stale.ID]
	assert.False(t, ok)
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	mustUser(t, s, "carol")

	u, err := s.GetUserByUsername(ctx, "carol")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "carol@example.com", u.Email)

	missing, err := s.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = s.CreateUser(ctx, &model.User{Username: "carol", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = s.GetUser(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, store.Page{Number: 1, Size: store.DefaultPageSize}, store.NewPage(0, 0))
	assert.Equal(t, store.Page{Number: 3, Size: store.MaxPageSize}, store.NewPage(3, 1000))

	huge := store.NewPage(math.MaxInt, store.MaxPageSize)
	assert.Less(t, huge.Number, math.MaxInt)
	assert.Positive(t, huge.Offset())

	assert.Equal(t, 0, store.Page{}.Offset())
	assert.Equal(t, 40, store.NewPage(3, 20).Offset())
	assert.Equal(t, math.MaxInt, store.Page{Number: math.MaxInt, Size: 20}.Offset())
}
