package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/notes-bin/imgshare/internal/auth"
	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/metrics"
	"github.com/notes-bin/imgshare/internal/redis"
	"github.com/notes-bin/imgshare/internal/service"
	"github.com/notes-bin/imgshare/internal/storage"
	"github.com/notes-bin/imgshare/internal/store"
	"github.com/notes-bin/imgshare/internal/testinfra"
)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	svc     *service.Service
	store   *store.Store
	files   *storage.Local
	redis   *redis.Client
	metrics *metrics.Metrics
	clock   *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(testinfra.NewDB(t))

	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rc, err := redis.NewClient(mr.Addr(), "", 0, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	clk := &clock{now: time.Now()}
	m := metrics.New()
	a := auth.NewAuth("test-secret", time.Hour, rc)
	svc := service.New(st, files, a,
		service.WithViews(rc),
		service.WithMetrics(m),
		service.WithClock(clk.Now),
	)
	return &fixture{svc: svc, store: st, files: files, redis: rc, metrics: m, clock: clk}
}

// register creates a user through the service and returns its actor.
func (f *fixture) register(t *testing.T, name string) authz.Actor {
	t.Helper()
	sess, err := f.svc.Register(context.Background(), service.RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "pa55word!",
	})
	require.NoError(t, err)
	return authz.Actor{UserID: sess.User.ID}
}

func (f *fixture) admin(t *testing.T) authz.Actor {
	t.Helper()
	a := f.register(t, "root")
	u, err := f.store.GetUser(context.Background(), a.UserID)
	require.NoError(t, err)
	u.IsSuperuser = true
	require.NoError(t, f.store.SaveUser(context.Background(), u))
	return authz.Actor{UserID: u.ID, Admin: true}
}

func (f *fixture) upload(t *testing.T, actor authz.Actor, title string, public bool) uint {
	t.Helper()
	body := "payload of " + title
	img, err := f.svc.CreateImage(context.Background(), actor, service.NewImage{
		Title:       title,
		Public:      &public,
		Filename:    title + ".png",
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	})
	require.NoError(t, err)
	return img.Image.ID
}

func ptr[T any](v T) *T { return &v }
