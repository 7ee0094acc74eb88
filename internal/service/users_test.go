package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/config"
	"github.com/notes-bin/imgshare/internal/service"
	"github.com/notes-bin/imgshare/internal/store"
)

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "taken")

	tests := []struct {
		name  string
		in    service.RegisterInput
		field string
	}{
		{"duplicate username", service.RegisterInput{Username: "taken", Email: "new@example.com", Password: "pa55word!"}, "username"},
		{"duplicate email", service.RegisterInput{Username: "fresh", Email: "taken@EXAMPLE.com", Password: "pa55word!"}, "email"},
		{"numeric password", service.RegisterInput{Username: "fresh", Email: "fresh@example.com", Password: "12345678"}, "password"},
		{"bad email", service.RegisterInput{Username: "fresh", Email: "fresh", Password: "pa55word!"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.in)
			var ve *service.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "dave")

	_, err := f.svc.Login(ctx, service.LoginInput{Username: "dave", Password: "wrong-pass"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, service.LoginInput{Username: "nobody", Password: "pa55word!"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	sess, err := f.svc.Login(ctx, service.LoginInput{Username: "dave", Password: "pa55word!"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	id, err := f.svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, id.Actor.UserID)
	assert.False(t, id.Actor.Admin)

	require.NoError(t, f.svc.Logout(ctx, id))
	_, err = f.svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestAuthenticateReadsAdminFlagFromStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess, err := f.svc.Register(ctx, service.RegisterInput{Username: "eve", Email: "eve@example.com", Password: "pa55word!"})
	require.NoError(t, err)

	u, err := f.store.GetUser(ctx, sess.User.ID)
	require.NoError(t, err)
	u.IsSuperuser = true
	require.NoError(t, f.store.SaveUser(ctx, u))

	id, err := f.svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, id.Actor.Admin)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	frank := f.register(t, "frank")
	f.register(t, "grace")

	_, err := f.svc.UpdateProfile(ctx, frank, service.ProfileInput{CurrentPassword: "nope", NewPassword: "n3wpassword"})
	var ve *service.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "current_password", ve.Field)

	_, err = f.svc.UpdateProfile(ctx, frank, service.ProfileInput{CurrentPassword: "pa55word!", Email: "grace@example.com"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "email", ve.Field)

	sess, err := f.svc.UpdateProfile(ctx, frank, service.ProfileInput{
		CurrentPassword: "pa55word!",
		NewPassword:     "n3wpassword",
		Email:           "frank@new.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "frank@new.example.com", sess.User.Email)

	_, err = f.svc.Login(ctx, service.LoginInput{Username: "frank", Password: "pa55word!"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, service.LoginInput{Username: "frank", Password: "n3wpassword"})
	assert.NoError(t, err)

	_, err = f.svc.UpdateProfile(ctx, authz.Anonymous(), service.ProfileInput{CurrentPassword: "x"})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestUserDirectory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "user")
	admin := f.admin(t)
	page := store.NewPage(1, 20)

	_, err := f.svc.ListUsers(ctx, authz.Anonymous(), page)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	_, err = f.svc.ListUsers(ctx, user, page)
	assert.ErrorIs(t, err, service.ErrForbidden)

	list, err := f.svc.ListUsers(ctx, admin, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Count)

	u, err := f.svc.GetUser(ctx, admin, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, "user", u.Username)

	_, err = f.svc.GetUser(ctx, admin, 999)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cfg := config.AdminConfig{Username: "admin", Password: "adm1npass"}

	require.NoError(t, f.svc.EnsureAdmin(ctx, cfg))
	require.NoError(t, f.svc.EnsureAdmin(ctx, cfg))

	u, err := f.store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.IsSuperuser)
	assert.Equal(t, "admin@localhost", u.Email)

	sess, err := f.svc.Login(ctx, service.LoginInput{Username: "admin", Password: "adm1npass"})
	require.NoError(t, err)
	id, err := f.svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, id.Actor.Admin)

	require.NoError(t, f.svc.EnsureAdmin(ctx, config.AdminConfig{}))
}
