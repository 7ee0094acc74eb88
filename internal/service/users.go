package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/notes-bin/imgshare/internal/auth"
	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/config"
	"github.com/notes-bin/imgshare/internal/model"
	"github.com/notes-bin/imgshare/internal/store"
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"password"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput changes the password and/or email of the actor.
type ProfileInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"omitempty,password"`
	Email           string `json:"email" validate:"omitempty,email,max=254"`
}

// Session is a user together with a freshly issued token.
type Session struct {
	User  *model.User
	Token string
}

// Identity is the result of authenticating a request token.
type Identity struct {
	Actor  authz.Actor
	User   *model.User
	Claims *auth.Claims
}

// normalizeEmail lowercases the domain part.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := validate(&in); err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, invalid("username", "Username is already taken")
	}
	existing, err = s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, invalid("email", "Email is already taken")
	}

	hashed, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: in.Username, Email: in.Email, Password: hashed}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &ValidationError{Field: "username", Message: "Username is already taken", Err: err}
		}
		return nil, err
	}
	slog.Info("User registered", "user_id", user.ID, "username", user.Username)
	return s.session(user)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.auth.CheckPassword(user.Password, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *Service) session(user *model.User) (*Session, error) {
	token, err := s.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to the acting user. The user row is
// read on every call so that privilege changes apply immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := s.auth.ParseToken(ctx, token)
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenRevoked) {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	return &Identity{
		Actor:  authz.Actor{UserID: user.ID, Admin: user.IsSuperuser},
		User:   user,
		Claims: claims,
	}, nil
}

// Logout revokes the token the request was authenticated with.
func (s *Service) Logout(ctx context.Context, id *Identity) error {
	if id == nil {
		return ErrUnauthenticated
	}
	return s.auth.Revoke(ctx, id.Claims)
}

func (s *Service) UpdateProfile(ctx context.Context, actor authz.Actor, in ProfileInput) (*Session, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	user, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if in.Email != "" {
		in.Email = normalizeEmail(in.Email)
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	if !s.auth.CheckPassword(user.Password, in.CurrentPassword) {
		return nil, invalid("current_password", "Current password does not match")
	}

	if in.Email != "" && in.Email != user.Email {
		other, err := s.store.GetUserByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, invalid("email", "Email is already taken")
		}
		user.Email = in.Email
	}
	if in.NewPassword != "" {
		hashed, err := s.auth.HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &ValidationError{Field: "email", Message: "Email is already taken", Err: err}
		}
		return nil, err
	}
	return s.session(user)
}

func (s *Service) ListUsers(ctx context.Context, actor authz.Actor, page store.Page) (Page[model.User], error) {
	if err := check(authz.Users(actor)); err != nil {
		return Page[model.User]{}, err
	}
	users, total, err := s.store.ListUsers(ctx, page)
	if err != nil {
		return Page[model.User]{}, err
	}
	return newPage(page, total, users), nil
}

func (s *Service) GetUser(ctx context.Context, actor authz.Actor, id uint) (*model.User, error) {
	if err := check(authz.Users(actor)); err != nil {
		return nil, err
	}
	return s.loadUser(ctx, id)
}

// EnsureAdmin creates the configured superuser when it does not exist yet.
// An empty username or password disables the bootstrap.
func (s *Service) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		return nil
	}
	existing, err := s.store.GetUserByUsername(ctx, cfg.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hashed, err := s.auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	email := cfg.Email
	if email == "" {
		email = cfg.Username + "@localhost"
	}
	admin := &model.User{
		Username:    cfg.Username,
		Email:       normalizeEmail(email),
		Password:    hashed,
		IsSuperuser: true,
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	slog.Info("Created admin user", "username", admin.Username)
	return nil
}
