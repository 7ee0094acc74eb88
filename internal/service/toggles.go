package service

import (
	"context"
	"errors"

	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/model"
	"github.com/notes-bin/imgshare/internal/store"
	"github.com/notes-bin/imgshare/internal/toggle"
)

type ToggleInput struct {
	Type string `json:"type" validate:"required"`
}

// ToggleResult reports the state after a vote or favourite command.
type ToggleResult struct {
	State   string
	Message string
}

// Vote applies an up, down or undo command for the actor on an image.
func (s *Service) Vote(ctx context.Context, actor authz.Actor, imageID uint, in ToggleInput) (*ToggleResult, error) {
	img, err := s.loadImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if err := check(authz.Toggle(actor, img)); err != nil {
		return nil, err
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	cmd, err := toggle.ParseVoteCommand(in.Type)
	if err != nil {
		return nil, &ValidationError{Field: "type", Message: "Type not in ('up', 'down', 'undo')", Err: err}
	}

	vote, err := s.store.GetVote(ctx, img.ID, actor.UserID)
	if err != nil {
		return nil, err
	}
	cur := toggle.VoteStateOf(vote != nil, vote != nil && vote.Upvote)
	next, effect, err := toggle.NextVote(cur, cmd)
	if err != nil {
		s.metrics.ObserveToggle("vote", string(cmd), "rejected")
		return nil, &ValidationError{Message: err.Error(), Err: err}
	}

	switch effect {
	case toggle.Create:
		err = s.store.CreateVote(ctx, &model.Vote{
			ImageID:   img.ID,
			UserID:    actor.UserID,
			Upvote:    next.Upvote(),
			CreatedAt: s.now(),
		})
	case toggle.Update:
		err = s.store.SetUpvote(ctx, vote, next.Upvote())
	case toggle.Delete:
		err = s.store.DeleteVote(ctx, vote.ID)
	}
	if errors.Is(err, store.ErrDuplicate) {
		s.metrics.ObserveToggle("vote", string(cmd), "conflict")
		return nil, &ValidationError{Message: "user has already voted", Err: err}
	}
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveToggle("vote", string(cmd), effect.String())

	msg := "user voted the image"
	if cmd == toggle.VoteCmdUndo {
		msg = "user vote removed"
	}
	return &ToggleResult{State: next.String(), Message: msg}, nil
}

// Favourite applies an add or remove command for the actor on an image.
func (s *Service) Favourite(ctx context.Context, actor authz.Actor, imageID uint, in ToggleInput) (*ToggleResult, error) {
	img, err := s.loadImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if err := check(authz.Toggle(actor, img)); err != nil {
		return nil, err
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	cmd, err := toggle.ParseFavouriteCommand(in.Type)
	if err != nil {
		return nil, &ValidationError{Field: "type", Message: "Type not in ('add', 'remove')", Err: err}
	}

	fav, err := s.store.GetFavourite(ctx, img.ID, actor.UserID)
	if err != nil {
		return nil, err
	}
	next, effect, err := toggle.NextFavourite(toggle.FavouriteStateOf(fav != nil), cmd)
	if err != nil {
		s.metrics.ObserveToggle("favourite", string(cmd), "rejected")
		return nil, &ValidationError{Message: err.Error(), Err: err}
	}

	switch effect {
	case toggle.Create:
		err = s.store.CreateFavourite(ctx, &model.Favourite{ImageID: img.ID, UserID: actor.UserID})
	case toggle.Delete:
		err = s.store.DeleteFavourite(ctx, fav.ID)
	}
	if errors.Is(err, store.ErrDuplicate) {
		s.metrics.ObserveToggle("favourite", string(cmd), "conflict")
		return nil, &ValidationError{Message: toggle.ErrAlreadyFavourite.Error(), Err: err}
	}
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveToggle("favourite", string(cmd), effect.String())

	msg := "image is in favourites"
	if cmd == toggle.FavouriteCmdRemove {
		msg = "image removed from favourites"
	}
	return &ToggleResult{State: next.String(), Message: msg}, nil
}
