package api

import (
	"net/http"

	"github.com/notes-bin/imgshare/internal/service"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionView(sess))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionView(sess))
}

// Logout revokes the token the request carried.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	if id == nil {
		h.fail(w, r, service.ErrUnauthenticated)
		return
	}
	if err := h.service.Logout(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Logged out")
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.service.UpdateProfile(r.Context(), actorFrom(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionView(sess))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListUsers(r.Context(), actorFrom(r), pageParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrUserNotFound)
		return
	}
	user, err := h.service.GetUser(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
