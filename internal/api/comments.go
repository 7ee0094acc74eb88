package api

import (
	"net/http"

	"github.com/notes-bin/imgshare/internal/service"
)

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrImageNotFound)
		return
	}
	page, err := h.service.ListComments(r.Context(), actorFrom(r), id, pageParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrImageNotFound)
		return
	}
	var req service.CommentInput
	err := decodeAfter(r, &req, func() error {
		return h.service.AuthorizeImage(r.Context(), actorFrom(r), id, service.ActionComment)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.service.CreateComment(r.Context(), actorFrom(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrCommentNotFound)
		return
	}
	var req service.CommentInput
	err := decodeAfter(r, &req, func() error {
		return h.service.AuthorizeComment(r.Context(), actorFrom(r), id)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.service.UpdateComment(r.Context(), actorFrom(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrCommentNotFound)
		return
	}
	if err := h.service.DeleteComment(r.Context(), actorFrom(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrImageNotFound)
		return
	}
	page, err := h.service.ListReports(r.Context(), actorFrom(r), id, pageParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrImageNotFound)
		return
	}
	var req service.ReportInput
	err := decodeAfter(r, &req, func() error {
		return h.service.AuthorizeImage(r.Context(), actorFrom(r), id, service.ActionReport)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.service.CreateReport(r.Context(), actorFrom(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, report)
}
