package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/service"
)

const popularLimit = 10

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	q, err := imageQueryParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.service.ListImages(r.Context(), actorFrom(r), q, pageParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapPage(page, toImageView))
}

func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	q, err := imageQueryParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.service.Trending(r.Context(), actorFrom(r), q, pageParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapPage(page, toTrendingView))
}

func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	n := popularLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= popularLimit {
		n = v
	}
	images, err := h.service.Popular(r.Context(), actorFrom(r), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]imageView, len(images))
	for i, s := range images {
		out[i] = toImageView(s)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Upload.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.Upload.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, &service.ValidationError{Field: "file", Message: "No file was submitted", Err: err})
		return
	}
	defer file.Close()

	// 验证 MIME 类型
	mimeType, err := detectMIME(file)
	if err != nil || !isImageMIME(mimeType) {
		h.fail(w, r, &service.ValidationError{Field: "file", Message: "Upload a valid image"})
		return
	}

	in := service.NewImage{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Filename:    header.Filename,
		ContentType: mimeType,
		Size:        header.Size,
		Body:        file,
	}
	if v := r.FormValue("public"); v != "" {
		public, err := strconv.ParseBool(v)
		if err != nil {
			h.fail(w, r, &service.ValidationError{Field: "public", Message: "Must be a valid boolean", Err: err})
			return
		}
		in.Public = &public
	}

	img, err := h.service.CreateImage(r.Context(), actorFrom(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toImageView(*img))
}

func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrImageNotFound)
		return
	}
	d, err := h.service.GetImage(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDetailView(d))
}

func (h *Handler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrImageNotFound)
		return
	}
	var req service.ImageUpdate
	err := decodeAfter(r, &req, func() error {
		return h.service.AuthorizeImage(r.Context(), actorFrom(r), id, service.ActionUpdateImage)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.service.UpdateImage(r.Context(), actorFrom(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toDetailView(d))
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrImageNotFound)
		return
	}
	if err := h.service.DeleteImage(r.Context(), actorFrom(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImageFile streams the binary payload of a visible image.
func (h *Handler) ImageFile(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrImageNotFound)
		return
	}
	img, rc, err := h.service.OpenImageFile(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(img.File))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, img.File, img.CreatedAt, rs)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("Failed to stream image", "image_id", img.ID, "error", err)
	}
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.Vote)
}

func (h *Handler) Favourite(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.Favourite)
}

type toggleFunc func(ctx context.Context, actor authz.Actor, imageID uint, in service.ToggleInput) (*service.ToggleResult, error)

// toggle runs a vote or favourite command from the request body.
func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, apply toggleFunc) {
	id, ok := idParam(r)
	if !ok {
		h.fail(w, r, service.ErrImageNotFound)
		return
	}
	var req service.ToggleInput
	err := decodeAfter(r, &req, func() error {
		return h.service.AuthorizeImage(r.Context(), actorFrom(r), id, service.ActionToggle)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := apply(r.Context(), actorFrom(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": res.Message, "state": res.State})
}

func (h *Handler) MyImages(w http.ResponseWriter, r *http.Request) {
	q, err := ownImageQueryParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.service.MyImages(r.Context(), actorFrom(r), q, pageParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapPage(page, toImageView))
}

func (h *Handler) MyVoted(w http.ResponseWriter, r *http.Request) {
	upvote, err := choiceParam(r, "voted", "up", "down")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.service.MyVoted(r.Context(), actorFrom(r), upvote, pageParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapPage(page, toImageView))
}

func (h *Handler) MyFavourites(w http.ResponseWriter, r *http.Request) {
	newest, err := newestParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.service.MyFavourites(r.Context(), actorFrom(r), newest, pageParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mapPage(page, toImageView))
}

// DownloadFavourites streams a zip of every favourite image of the actor.
func (h *Handler) DownloadFavourites(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.Authenticated() {
		h.fail(w, r, service.ErrUnauthenticated)
		return
	}
	name := archiveName(r.URL.Query().Get("name"))

	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	ww.Header().Set("Content-Type", "application/zip")
	ww.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.zip", name))
	n, err := h.service.FavouritesArchive(r.Context(), actor, ww)
	if err != nil {
		if ww.BytesWritten() == 0 {
			ww.Header().Del("Content-Disposition")
			h.fail(ww, r, err)
			return
		}
		slog.Error("Failed to write favourites archive", "user_id", actor.UserID, "error", err)
		return
	}
	slog.Info("Favourites archive sent", "user_id", actor.UserID, "files", n)
}

// archiveName keeps the requested name safe for a header value.
func archiveName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '/' || r == '\\' || r == ';' || r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.TrimSuffix(name, ".zip")
	if name == "" {
		return "favourites"
	}
	return name
}

func detectMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func isImageMIME(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp":
		return true
	}
	return false
}
