package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/notes-bin/imgshare/internal/service"
	"github.com/notes-bin/imgshare/internal/store"
)

// pageParam reads page and page_size. Missing or malformed values fall back
// to the defaults.
func pageParam(r *http.Request) store.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return store.NewPage(number, size)
}

func idParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func boolParam(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Message: "Must be true or false", Err: err}
	}
	return &b, nil
}

// choiceParam maps a query value onto a tri-state flag.
func choiceParam(r *http.Request, name, yes, no string) (*bool, error) {
	switch r.URL.Query().Get(name) {
	case "":
		return nil, nil
	case yes:
		b := true
		return &b, nil
	case no:
		b := false
		return &b, nil
	default:
		return nil, &service.ValidationError{Field: name, Message: "Select one of " + yes + ", " + no}
	}
}

// newestParam reports whether ordering=-created_at was requested.
func newestParam(r *http.Request) (bool, error) {
	switch r.URL.Query().Get("ordering") {
	case "", "created_at":
		return false, nil
	case "-created_at":
		return true, nil
	default:
		return false, &service.ValidationError{Field: "ordering", Message: "Ordering must be created_at or -created_at"}
	}
}

func timeParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Message: "Enter a valid date/time", Err: err}
	}
	return &t, nil
}

func dateParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Message: "Enter a valid date", Err: err}
	}
	return &t, nil
}

func intParam(r *http.Request, name string) (*int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, &service.ValidationError{Field: name, Message: "A valid integer is required", Err: err}
	}
	return &n, nil
}

func imageQueryParam(r *http.Request) (service.ImageQuery, error) {
	var (
		q   service.ImageQuery
		err error
	)
	if q.Anonymous, err = boolParam(r, "anonymous"); err != nil {
		return q, err
	}
	q.Username = r.URL.Query().Get("username")
	q.UsernamePrefix = r.URL.Query().Get("user_name")
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return q, &service.ValidationError{Field: "user_id", Message: "A valid integer is required", Err: err}
		}
		uid := uint(id)
		q.UserID = &uid
	}
	if q.CreatedAt, err = timeParam(r, "created_at"); err != nil {
		return q, err
	}
	if q.CreatedFrom, err = dateParam(r, "created_at__date__gte"); err != nil {
		return q, err
	}
	if q.CreatedUntil, err = dateParam(r, "created_at__date__lte"); err != nil {
		return q, err
	}
	if q.DescriptionLength, err = intParam(r, "description_length"); err != nil {
		return q, err
	}
	q.Newest, err = newestParam(r)
	return q, err
}

func ownImageQueryParam(r *http.Request) (service.OwnImageQuery, error) {
	var (
		q   service.OwnImageQuery
		err error
	)
	if q.Public, err = choiceParam(r, "visibility", "public", "private"); err != nil {
		return q, err
	}
	if q.CreatedAt, err = timeParam(r, "created_at"); err != nil {
		return q, err
	}
	if q.CreatedAfterYear, err = intParam(r, "created_at__year__gt"); err != nil {
		return q, err
	}
	q.DescriptionPrefix = r.URL.Query().Get("description__startswith")
	q.Newest, err = newestParam(r)
	return q, err
}
