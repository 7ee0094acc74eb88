package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notes-bin/imgshare/internal/model"
)

const (
	ownerID    uint = 1
	observerID uint = 2
	adminID    uint = 3
)

var (
	anon     = Anonymous()
	owner    = Actor{UserID: ownerID}
	observer = Actor{UserID: observerID}
	admin    = Actor{UserID: adminID, Admin: true}
)

func image(public bool, owned bool) *model.Image {
	img := &model.Image{ID: 10, Public: public}
	if owned {
		id := ownerID
		img.UserID = &id
	}
	return img
}

func TestImage(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		img    *model.Image
		method string
		want   Decision
	}{
		{"anon reads public", anon, image(true, true), http.MethodGet, Allow},
		{"anon reads private", anon, image(false, true), http.MethodGet, RequiresAuth},
		{"observer reads private", observer, image(false, true), http.MethodGet, Deny},
		{"owner reads private", owner, image(false, true), http.MethodGet, Allow},
		{"admin reads private", admin, image(false, true), http.MethodGet, Allow},
		{"observer reads private anonymous image", observer, image(false, false), http.MethodGet, Deny},
		{"anon updates", anon, image(true, true), http.MethodPut, RequiresAuth},
		{"observer updates public", observer, image(true, true), http.MethodPut, Deny},
		{"owner updates", owner, image(true, true), http.MethodPut, Allow},
		{"admin deletes", admin, image(false, true), http.MethodDelete, Allow},
		{"observer deletes", observer, image(true, true), http.MethodDelete, Deny},
		{"anon deletes anonymous image", anon, image(true, false), http.MethodDelete, RequiresAuth},
		{"owner-less image only admin updates", observer, image(true, false), http.MethodPut, Deny},
		{"admin updates owner-less image", admin, image(true, false), http.MethodPut, Allow},
		{"unsupported method", owner, image(true, true), http.MethodPost, Deny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Image(tt.actor, tt.img, tt.method))
		})
	}
}

func TestImageList(t *testing.T) {
	scope, d := ImageList(anon, false)
	assert.Equal(t, Allow, d)
	assert.False(t, scope.All)
	assert.Nil(t, scope.OwnerID)

	scope, d = ImageList(admin, false)
	assert.Equal(t, Allow, d)
	assert.True(t, scope.All)

	_, d = ImageList(anon, true)
	assert.Equal(t, RequiresAuth, d)

	scope, d = ImageList(owner, true)
	assert.Equal(t, Allow, d)
	if assert.NotNil(t, scope.OwnerID) {
		assert.Equal(t, ownerID, *scope.OwnerID)
	}
}

func TestComments(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		img    *model.Image
		method string
		want   Decision
	}{
		{"anon lists public", anon, image(true, true), http.MethodGet, Allow},
		{"anon lists private", anon, image(false, true), http.MethodGet, Deny},
		{"anon creates on public", anon, image(true, true), http.MethodPost, RequiresAuth},
		{"observer creates on public", observer, image(true, true), http.MethodPost, Allow},
		{"observer creates on private", observer, image(false, true), http.MethodPost, Deny},
		{"owner creates on private", owner, image(false, true), http.MethodPost, Allow},
		{"admin lists private", admin, image(false, true), http.MethodGet, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Comments(tt.actor, tt.img, tt.method))
		})
	}
}

func TestComment(t *testing.T) {
	byObserver := &model.Comment{UserID: observerID}
	byOwner := &model.Comment{UserID: ownerID}
	third := Actor{UserID: 4}

	tests := []struct {
		name    string
		actor   Actor
		comment *model.Comment
		img     *model.Image
		want    Decision
	}{
		{"anon", anon, byObserver, image(true, true), RequiresAuth},
		{"author on public image", observer, byObserver, image(true, true), Allow},
		{"author on private image", observer, byObserver, image(false, true), Deny},
		{"non author on public image", third, byObserver, image(true, true), Deny},
		{"image owner", owner, byObserver, image(false, true), Allow},
		{"admin", admin, byOwner, image(false, true), Allow},
		{"author on anonymous public image", observer, byObserver, image(true, false), Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Comment(tt.actor, tt.comment, tt.img))
		})
	}
}

func TestToggle(t *testing.T) {
	assert.Equal(t, RequiresAuth, Toggle(anon, image(true, true)))
	assert.Equal(t, Allow, Toggle(observer, image(true, true)))
	assert.Equal(t, Deny, Toggle(observer, image(false, true)))
	assert.Equal(t, Allow, Toggle(owner, image(false, true)))
	assert.Equal(t, Allow, Toggle(admin, image(false, false)))
}

func TestReports(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		img    *model.Image
		method string
		want   Decision
	}{
		{"anon reports public", anon, image(true, true), http.MethodPost, Allow},
		{"anon reports private", anon, image(false, true), http.MethodPost, Deny},
		{"observer reports private", observer, image(false, true), http.MethodPost, Deny},
		{"owner reports private", owner, image(false, true), http.MethodPost, Allow},
		{"anon lists reports of anonymous image", anon, image(true, false), http.MethodGet, Allow},
		{"anon lists reports of owned image", anon, image(true, true), http.MethodGet, Deny},
		{"observer lists reports of owned image", observer, image(true, true), http.MethodGet, Deny},
		{"owner lists reports", owner, image(true, true), http.MethodGet, Allow},
		{"admin lists reports", admin, image(false, true), http.MethodGet, Allow},
		{"other method", owner, image(true, true), http.MethodDelete, Deny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reports(tt.actor, tt.img, tt.method))
		})
	}
}

func TestUsers(t *testing.T) {
	assert.Equal(t, RequiresAuth, Users(anon))
	assert.Equal(t, Deny, Users(observer))
	assert.Equal(t, Allow, Users(admin))
}

func TestAdminFlagIgnoredWithoutIdentity(t *testing.T) {
	forged := Actor{Admin: true}
	assert.Equal(t, RequiresAuth, Image(forged, image(false, true), http.MethodGet))
	assert.Equal(t, RequiresAuth, Users(forged))
}
