// Package authz decides whether an actor may act on an image or one of its
// sub-resources. Every function is pure: it sees only the actor, the loaded
// resource and the request method, so callers must pass freshly loaded rows.
package authz

import (
	"net/http"

	"github.com/notes-bin/imgshare/internal/model"
)

type Decision int

const (
	Allow        Decision = iota
	Deny                  // 403: identity present but lacks the privilege
	RequiresAuth          // 401: the action needs an identity and none was given
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case RequiresAuth:
		return "requires_auth"
	default:
		return "unknown"
	}
}

// Actor is the identity behind a request. The zero value is the anonymous actor.
type Actor struct {
	UserID uint
	Admin  bool
}

func Anonymous() Actor { return Actor{} }

func (a Actor) Authenticated() bool { return a.UserID != 0 }

// Owns reports whether the actor owns img. Nobody owns an anonymous image.
func (a Actor) Owns(img *model.Image) bool {
	return a.Authenticated() && img.OwnedBy(a.UserID)
}

// privileged covers the owner-or-admin clause shared by most rules.
func (a Actor) privileged(img *model.Image) bool {
	return a.Owns(img) || (a.Authenticated() && a.Admin)
}

func (a Actor) canSee(img *model.Image) bool {
	return img.Public || a.privileged(img)
}

// refuse picks between 401 and 403 for a failed check.
func refuse(a Actor) Decision {
	if !a.Authenticated() {
		return RequiresAuth
	}
	return Deny
}

// Image decides GET, PUT and DELETE on a single image.
func Image(a Actor, img *model.Image, method string) Decision {
	switch method {
	case http.MethodGet, http.MethodHead:
		if a.canSee(img) {
			return Allow
		}
		return refuse(a)
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		if a.privileged(img) {
			return Allow
		}
		return refuse(a)
	default:
		return refuse(a)
	}
}

// ImageScope describes which images a collection listing may return.
type ImageScope struct {
	All     bool  // admin: public and private
	OwnerID *uint // "my images"
}

// ImageList returns the listing scope for the actor. mine selects the actor's
// own images and requires authentication.
func ImageList(a Actor, mine bool) (ImageScope, Decision) {
	if mine {
		if !a.Authenticated() {
			return ImageScope{}, RequiresAuth
		}
		id := a.UserID
		return ImageScope{OwnerID: &id}, Allow
	}
	return ImageScope{All: a.Authenticated() && a.Admin}, Allow
}

// Comments decides listing (GET) and creating (POST) comments on img.
// Reading follows image visibility; writing additionally needs an identity.
func Comments(a Actor, img *model.Image, method string) Decision {
	if method != http.MethodGet && method != http.MethodHead && !a.Authenticated() {
		return RequiresAuth
	}
	if a.canSee(img) {
		return Allow
	}
	return Deny
}

// Comment decides PUT and DELETE on comment c attached to img.
func Comment(a Actor, c *model.Comment, img *model.Image) Decision {
	if !a.Authenticated() {
		return RequiresAuth
	}
	if img.Public && c.UserID == a.UserID {
		return Allow
	}
	if a.privileged(img) {
		return Allow
	}
	return Deny
}

// Toggle decides vote and favourite changes on img.
func Toggle(a Actor, img *model.Image) Decision {
	if !a.Authenticated() {
		return RequiresAuth
	}
	if a.canSee(img) {
		return Allow
	}
	return Deny
}

// Reports decides creating (POST) and listing (GET) reports on img.
// Anyone who can see the image may report it; reports on an anonymous
// image are readable by everybody.
func Reports(a Actor, img *model.Image, method string) Decision {
	switch method {
	case http.MethodPost:
		if a.canSee(img) {
			return Allow
		}
	case http.MethodGet, http.MethodHead:
		if img.Anonymous() || a.privileged(img) {
			return Allow
		}
	}
	return Deny
}

// Users decides access to the user directory, which is admin only.
func Users(a Actor) Decision {
	if !a.Authenticated() {
		return RequiresAuth
	}
	if a.Admin {
		return Allow
	}
	return Deny
}
