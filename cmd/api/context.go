package main

import (
	"net/http"
	"strconv"

	"github.com/Gwonyeong/doll-backend/internal/domain/users"
	"github.com/Gwonyeong/doll-backend/internal/reviewgate"
	"github.com/go-chi/chi/v5"
)

type userKey string

const userCtx userKey = "user"

func getUserFromContext(r *http.Request) *users.User {
	if user, ok := r.Context().Value(userCtx).(*users.User); ok {
		return user
	}
	return nil
}

// viewerFromRequest is anonymous unless an auth middleware stored a user.
func viewerFromRequest(r *http.Request) reviewgate.Viewer {
	if user := getUserFromContext(r); user != nil {
		return reviewgate.Authenticated(user.ID)
	}
	return reviewgate.Anonymous()
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID(name)
	}
	return id, nil
}

type errInvalidID string

func (e errInvalidID) Error() string { return "invalid " + string(e) }
