package handlers

import (
	"errors"
	"net/http"

	"github.com/Paxto2002/project-vidora/internal/apperr"
	"github.com/Paxto2002/project-vidora/internal/auth"
	"github.com/Paxto2002/project-vidora/internal/models"
	"github.com/Paxto2002/project-vidora/internal/repositories"
	"github.com/Paxto2002/project-vidora/internal/response"
)

// handlerFunc is an HTTP handler whose failures are written by a single boundary.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to net/http, writing any returned error as the error envelope.
func handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			response.Error(r.Context(), w, err)
		}
	}
}

// storeError maps repository sentinels onto application errors. notFound names the entity
// for the 404 message.
func storeError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, repositories.ErrConflict):
		return apperr.Conflict("record already exists")
	case errors.Is(err, repositories.ErrInvalid):
		return apperr.Validation("request violates a data constraint")
	}
	return err
}

// viewer returns the authenticated user the auth middleware stored on the request.
func viewer(r *http.Request) (models.User, error) {
	user, ok := auth.ViewerFromContext(r.Context())
	if !ok {
		return models.User{}, apperr.Auth("Unauthorized request", nil)
	}
	return user, nil
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any, message string) error {
	response.JSON(r.Context(), w, status, data, message)
	return nil
}
