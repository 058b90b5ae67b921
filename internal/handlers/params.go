package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Paxto2002/project-vidora/internal/apperr"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// pathID returns the named path parameter after checking it is a well-formed UUID.
func pathID(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.Validation("invalid "+name, name+" must be a valid id")
	}
	return id.String(), nil
}

// optionalQueryID parses an optional UUID query parameter.
func optionalQueryID(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return "", nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.Validation("invalid "+name, name+" must be a valid id")
	}
	return id.String(), nil
}

// pagination reads page and limit, defaulting to page 1 of 10.
func pagination(r *http.Request) (int, int, error) {
	page, err := positiveQueryInt(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err := positiveQueryInt(r, "limit", defaultPageLimit)
	if err != nil {
		return 0, 0, err
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page > math.MaxInt32/limit {
		return 0, 0, apperr.Validation("invalid page", "page is out of range")
	}
	return page, limit, nil
}

func positiveQueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, apperr.Validation("invalid "+name, name+" must be a positive integer")
	}
	return value, nil
}
