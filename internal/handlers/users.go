package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Paxto2002/project-vidora/internal/apperr"
	"github.com/Paxto2002/project-vidora/internal/auth"
	"github.com/Paxto2002/project-vidora/internal/logging"
	"github.com/Paxto2002/project-vidora/internal/media"
	"github.com/Paxto2002/project-vidora/internal/models"
	"github.com/Paxto2002/project-vidora/internal/repositories"
)

// UserHandler serves registration, sessions and account management.
type UserHandler struct {
	Users         UserStore
	Sessions      SessionManager
	Media         MediaUploader
	Janitor       MediaJanitor
	Uploads       Uploads
	SecureCookies bool
	NowFunc       func() time.Time
}

type registerRequest struct {
	Username string `form:"username" validate:"required,notblank,max=64"`
	Email    string `form:"email" validate:"required,email"`
	FullName string `form:"fullName" validate:"required,notblank,max=128"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required,notblank,max=128"`
	Email    string `json:"email" validate:"required,email"`
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	cleanup, err := h.Uploads.parseMultipart(w, r)
	defer cleanup()
	if err != nil {
		return err
	}

	req := registerRequest{
		Username: strings.ToLower(strings.TrimSpace(r.FormValue("username"))),
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		Password: r.FormValue("password"),
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email); err == nil {
		return apperr.Conflict("User with email or username already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	avatarPath, ok, err := h.Uploads.spool(r, "avatar")
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("Avatar file is required")
	}
	avatar, err := h.Media.Upload(ctx, avatarPath, media.KindAvatar)
	if err != nil {
		return apperr.Upstream("Avatar upload failed", err)
	}

	coverURL := ""
	if coverPath, ok, err := h.Uploads.spool(r, "coverImage"); err != nil {
		logger.Warn("cover image ignored", "error", err)
	} else if ok {
		cover, err := h.Media.Upload(ctx, coverPath, media.KindCover)
		if err != nil {
			logger.Warn("cover image upload failed", "error", err)
		} else {
			coverURL = cover.URL
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.discard(ctx, avatar.URL, coverURL)
		return err
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		Password:      hash,
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		h.discard(ctx, avatar.URL, coverURL)
		if errors.Is(err, repositories.ErrConflict) {
			return apperr.Conflict("User with email or username already exists")
		}
		return err
	}

	logger.Info("user registered", "user_id", user.ID)
	return respond(w, r, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.Users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return storeError(err, "User does not exist")
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperr.Validation("Invalid user credentials")
		}
		return err
	}

	tokens, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		return err
	}

	setSessionCookies(w, tokens, h.SecureCookies)
	logging.FromContext(ctx).Info("user logged in", "user_id", user.ID)
	return respond(w, r, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	if err := h.Sessions.Revoke(r.Context(), user.ID); err != nil {
		return err
	}
	clearSessionCookies(w, h.SecureCookies)
	return respond(w, r, http.StatusOK, struct{}{}, "User logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The refresh token comes from the
// cookie, falling back to the JSON body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) error {
	presented := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		presented = strings.TrimSpace(req.RefreshToken)
	}
	if presented == "" {
		return apperr.Auth("Unauthorized request", nil)
	}

	tokens, err := h.Sessions.Refresh(r.Context(), presented)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return apperr.Auth("Invalid refresh token", err)
	case errors.Is(err, auth.ErrRefreshTokenReused), errors.Is(err, auth.ErrSessionNotFound):
		return apperr.Auth("Refresh token is expired or used", err)
	case err != nil:
		return err
	}

	setSessionCookies(w, tokens, h.SecureCookies)
	return respond(w, r, http.StatusOK, tokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "Access token refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.NewPassword != req.ConfirmPassword {
		return apperr.Validation("New password and confirm password must match")
	}

	if err := auth.CheckPassword(user.Password, req.OldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperr.Validation("Invalid old password")
		}
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := h.Users.UpdatePassword(r.Context(), user.ID, hash, h.now()); err != nil {
		return storeError(err, "User does not exist")
	}
	return respond(w, r, http.StatusOK, struct{}{}, "Password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}
	return respond(w, r, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	updated, err := h.Users.UpdateAccount(r.Context(), user.ID,
		strings.TrimSpace(req.FullName), strings.ToLower(strings.TrimSpace(req.Email)), h.now())
	if errors.Is(err, repositories.ErrConflict) {
		return apperr.Conflict("Email is already in use")
	}
	if err != nil {
		return storeError(err, "User does not exist")
	}
	return respond(w, r, http.StatusOK, updated, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, imageField{
		form:    "avatar",
		kind:    media.KindAvatar,
		label:   "Avatar",
		current: func(u models.User) string { return u.AvatarURL },
		update:  h.Users.UpdateAvatar,
	})
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, imageField{
		form:    "coverImage",
		kind:    media.KindCover,
		label:   "Cover image",
		current: func(u models.User) string { return u.CoverImageURL },
		update:  h.Users.UpdateCoverImage,
	})
}

type imageField struct {
	form    string
	kind    media.Kind
	label   string
	current func(models.User) string
	update  func(ctx context.Context, id, url string, at time.Time) (models.User, error)
}

// replaceImage uploads a new profile image, points the user at it and hands the previous
// image to the janitor.
func (h UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field imageField) error {
	ctx := r.Context()
	user, err := viewer(r)
	if err != nil {
		return err
	}

	cleanup, err := h.Uploads.parseMultipart(w, r)
	defer cleanup()
	if err != nil {
		return err
	}

	path, ok, err := h.Uploads.spool(r, field.form)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation(field.label + " file is missing")
	}

	asset, err := h.Media.Upload(ctx, path, field.kind)
	if err != nil {
		return apperr.Upstream(field.label+" upload failed", err)
	}

	updated, err := field.update(ctx, user.ID, asset.URL, h.now())
	if err != nil {
		h.discard(ctx, asset.URL)
		return storeError(err, "User does not exist")
	}

	h.discard(ctx, field.current(user))
	return respond(w, r, http.StatusOK, updated, field.label+" updated successfully")
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}

	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		return apperr.Validation("username is missing")
	}

	profile, err := h.Users.ChannelProfile(r.Context(), username, user.ID)
	if err != nil {
		return storeError(err, "Channel does not exist")
	}
	return respond(w, r, http.StatusOK, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) error {
	user, err := viewer(r)
	if err != nil {
		return err
	}

	history, err := h.Users.WatchHistory(r.Context(), user.ID)
	if err != nil {
		return err
	}
	if history == nil {
		history = []models.WatchedVideo{}
	}
	return respond(w, r, http.StatusOK, history, "Watch history fetched successfully")
}

func (h UserHandler) discard(ctx context.Context, urls ...string) {
	discardMedia(ctx, h.Janitor, urls...)
}

func (h UserHandler) now() time.Time {
	return nowFrom(h.NowFunc)
}

// discardMedia queues urls for deletion. Empty urls are skipped; queue failures are only logged.
func discardMedia(ctx context.Context, janitor MediaJanitor, urls ...string) {
	if janitor == nil {
		return
	}
	keep := urls[:0:0]
	for _, url := range urls {
		if url != "" {
			keep = append(keep, url)
		}
	}
	if len(keep) == 0 {
		return
	}
	if err := janitor.Discard(ctx, keep...); err != nil {
		logging.FromContext(ctx).Warn("discard media", "urls", keep, "error", err)
	}
}

func nowFrom(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now().UTC()
}
