package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Paxto2002/project-vidora/internal/media"
	"github.com/Paxto2002/project-vidora/internal/models"
)

func registerFields() map[string]string {
	return map[string]string{
		"username": "  Carol ",
		"email":    "Carol@Example.com",
		"fullName": "Carol Jones",
		"password": "supersafe",
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, registerFields(),
		formFile{field: "avatar", name: "me.png", content: "png"},
		formFile{field: "coverImage", name: "cover.jpg", content: "jpg"},
	)
	rec := env.do(http.MethodPost, "/api/v1/users/register", "", body, contentType)
	expectStatus(t, rec, http.StatusCreated)

	if strings.Contains(rec.Body.String(), "supersafe") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("credentials leaked in response: %s", rec.Body.String())
	}

	var created models.User
	decodeData(t, rec, &created)
	if created.Username != "carol" || created.Email != "carol@example.com" {
		t.Fatalf("expected normalized identity, got %+v", created)
	}
	if created.AvatarURL == "" || created.CoverImageURL == "" {
		t.Fatalf("expected avatar and cover urls, got %+v", created)
	}

	stored, err := userStore{env.world}.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if stored.Password == "supersafe" {
		t.Fatal("password stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not a bcrypt hash of the input")
	}
}

func TestRegisterRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(map[string]string)
		files   []formFile
		fail    media.Kind
		want    int
		uploads int
	}{
		{
			name:   "blankUsername",
			mutate: func(f map[string]string) { f["username"] = "   " },
			files:  []formFile{{field: "avatar", name: "a.png", content: "png"}},
			want:   http.StatusBadRequest,
		},
		{
			name:   "badEmail",
			mutate: func(f map[string]string) { f["email"] = "not-an-email" },
			files:  []formFile{{field: "avatar", name: "a.png", content: "png"}},
			want:   http.StatusBadRequest,
		},
		{
			name:   "shortPassword",
			mutate: func(f map[string]string) { f["password"] = "short" },
			files:  []formFile{{field: "avatar", name: "a.png", content: "png"}},
			want:   http.StatusBadRequest,
		},
		{
			name:   "missingAvatar",
			mutate: func(map[string]string) {},
			want:   http.StatusBadRequest,
		},
		{
			name:    "avatarUploadFails",
			mutate:  func(map[string]string) {},
			files:   []formFile{{field: "avatar", name: "a.png", content: "png"}},
			fail:    media.KindAvatar,
			want:    http.StatusInternalServerError,
			uploads: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tc.fail != "" {
				env.uploader.fail[tc.fail] = true
			}
			fields := registerFields()
			tc.mutate(fields)
			body, contentType := multipartBody(t, fields, tc.files...)

			rec := env.do(http.MethodPost, "/api/v1/users/register", "", body, contentType)
			expectStatus(t, rec, tc.want)
			decodeEnvelope(t, rec)

			if got := env.uploader.count(); got != tc.uploads {
				t.Fatalf("expected %d uploads got %d", tc.uploads, got)
			}
			if len(env.world.users) != 0 {
				t.Fatal("no user should be stored")
			}
		})
	}
}

func TestRegisterConflictChecksBeforeUpload(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("carol")

	body, contentType := multipartBody(t, registerFields(), formFile{field: "avatar", name: "a.png", content: "png"})
	rec := env.do(http.MethodPost, "/api/v1/users/register", "", body, contentType)
	expectStatus(t, rec, http.StatusConflict)

	if env.uploader.count() != 0 {
		t.Fatal("expected no upload for a taken username")
	}
}

func TestRegisterIgnoresCoverFailure(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.fail[media.KindCover] = true

	body, contentType := multipartBody(t, registerFields(),
		formFile{field: "avatar", name: "a.png", content: "png"},
		formFile{field: "coverImage", name: "c.png", content: "png"},
	)
	rec := env.do(http.MethodPost, "/api/v1/users/register", "", body, contentType)
	expectStatus(t, rec, http.StatusCreated)

	var created models.User
	decodeData(t, rec, &created)
	if created.CoverImageURL != "" {
		t.Fatalf("expected empty cover image, got %q", created.CoverImageURL)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("alice")

	cases := []struct {
		name    string
		payload map[string]string
		want    int
	}{
		{"byUsername", map[string]string{"username": "ALICE", "password": testPassword}, http.StatusOK},
		{"byEmail", map[string]string{"email": "alice@example.com", "password": testPassword}, http.StatusOK},
		{"wrongPassword", map[string]string{"username": "alice", "password": "nope"}, http.StatusBadRequest},
		{"unknownUser", map[string]string{"username": "nobody", "password": testPassword}, http.StatusNotFound},
		{"noIdentity", map[string]string{"password": testPassword}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.doJSON(http.MethodPost, "/api/v1/users/login", "", tc.payload)
			expectStatus(t, rec, tc.want)
			if tc.want != http.StatusOK {
				decodeEnvelope(t, rec)
				return
			}

			var data loginResponse
			decodeData(t, rec, &data)
			if data.AccessToken == "" || data.RefreshToken == "" {
				t.Fatalf("expected tokens, got %+v", data)
			}

			cookies := map[string]*http.Cookie{}
			for _, c := range rec.Result().Cookies() {
				cookies[c.Name] = c
			}
			for _, name := range []string{"AccessToken", RefreshTokenCookie} {
				c, ok := cookies[name]
				if !ok {
					t.Fatalf("expected %s cookie", name)
				}
				if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
					t.Fatalf("cookie %s missing hardening flags: %+v", name, c)
				}
			}
		})
	}
}

func TestRefreshTokenRotatesOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("alice")

	rec := env.doJSON(http.MethodPost, "/api/v1/users/login", "", map[string]string{"username": "alice", "password": testPassword})
	expectStatus(t, rec, http.StatusOK)
	var login loginResponse
	decodeData(t, rec, &login)

	req := func(token string) int {
		r := env.doJSON(http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": token})
		decodeEnvelope(t, r)
		return r.Code
	}

	if got := req(login.RefreshToken); got != http.StatusOK {
		t.Fatalf("expected first rotation to succeed, got %d", got)
	}
	if got := req(login.RefreshToken); got != http.StatusUnauthorized {
		t.Fatalf("expected reused refresh token to fail, got %d", got)
	}
	if got := req("garbage"); got != http.StatusUnauthorized {
		t.Fatalf("expected malformed token to fail, got %d", got)
	}

	missing := env.do(http.MethodPost, "/api/v1/users/refresh-token", "", nil, "")
	expectStatus(t, missing, http.StatusUnauthorized)
}

func TestRefreshTokenFromCookie(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	stored, ok := env.refresh.Token(alice.user.ID)
	if !ok {
		t.Fatal("expected login to store a refresh token")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: stored})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	var tokens tokenResponse
	decodeData(t, rec, &tokens)
	if tokens.RefreshToken == stored {
		t.Fatal("expected a rotated refresh token")
	}
	if current, _ := env.refresh.Token(alice.user.ID); current != tokens.RefreshToken {
		t.Fatal("expected stored token to match the rotated one")
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	stored, _ := env.refresh.Token(alice.user.ID)

	rec := env.doJSON(http.MethodPost, "/api/v1/users/logout", alice.token, nil)
	expectStatus(t, rec, http.StatusOK)
	if _, ok := env.refresh.Token(alice.user.ID); ok {
		t.Fatal("expected refresh token to be cleared")
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Fatalf("expected cookie %s to be expired", c.Name)
		}
	}

	rec = env.doJSON(http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": stored})
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")

	cases := []struct {
		name    string
		payload map[string]string
		want    int
	}{
		{"mismatchedConfirm", map[string]string{"oldPassword": testPassword, "newPassword": "brand-new-pw", "confirmPassword": "other-pw-123"}, http.StatusBadRequest},
		{"wrongOld", map[string]string{"oldPassword": "wrong", "newPassword": "brand-new-pw", "confirmPassword": "brand-new-pw"}, http.StatusBadRequest},
		{"tooShort", map[string]string{"oldPassword": testPassword, "newPassword": "short", "confirmPassword": "short"}, http.StatusBadRequest},
		{"success", map[string]string{"oldPassword": testPassword, "newPassword": "brand-new-pw", "confirmPassword": "brand-new-pw"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.doJSON(http.MethodPost, "/api/v1/users/change-password", alice.token, tc.payload)
			expectStatus(t, rec, tc.want)
		})
	}

	rec := env.doJSON(http.MethodPost, "/api/v1/users/login", "", map[string]string{"username": "alice", "password": "brand-new-pw"})
	expectStatus(t, rec, http.StatusOK)
}

func TestUserEndpointsRequireAuthentication(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/v1/users/current-user", "/api/v1/users/history", "/api/v1/videos", "/api/v1/dashboard/stats"} {
		rec := env.do(http.MethodGet, path, "", nil, "")
		expectStatus(t, rec, http.StatusUnauthorized)
		decodeEnvelope(t, rec)
	}

	rec := env.do(http.MethodGet, "/api/v1/users/current-user", "not-a-jwt", nil, "")
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestCurrentUserAndUpdateAccount(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	env.seedUser("bob")

	rec := env.do(http.MethodGet, "/api/v1/users/current-user", alice.token, nil, "")
	expectStatus(t, rec, http.StatusOK)
	var current models.User
	decodeData(t, rec, &current)
	if current.ID != alice.user.ID {
		t.Fatalf("expected alice, got %+v", current)
	}

	rec = env.doJSON(http.MethodPatch, "/api/v1/users/update-account", alice.token, map[string]string{"fullName": "Alice A", "email": "bob@example.com"})
	expectStatus(t, rec, http.StatusConflict)

	rec = env.doJSON(http.MethodPatch, "/api/v1/users/update-account", alice.token, map[string]string{"fullName": "Alice A", "email": "ALICE2@example.com"})
	expectStatus(t, rec, http.StatusOK)
	var updated models.User
	decodeData(t, rec, &updated)
	if updated.FullName != "Alice A" || updated.Email != "alice2@example.com" {
		t.Fatalf("unexpected update %+v", updated)
	}
}

func TestUpdateAvatarDiscardsPrevious(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")

	body, contentType := multipartBody(t, nil)
	rec := env.do(http.MethodPatch, "/api/v1/users/avatar", alice.token, body, contentType)
	expectStatus(t, rec, http.StatusBadRequest)

	body, contentType = multipartBody(t, nil, formFile{field: "avatar", name: "new.png", content: "png"})
	rec = env.do(http.MethodPatch, "/api/v1/users/avatar", alice.token, body, contentType)
	expectStatus(t, rec, http.StatusOK)

	var updated models.User
	decodeData(t, rec, &updated)
	if updated.AvatarURL == alice.user.AvatarURL {
		t.Fatal("expected avatar url to change")
	}
	discarded := env.janitor.discarded()
	if len(discarded) != 1 || discarded[0] != alice.user.AvatarURL {
		t.Fatalf("expected old avatar to be discarded, got %v", discarded)
	}
}

func TestChannelProfileAndHistory(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice")
	bob := env.seedUser("bob")
	first := env.seedVideo(bob.user, "first", true)
	second := env.seedVideo(bob.user, "second", true)

	rec := env.do(http.MethodPost, "/api/v1/subscriptions/"+bob.user.ID, alice.token, nil, "")
	expectStatus(t, rec, http.StatusCreated)

	rec = env.do(http.MethodGet, "/api/v1/users/c/BOB", alice.token, nil, "")
	expectStatus(t, rec, http.StatusOK)
	var profile models.ChannelProfile
	decodeData(t, rec, &profile)
	if profile.SubscribersCount != 1 || !profile.IsSubscribed || profile.ChannelsSubscribedToCount != 0 {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if strings.Contains(rec.Body.String(), "email") {
		t.Fatalf("profile exposes private fields: %s", rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/api/v1/users/c/nobody", alice.token, nil, "")
	expectStatus(t, rec, http.StatusNotFound)

	for _, id := range []string{first.ID, second.ID, first.ID} {
		expectStatus(t, env.do(http.MethodGet, "/api/v1/videos/"+id, alice.token, nil, ""), http.StatusOK)
	}

	rec = env.do(http.MethodGet, "/api/v1/users/history", alice.token, nil, "")
	expectStatus(t, rec, http.StatusOK)
	var history []models.WatchedVideo
	decodeData(t, rec, &history)
	if len(history) != 2 || history[0].ID != first.ID || history[1].ID != second.ID {
		t.Fatalf("expected most recent first without duplicates, got %+v", history)
	}
	if history[0].Owner.Username != "bob" {
		t.Fatalf("expected owner projection, got %+v", history[0].Owner)
	}
}

func TestCredentialEndpointsAreRateLimited(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies) { d.AuthLimiter = denyAll{} })

	rec := env.doJSON(http.MethodPost, "/api/v1/users/login", "", map[string]string{"username": "alice", "password": testPassword})
	expectStatus(t, rec, http.StatusTooManyRequests)
	decodeEnvelope(t, rec)
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }
