package handlers

import (
	"net/http"
	"time"

	"github.com/Paxto2002/project-vidora/internal/middleware"
	"github.com/Paxto2002/project-vidora/internal/models"
)

// RefreshTokenCookie names the cookie carrying the refresh token.
const RefreshTokenCookie = "RefreshToken"

func sessionCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens, secure bool) {
	http.SetCookie(w, sessionCookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt, secure))
	http.SetCookie(w, sessionCookie(RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt, secure))
}

func clearSessionCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		cookie := sessionCookie(name, "", time.Unix(0, 0), secure)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}
