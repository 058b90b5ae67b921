package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Paxto2002/project-vidora/internal/models"
)

var (
	// ErrSessionNotFound indicates the user has no stored refresh token or no longer exists.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenReused indicates the presented refresh token is not the one currently stored.
	ErrRefreshTokenReused = errors.New("refresh token already used")
	// ErrInvalidToken indicates a credential failed signature, expiry or claim checks.
	ErrInvalidToken = errors.New("invalid token")
)

// RefreshStore persists the single active refresh token of each user.
type RefreshStore interface {
	// Save replaces the stored refresh token for userID.
	Save(ctx context.Context, userID, token string) error
	// Swap replaces presented with next only if presented is the stored value.
	// It returns ErrRefreshTokenReused when the stored value differs.
	Swap(ctx context.Context, userID, presented, next string) error
	// Clear removes the stored refresh token for userID.
	Clear(ctx context.Context, userID string) error
}

// Claims are the JWT claims carried by access and refresh tokens.
type Claims struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues, verifies and rotates signed session tokens.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store RefreshStore
	now   func() time.Time
}

// NewManager constructs a Manager. Access and refresh tokens are signed with separate secrets.
func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, store RefreshStore) *Manager {
	if store == nil {
		panic("auth: refresh store must not be nil")
	}
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		store:         store,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs a new token pair for user and stores the refresh token, replacing any prior one.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	if user.ID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	tokens, err := m.sign(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.Save(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}
	return tokens, nil
}

// Refresh verifies presented and atomically rotates it for a new pair. A refresh token can be
// rotated once; any later presentation fails with ErrRefreshTokenReused.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.SessionTokens, error) {
	if presented == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	claims, err := parse(presented, m.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, err
	}

	user := models.User{ID: claims.Subject, Username: claims.Username, Email: claims.Email}
	tokens, err := m.sign(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.Swap(ctx, user.ID, presented, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, err
	}
	return tokens, nil
}

// Revoke clears the stored refresh token for userID.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.Clear(ctx, userID)
}

// VerifyAccess validates an access token and returns its claims.
func (m *Manager) VerifyAccess(token string) (Claims, error) {
	return parse(token, m.accessSecret)
}

func (m *Manager) sign(user models.User) (models.SessionTokens, error) {
	now := m.now()
	accessExpires := now.Add(m.accessTTL)
	refreshExpires := now.Add(m.refreshTTL)

	access, err := signToken(Claims{
		Username:         user.Username,
		Email:            user.Email,
		RegisteredClaims: registered(user.ID, now, accessExpires),
	}, m.accessSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := signToken(Claims{
		Username:         user.Username,
		Email:            user.Email,
		RegisteredClaims: registered(user.ID, now, refreshExpires),
	}, m.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// registered carries a random jti so two tokens minted in the same second still differ.
func registered(subject string, issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func signToken(claims Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parse(token string, secret []byte) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
