package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Paxto2002/project-vidora/internal/auth"
	"github.com/Paxto2002/project-vidora/internal/config"
	"github.com/Paxto2002/project-vidora/internal/db"
	"github.com/Paxto2002/project-vidora/internal/handlers"
	"github.com/Paxto2002/project-vidora/internal/media"
	"github.com/Paxto2002/project-vidora/internal/middleware"
	"github.com/Paxto2002/project-vidora/internal/repositories"
)

const rateLimiterTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup drains the media janitor.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	storage, err := media.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure object store: %w", err)
	}

	janitor := media.NewJanitor(storage, media.JanitorConfig{}, logger)
	uploader := media.NewUploader(storage, media.NewFFProbe(cfg.Probe.Path, cfg.Probe.Timeout))

	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	sessions := auth.NewManager(
		cfg.Tokens.AccessSecret,
		cfg.Tokens.RefreshSecret,
		cfg.Tokens.AccessTTL,
		cfg.Tokens.RefreshTTL,
		repositories.NewPostgresRefreshStore(pool),
	)

	deps := handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Tokens:        sessions,
		Videos:        videos,
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Dashboard:     repositories.NewPostgresDashboardRepository(pool),
		Media:         uploader,
		Janitor:       janitor,
		AuthLimiter:   middleware.NewIPRateLimiter(cfg.RateLimit, rateLimiterTTL),
		Uploads:       handlers.Uploads{Dir: cfg.UploadDir, MaxBytes: cfg.MaxUploadBytes},
		CORSOrigin:    cfg.CORSOrigin,
		SecureCookies: cfg.CookieSecure,
	}
	return deps, janitor.Shutdown, nil
}
