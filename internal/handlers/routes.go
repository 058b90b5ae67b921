package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/Paxto2002/project-vidora/internal/apperr"
	"github.com/Paxto2002/project-vidora/internal/middleware"
	"github.com/Paxto2002/project-vidora/internal/response"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Tokens        middleware.TokenVerifier
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Dashboard     DashboardStore
	Media         MediaUploader
	Janitor       MediaJanitor
	AuthLimiter   middleware.RateLimiter
	Uploads       Uploads
	CORSOrigin    string
	SecureCookies bool
	NowFunc       func() time.Time
}

// NewRouter builds the HTTP routing tree under /api/v1.
func NewRouter(deps Dependencies) http.Handler {
	health := HealthHandler{}
	users := UserHandler{
		Users:         deps.Users,
		Sessions:      deps.Sessions,
		Media:         deps.Media,
		Janitor:       deps.Janitor,
		Uploads:       deps.Uploads,
		SecureCookies: deps.SecureCookies,
		NowFunc:       deps.NowFunc,
	}
	videos := VideoHandler{
		Videos:  deps.Videos,
		History: deps.Users,
		Media:   deps.Media,
		Janitor: deps.Janitor,
		Uploads: deps.Uploads,
		NowFunc: deps.NowFunc,
	}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, NowFunc: deps.NowFunc}
	tweets := TweetHandler{Tweets: deps.Tweets, Users: deps.Users, NowFunc: deps.NowFunc}
	likes := LikeHandler{Likes: deps.Likes, Videos: deps.Videos, NowFunc: deps.NowFunc}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users, NowFunc: deps.NowFunc}
	dashboard := DashboardHandler{Dashboard: deps.Dashboard}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(deps.CORSOrigin),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(r.Context(), w, apperr.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(r.Context(), w, apperr.MethodNotAllowed("method not allowed"))
	})

	r.Get("/healthcheck", handle(health.Handle))

	authenticate := middleware.Authenticate(deps.Tokens, deps.Users)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", handle(health.Handle))

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if deps.AuthLimiter != nil {
					r.Use(middleware.RateLimit(deps.AuthLimiter, "credentials"))
				}
				r.Post("/register", handle(users.Register))
				r.Post("/login", handle(users.Login))
			})
			r.Post("/refresh-token", handle(users.RefreshToken))

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/logout", handle(users.Logout))
				r.Post("/change-password", handle(users.ChangePassword))
				r.Get("/current-user", handle(users.CurrentUser))
				r.Patch("/update-account", handle(users.UpdateAccount))
				r.Patch("/avatar", handle(users.UpdateAvatar))
				r.Patch("/cover-image", handle(users.UpdateCoverImage))
				r.Get("/c/{username}", handle(users.ChannelProfile))
				r.Get("/history", handle(users.WatchHistory))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", handle(videos.List))
				r.Post("/", handle(videos.Publish))
				r.Route("/{videoId}", func(r chi.Router) {
					r.Get("/", handle(videos.Get))
					r.Patch("/", handle(videos.Update))
					r.Delete("/", handle(videos.Delete))
					r.Patch("/toggle-publish", handle(videos.TogglePublish))
					r.Get("/comments", handle(comments.List))
					r.Post("/comments", handle(comments.Add))
				})
			})

			r.Route("/comments/{commentId}", func(r chi.Router) {
				r.Patch("/", handle(comments.Update))
				r.Delete("/", handle(comments.Delete))
			})

			r.Route("/tweets", func(r chi.Router) {
				r.Post("/", handle(tweets.Create))
				r.Get("/user/{userId}", handle(tweets.ListByUser))
				r.Patch("/{tweetId}", handle(tweets.Update))
				r.Delete("/{tweetId}", handle(tweets.Delete))
			})

			r.Route("/likes", func(r chi.Router) {
				r.Post("/video/{videoId}", handle(likes.ToggleVideo))
				r.Post("/comment/{commentId}", handle(likes.ToggleComment))
				r.Post("/tweet/{tweetId}", handle(likes.ToggleTweet))
				r.Get("/videos", handle(likes.LikedVideos))
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/{channelId}", handle(subscriptions.Toggle))
				r.Get("/{channelId}/subscribers", handle(subscriptions.Subscribers))
				r.Get("/user/{subscriberId}/channels", handle(subscriptions.Channels))
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", handle(dashboard.Stats))
				r.Get("/videos", handle(dashboard.Videos))
			})
		})
	})

	return r
}

func corsOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
