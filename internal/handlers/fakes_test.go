package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Paxto2002/project-vidora/internal/auth"
	"github.com/Paxto2002/project-vidora/internal/media"
	"github.com/Paxto2002/project-vidora/internal/models"
	"github.com/Paxto2002/project-vidora/internal/repositories"
)

const testPassword = "correct-horse"

// world is the shared in-memory state behind the fake stores.
type world struct {
	mu       sync.Mutex
	users    map[string]models.User
	videos   map[string]models.Video
	comments map[string]models.Comment
	tweets   map[string]models.Tweet
	likes    map[string]models.Like
	subs     map[string]models.Subscription
	history  map[string]map[string]time.Time
}

func newWorld() *world {
	return &world{
		users:    make(map[string]models.User),
		videos:   make(map[string]models.Video),
		comments: make(map[string]models.Comment),
		tweets:   make(map[string]models.Tweet),
		likes:    make(map[string]models.Like),
		subs:     make(map[string]models.Subscription),
		history:  make(map[string]map[string]time.Time),
	}
}

func (w *world) viewLocked(video models.Video) models.VideoView {
	return models.VideoView{Video: video, Owner: w.users[video.OwnerID].Public()}
}

type userStore struct{ *world }

func (s userStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s userStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s userStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s userStore) modify(id string, fn func(*models.User) error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if err := fn(&user); err != nil {
		return models.User{}, err
	}
	s.users[id] = user
	return user, nil
}

func (s userStore) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	_, err := s.modify(id, func(u *models.User) error {
		u.Password, u.UpdatedAt = hash, at
		return nil
	})
	return err
}

func (s userStore) UpdateAccount(_ context.Context, id, fullName, email string, at time.Time) (models.User, error) {
	return s.modify(id, func(u *models.User) error {
		for otherID, other := range s.users {
			if otherID != id && other.Email == email {
				return repositories.ErrConflict
			}
		}
		u.FullName, u.Email, u.UpdatedAt = fullName, email, at
		return nil
	})
}

func (s userStore) UpdateAvatar(_ context.Context, id, url string, at time.Time) (models.User, error) {
	return s.modify(id, func(u *models.User) error {
		u.AvatarURL, u.UpdatedAt = url, at
		return nil
	})
}

func (s userStore) UpdateCoverImage(_ context.Context, id, url string, at time.Time) (models.User, error) {
	return s.modify(id, func(u *models.User) error {
		u.CoverImageURL, u.UpdatedAt = url, at
		return nil
	})
}

func (s userStore) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username != username {
			continue
		}
		profile := models.ChannelProfile{
			ID:            user.ID,
			Username:      user.Username,
			FullName:      user.FullName,
			AvatarURL:     user.AvatarURL,
			CoverImageURL: user.CoverImageURL,
		}
		for _, sub := range s.subs {
			if sub.ChannelID == user.ID {
				profile.SubscribersCount++
				if sub.SubscriberID == viewerID {
					profile.IsSubscribed = true
				}
			}
			if sub.SubscriberID == user.ID {
				profile.ChannelsSubscribedToCount++
			}
		}
		return profile, nil
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (s userStore) WatchHistory(_ context.Context, userID string) ([]models.WatchedVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WatchedVideo
	for videoID, at := range s.history[userID] {
		if video, ok := s.videos[videoID]; ok {
			out = append(out, models.WatchedVideo{VideoView: s.viewLocked(video), WatchedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WatchedAt.After(out[j].WatchedAt) })
	return out, nil
}

func (s userStore) AddToWatchHistory(_ context.Context, userID, videoID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[videoID]; !ok {
		return repositories.ErrNotFound
	}
	if s.history[userID] == nil {
		s.history[userID] = make(map[string]time.Time)
	}
	s.history[userID][videoID] = at
	return nil
}

type videoStore struct{ *world }

func (s videoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[video.OwnerID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s videoStore) FindByID(_ context.Context, id string) (models.VideoView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.VideoView{}, repositories.ErrNotFound
	}
	return s.viewLocked(video), nil
}

func (s videoStore) List(_ context.Context, q models.VideoQuery) (models.Page[models.VideoView], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.VideoView
	for _, video := range s.videos {
		if !video.IsPublished && video.OwnerID != q.ViewerID {
			continue
		}
		if q.OwnerID != "" && video.OwnerID != q.OwnerID {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(video.Title), strings.ToLower(q.Search)) {
			continue
		}
		matched = append(matched, s.viewLocked(video))
	}
	less := func(a, b models.VideoView) bool {
		switch q.SortBy {
		case models.SortByViews:
			return a.Views < b.Views
		case models.SortByDuration:
			return a.Duration < b.Duration
		case models.SortByTitle:
			return a.Title < b.Title
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	sort.Slice(matched, func(i, j int) bool {
		if q.Ascending {
			return less(matched[i], matched[j])
		}
		return less(matched[j], matched[i])
	})
	return paginate(matched, q.Page, q.Limit), nil
}

func (s videoStore) Update(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s videoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	for commentID, comment := range s.comments {
		if comment.VideoID == id {
			delete(s.comments, commentID)
		}
	}
	for key, like := range s.likes {
		if like.VideoID != nil && *like.VideoID == id {
			delete(s.likes, key)
		}
	}
	for _, watched := range s.history {
		delete(watched, id)
	}
	return nil
}

func (s videoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type commentStore struct{ *world }

func (s commentStore) Create(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[comment.VideoID]; !ok {
		return repositories.ErrNotFound
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s commentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s commentStore) ListForVideo(_ context.Context, videoID string, page, limit int) (models.Page[models.CommentView], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.CommentView
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			matched = append(matched, models.CommentView{Comment: comment, Owner: s.users[comment.OwnerID].Public()})
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, page, limit), nil
}

func (s commentStore) Update(_ context.Context, id, content string, at time.Time) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content, comment.UpdatedAt = content, at
	s.comments[id] = comment
	return comment, nil
}

func (s commentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type tweetStore struct{ *world }

func (s tweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s tweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s tweetStore) ListByOwner(_ context.Context, ownerID string) ([]models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Tweet
	for _, tweet := range s.tweets {
		if tweet.OwnerID == ownerID {
			out = append(out, tweet)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s tweetStore) Update(_ context.Context, id, content string, at time.Time) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content, tweet.UpdatedAt = content, at
	s.tweets[id] = tweet
	return tweet, nil
}

func (s tweetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

type likeStore struct{ *world }

func (s likeStore) Toggle(_ context.Context, like models.Like) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := like.Target()
	var exists bool
	switch target.Kind {
	case models.LikeTargetVideo:
		_, exists = s.videos[target.ID]
	case models.LikeTargetComment:
		_, exists = s.comments[target.ID]
	case models.LikeTargetTweet:
		_, exists = s.tweets[target.ID]
	}
	if !exists {
		return false, repositories.ErrNotFound
	}
	key := fmt.Sprintf("%s:%s:%s", target.Kind, target.ID, like.LikedBy)
	if _, ok := s.likes[key]; ok {
		delete(s.likes, key)
		return false, nil
	}
	s.likes[key] = like
	return true, nil
}

func (s likeStore) LikedVideos(_ context.Context, userID string) ([]models.LikedVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LikedVideo
	for _, like := range s.likes {
		if like.LikedBy != userID || like.VideoID == nil {
			continue
		}
		if video, ok := s.videos[*like.VideoID]; ok {
			out = append(out, models.LikedVideo{VideoView: s.viewLocked(video), LikedAt: like.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LikedAt.After(out[j].LikedAt) })
	return out, nil
}

type subscriptionStore struct {
	*world
	toggles int
}

func (s *subscriptionStore) Toggle(_ context.Context, sub models.Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggles++
	if sub.SubscriberID == sub.ChannelID {
		return false, repositories.ErrInvalid
	}
	if _, ok := s.users[sub.ChannelID]; !ok {
		return false, repositories.ErrNotFound
	}
	key := sub.SubscriberID + ":" + sub.ChannelID
	if _, ok := s.subs[key]; ok {
		delete(s.subs, key)
		return false, nil
	}
	s.subs[key] = sub
	return true, nil
}

func (s *subscriptionStore) Subscribers(_ context.Context, channelID string) ([]models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PublicUser
	for _, sub := range s.subs {
		if sub.ChannelID == channelID {
			out = append(out, s.users[sub.SubscriberID].Public())
		}
	}
	return out, nil
}

func (s *subscriptionStore) SubscribedChannels(_ context.Context, subscriberID string) ([]models.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PublicUser
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID {
			out = append(out, s.users[sub.ChannelID].Public())
		}
	}
	return out, nil
}

type dashboardStore struct{ *world }

func (s dashboardStore) ChannelStats(_ context.Context, ownerID string) (models.ChannelStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats models.ChannelStats
	for _, video := range s.videos {
		if video.OwnerID != ownerID {
			continue
		}
		stats.TotalVideos++
		stats.TotalViews += video.Views
		for _, like := range s.likes {
			if like.VideoID != nil && *like.VideoID == video.ID {
				stats.TotalLikes++
			}
		}
	}
	for _, sub := range s.subs {
		if sub.ChannelID == ownerID {
			stats.TotalSubscribers++
		}
	}
	return stats, nil
}

func (s dashboardStore) ChannelVideos(_ context.Context, ownerID string) ([]models.ChannelVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChannelVideo
	for _, video := range s.videos {
		if video.OwnerID != ownerID {
			continue
		}
		row := models.ChannelVideo{Video: video}
		for _, like := range s.likes {
			if like.VideoID != nil && *like.VideoID == video.ID {
				row.LikeCount++
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func paginate[T any](items []T, page, limit int) models.Page[T] {
	total := int64(len(items))
	start := models.Offset(page, limit)
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return models.NewPage(items[start:end], total, page, limit)
}

// stubUploader stores nothing but honours the temp file contract.
type stubUploader struct {
	mu       sync.Mutex
	fail     map[media.Kind]bool
	duration float64
	uploads  []media.Kind
}

func (u *stubUploader) Upload(_ context.Context, localPath string, kind media.Kind) (media.Asset, error) {
	defer os.Remove(localPath)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads = append(u.uploads, kind)
	if u.fail[kind] {
		return media.Asset{}, fmt.Errorf("%w: storage down", media.ErrUploadFailed)
	}
	asset := media.Asset{Key: fmt.Sprintf("%s/%s", kind, uuid.NewString())}
	asset.URL = "https://cdn.test/" + asset.Key
	if kind == media.KindVideo {
		asset.Duration = u.duration
	}
	return asset, nil
}

func (u *stubUploader) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uploads)
}

type recordingJanitor struct {
	mu   sync.Mutex
	urls []string
}

func (j *recordingJanitor) Discard(_ context.Context, urls ...string) error {
	j.mu.Lock()
	j.urls = append(j.urls, urls...)
	j.mu.Unlock()
	return nil
}

func (j *recordingJanitor) discarded() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.urls...)
}

type testEnv struct {
	t        *testing.T
	world    *world
	subs     *subscriptionStore
	uploader *stubUploader
	janitor  *recordingJanitor
	refresh  *auth.InMemoryRefreshStore
	router   http.Handler

	clockMu sync.Mutex
	clock   time.Time
}

type envOption func(*Dependencies)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		t:        t,
		world:    newWorld(),
		uploader: &stubUploader{fail: map[media.Kind]bool{}, duration: 42.5},
		janitor:  &recordingJanitor{},
		refresh:  auth.NewInMemoryRefreshStore(),
		clock:    time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	env.subs = &subscriptionStore{world: env.world}
	manager := auth.NewManager("access-secret", "refresh-secret", time.Minute, time.Hour, env.refresh)

	deps := Dependencies{
		Users:         userStore{env.world},
		Sessions:      manager,
		Tokens:        manager,
		Videos:        videoStore{env.world},
		Comments:      commentStore{env.world},
		Tweets:        tweetStore{env.world},
		Likes:         likeStore{env.world},
		Subscriptions: env.subs,
		Dashboard:     dashboardStore{env.world},
		Media:         env.uploader,
		Janitor:       env.janitor,
		Uploads:       Uploads{Dir: t.TempDir(), MaxBytes: 1 << 20},
		SecureCookies: true,
		NowFunc:       env.now,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.router = NewRouter(deps)
	return env
}

// now advances one second per call so records created in sequence have distinct times.
func (e *testEnv) now() time.Time {
	e.clockMu.Lock()
	defer e.clockMu.Unlock()
	e.clock = e.clock.Add(time.Second)
	return e.clock
}

type account struct {
	user  models.User
	token string
}

func (e *testEnv) seedUser(username string) account {
	e.t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	now := e.now()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  strings.ToUpper(username[:1]) + username[1:],
		Password:  hash,
		AvatarURL: "https://cdn.test/avatar/" + username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := (userStore{e.world}).Create(context.Background(), user); err != nil {
		e.t.Fatalf("seed user: %v", err)
	}

	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, testPassword)
	rec := e.do(http.MethodPost, "/api/v1/users/login", "", strings.NewReader(body), "application/json")
	if rec.Code != http.StatusOK {
		e.t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	var data loginResponse
	decodeData(e.t, rec, &data)
	return account{user: user, token: data.AccessToken}
}

func (e *testEnv) seedVideo(owner models.User, title string, published bool) models.Video {
	e.t.Helper()
	now := e.now()
	video := models.Video{
		ID:          uuid.NewString(),
		Title:       title,
		Description: title + " description",
		VideoURL:    "https://cdn.test/video/" + title,
		Duration:    60,
		IsPublished: published,
		OwnerID:     owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := (videoStore{e.world}).Create(context.Background(), video); err != nil {
		e.t.Fatalf("seed video: %v", err)
	}
	return video
}

func (e *testEnv) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(method, path, token string, payload any) *httptest.ResponseRecorder {
	e.t.Helper()
	if payload == nil {
		return e.do(method, path, token, nil, "")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		e.t.Fatalf("marshal: %v", err)
	}
	return e.do(method, path, token, bytes.NewReader(raw), "application/json")
}

type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.field, file.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, file.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Errors     []string        `json:"errors"`
	Success    bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if env.StatusCode != rec.Code {
		t.Fatalf("envelope status %d does not match response status %d", env.StatusCode, rec.Code)
	}
	if env.Success != (rec.Code >= 200 && rec.Code < 400) {
		t.Fatalf("envelope success %v inconsistent with status %d", env.Success, rec.Code)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (body %s)", err, rec.Body.String())
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d got %d: %s", want, rec.Code, rec.Body.String())
	}
}
