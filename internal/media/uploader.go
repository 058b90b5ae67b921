package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Paxto2002/project-vidora/internal/logging"
)

// Kind classifies an uploaded asset and selects its storage prefix.
type Kind string

const (
	KindAvatar    Kind = "avatar"
	KindCover     Kind = "cover"
	KindVideo     Kind = "video"
	KindThumbnail Kind = "thumbnail"
)

var kindPrefixes = map[Kind]string{
	KindAvatar:    "avatars",
	KindCover:     "covers",
	KindVideo:     "videos",
	KindThumbnail: "thumbnails",
}

// Asset describes a stored media object.
type Asset struct {
	URL      string
	Key      string
	Duration float64
}

// Prober reads the duration of a local media file.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Uploader moves local temporary files into the media store.
type Uploader struct {
	storage Storage
	prober  Prober
	newKey  func(kind Kind, ext string) string
}

// NewUploader constructs an Uploader. prober may be nil, in which case videos report no duration.
func NewUploader(storage Storage, prober Prober) *Uploader {
	return &Uploader{
		storage: storage,
		prober:  prober,
		newKey:  defaultKey,
	}
}

// Upload stores the file at localPath and returns its public location. The local file is
// removed on every return path. Store failures wrap ErrUploadFailed.
func (u *Uploader) Upload(ctx context.Context, localPath string, kind Kind) (asset Asset, err error) {
	defer u.removeLocal(ctx, localPath)

	if u == nil || u.storage == nil {
		return Asset{}, fmt.Errorf("%w: %w", ErrUploadFailed, ErrStorageUnavailable)
	}
	if _, ok := kindPrefixes[kind]; !ok {
		return Asset{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	ctx, span := logging.StartSpan(ctx, "media.upload", "kind", string(kind))
	defer func() { span.End(err) }()

	if kind == KindVideo {
		asset.Duration = u.probe(ctx, localPath)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: open %s: %w", ErrUploadFailed, filepath.Base(localPath), err)
	}
	defer file.Close()

	key := u.newKey(kind, strings.ToLower(filepath.Ext(localPath)))
	location, err := u.storage.Save(ctx, key, file)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	asset.URL = location
	asset.Key = key
	return asset, nil
}

func (u *Uploader) probe(ctx context.Context, localPath string) float64 {
	if u.prober == nil {
		return 0
	}

	ctx, span := logging.StartSpan(ctx, "media.probe")
	duration, err := u.prober.Duration(ctx, localPath)
	span.End(err)
	if err != nil {
		logging.FromContext(ctx).Warn("video duration probe failed", "error", err)
		return 0
	}
	return duration
}

func (u *Uploader) removeLocal(ctx context.Context, localPath string) {
	if localPath == "" {
		return
	}
	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Warn("remove temporary upload", "path", localPath, "error", err)
	}
}

func defaultKey(kind Kind, ext string) string {
	return path.Join(kindPrefixes[kind], uuid.NewString()+ext)
}
