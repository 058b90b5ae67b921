package media

import "errors"

var (
	// ErrUploadFailed indicates the media store did not accept a file.
	ErrUploadFailed = errors.New("media upload failed")
	// ErrStorageUnavailable indicates no media store is configured.
	ErrStorageUnavailable = errors.New("media storage unavailable")
	// ErrUnknownKind indicates an asset kind without a storage prefix.
	ErrUnknownKind = errors.New("unknown media kind")
)
