package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Paxto2002/project-vidora/internal/apperr"
	"github.com/Paxto2002/project-vidora/internal/logging"
)

const multipartMemory = 32 << 20

// Uploads controls how multipart files are spooled to local disk before storage.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

// parseMultipart bounds and parses a multipart body. The returned func releases the
// parser's own temporary files.
func (u Uploads) parseMultipart(w http.ResponseWriter, r *http.Request) (func(), error) {
	if u.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, u.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return func() {}, apperr.Validation("upload too large", fmt.Sprintf("request body must not exceed %d bytes", u.MaxBytes))
		}
		return func() {}, apperr.Validation("invalid multipart form", err.Error())
	}
	return func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}, nil
}

// spool copies the multipart file in field to a temporary file and returns its path.
// ok is false when the field is absent. Ownership of the file passes to the caller, which
// hands it to the media uploader.
func (u Uploads) spool(r *http.Request, field string) (path string, ok bool, err error) {
	src, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.Validation("invalid "+field+" file", err.Error())
	}
	defer src.Close()

	if header.Size == 0 {
		return "", false, nil
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.CreateTemp(u.Dir, "vidora-upload-*"+ext)
	if err != nil {
		return "", false, fmt.Errorf("create temporary upload: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		removeSpooled(r, dst.Name())
		return "", false, fmt.Errorf("spool %s: %w", field, err)
	}
	if err := dst.Close(); err != nil {
		removeSpooled(r, dst.Name())
		return "", false, fmt.Errorf("close spooled %s: %w", field, err)
	}

	return dst.Name(), true, nil
}

func removeSpooled(r *http.Request, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(r.Context()).Warn("remove spooled upload", "path", path, "error", err)
	}
}
