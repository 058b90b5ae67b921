package repositories

import (
	"errors"

	"github.com/Paxto2002/project-vidora/internal/db"
)

var (
	// ErrNotFound indicates the requested record (or a record it references) does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrInvalid indicates the attempted write would violate a check constraint.
	ErrInvalid = errors.New("record violates constraint")
)

// translate maps constraint violations onto the repository sentinels.
func translate(err error) error {
	switch db.ErrorCode(err) {
	case db.CodeUniqueViolation:
		return ErrConflict
	case db.CodeForeignKeyViolation:
		return ErrNotFound
	case db.CodeCheckViolation:
		return ErrInvalid
	}
	return nil
}
