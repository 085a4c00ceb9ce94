package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError reports a difficulty outside the accepted set. Nothing was
// persisted or published.
type ValidationError struct {
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid deployment request: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageErrorKind classifies persistence failures.
type StorageErrorKind string

const (
	KindUnavailable StorageErrorKind = "unavailable"
	KindDuplicate   StorageErrorKind = "duplicate_key"
	KindNotFound    StorageErrorKind = "not_found"
	KindInvalid     StorageErrorKind = "invalid"
)

// StorageError is returned by every DeploymentStore operation that fails.
type StorageError struct {
	Op   string
	ID   string
	Kind StorageErrorKind
	Err  error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PublishError reports that a deployment was persisted but could not be
// announced on the event bus.
type PublishError struct {
	DeploymentID string
	Err          error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish deployment %s: %v", e.DeploymentID, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// IsStorageKind reports whether err is a StorageError of the given kind.
func IsStorageKind(err error, kind StorageErrorKind) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == kind
}

var errNoRowsAffected = errors.New("no rows affected")

const uniqueViolation = "23505"

// storageError classifies a pgx error for op.
func storageError(op, id string, err error) *StorageError {
	kind := KindUnavailable
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, errNoRowsAffected):
		kind = KindNotFound
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		kind = KindDuplicate
	}
	return &StorageError{Op: op, ID: id, Kind: kind, Err: err}
}
