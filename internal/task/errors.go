package task

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// ValidationError reports input rejected before any state was touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Collection names used in NotFoundError.
const (
	CollectionActive    = "active tasks"
	CollectionScheduled = "scheduled tasks"
	CollectionPending   = "pending promotions"
)

// NotFoundError reports an id that is absent from the collection an
// operation expected it in.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%q not found among %s", e.ID, e.Collection)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
