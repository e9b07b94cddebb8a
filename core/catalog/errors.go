package catalog

import "fmt"

// The four externally observable error classes. Callers match them with
// errors.As to decide on status codes and retry policy: validation and
// not-found are caller mistakes with no state changed, upstream-storage means
// the blob store failed and the catalog was deliberately left untouched,
// storage means the catalog document itself could not be written.

// ValidationError reports malformed caller-supplied data, naming the field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a reference to an event id that does not exist.
type NotFoundError struct {
	EventID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("event %s not found", e.EventID)
}

// UpstreamStorageError reports that one or more blob-store deletions failed.
// The catalog is unchanged when this is returned, so retrying the same
// operation is safe.
type UpstreamStorageError struct {
	Failed []string // locators that could not be deleted
	Err    error
}

func (e *UpstreamStorageError) Error() string {
	return fmt.Sprintf("object storage delete failed for %d locator(s): %v", len(e.Failed), e.Err)
}

func (e *UpstreamStorageError) Unwrap() error { return e.Err }

// StorageError reports that the catalog document could not be read or
// written. Distinct from UpstreamStorageError because it means the system's
// own source of truth is impaired, not a dependent asset store.
type StorageError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("catalog storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
