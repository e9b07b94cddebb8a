package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"CadenceFM/core/catalog"
	"CadenceFM/logger"

	"github.com/minio/minio-go/v7"
)

// ObjectRemover is the slice of the MinIO client the cleaner needs.
// *minio.Client satisfies it.
type ObjectRemover interface {
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Cleaner deletes the bucket objects referenced by events about to be
// removed. It is a best-effort batch: every locator is attempted and results
// are aggregated, so one bad object does not stop the rest. A locator whose
// object is already gone counts as deleted.
type Cleaner struct {
	remover ObjectRemover
	bucket  string
}

// NewCleaner creates a Cleaner for the given bucket.
func NewCleaner(remover ObjectRemover, bucket string) *Cleaner {
	return &Cleaner{remover: remover, bucket: bucket}
}

// RemoveAll deletes every locator's object. If any deletion fails, the whole
// batch fails with an UpstreamStorageError listing the failed locators, and
// the caller must not persist the catalog mutation that would orphan those
// assets; retrying with the same locators is safe because successful and
// already-gone deletes are idempotent.
func (c *Cleaner) RemoveAll(ctx context.Context, locators []string) error {
	var failed []string
	var firstErr error

	for _, locator := range locators {
		key, err := c.ObjectKey(locator)
		if err != nil {
			logger.Warn("Skipping undeletable locator", logger.String("locator", locator), logger.ErrorField(err))
			failed = append(failed, locator)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		err = c.remover.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
		if err != nil && !isNotFound(err) {
			logger.Error("Failed to delete object",
				logger.String("bucket", c.bucket),
				logger.String("key", key),
				logger.ErrorField(err))
			failed = append(failed, locator)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Debug("Deleted object", logger.String("bucket", c.bucket), logger.String("key", key))
	}

	if len(failed) > 0 {
		return &catalog.UpstreamStorageError{Failed: failed, Err: firstErr}
	}
	return nil
}

// ObjectKey maps an absolute locator URL to the object key inside the
// bucket. Locators either address the bucket directly
// (http://host/<bucket>/<key>) or go through the public serving prefix
// (http://host/static/<key>).
func (c *Cleaner) ObjectKey(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("invalid locator %q: %w", locator, err)
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return "", fmt.Errorf("locator %q has no object path", locator)
	}
	if rest, ok := strings.CutPrefix(path, c.bucket+"/"); ok {
		path = rest
	} else if rest, ok := strings.CutPrefix(path, "static/"); ok {
		path = rest
	}
	if path == "" {
		return "", fmt.Errorf("locator %q has no object key", locator)
	}
	return path, nil
}

// isNotFound reports whether the error means the object is already gone,
// which the cleaner treats as success.
func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
