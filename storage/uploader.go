package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

var nonAlphaNumeric = regexp.MustCompile(`[^a-zA-Z0-9_\-\.]`)
var multipleSpaces = regexp.MustCompile(`\s+`)

// ObjectPutter is the slice of the MinIO client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Uploader stores uploaded audio files and cover images in the bucket and
// hands back the locator the catalog will reference. It never touches the
// catalog itself.
type Uploader struct {
	putter     ObjectPutter
	bucket     string
	publicBase string
}

// NewUploader creates an Uploader. publicBase is the URL prefix under which
// bucket objects are served, without a trailing slash.
func NewUploader(putter ObjectPutter, bucket, publicBase string) *Uploader {
	return &Uploader{
		putter:     putter,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// UploadAudio stores an audio file under audio/ and returns the assigned
// track id and locator URL.
func (u *Uploader) UploadAudio(ctx context.Context, r io.Reader, size int64, origName, contentType string) (string, string, error) {
	return u.upload(ctx, r, size, origName, contentType, "audio")
}

// UploadCover stores a cover image under covers/ and returns the assigned id
// and locator URL.
func (u *Uploader) UploadCover(ctx context.Context, r io.Reader, size int64, origName, contentType string) (string, string, error) {
	return u.upload(ctx, r, size, origName, contentType, "covers")
}

func (u *Uploader) upload(ctx context.Context, r io.Reader, size int64, origName, contentType, prefix string) (string, string, error) {
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(origName))
	base := SafeFilenamePrefix(strings.TrimSuffix(filepath.Base(origName), ext))
	key := fmt.Sprintf("%s/%s_%s%s", prefix, base, id, ext)

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := u.putter.PutObject(ctx, u.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return id, u.publicBase + "/" + key, nil
}

// SafeFilenamePrefix sanitizes a display name into something safe to embed
// in an object key.
func SafeFilenamePrefix(name string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = "untitled"
	}
	base = multipleSpaces.ReplaceAllString(base, "_")
	base = nonAlphaNumeric.ReplaceAllString(base, "")

	// Keep object keys reasonably short.
	maxLength := 100
	if len(base) > maxLength {
		base = base[:maxLength]
	}
	if base == "" {
		base = "untitled"
	}
	return base
}
