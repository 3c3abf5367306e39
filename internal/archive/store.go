// Package archive stores chart attachments in S3.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// MaxFileBytes caps a single attachment.
const MaxFileBytes = 10 << 20

var (
	ErrDisabled      = errors.New("archive: attachment storage not configured")
	ErrNotFound      = errors.New("archive: object not found")
	ErrTooLarge      = errors.New("archive: file exceeds 10 MB")
	ErrFileType      = errors.New("archive: unsupported file type")
	ErrFileNameBlank = errors.New("archive: file name required")
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var allowedTypes = map[string]struct{}{
	"application/pdf":   {},
	"image/jpeg":        {},
	"image/png":         {},
	"image/gif":         {},
	"text/plain":        {},
	"application/dicom": {},
}

// Store keeps chart attachments under records/<record id>/.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewStore creates a Store. With an empty bucket every operation returns ErrDisabled.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if storage is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Object describes a stored attachment.
type Object struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
}

// Put uploads body for recordID and returns the object key.
func (s *Store) Put(ctx context.Context, recordID, fileName, contentType string, body io.Reader, size int64) (Object, error) {
	if !s.Enabled() {
		return Object{}, ErrDisabled
	}
	name := SanitizeFileName(fileName)
	if name == "" {
		return Object{}, ErrFileNameBlank
	}
	contentType = normalizeContentType(contentType)
	if _, ok := allowedTypes[contentType]; !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrFileType, contentType)
	}
	if size > MaxFileBytes {
		return Object{}, ErrTooLarge
	}

	key := path.Join("records", recordID, uuid.NewString()+"-"+name)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Metadata:      map[string]string{"record-id": recordID, "file-name": name},
	})
	if err != nil {
		return Object{}, fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("chart attachment stored", "record_id", recordID, "s3_key", key, "bytes", size)
	return Object{Key: key, FileName: name, ContentType: contentType, Size: size}, nil
}

// Open streams the object stored under key. Callers close the reader.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	if !s.Enabled() {
		return nil, Object{}, ErrDisabled
	}
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, Object{}, ErrNotFound
		}
		return nil, Object{}, fmt.Errorf("archive: s3 get %s: %w", key, err)
	}
	return out.Body, Object{
		Key:         key,
		FileName:    out.Metadata["file-name"],
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

// Delete removes the object stored under key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if _, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("archive: s3 delete %s: %w", key, err)
	}
	s.logger.Info("chart attachment deleted", "s3_key", key)
	return nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if len(name) > 120 {
		name = name[len(name)-120:]
	}
	return name
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
