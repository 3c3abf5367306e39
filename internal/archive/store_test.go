package archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutAndOpen(t *testing.T) {
	store := NewStore(NewMemoryObjects(), "charts", nil)
	ctx := context.Background()

	obj, err := store.Put(ctx, "rec-1", "../../Lab Results (March).pdf", "application/pdf; charset=binary", strings.NewReader("%PDF-1.7"), 8)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "records/rec-1/"))
	assert.True(t, strings.HasSuffix(obj.Key, "-Lab_Results_March_.pdf"), obj.Key)
	assert.Equal(t, "application/pdf", obj.ContentType)

	rc, meta, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
	assert.Equal(t, "Lab_Results_March_.pdf", meta.FileName)
	assert.Equal(t, int64(8), meta.Size)
}

func TestStoreOpenMissing(t *testing.T) {
	store := NewStore(NewMemoryObjects(), "charts", nil)
	_, _, err := store.Open(context.Background(), "records/none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRejects(t *testing.T) {
	store := NewStore(NewMemoryObjects(), "charts", nil)
	ctx := context.Background()

	_, err := store.Put(ctx, "rec-1", "run.exe", "application/x-msdownload", strings.NewReader("MZ"), 2)
	assert.ErrorIs(t, err, ErrFileType)

	_, err = store.Put(ctx, "rec-1", "scan.png", "image/png", strings.NewReader(""), MaxFileBytes+1)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = store.Put(ctx, "rec-1", "   ", "image/png", strings.NewReader(""), 0)
	assert.ErrorIs(t, err, ErrFileNameBlank)
}

func TestStoreDisabled(t *testing.T) {
	store := NewStore(nil, "", nil)
	assert.False(t, store.Enabled())

	_, err := store.Put(context.Background(), "rec-1", "a.pdf", "application/pdf", strings.NewReader(""), 0)
	assert.ErrorIs(t, err, ErrDisabled)
	_, _, err = store.Open(context.Background(), "k")
	assert.ErrorIs(t, err, ErrDisabled)
}

type failingS3 struct{ *MemoryObjects }

func (f failingS3) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return nil, errors.New("AccessDenied")
}

func TestStorePutWrapsS3Error(t *testing.T) {
	store := NewStore(failingS3{NewMemoryObjects()}, "charts", nil)
	_, err := store.Put(context.Background(), "rec-1", "a.pdf", "application/pdf", strings.NewReader("x"), 1)
	assert.ErrorContains(t, err, "s3 put")
}

func TestStoreDeleteRemovesObject(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryObjects(), "charts", nil)
	obj, err := store.Put(ctx, "rec-1", "scan.png", "image/png", strings.NewReader("png"), 3)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, obj.Key))
	_, _, err = store.Open(ctx, obj.Key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, obj.Key), "deleting a missing key succeeds")

	assert.ErrorIs(t, NewStore(nil, "", nil).Delete(ctx, obj.Key), ErrDisabled)
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report.pdf",
		`C:\scans\x-ray 1.png`: "x-ray_1.png",
		"../etc/passwd":        "passwd",
		"":                     "",
		"   ":                  "",
		"notes (final).txt":    "notes_final_.txt",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFileName(in), in)
	}
}
