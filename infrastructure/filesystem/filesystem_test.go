package filesystem

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = body
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body)), ContentType: aws.String(f.types[key])}, nil
}

func stores(t *testing.T) map[string]BlobStore {
	return map[string]BlobStore{
		"disk": NewDiskStore(t.TempDir()),
		"s3":   NewS3Store(newFakeS3(), "evidence-bucket"),
	}
}

func TestPutOpenRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "evidence/1/photo.png", "image/png", strings.NewReader("png-bytes")))

			r, contentType, err := store.Open(ctx, "evidence/1/photo.png")
			require.NoError(t, err)
			defer r.Close()

			body, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "png-bytes", string(body))
			assert.Equal(t, "image/png", contentType)
		})
	}
}

func TestOpenMissing(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := store.Open(context.Background(), "evidence/1/none.jpg")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../etc/passwd", "evidence/../../x", "evidence//x"} {
				err := store.Put(context.Background(), key, "image/png", strings.NewReader("x"))
				assert.ErrorIs(t, err, ErrInvalidKey, key)
			}
		})
	}
}

func TestEvidenceKey(t *testing.T) {
	key, err := EvidenceKey("evidence", 42, ".jpg")
	require.NoError(t, err)
	assert.Regexp(t, `^evidence/42/[0-9a-f-]{36}\.jpg$`, key)
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		filename, contentType string
		want                  string
		ok                    bool
	}{
		{filename: "selfie.JPG", want: ".jpg", ok: true},
		{filename: "selfie.webp", want: ".webp", ok: true},
		{filename: "notes.pdf", want: ".pdf", ok: false},
		{contentType: "image/png", want: ".png", ok: true},
		{contentType: "image/jpeg", want: ".jpg", ok: true},
		{contentType: "text/plain", ok: false},
	}
	for _, tt := range tests {
		got, ok := ImageExtension(tt.filename, tt.contentType)
		assert.Equal(t, tt.ok, ok, tt.filename+tt.contentType)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}
