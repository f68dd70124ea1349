package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presensi.app/presensi/infrastructure/filesystem"
	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/security"
	"presensi.app/presensi/web/common"
	"presensi.app/presensi/web/middlewares"
)

var secret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func newEvidence(t *testing.T) *Evidence {
	return &Evidence{Store: filesystem.NewDiskStore(t.TempDir()), Prefix: "evidence", MaxBytes: 1024}
}

func readBlob(t *testing.T, e *Evidence, key string) string {
	t.Helper()
	r, _, err := e.Store.Open(context.Background(), key)
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(body)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	e := newEvidence(t)

	t.Run("empty", func(t *testing.T) {
		ref, err := e.Resolve(ctx, 7, "  ")
		require.NoError(t, err)
		assert.Nil(t, ref)
	})

	t.Run("data url", func(t *testing.T) {
		value := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		ref, err := e.Resolve(ctx, 7, value)
		require.NoError(t, err)
		require.NotNil(t, ref)
		assert.Regexp(t, `^evidence/7/[0-9a-f-]{36}\.png$`, *ref)
		assert.Equal(t, "png-bytes", readBlob(t, e, *ref))
	})

	t.Run("own key", func(t *testing.T) {
		ref, err := e.Resolve(ctx, 7, "evidence/7/abc.jpg")
		require.NoError(t, err)
		assert.Equal(t, "evidence/7/abc.jpg", *ref)
	})

	t.Run("opaque reference", func(t *testing.T) {
		ref, err := e.Resolve(ctx, 7, "camera-roll:1234")
		require.NoError(t, err)
		assert.Equal(t, "camera-roll:1234", *ref)
	})

	rejected := map[string]string{
		"other user":  "evidence/8/abc.jpg",
		"not base64":  "data:image/png;base64,***",
		"not encoded": "data:image/png,raw",
		"wrong type":  "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi")),
		"too large":   "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, 2048)),
	}
	for name, value := range rejected {
		t.Run(name, func(t *testing.T) {
			ref, err := e.Resolve(ctx, 7, value)
			assert.Nil(t, ref)
			assert.Equal(t, common.KindInvalidRequest, model.KindOf(err))
		})
	}
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadEvidenceHandler(t *testing.T) {
	e := newEvidence(t)
	r := gin.New()
	r.POST("/evidence", middlewares.Authentication(secret), UploadEvidenceHandler(e))

	tok, err := security.CreateIdentityToken(security.Identity{UserID: 3, Role: security.RoleMember}, secret, time.Hour)
	require.NoError(t, err)

	post := func(files map[string][]byte) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, files)
		req := httptest.NewRequest(http.MethodPost, "/evidence", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(map[string][]byte{"selfie.jpg": []byte("jpeg-bytes")})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data    []string `json:"data"`
		Message string   `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Regexp(t, `^evidence/3/.+\.jpg$`, resp.Data[0])
	assert.Equal(t, "1 files uploaded", resp.Message)
	assert.Equal(t, "jpeg-bytes", readBlob(t, e, resp.Data[0]))

	assert.Equal(t, http.StatusBadRequest, post(map[string][]byte{"notes.pdf": []byte("pdf")}).Code)
	assert.Equal(t, http.StatusBadRequest, post(map[string][]byte{"huge.png": make([]byte, 4096)}).Code)
	assert.Equal(t, http.StatusBadRequest, post(nil).Code)
}
