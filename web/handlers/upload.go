package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"presensi.app/presensi/infrastructure/filesystem"
	"presensi.app/presensi/presensi/model"
	"presensi.app/presensi/web/common"
	"presensi.app/presensi/web/middlewares"
)

// Evidence stores uploaded photos and resolves the evidence field of a
// check-in or check-out into a blob key.
type Evidence struct {
	Store    filesystem.BlobStore
	Prefix   string
	MaxBytes int64
}

func invalidEvidence(format string, args ...interface{}) error {
	return model.NewError(common.KindInvalidRequest, fmt.Sprintf(format, args...))
}

// SaveFile stores a multipart upload and returns its key.
func (e *Evidence) SaveFile(ctx context.Context, userID uint, file *multipart.FileHeader) (string, error) {
	ext, ok := filesystem.ImageExtension(file.Filename, file.Header.Get("Content-Type"))
	if !ok {
		return "", invalidEvidence("unsupported evidence file %q", file.Filename)
	}
	if file.Size > e.MaxBytes {
		return "", invalidEvidence("evidence exceeds %d bytes", e.MaxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	key, err := filesystem.EvidenceKey(e.Prefix, userID, ext)
	if err != nil {
		return "", err
	}
	if err := e.Store.Put(ctx, key, filesystem.ContentType(key), src); err != nil {
		return "", err
	}
	return key, nil
}

func (e *Evidence) saveDataURL(ctx context.Context, userID uint, value string) (string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(value, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", invalidEvidence("evidence data URL must be base64 encoded")
	}
	ext, ok := filesystem.ImageExtension("", strings.TrimSuffix(meta, ";base64"))
	if !ok {
		return "", invalidEvidence("unsupported evidence type %q", meta)
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > e.MaxBytes+2 {
		return "", invalidEvidence("evidence exceeds %d bytes", e.MaxBytes)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", invalidEvidence("evidence is not valid base64")
	}
	if int64(len(raw)) > e.MaxBytes {
		return "", invalidEvidence("evidence exceeds %d bytes", e.MaxBytes)
	}

	key, err := filesystem.EvidenceKey(e.Prefix, userID, ext)
	if err != nil {
		return "", err
	}
	if err := e.Store.Put(ctx, key, filesystem.ContentType(key), bytes.NewReader(raw)); err != nil {
		return "", err
	}
	return key, nil
}

// Resolve turns the JSON evidence field into a reference. Data URLs are
// stored first; other values are references to existing blobs. Keys under
// the evidence prefix must belong to userID.
func (e *Evidence) Resolve(ctx context.Context, userID uint, value string) (*string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if strings.HasPrefix(value, "data:") {
		key, err := e.saveDataURL(ctx, userID, value)
		if err != nil {
			return nil, err
		}
		return &key, nil
	}

	if strings.HasPrefix(value, e.Prefix+"/") && !strings.HasPrefix(value, fmt.Sprintf("%s/%d/", e.Prefix, userID)) {
		return nil, invalidEvidence("evidence %q belongs to another user", value)
	}
	return &value, nil
}

// UploadEvidenceHandler stores one or more photos sent as multipart "files"
// and returns their keys for a later check-in or check-out.
func UploadEvidenceHandler(e *Evidence) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := middlewares.Identity(c)

		form, err := c.MultipartForm()
		if err != nil {
			common.AbortWithBindingError(c, err)
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			common.AbortWithError(c, invalidEvidence("no files uploaded"))
			return
		}

		uploaded := make([]string, 0, len(files))
		for _, file := range files {
			key, err := e.SaveFile(c.Request.Context(), identity.UserID, file)
			if err != nil {
				common.AbortWithError(c, err)
				return
			}
			uploaded = append(uploaded, key)
		}

		c.JSON(http.StatusCreated, common.NewSuccessResponse(uploaded, fmt.Sprintf("%d files uploaded", len(uploaded))))
	}
}
