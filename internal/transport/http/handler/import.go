package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "user-admin/internal/transport/http/response"
)

// Upload statuses produced before the importer runs.
const (
	UploadNoFile      = "no-file"
	UploadInvalidType = "invalid-type"
	UploadTooLarge    = "file-too-large"
	UploadServerError = "server-error"
)

// ImportResult is what the client sees: a status tag and counts, never
// per-row reasons.
type ImportResult struct {
	Status   string `json:"status"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Errors   int    `json:"errors"`
}

func writeImport(c *gin.Context, code int, r ImportResult) {
	c.JSON(resp.HTTPStatus(code), resp.New(code, r.Status, r))
}

func acceptedType(fh *multipart.FileHeader) bool {
	ct := strings.ToLower(fh.Header.Get("Content-Type"))
	return strings.Contains(ct, "text") || strings.Contains(ct, "csv") ||
		strings.HasSuffix(strings.ToLower(fh.Filename), ".csv")
}

// multipartSlack allows for form boundaries and headers around the file.
const multipartSlack = 64 << 10

func (h *AdminHandler) ImportUsers(c *gin.Context) {
	if c.Request.ContentLength > h.uploadMax+multipartSlack {
		writeImport(c, resp.CodeTooLarge, ImportResult{Status: UploadTooLarge})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			writeImport(c, resp.CodeTooLarge, ImportResult{Status: UploadTooLarge})
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeImport(c, resp.CodeBadRequest, ImportResult{Status: UploadNoFile})
		default:
			h.log.Warn("read upload failed", zap.Error(err))
			writeImport(c, resp.CodeBadRequest, ImportResult{Status: UploadNoFile})
		}
		return
	}
	if !acceptedType(fh) {
		writeImport(c, resp.CodeBadRequest, ImportResult{Status: UploadInvalidType})
		return
	}
	if fh.Size > h.uploadMax {
		writeImport(c, resp.CodeTooLarge, ImportResult{Status: UploadTooLarge})
		return
	}

	text, err := h.spool(fh)
	if err != nil {
		h.log.Error("spool upload failed", zap.String("file", fh.Filename), zap.Error(err))
		writeImport(c, resp.CodeServerError, ImportResult{Status: UploadServerError})
		return
	}

	// a client disconnect must not cut the import short
	sum := h.svc.Import(context.WithoutCancel(c.Request.Context()), text)
	res := ImportResult{Status: string(sum.Status), Imported: sum.Imported, Skipped: sum.Skipped, Errors: sum.Errors}
	if !sum.Status.Processed() {
		writeImport(c, resp.CodeBadRequest, res)
		return
	}
	writeImport(c, resp.CodeOK, res)
}

// spool copies the upload into the upload dir, reads it back as text and
// removes the temp file whatever happens.
func (h *AdminHandler) spool(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	tmp, err := os.CreateTemp(h.uploadDir, "import-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.log.Warn("remove temp upload failed", zap.String("path", tmp.Name()), zap.Error(err))
		}
	}()

	if _, err := io.Copy(tmp, io.LimitReader(src, h.uploadMax+1)); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	b, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("read temp file: %w", err)
	}
	return string(b), nil
}
