package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stockbox/backend/internal/domain"
)

// maxImageBytes caps a single uploaded image.
const maxImageBytes = 10 << 20

// formImage reads the multipart image field. A missing field yields nil.
func formImage(c *gin.Context, field string) (*domain.Image, string, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading %s: %v", domain.ErrInvalidRequest, field, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: %s is empty", domain.ErrInvalidRequest, field)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidRequest, field, maxImageBytes)
	}

	mime, ok := imageType(data, header.Header.Get("Content-Type"))
	if !ok {
		return nil, "", fmt.Errorf("%w: %s is not an image (%s)", domain.ErrInvalidRequest, field, mime)
	}

	return &domain.Image{MIMEType: mime, Data: data}, header.Filename, nil
}

// unsniffableImages are image types http.DetectContentType reports as
// application/octet-stream. Only for these is the declared type used.
var unsniffableImages = map[string]bool{
	"image/heic": true,
	"image/heif": true,
}

// imageType decides the upload's MIME type from its content. The declared
// type only settles bytes the sniffer cannot name.
func imageType(data []byte, declared string) (string, bool) {
	sniffed := mediaType(http.DetectContentType(data))
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, true
	}
	declared = mediaType(declared)
	if sniffed == "application/octet-stream" && unsniffableImages[declared] {
		return declared, true
	}
	return sniffed, false
}

func mediaType(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}

// formList reads a list field sent either as repeated values, a JSON array
// or newline separated text.
func formList(c *gin.Context, field string) ([]string, error) {
	values := c.PostFormArray(field)
	if len(values) == 0 {
		return nil, nil
	}
	if len(values) > 1 {
		return cleanLines(values), nil
	}
	return parseList(values[0])
}

func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("%w: list must be a JSON array of strings", domain.ErrInvalidRequest)
		}
		return cleanLines(items), nil
	}
	return cleanLines(strings.Split(raw, "\n")), nil
}

func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// formListID reads an optional list_id form field.
func formListID(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.PostForm("list_id"))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: list_id must be a positive integer", domain.ErrInvalidRequest)
	}
	return id, nil
}

func isJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}
