package response

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Notify redirects back to location carrying exactly one classified message.
// Clients asking for JSON receive the error envelope instead.
func Notify(c *gin.Context, location string, err error) {
	if WantsJSON(c) || location == "" {
		Error(c, err)
		return
	}
	appErr := appErrors.FromError(err)
	target, parseErr := url.Parse(location)
	if parseErr != nil {
		Error(c, err)
		return
	}
	q := target.Query()
	q.Set("notice", appErr.Code)
	q.Set("level", appErrors.Level(err))
	q.Set("message", appErr.Message)
	target.RawQuery = q.Encode()
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusSeeOther, target.String())
}

// Attachment streams size bytes from r as a file download named filename.
// The caller must know size exactly; it is sent as Content-Length.
func Attachment(c *gin.Context, filename, contentType string, size int64, r io.Reader) {
	c.DataFromReader(http.StatusOK, size, contentType, r, map[string]string{
		"Content-Description":       "File Transfer",
		"Content-Disposition":       fmt.Sprintf("attachment; filename=\"%s\"", filename),
		"Content-Transfer-Encoding": "binary",
		"Expires":                   "0",
		"Cache-Control":             "must-revalidate",
		"Pragma":                    "public",
	})
}

// WantsJSON reports whether the client prefers a JSON body over a redirect.
func WantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// LocalPath returns raw when it is a same-origin path, otherwise fallback.
func LocalPath(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return fallback
	}
	return raw
}
