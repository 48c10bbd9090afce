// Package response writes the JSON envelope shared by every endpoint
package response

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
	RequestID string    `json:"requestId,omitempty"`
}

type Page struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func requestID(c *gin.Context) string {
	return c.GetString("requestID")
}

func Success(c *gin.Context, data any, message string) {
	JSON(c, http.StatusOK, data, message)
}

func Created(c *gin.Context, data any, message string) {
	JSON(c, http.StatusCreated, data, message)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func JSON(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: now(),
		RequestID: requestID(c),
	})
}

func Paginated(c *gin.Context, items any, total int64, page, limit int) {
	Success(c, Page{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, "")
}

func Error(c *gin.Context, status int, body ErrorBody) {
	c.AbortWithStatusJSON(status, errorEnvelope{
		Error:     body,
		Timestamp: now(),
		RequestID: requestID(c),
	})
}

// Restamp rewrites the timestamp and request id of a previously written
// envelope. Bodies that aren't envelopes come back untouched.
func Restamp(body []byte, requestID string) []byte {
	var stamp struct {
		Timestamp *string `json:"timestamp"`
		RequestID *string `json:"requestId"`
	}

	if err := json.Unmarshal(body, &stamp); err != nil || stamp.Timestamp == nil {
		return body
	}

	body = replaceLast(body, "timestamp", *stamp.Timestamp, now())

	if stamp.RequestID != nil && requestID != "" {
		body = replaceLast(body, "requestId", *stamp.RequestID, requestID)
	}

	return body
}

// replaceLast swaps the last "key":"old" pair. Envelope fields are written
// after data so the last match is always the envelope's own.
func replaceLast(body []byte, key, old, repl string) []byte {
	o, _ := json.Marshal(old)
	n, _ := json.Marshal(repl)

	from := append([]byte(`"`+key+`":`), o...)
	to := append([]byte(`"`+key+`":`), n...)

	i := bytes.LastIndex(body, from)
	if i < 0 {
		return body
	}

	out := make([]byte, 0, len(body)-len(from)+len(to))
	out = append(out, body[:i]...)
	out = append(out, to...)
	return append(out, body[i+len(from):]...)
}
