package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, h func(c *gin.Context)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("requestID", "req-1")

	h(c)
	c.Writer.WriteHeaderNow()

	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestCreated(t *testing.T) {
	w, body := record(t, func(c *gin.Context) {
		Created(c, gin.H{"id": 1}, "made")
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "made", body["message"])
	assert.Equal(t, "req-1", body["requestId"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestPaginated(t *testing.T) {
	_, body := record(t, func(c *gin.Context) {
		Paginated(c, []int{1, 2}, 12, 2, 2)
	})

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(12), data["total"])
	assert.Equal(t, float64(2), data["page"])
	assert.Len(t, data["items"], 2)
	assert.NotContains(t, body, "message")
}

func TestError(t *testing.T) {
	w, body := record(t, func(c *gin.Context) {
		Error(c, http.StatusConflict, ErrorBody{Code: "DUPLICATE_KEY", Message: "Email already exists"})
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, body["success"])

	e := body["error"].(map[string]any)
	assert.Equal(t, "DUPLICATE_KEY", e["code"])
	assert.NotContains(t, e, "details")
}

func TestNoContent(t *testing.T) {
	w, body := record(t, NoContent)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, body)
}
