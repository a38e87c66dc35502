package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

// ImageSource returns stored image bytes by key.
type ImageSource interface {
	Get(key string) ([]byte, string, bool)
}

// ImageHandler serves images uploaded to the in-memory store.
type ImageHandler struct {
	Source ImageSource
}

func (h ImageHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	data, contentType, ok := h.Source.Get(key)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}

var _ ImageHTTP = ImageHandler{}
