package console

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nookcoder/clinic-console/internal/httpclient"
)

type ProxyHandler struct {
	client *httpclient.Client
	logger *slog.Logger
}

func NewProxyHandler(client *httpclient.Client, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{client: client, logger: logger}
}

// Forward sends /api/<path> to the clinic API through the shared client, so
// the request carries the session's bearer header and a 401 clears the session.
func (h *ProxyHandler) Forward(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"statusCode": 400, "error": "Failed to read request body"})
		return
	}
	var payload any
	if len(body) > 0 {
		payload = body
	}

	resp, err := h.client.Do(c.Request.Context(), c.Request.Method, c.Param("path"), c.Request.URL.Query(), payload)
	if err != nil {
		var re *httpclient.ResponseError
		if errors.As(err, &re) {
			if len(re.Body) == 0 {
				c.JSON(re.StatusCode, gin.H{"statusCode": re.StatusCode, "error": http.StatusText(re.StatusCode)})
				return
			}
			c.Data(re.StatusCode, "application/json", re.Body)
			return
		}
		h.logger.Warn("clinic API unreachable", "path", c.Param("path"), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"statusCode": 502, "error": "Failed to contact clinic API"})
		return
	}

	// Just proxy the unwrapped JSON payload
	c.Data(resp.StatusCode, "application/json", resp.Data())
}
