package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/server/avatar"
)

const (
	defaultAvatarSize = 128
	healthTimeout     = 2 * time.Second
)

// attachment redirects to a short-lived presigned URL for the object.
func (s *Server) attachment(c *gin.Context) {
	url, err := s.deps.Attachments.PresignedURL(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.Header("Cache-Control", "no-store")
		c.Redirect(http.StatusFound, url)
	case errors.Is(err, common.ErrorNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, common.ErrOwnerNotConfirmed):
		c.Status(http.StatusForbidden)
	default:
		c.Status(http.StatusInternalServerError)
	}
}

func (s *Server) avatar(c *gin.Context) {
	size := defaultAvatarSize
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		size = n
	}

	png, err := avatar.Render(c.Param("seed"), size)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := s.deps.DB.PingContext(ctx); err != nil {
		s.log.Error(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
