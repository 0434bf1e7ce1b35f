package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wipefix/wipefix/backend/go-services/internal/auth"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/service"
	"github.com/wipefix/wipefix/backend/go-services/pkg/logger"
)

// RegisterPackRoutes mounts the broker pack API.
func RegisterPackRoutes(r gin.IRouter, svc service.Service) {
	r.POST("/api/broker-packs", func(c *gin.Context) {
		var req brokerpack.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		p, err := svc.Create(c.Request.Context(), c.GetHeader("Authorization"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	r.GET("/api/broker-packs/latest", func(c *gin.Context) {
		p, err := svc.GetLatest(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	r.GET("/api/broker-packs/:version", func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("version"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		// do not tell callers whether a token exists
		if !auth.IsNotConfigured(err) {
			logger.Errorw("broker pack request failed", map[string]interface{}{
				"path":  c.FullPath(),
				"error": err.Error(),
			})
		}
		c.JSON(status, gin.H{"error": "internal server error"})
	case http.StatusServiceUnavailable:
		logger.Errorw("broker pack storage failure", map[string]interface{}{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		c.JSON(status, gin.H{"error": "storage unavailable"})
	default:
		c.JSON(status, gin.H{"error": brokerpack.Message(err)})
	}
}

func statusFor(err error) int {
	switch {
	case auth.IsNotConfigured(err):
		return http.StatusInternalServerError
	case auth.IsUnauthorized(err):
		return http.StatusUnauthorized
	case brokerpack.IsInvalid(err):
		return http.StatusBadRequest
	case brokerpack.IsDuplicateVersion(err):
		return http.StatusConflict
	case brokerpack.IsNotFound(err):
		return http.StatusNotFound
	case brokerpack.IsStorageFailure(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
