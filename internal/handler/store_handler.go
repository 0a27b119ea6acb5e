package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/internal/middleware"
	"github.com/noah-isme/school-roster/internal/models"
	"github.com/noah-isme/school-roster/internal/service"
	"github.com/noah-isme/school-roster/pkg/response"
)

// StoreHandler triggers explicit flushes and reloads of the roster.
type StoreHandler struct {
	roster *service.RosterService
	logger *zap.Logger
}

// NewStoreHandler constructs StoreHandler.
func NewStoreHandler(roster *service.RosterService, logger *zap.Logger) *StoreHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreHandler{roster: roster, logger: logger}
}

// Save godoc
// @Summary Flush the roster to its backend
// @Tags Store
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /store/save [post]
func (h *StoreHandler) Save(c *gin.Context) {
	h.logger.Info("roster save requested", zap.String("by", actor(c)))
	if err := h.roster.Save(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"backend": h.roster.Backend(), "saved": true})
}

// Load godoc
// @Summary Reload the roster from its backend
// @Description Unresolved references are dropped and listed as warnings.
// @Tags Store
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /store/load [post]
func (h *StoreHandler) Load(c *gin.Context) {
	h.logger.Info("roster load requested", zap.String("by", actor(c)))
	report, err := h.roster.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// actor names the administrator behind the request for the audit log.
func actor(c *gin.Context) string {
	if claims, ok := c.Value(middleware.ContextUserKey).(*models.JWTClaims); ok && claims != nil {
		return claims.Username
	}
	return "anonymous"
}
