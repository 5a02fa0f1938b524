package playbackmodule

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/playcast/internal/modules/playbackmodule/core"
	"gorm.io/gorm"
)

// APIHandler exposes playback negotiation and profile management over HTTP
type APIHandler struct {
	manager *Manager
	logger  hclog.Logger
}

// NewAPIHandler creates an API handler bound to a manager
func NewAPIHandler(manager *Manager) *APIHandler {
	return &APIHandler{
		manager: manager,
		logger:  manager.logger.Named("api"),
	}
}

// HandleDecide negotiates playback for a request body
func (h *APIHandler) HandleDecide(c *gin.Context) {
	var request DecideRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.manager.Decide(&request)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		if errors.Is(err, core.ErrInvalidComparison) {
			// A malformed profile is a server-side configuration problem
			status = http.StatusInternalServerError
		}
		h.logger.Error("playback decision failed",
			"error", err,
			"item_id", request.ItemID,
			"device_id", request.DeviceID)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if response.Decision == nil {
		h.logger.Warn("no viable playback path",
			"item_id", request.ItemID,
			"device_id", request.DeviceID)
	}
	c.JSON(http.StatusOK, response)
}

// HandleListProfiles lists stored device profiles without their bodies
func (h *APIHandler) HandleListProfiles(c *gin.Context) {
	records, err := h.manager.Store().List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	profiles := make([]ProfileResponse, 0, len(records))
	for _, record := range records {
		profiles = append(profiles, ProfileResponse{
			ID:        record.ID,
			Name:      record.Name,
			CreatedAt: record.CreatedAt,
			UpdatedAt: record.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles, "total": len(profiles)})
}

// HandleGetProfile returns one stored profile with its full body
func (h *APIHandler) HandleGetProfile(c *gin.Context) {
	record, profile, err := h.manager.Store().Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{
		ID:        record.ID,
		Name:      record.Name,
		Profile:   profile,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	})
}

// HandleSaveProfile creates or replaces a profile under its name
func (h *APIHandler) HandleSaveProfile(c *gin.Context) {
	var request ProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.manager.Store().Save(request.Name, ProfileSourceAPI, request.Profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ProfileResponse{
		ID:        record.ID,
		Name:      record.Name,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	})
}

// HandleDeleteProfile removes a stored profile
func (h *APIHandler) HandleDeleteProfile(c *gin.Context) {
	if err := h.manager.Store().Delete(c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// HandleHealthCheck reports manager status
func (h *APIHandler) HandleHealthCheck(c *gin.Context) {
	health := h.manager.Health()
	health["status"] = "healthy"
	c.JSON(http.StatusOK, health)
}
