package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/seaice-api/internal/domain"
	"go.ngs.io/seaice-api/internal/usecase"
)

// Handler handles HTTP requests for regional sea ice volumes.
type Handler struct {
	volumeUC *usecase.VolumeUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(volumeUC *usecase.VolumeUseCase) *Handler {
	return &Handler{
		volumeUC: volumeUC,
	}
}

// parseDate accepts 2006-01-02 or 20060102. Empty input is the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(domain.DateLayout, s)
}

// GetVolumes handles GET /v1/volumes.
func (h *Handler) GetVolumes(c *gin.Context) {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid from date (expected YYYY-MM-DD): %v", err)})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid to date (expected YYYY-MM-DD): %v", err)})
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to date must not be before from date"})
		return
	}

	volumes, err := h.volumeUC.Volumes(from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"volumes": volumes,
		"count":   len(volumes),
		"units":   "km3",
	})
}

// GetLatestVolume handles GET /v1/volumes/latest.
func (h *Handler) GetLatestVolume(c *gin.Context) {
	latest, err := h.volumeUC.Latest()
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyLog) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, latest)
}

// GetRegionSeries handles GET /v1/volumes/regions/:region.
func (h *Handler) GetRegionSeries(c *gin.Context) {
	series, err := h.volumeUC.RegionSeries(c.Param("region"))
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownRegion) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, series)
}

// RegionResponse describes a region in the listing.
type RegionResponse struct {
	Code      int    `json:"code"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	HasColumn bool   `json:"has_column"`
}

// GetRegions handles GET /v1/regions.
func (h *Handler) GetRegions(c *gin.Context) {
	regions := domain.GetAllRegions()

	response := make([]RegionResponse, len(regions))
	for i, r := range regions {
		response[i] = RegionResponse{
			Code:      int(r.Code),
			Key:       r.Key,
			Name:      r.Name,
			HasColumn: domain.HasColumn(r.Code),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"regions": response,
		"count":   len(response),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
