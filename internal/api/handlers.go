package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/lifecycle"
	"github.com/glefebvre/shufflarr/internal/models"
	"github.com/glefebvre/shufflarr/internal/store"
)

func (s *Server) healthCheck(c *gin.Context) {
	if err := s.store.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	resp := HealthResponse{Status: "healthy"}
	if space, err := store.GetDiskSpace(s.dataPath); err == nil {
		resp.DiskAvailable = store.FormatBytes(space.Available)
		resp.DiskUsedPct = space.UsedPct
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getManifest(c *gin.Context) {
	manifest, err := s.engine.GetManifest()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, manifest)
}

func (s *Server) getCatalog(c *gin.Context) {
	catalogID := strings.TrimSuffix(c.Param("id"), ".json")

	items, err := s.engine.GetItems(catalogID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CatalogResponse{Metas: items})
}

func (s *Server) listLists(c *gin.Context) {
	lists, err := s.manager.GetLists()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

func (s *Server) createList(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	list, err := s.manager.AddList(c.Request.Context(), &models.SourceList{
		Alias:       req.Alias,
		Type:        req.Type,
		ContentType: req.ContentType,
		Config:      req.Config,
		Shuffle:     req.Shuffle,
		Limit:       req.Limit,
		Group:       req.Group,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (s *Server) updateList(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	list, refreshes, err := s.manager.UpdateList(c.Request.Context(), c.Param("id"), lifecycle.ListUpdate{
		Alias:       req.Alias,
		Type:        req.Type,
		ContentType: req.ContentType,
		Config:      req.Config,
		Shuffle:     req.Shuffle,
		Limit:       req.Limit,
		Group:       req.Group,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "refreshes": refreshes})
}

func (s *Server) deleteList(c *gin.Context) {
	if err := s.manager.DeleteList(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listSlots(c *gin.Context) {
	slots, err := s.manager.GetSlots()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (s *Server) createSlot(c *gin.Context) {
	var req SlotCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	slot, result, err := s.manager.AddSlot(c.Request.Context(), req.Alias, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SlotRefreshResponse{Slot: slot, Refresh: result})
}

func (s *Server) updateSlot(c *gin.Context) {
	var req SlotUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	slot, result, err := s.manager.UpdateSlot(c.Request.Context(), c.Param("id"), lifecycle.SlotUpdate{
		Alias:       req.Alias,
		ContentType: req.ContentType,
		ListIDs:     req.ListIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := SlotRefreshResponse{Slot: slot}
	if result != nil {
		resp.Refresh = result
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) deleteSlot(c *gin.Context) {
	if err := s.manager.DeleteSlot(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// refreshSlot forces a re-selection of one slot. Refresh outcomes are
// structured results, so upstream failures still answer 200 with
// success=false rather than an error status.
func (s *Server) refreshSlot(c *gin.Context) {
	result, err := s.engine.RefreshSlot(c.Request.Context(), c.Param("id"))
	if err != nil && apperrors.IsNotFound(err) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) refreshAll(c *gin.Context) {
	results, err := s.engine.RefreshAllSlots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.manager.GetSettings()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// updateSettings persists new settings and reschedules the running
// scheduler with the new interval
func (s *Server) updateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	settings, err := s.manager.UpdateSettings(models.Settings{
		RefreshIntervalHours: req.RefreshIntervalHours,
		DefaultItemLimit:     req.DefaultItemLimit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	s.scheduler.Reschedule(settings.RefreshIntervalHours)
	c.JSON(http.StatusOK, settings)
}

func (s *Server) getSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.scheduler.Status())
}

// respondError maps structured application errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperrors.GetErrorCode(err) {
	case apperrors.CodeValidation, apperrors.CodeInvalidInput, apperrors.CodeMissingConfig:
		status = http.StatusBadRequest
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeSourceNotFound, apperrors.CodeUnauthorized, apperrors.CodeEmptyResult,
		apperrors.CodeUnreachable, apperrors.CodeRateLimited:
		status = http.StatusBadGateway
	case apperrors.CodeNoCandidates, apperrors.CodePoolExhausted:
		status = http.StatusConflict
	}

	c.JSON(status, ErrorResponse{
		Error:   string(apperrors.GetErrorCode(err)),
		Message: err.Error(),
	})
}
