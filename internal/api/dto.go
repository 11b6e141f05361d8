package api

import "github.com/glefebvre/shufflarr/internal/models"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ListRequest carries the fields of a source list create/update
type ListRequest struct {
	Alias       string             `json:"alias" binding:"required"`
	Type        models.ListType    `json:"type" binding:"required"`
	ContentType models.ContentType `json:"content_type" binding:"required"`
	Config      models.ListConfig  `json:"config"`
	Shuffle     bool               `json:"shuffle"`
	Limit       int                `json:"limit"`
	Group       string             `json:"group"`
}

// SlotCreateRequest carries the fields of a slot create
type SlotCreateRequest struct {
	Alias       string             `json:"alias" binding:"required"`
	ContentType models.ContentType `json:"content_type" binding:"required"`
}

// SlotUpdateRequest carries the fields of a slot update
type SlotUpdateRequest struct {
	Alias       string             `json:"alias" binding:"required"`
	ContentType models.ContentType `json:"content_type" binding:"required"`
	ListIDs     []string           `json:"list_ids"`
}

// SettingsRequest carries the engine settings update
type SettingsRequest struct {
	RefreshIntervalHours int `json:"refresh_interval_hours"`
	DefaultItemLimit     int `json:"default_item_limit" binding:"required"`
}

// CatalogResponse is the addon catalog payload
type CatalogResponse struct {
	Metas []models.Item `json:"metas"`
}

// SlotRefreshResponse pairs a slot with the outcome of its forced refresh
type SlotRefreshResponse struct {
	Slot    *models.CatalogSlot `json:"slot"`
	Refresh interface{}         `json:"refresh,omitempty"`
}

// HealthResponse reports store connectivity and data-directory disk usage
type HealthResponse struct {
	Status        string  `json:"status"`
	DiskAvailable string  `json:"disk_available,omitempty"`
	DiskUsedPct   float64 `json:"disk_used_pct,omitempty"`
}
