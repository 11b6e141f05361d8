package selection

import (
	"strings"

	apperrors "github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/models"
)

// catalogIDPrefix namespaces advertised catalog ids; the catalog id of a
// slot is a deterministic transform of the slot id
const catalogIDPrefix = "shufflarr-"

// Manifest is the catalog descriptor list consumed by the presentation layer
type Manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Resources   []string          `json:"resources"`
	Types       []string          `json:"types"`
	Catalogs    []ManifestCatalog `json:"catalogs"`
}

// ManifestCatalog is one advertised catalog entry
type ManifestCatalog struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// CatalogID derives the advertised catalog id for a slot
func CatalogID(slotID string) string {
	return catalogIDPrefix + slotID
}

// slotIDFromCatalog inverts CatalogID; raw slot ids pass through unchanged
func slotIDFromCatalog(catalogID string) string {
	return strings.TrimPrefix(catalogID, catalogIDPrefix)
}

// GetManifest derives the catalog list from current slots. Every slot
// becomes one advertised catalog entry regardless of whether it has a
// committed selection yet.
func (e *Engine) GetManifest() (Manifest, error) {
	data, err := e.store.Load()
	if err != nil {
		return Manifest{}, err
	}

	catalogs := make([]ManifestCatalog, 0, len(data.Slots))
	for _, slot := range data.Slots {
		catalogs = append(catalogs, ManifestCatalog{
			ID:   CatalogID(slot.ID),
			Type: string(slot.ContentType),
			Name: slot.Alias,
		})
	}

	return Manifest{
		ID:          "com.github.glefebvre.shufflarr",
		Version:     "0.1.0",
		Name:        "Shufflarr",
		Description: "Rotating catalogs backed by randomly selected source lists",
		Resources:   []string{"catalog"},
		Types:       []string{string(models.ContentTypeMovie), string(models.ContentTypeSeries)},
		Catalogs:    catalogs,
	}, nil
}

// GetItems is a pure read of a slot's committed items. It never triggers a
// fetch; a slot without a selection yields an empty sequence.
func (e *Engine) GetItems(catalogID string) ([]models.Item, error) {
	data, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	slot := data.SlotByID(slotIDFromCatalog(catalogID))
	if slot == nil {
		return nil, apperrors.NotFoundError("catalog", catalogID)
	}

	if slot.CurrentSelection == nil {
		return []models.Item{}, nil
	}
	return slot.CurrentSelection.Items, nil
}
