package lifecycle

import (
	"context"
	"fmt"

	apperrors "github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/logger"
	"github.com/glefebvre/shufflarr/internal/models"
	"github.com/glefebvre/shufflarr/internal/selection"
	"github.com/glefebvre/shufflarr/internal/store"
	"github.com/google/uuid"
)

// Validator checks that a source list is fetchable before it is persisted
type Validator interface {
	Validate(ctx context.Context, list *models.SourceList) error
}

// Manager owns the CRUD operations over lists and slots and keeps the
// selection invariants consistent when either is added, edited, or removed
type Manager struct {
	store     *store.Store
	engine    *selection.Engine
	validator Validator
	log       *logger.Logger
}

// NewManager creates a lifecycle manager
func NewManager(st *store.Store, engine *selection.Engine, validator Validator) *Manager {
	return &Manager{
		store:     st,
		engine:    engine,
		validator: validator,
		log:       logger.AppLogger(),
	}
}

// SlotUpdate carries the mutable fields of a catalog slot
type SlotUpdate struct {
	Alias       string
	ContentType models.ContentType
	ListIDs     []string
}

// ListUpdate carries the mutable fields of a source list
type ListUpdate struct {
	Alias       string
	Type        models.ListType
	ContentType models.ContentType
	Config      models.ListConfig
	Shuffle     bool
	Limit       int
	Group       string
}

// AddList validates a new source list against its provider and persists it.
// Slots of the matching content type that referenced every previously
// existing list of that type also pick up the new one, preserving the
// select-all convenience without forcing it onto curated subsets.
func (m *Manager) AddList(ctx context.Context, list *models.SourceList) (*models.SourceList, error) {
	if err := validateListShape(list); err != nil {
		return nil, err
	}

	if err := m.validator.Validate(ctx, list); err != nil {
		return nil, err
	}

	if list.ID == "" {
		list.ID = uuid.NewString()
	}

	data, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if data.ListByID(list.ID) != nil {
		return nil, apperrors.ValidationError(fmt.Sprintf("list id already exists: %s", list.ID))
	}

	existing := data.ListsOfType(list.ContentType)
	for _, slot := range data.Slots {
		if slot.ContentType != list.ContentType {
			continue
		}
		if referencesAll(slot, existing) {
			slot.ListIDs = append(slot.ListIDs, list.ID)
		}
	}

	data.Lists = append(data.Lists, list)
	if err := m.store.Save(data); err != nil {
		return nil, err
	}

	m.log.WithFields(map[string]interface{}{
		"list_id": list.ID,
		"alias":   list.Alias,
		"type":    list.Type,
	}).Info("source list added")

	return list, nil
}

// UpdateList applies edits to a list, re-validating only when its type or
// provider config changed. Slots currently displaying this list are forced
// through an immediate refresh so a broken edit never leaves stale content
// rendered; the refresh happens synchronously inside the edit.
func (m *Manager) UpdateList(ctx context.Context, id string, update ListUpdate) (*models.SourceList, []selection.Result, error) {
	data, err := m.store.Load()
	if err != nil {
		return nil, nil, err
	}

	list := data.ListByID(id)
	if list == nil {
		return nil, nil, apperrors.NotFoundError("list", id)
	}

	revalidate := update.Type != list.Type || update.Config != list.Config

	updated := *list
	updated.Alias = update.Alias
	updated.Type = update.Type
	updated.ContentType = update.ContentType
	updated.Config = update.Config
	updated.Shuffle = update.Shuffle
	updated.Limit = update.Limit
	updated.Group = update.Group

	if err := validateListShape(&updated); err != nil {
		return nil, nil, err
	}
	if revalidate {
		if err := m.validator.Validate(ctx, &updated); err != nil {
			return nil, nil, err
		}
	}

	*list = updated
	if err := m.store.Save(data); err != nil {
		return nil, nil, err
	}

	results := make([]selection.Result, 0)
	for _, slot := range data.Slots {
		if slot.ActiveSourceID() != id {
			continue
		}
		result, err := m.engine.RefreshSlot(ctx, slot.ID)
		if err != nil {
			m.log.WithFields(map[string]interface{}{
				"slot_id": slot.ID,
				"list_id": id,
				"error":   err.Error(),
			}).Warn("forced refresh after list update failed")
		}
		results = append(results, result)
	}

	return list, results, nil
}

// DeleteList removes a list and prunes it from every slot's references.
// Slots that had it as their active selection are not refreshed: stale
// content stays rendered until the next refresh cycle.
func (m *Manager) DeleteList(ctx context.Context, id string) error {
	data, err := m.store.Load()
	if err != nil {
		return err
	}

	if !data.RemoveList(id) {
		return apperrors.NotFoundError("list", id)
	}

	if err := m.store.Save(data); err != nil {
		return err
	}

	m.log.WithFields(map[string]interface{}{"list_id": id}).Info("source list deleted")
	return nil
}

// AddSlot creates a slot referencing every existing list of its content type
// and immediately refreshes it, so it is never left without a selection
func (m *Manager) AddSlot(ctx context.Context, alias string, contentType models.ContentType) (*models.CatalogSlot, selection.Result, error) {
	if alias == "" {
		return nil, selection.Result{}, apperrors.ValidationError("slot alias is required")
	}
	if !contentType.IsValid() {
		return nil, selection.Result{}, apperrors.ValidationError(fmt.Sprintf("invalid content type: %s", contentType))
	}

	data, err := m.store.Load()
	if err != nil {
		return nil, selection.Result{}, err
	}

	slot := &models.CatalogSlot{
		ID:          uuid.NewString(),
		Alias:       alias,
		ContentType: contentType,
		ListIDs:     make([]string, 0),
	}
	for _, l := range data.ListsOfType(contentType) {
		slot.ListIDs = append(slot.ListIDs, l.ID)
	}

	data.Slots = append(data.Slots, slot)
	if err := m.store.Save(data); err != nil {
		return nil, selection.Result{}, err
	}

	result, err := m.engine.RefreshSlot(ctx, slot.ID)
	if err != nil {
		// The slot exists either way; surfacing the refresh outcome is enough
		m.log.WithFields(map[string]interface{}{
			"slot_id": slot.ID,
			"error":   err.Error(),
		}).Warn("initial refresh of new slot failed")
	}

	return m.reloadSlot(slot.ID, slot), result, nil
}

// UpdateSlot applies alias/type/list edits. A changed type, or a list edit
// that dropped the active selection's source, forces an immediate refresh.
func (m *Manager) UpdateSlot(ctx context.Context, id string, update SlotUpdate) (*models.CatalogSlot, *selection.Result, error) {
	if !update.ContentType.IsValid() {
		return nil, nil, apperrors.ValidationError(fmt.Sprintf("invalid content type: %s", update.ContentType))
	}

	data, err := m.store.Load()
	if err != nil {
		return nil, nil, err
	}

	slot := data.SlotByID(id)
	if slot == nil {
		return nil, nil, apperrors.NotFoundError("slot", id)
	}

	for _, lid := range update.ListIDs {
		if data.ListByID(lid) == nil {
			return nil, nil, apperrors.ValidationError(fmt.Sprintf("unknown list id: %s", lid))
		}
	}

	typeChanged := update.ContentType != slot.ContentType
	listsChanged := !sameIDs(slot.ListIDs, update.ListIDs)

	slot.Alias = update.Alias
	slot.ContentType = update.ContentType
	slot.ListIDs = update.ListIDs

	if err := m.store.Save(data); err != nil {
		return nil, nil, err
	}

	needsRefresh := typeChanged ||
		(listsChanged && slot.CurrentSelection != nil && !slot.HasList(slot.ActiveSourceID()))
	if !needsRefresh {
		return slot, nil, nil
	}

	result, err := m.engine.RefreshSlot(ctx, slot.ID)
	if err != nil {
		m.log.WithFields(map[string]interface{}{
			"slot_id": slot.ID,
			"error":   err.Error(),
		}).Warn("forced refresh after slot update failed")
	}
	return m.reloadSlot(slot.ID, slot), &result, nil
}

// DeleteSlot removes a slot outright; slots own no lists, nothing cascades
func (m *Manager) DeleteSlot(ctx context.Context, id string) error {
	data, err := m.store.Load()
	if err != nil {
		return err
	}

	if !data.RemoveSlot(id) {
		return apperrors.NotFoundError("slot", id)
	}

	if err := m.store.Save(data); err != nil {
		return err
	}

	m.log.WithFields(map[string]interface{}{"slot_id": id}).Info("catalog slot deleted")
	return nil
}

// GetLists returns every configured source list
func (m *Manager) GetLists() ([]*models.SourceList, error) {
	data, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	return data.Lists, nil
}

// GetSlots returns every catalog slot
func (m *Manager) GetSlots() ([]*models.CatalogSlot, error) {
	data, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	return data.Slots, nil
}

// GetSettings returns the persisted engine settings
func (m *Manager) GetSettings() (models.Settings, error) {
	data, err := m.store.Load()
	if err != nil {
		return models.Settings{}, err
	}
	return data.Settings, nil
}

// UpdateSettings persists new engine settings; rescheduling the running
// scheduler is the caller's concern
func (m *Manager) UpdateSettings(settings models.Settings) (models.Settings, error) {
	if settings.RefreshIntervalHours < 0 {
		return models.Settings{}, apperrors.ValidationError("refresh interval must be zero or positive")
	}
	if settings.DefaultItemLimit <= 0 {
		return models.Settings{}, apperrors.ValidationError("default item limit must be positive")
	}

	data, err := m.store.Load()
	if err != nil {
		return models.Settings{}, err
	}

	data.Settings = settings
	if err := m.store.Save(data); err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}

// reloadSlot re-reads a slot after a forced refresh so callers see the
// freshly committed selection; the pre-refresh copy is the fallback
func (m *Manager) reloadSlot(id string, fallback *models.CatalogSlot) *models.CatalogSlot {
	data, err := m.store.Load()
	if err != nil {
		return fallback
	}
	if slot := data.SlotByID(id); slot != nil {
		return slot
	}
	return fallback
}

// validateListShape checks the provider-independent fields of a list
func validateListShape(list *models.SourceList) error {
	if list.Alias == "" {
		return apperrors.ValidationError("list alias is required")
	}
	if !list.Type.IsValid() {
		return apperrors.ValidationError(fmt.Sprintf("invalid list type: %s", list.Type))
	}
	if !list.ContentType.IsValid() {
		return apperrors.ValidationError(fmt.Sprintf("invalid content type: %s", list.ContentType))
	}
	if list.Limit < 0 {
		return apperrors.ValidationError("list limit must be zero or positive")
	}
	return nil
}

// referencesAll reports whether the slot references every one of the lists
func referencesAll(slot *models.CatalogSlot, lists []*models.SourceList) bool {
	for _, l := range lists {
		if !slot.HasList(l.ID) {
			return false
		}
	}
	return true
}

// sameIDs compares two id slices as sets
func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}
