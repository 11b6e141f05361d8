package lifecycle

import (
	"context"
	"testing"

	apperrors "github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/models"
	"github.com/glefebvre/shufflarr/internal/selection"
	"github.com/glefebvre/shufflarr/internal/store"
	helpers "github.com/glefebvre/shufflarr/internal/testing"
)

func newTestManager(t *testing.T, data *models.ConfigData, fetcher *helpers.FakeFetcher) (*Manager, *store.Store) {
	t.Helper()
	st := helpers.TestStore(t)
	helpers.Seed(t, st, data)
	engine := selection.NewEngine(st, fetcher)
	return NewManager(st, engine, fetcher), st
}

func TestAddListPersistsAfterValidation(t *testing.T) {
	fetcher := helpers.NewFakeFetcher()
	fetcher.SetItems("lnew", helpers.MakeItems(2, "a"))

	manager, st := newTestManager(t, models.NewConfigData(), fetcher)

	list := helpers.NewList("lnew")
	added, err := manager.AddList(context.Background(), list)
	if err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	if added.ID != "lnew" {
		t.Errorf("expected provided id to be kept, got %q", added.ID)
	}

	stored, _ := st.Load()
	if stored.ListByID("lnew") == nil {
		t.Error("expected list to be persisted")
	}
}

func TestAddListAssignsID(t *testing.T) {
	fetcher := helpers.NewFakeFetcher()
	fetcher.SetItems("", helpers.MakeItems(1, "a"))

	manager, _ := newTestManager(t, models.NewConfigData(), fetcher)

	list := helpers.NewList("")
	list.Alias = "unnamed"
	added, err := manager.AddList(context.Background(), list)
	if err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	if added.ID == "" {
		t.Error("expected a generated id")
	}
}

func TestAddListValidationFailurePersistsNothing(t *testing.T) {
	fetcher := helpers.NewFakeFetcher()
	fetcher.SetError("lnew", apperrors.FetchError("mdblist", apperrors.CodeSourceNotFound, "no such list", nil))

	manager, st := newTestManager(t, models.NewConfigData(), fetcher)

	_, err := manager.AddList(context.Background(), helpers.NewList("lnew"))
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	if apperrors.GetErrorCode(err) != apperrors.CodeSourceNotFound {
		t.Errorf("expected source-not-found code, got %s", apperrors.GetErrorCode(err))
	}

	stored, _ := st.Load()
	if len(stored.Lists) != 0 {
		t.Error("expected nothing persisted after failed validation")
	}
}

func TestAddListRejectsEmptyProbe(t *testing.T) {
	fetcher := helpers.NewFakeFetcher()
	fetcher.SetItems("lnew", []models.Item{})

	manager, _ := newTestManager(t, models.NewConfigData(), fetcher)

	_, err := manager.AddList(context.Background(), helpers.NewList("lnew"))
	if apperrors.GetErrorCode(err) != apperrors.CodeEmptyResult {
		t.Errorf("expected empty-result code, got %v", err)
	}
}

func TestAddListShapeValidation(t *testing.T) {
	tests := []struct {
		name     string
		override func(*models.SourceList)
	}{
		{"missing alias", func(l *models.SourceList) { l.Alias = "" }},
		{"invalid type", func(l *models.SourceList) { l.Type = "imdb" }},
		{"invalid content type", func(l *models.SourceList) { l.ContentType = "music" }},
		{"negative limit", func(l *models.SourceList) { l.Limit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := helpers.NewFakeFetcher()
			manager, _ := newTestManager(t, models.NewConfigData(), fetcher)

			list := helpers.NewList("lnew", tt.override)
			_, err := manager.AddList(context.Background(), list)
			if !apperrors.IsValidationError(err) {
				t.Errorf("expected validation error, got %v", err)
			}
			// Shape errors are caught before the provider is contacted
			if len(fetcher.Calls()) != 0 {
				t.Error("expected no provider probe for malformed list")
			}
		})
	}
}

func TestAddListSelectAllPropagation(t *testing.T) {
	l1 := helpers.NewList("l1")
	l2 := helpers.NewList("l2")
	selectAll := helpers.NewSlot("all", []string{"l1", "l2"})
	curated := helpers.NewSlot("curated", []string{"l1"})
	seriesSlot := helpers.NewSlot("series", nil,
		helpers.WithSlotContentType(models.ContentTypeSeries))
	data := models.NewConfigData()
	data.Lists = append(data.Lists, l1, l2)
	data.Slots = append(data.Slots, selectAll, curated, seriesSlot)

	fetcher := helpers.NewFakeFetcher()
	fetcher.SetItems("lnew", helpers.MakeItems(1, "a"))

	manager, st := newTestManager(t, data, fetcher)

	if _, err := manager.AddList(context.Background(), helpers.NewList("lnew")); err != nil {
		t.Fatalf("AddList failed: %v", err)
	}

	stored, _ := st.Load()
	if !stored.SlotByID("all").HasList("lnew") {
		t.Error("expected select-all slot to pick up the new list")
	}
	if stored.SlotByID("curated").HasList("lnew") {
		t.Error("expected curated slot to keep its subset")
	}
	if stored.SlotByID("series").HasList("lnew") {
		t.Error("expected series slot to ignore a movie list")
	}
}

func TestUpdateListSkipsRevalidationForCosmeticEdits(t *testing.T) {
	list := helpers.NewList("l1")
	data := models.NewConfigData()
	data.Lists = append(data.Lists, list)

	// The provider is now broken; a cosmetic edit must still go through
	fetcher := helpers.NewFakeFetcher()
	fetcher.SetError("l1", apperrors.FetchError("mdblist", apperrors.CodeUnreachable, "down", nil))

	manager, st := newTestManager(t, data, fetcher)

	update := ListUpdate{
		Alias:       "renamed",
		Type:        list.Type,
		ContentType: list.ContentType,
		Config:      list.Config,
		Group:       "new-group",
	}
	updated, _, err := manager.UpdateList(context.Background(), "l1", update)
	if err != nil {
		t.Fatalf("expected cosmetic edit to succeed, got %v", err)
	}
	if updated.Alias != "renamed" || updated.Group != "new-group" {
		t.Error("expected edits to be applied")
	}
	if len(fetcher.Calls()) != 0 {
		t.Error("expected no provider probe for a cosmetic edit")
	}

	stored, _ := st.Load()
	if stored.ListByID("l1").Alias != "renamed" {
		t.Error("expected edit to be persisted")
	}
}

func TestUpdateListRevalidatesConfigChanges(t *testing.T) {
	list := helpers.NewList("l1")
	data := models.NewConfigData()
	data.Lists = append(data.Lists, list)

	fetcher := helpers.NewFakeFetcher()
	fetcher.SetError("l1", apperrors.FetchError("mdblist", apperrors.CodeSourceNotFound, "no such slug", nil))

	manager, st := newTestManager(t, data, fetcher)

	update := ListUpdate{
		Alias:       list.Alias,
		Type:        list.Type,
		ContentType: list.ContentType,
		Config:      models.ListConfig{Slug: "different-slug"},
	}
	_, _, err := manager.UpdateList(context.Background(), "l1", update)
	if apperrors.GetErrorCode(err) != apperrors.CodeSourceNotFound {
		t.Errorf("expected config change to be revalidated, got %v", err)
	}

	stored, _ := st.Load()
	if stored.ListByID("l1").Config.Slug != "top-watched-l1" {
		t.Error("expected failed edit to leave the list untouched")
	}
}

func TestUpdateListRefreshesDisplayingSlots(t *testing.T) {
	list := helpers.NewList("l1")
	displaying := helpers.NewSlot("s1", []string{"l1"},
		helpers.WithSelection("l1", "list-l1", helpers.MakeItems(1, "old")))
	idle := helpers.NewSlot("s2", []string{"l1"})
	data := models.NewConfigData()
	data.Lists = append(data.Lists, list)
	data.Slots = append(data.Slots, displaying, idle)

	fetcher := helpers.NewFakeFetcher()
	fetcher.SetItems("l1", helpers.MakeItems(3, "fresh"))

	manager, st := newTestManager(t, data, fetcher)

	update := ListUpdate{
		Alias:       list.Alias,
		Type:        list.Type,
		ContentType: list.ContentType,
		Config:      models.ListConfig{Slug: "new-slug"},
	}
	_, results, err := manager.UpdateList(context.Background(), "l1", update)
	if err != nil {
		t.Fatalf("UpdateList failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one forced refresh, got %d", len(results))
	}
	if results[0].SlotID != "s1" || !results[0].Success {
		t.Errorf("unexpected refresh result: %+v", results[0])
	}

	stored, _ := st.Load()
	sel := stored.SlotByID("s1").CurrentSelection
	if sel == nil || len(sel.Items) != 4 {
		t.Error("expected displaying slot to hold refreshed content")
	}
	if stored.SlotByID("s2").CurrentSelection != nil {
		t.Error("expected idle slot to be left alone")
	}
}

func TestDeleteListPrunesWithoutRefreshing(t *testing.T) {
	l1 := helpers.NewList("l1")
	l2 := helpers.NewList("l2")
	slot := helpers.NewSlot("s1", []string{"l1", "l2"},
		helpers.WithSelection("l1", "list-l1", helpers.MakeItems(2, "old")))
	data := models.NewConfigData()
	data.Lists = append(data.Lists, l1, l2)
	data.Slots = append(data.Slots, slot)

	fetcher := helpers.NewFakeFetcher()
	manager, st := newTestManager(t, data, fetcher)

	if err := manager.DeleteList(context.Background(), "l1"); err != nil {
		t.Fatalf("DeleteList failed: %v", err)
	}

	stored, _ := st.Load()
	if stored.ListByID("l1") != nil {
		t.Error("expected list to be removed")
	}
	kept := stored.SlotByID("s1")
	if kept.HasList("l1") {
		t.Error("expected list reference pruned from slot")
	}
	// The stale selection stays rendered until the next refresh cycle
	if kept.CurrentSelection == nil || kept.CurrentSelection.SourceID != "l1" {
		t.Error("expected stale selection to remain after delete")
	}
	if len(fetcher.Calls()) != 0 {
		t.Error("expected delete to trigger no refresh")
	}
}

func TestDeleteListNotFound(t *testing.T) {
	manager, _ := newTestManager(t, models.NewConfigData(), helpers.NewFakeFetcher())
	if err := manager.DeleteList(context.Background(), "missing"); !apperrors.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestAddSlotRefreshesImmediately(t *testing.T) {
	l1 := helpers.NewList("l1")
	series := helpers.NewList("l2", helpers.WithListContentType(models.ContentTypeSeries))
	data := models.NewConfigData()
	data.Lists = append(data.Lists, l1, series)

	fetcher := helpers.NewFakeFetcher()
	fetcher.SetItems("l1", helpers.MakeItems(2, "a"))

	manager, st := newTestManager(t, data, fetcher)

	slot, result, err := manager.AddSlot(context.Background(), "My Movies", models.ContentTypeMovie)
	if err != nil {
		t.Fatalf("AddSlot failed: %v", err)
	}
	if !result.Success {
		t.Errorf("expected immediate refresh to succeed: %+v", result)
	}
	if len(slot.ListIDs) != 1 || slot.ListIDs[0] != "l1" {
		t.Errorf("expected slot to reference matching lists only, got %v", slot.ListIDs)
	}
	if slot.CurrentSelection == nil {
		t.Error("expected returned slot to carry the fresh selection")
	}

	stored, _ := st.Load()
	if stored.SlotByID(slot.ID) == nil {
		t.Error("expected slot to be persisted")
	}
}

func TestAddSlotValidation(t *testing.T) {
	manager, _ := newTestManager(t, models.NewConfigData(), helpers.NewFakeFetcher())

	if _, _, err := manager.AddSlot(context.Background(), "", models.ContentTypeMovie); !apperrors.IsValidationError(err) {
		t.Errorf("expected validation error for empty alias, got %v", err)
	}
	if _, _, err := manager.AddSlot(context.Background(), "x", "music"); !apperrors.IsValidationError(err) {
		t.Errorf("expected validation error for bad content type, got %v", err)
	}
}

func TestUpdateSlotRejectsUnknownList(t *testing.T) {
	slot := helpers.NewSlot("s1", nil)
	data := models.NewConfigData()
	data.Slots = append(data.Slots, slot)

	manager, _ := newTestManager(t, data, helpers.NewFakeFetcher())

	update := SlotUpdate{Alias: "s", ContentType: models.ContentTypeMovie, ListIDs: []string{"ghost"}}
	_, _, err := manager.UpdateSlot(context.Background(), "s1", update)
	if !apperrors.IsValidationError(err) {
		t.Errorf("expected validation error for unknown list id, got %v", err)
	}
}

func TestUpdateSlotRefreshesWhenActiveSourceDropped(t *testing.T) {
	l1 := helpers.NewList("l1")
	l2 := helpers.NewList("l2")
	slot := helpers.NewSlot("s1", []string{"l1", "l2"},
		helpers.WithSelection("l1", "list-l1", helpers.MakeItems(1, "old")))
	data := models.NewConfigData()
	data.Lists = append(data.Lists, l1, l2)
	data.Slots = append(data.Slots, slot)

	fetcher := helpers.NewFakeFetcher()
	fetcher.SetItems("l2", helpers.MakeItems(2, "b"))

	manager, _ := newTestManager(t, data, fetcher)

	update := SlotUpdate{Alias: "slot-s1", ContentType: models.ContentTypeMovie, ListIDs: []string{"l2"}}
	updated, result, err := manager.UpdateSlot(context.Background(), "s1", update)
	if err != nil {
		t.Fatalf("UpdateSlot failed: %v", err)
	}
	if result == nil || !result.Success {
		t.Fatal("expected a forced refresh after the active source was dropped")
	}
	if updated.ActiveSourceID() != "l2" {
		t.Errorf("expected new selection from l2, got %q", updated.ActiveSourceID())
	}
}

func TestUpdateSlotKeepsSelectionWhenSourceRetained(t *testing.T) {
	l1 := helpers.NewList("l1")
	l2 := helpers.NewList("l2")
	slot := helpers.NewSlot("s1", []string{"l1"},
		helpers.WithSelection("l1", "list-l1", helpers.MakeItems(1, "old")))
	data := models.NewConfigData()
	data.Lists = append(data.Lists, l1, l2)
	data.Slots = append(data.Slots, slot)

	fetcher := helpers.NewFakeFetcher()
	manager, _ := newTestManager(t, data, fetcher)

	// Widening the list set keeps the active source; no refresh needed
	update := SlotUpdate{Alias: "slot-s1", ContentType: models.ContentTypeMovie, ListIDs: []string{"l1", "l2"}}
	updated, result, err := manager.UpdateSlot(context.Background(), "s1", update)
	if err != nil {
		t.Fatalf("UpdateSlot failed: %v", err)
	}
	if result != nil {
		t.Error("expected no forced refresh when the active source is retained")
	}
	if updated.ActiveSourceID() != "l1" {
		t.Error("expected existing selection to survive")
	}
	if len(fetcher.Calls()) != 0 {
		t.Error("expected no upstream fetch")
	}
}

func TestUpdateSlotRefreshesOnTypeChange(t *testing.T) {
	movie := helpers.NewList("l1")
	show := helpers.NewList("l2", helpers.WithListContentType(models.ContentTypeSeries))
	slot := helpers.NewSlot("s1", []string{"l1"},
		helpers.WithSelection("l1", "list-l1", nil))
	data := models.NewConfigData()
	data.Lists = append(data.Lists, movie, show)
	data.Slots = append(data.Slots, slot)

	fetcher := helpers.NewFakeFetcher()
	fetcher.SetItems("l2", helpers.MakeItems(1, "b"))

	manager, _ := newTestManager(t, data, fetcher)

	update := SlotUpdate{Alias: "slot-s1", ContentType: models.ContentTypeSeries, ListIDs: []string{"l2"}}
	updated, result, err := manager.UpdateSlot(context.Background(), "s1", update)
	if err != nil {
		t.Fatalf("UpdateSlot failed: %v", err)
	}
	if result == nil {
		t.Fatal("expected a forced refresh after the content type changed")
	}
	if updated.ActiveSourceID() != "l2" {
		t.Errorf("expected series selection, got %q", updated.ActiveSourceID())
	}
}

func TestDeleteSlot(t *testing.T) {
	slot := helpers.NewSlot("s1", nil)
	data := models.NewConfigData()
	data.Slots = append(data.Slots, slot)

	manager, st := newTestManager(t, data, helpers.NewFakeFetcher())

	if err := manager.DeleteSlot(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteSlot failed: %v", err)
	}
	stored, _ := st.Load()
	if stored.SlotByID("s1") != nil {
		t.Error("expected slot to be removed")
	}

	if err := manager.DeleteSlot(context.Background(), "s1"); !apperrors.IsNotFound(err) {
		t.Errorf("expected not-found on second delete, got %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	manager, st := newTestManager(t, models.NewConfigData(), helpers.NewFakeFetcher())

	updated, err := manager.UpdateSettings(models.Settings{RefreshIntervalHours: 6, DefaultItemLimit: 25})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if updated.RefreshIntervalHours != 6 {
		t.Errorf("expected interval 6, got %d", updated.RefreshIntervalHours)
	}

	stored, _ := st.Load()
	if stored.Settings.DefaultItemLimit != 25 {
		t.Error("expected settings to be persisted")
	}

	if _, err := manager.UpdateSettings(models.Settings{RefreshIntervalHours: -1, DefaultItemLimit: 10}); !apperrors.IsValidationError(err) {
		t.Errorf("expected validation error for negative interval, got %v", err)
	}
	if _, err := manager.UpdateSettings(models.Settings{RefreshIntervalHours: 1, DefaultItemLimit: 0}); !apperrors.IsValidationError(err) {
		t.Errorf("expected validation error for zero limit, got %v", err)
	}

	// A disabled schedule is a valid configuration
	if _, err := manager.UpdateSettings(models.Settings{RefreshIntervalHours: 0, DefaultItemLimit: 10}); err != nil {
		t.Errorf("expected zero interval to be accepted, got %v", err)
	}
}
