package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	apperrors "github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/models"
	"github.com/glefebvre/shufflarr/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TestStore creates an in-memory configuration store for testing
func TestStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	st, err := store.OpenWithDB(db)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	return st
}

// Seed persists the given configuration into the store
func Seed(t *testing.T, st *store.Store, data *models.ConfigData) {
	t.Helper()
	if err := st.Save(data); err != nil {
		t.Fatalf("failed to seed configuration: %v", err)
	}
}

// NewList creates a test source list with sensible defaults
func NewList(id string, overrides ...func(*models.SourceList)) *models.SourceList {
	list := &models.SourceList{
		ID:          id,
		Alias:       "list-" + id,
		Type:        models.ListTypeMDBList,
		ContentType: models.ContentTypeMovie,
		Config:      models.ListConfig{Slug: "top-watched-" + id},
	}

	for _, override := range overrides {
		override(list)
	}
	return list
}

// WithGroup sets the exclusivity group of a list
func WithGroup(group string) func(*models.SourceList) {
	return func(l *models.SourceList) {
		l.Group = group
	}
}

// WithListContentType sets the content type of a list
func WithListContentType(ct models.ContentType) func(*models.SourceList) {
	return func(l *models.SourceList) {
		l.ContentType = ct
	}
}

// WithShuffle enables shuffling for a list
func WithShuffle() func(*models.SourceList) {
	return func(l *models.SourceList) {
		l.Shuffle = true
	}
}

// WithLimit sets the per-list item limit
func WithLimit(limit int) func(*models.SourceList) {
	return func(l *models.SourceList) {
		l.Limit = limit
	}
}

// WithListType sets the provider type of a list
func WithListType(lt models.ListType) func(*models.SourceList) {
	return func(l *models.SourceList) {
		l.Type = lt
	}
}

// NewSlot creates a test catalog slot referencing the given lists
func NewSlot(id string, listIDs []string, overrides ...func(*models.CatalogSlot)) *models.CatalogSlot {
	slot := &models.CatalogSlot{
		ID:          id,
		Alias:       "slot-" + id,
		ContentType: models.ContentTypeMovie,
		ListIDs:     listIDs,
	}

	for _, override := range overrides {
		override(slot)
	}
	return slot
}

// WithSlotContentType sets the content type of a slot
func WithSlotContentType(ct models.ContentType) func(*models.CatalogSlot) {
	return func(s *models.CatalogSlot) {
		s.ContentType = ct
	}
}

// WithSelection gives the slot a committed selection pointing at a source
func WithSelection(sourceID, name string, items []models.Item) func(*models.CatalogSlot) {
	return func(s *models.CatalogSlot) {
		s.CurrentSelection = &models.Selection{
			Name:       name,
			SourceType: models.ListTypeMDBList,
			SourceID:   sourceID,
			Items:      items,
		}
	}
}

// MakeItems builds n distinct items with ids derived from the prefix
func MakeItems(n int, prefix string) []models.Item {
	items := make([]models.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.Item{
			ID:   fmt.Sprintf("tt%s%04d", prefix, i),
			Type: models.ContentTypeMovie,
			Name: fmt.Sprintf("%s item %d", prefix, i),
		})
	}
	return items
}

// FakeFetcher is a scripted source adapter for engine and lifecycle tests.
// It satisfies both the engine's Fetcher and the manager's Validator.
type FakeFetcher struct {
	mu    sync.Mutex
	items map[string][]models.Item
	errs  map[string]error
	calls []string
}

// NewFakeFetcher creates an empty scripted adapter
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		items: make(map[string][]models.Item),
		errs:  make(map[string]error),
	}
}

// SetItems scripts a successful fetch for the given list id
func (f *FakeFetcher) SetItems(listID string, items []models.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[listID] = items
	delete(f.errs, listID)
}

// SetError scripts a failing fetch for the given list id
func (f *FakeFetcher) SetError(listID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[listID] = err
}

// FetchItems returns the scripted outcome for the list, recording the call
func (f *FakeFetcher) FetchItems(ctx context.Context, list *models.SourceList, limit int) ([]models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, list.ID)

	if err, ok := f.errs[list.ID]; ok {
		return nil, err
	}

	items := f.items[list.ID]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	out := make([]models.Item, len(items))
	copy(out, items)
	return out, nil
}

// Validate mirrors the registry's probe semantics against the scripted data
func (f *FakeFetcher) Validate(ctx context.Context, list *models.SourceList) error {
	items, err := f.FetchItems(ctx, list, 5)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return apperrors.FetchError(string(list.Type), apperrors.CodeEmptyResult,
			"list validated but returned no items", nil)
	}
	return nil
}

// Calls returns the list ids fetched, in order
func (f *FakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// ResetCalls clears the recorded call order
func (f *FakeFetcher) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
