package store

import (
	"testing"

	"github.com/glefebvre/shufflarr/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	st, err := OpenWithDB(db)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return st
}

func TestLoadMissingBlobReturnsDefaults(t *testing.T) {
	st := newTestStore(t)

	data, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(data.Lists) != 0 || len(data.Slots) != 0 {
		t.Error("expected empty configuration")
	}
	if data.Settings != models.DefaultSettings() {
		t.Errorf("expected default settings, got %+v", data.Settings)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	st := newTestStore(t)

	data := models.NewConfigData()
	data.Lists = append(data.Lists, &models.SourceList{
		ID:          "l1",
		Alias:       "Trending",
		Type:        models.ListTypeMDBList,
		ContentType: models.ContentTypeMovie,
		Config:      models.ListConfig{Slug: "trending"},
		Group:       "charts",
	})
	data.Slots = append(data.Slots, &models.CatalogSlot{
		ID:          "s1",
		Alias:       "Discover",
		ContentType: models.ContentTypeMovie,
		ListIDs:     []string{"l1"},
		CurrentSelection: &models.Selection{
			Name:       "Trending",
			SourceType: models.ListTypeMDBList,
			SourceID:   "l1",
			Items:      []models.Item{{ID: "tt0000001", Type: models.ContentTypeMovie, Name: "x"}},
		},
	})
	data.Settings = models.Settings{RefreshIntervalHours: 6, DefaultItemLimit: 30}

	if err := st.Save(data); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Lists) != 1 || loaded.Lists[0].Group != "charts" {
		t.Error("expected list to survive the roundtrip")
	}
	slot := loaded.SlotByID("s1")
	if slot == nil || slot.ActiveSourceID() != "l1" {
		t.Error("expected slot selection to survive the roundtrip")
	}
	if loaded.Settings.RefreshIntervalHours != 6 {
		t.Errorf("expected interval 6, got %d", loaded.Settings.RefreshIntervalHours)
	}
}

func TestSaveOverwritesSingleRow(t *testing.T) {
	st := newTestStore(t)

	first := models.NewConfigData()
	first.Slots = append(first.Slots, &models.CatalogSlot{ID: "s1", Alias: "a", ContentType: models.ContentTypeMovie})
	if err := st.Save(first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := models.NewConfigData()
	if err := st.Save(second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, _ := st.Load()
	if len(loaded.Slots) != 0 {
		t.Error("expected the blob to be rewritten in full")
	}

	var count int64
	st.db.Model(&configBlob{}).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one blob row, got %d", count)
	}
}

func TestLoadCorruptBlobFallsBackToDefaults(t *testing.T) {
	st := newTestStore(t)

	blob := configBlob{ID: blobID, Data: "{not json"}
	if err := st.db.Save(&blob).Error; err != nil {
		t.Fatalf("failed to plant corrupt blob: %v", err)
	}

	data, err := st.Load()
	if err != nil {
		t.Fatalf("expected corrupt blob to fall back, got error: %v", err)
	}
	if data.Settings != models.DefaultSettings() {
		t.Error("expected default settings after corrupt blob")
	}
}

func TestNormalizeSettingsFillsZeroValues(t *testing.T) {
	st := newTestStore(t)

	// An older blob without settings deserializes to zero values
	blob := configBlob{ID: blobID, Data: `{"lists":null,"slots":null}`}
	if err := st.db.Save(&blob).Error; err != nil {
		t.Fatalf("failed to plant blob: %v", err)
	}

	data, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data.Settings.DefaultItemLimit != models.DefaultSettings().DefaultItemLimit {
		t.Errorf("expected default item limit, got %d", data.Settings.DefaultItemLimit)
	}
	if data.Lists == nil || data.Slots == nil {
		t.Error("expected nil collections to be replaced with empty slices")
	}
	// Zero interval is a deliberate "disabled" state, not a missing value
	if data.Settings.RefreshIntervalHours != 0 {
		t.Errorf("expected zero interval to be preserved, got %d", data.Settings.RefreshIntervalHours)
	}
}

func TestHealthCheck(t *testing.T) {
	st := newTestStore(t)
	if err := st.HealthCheck(); err != nil {
		t.Errorf("expected healthy store, got %v", err)
	}
}

func TestGetDiskSpace(t *testing.T) {
	ds, err := GetDiskSpace(t.TempDir())
	assert.NoError(t, err)
	assert.Greater(t, ds.Total, uint64(0))
	assert.LessOrEqual(t, ds.Available, ds.Total)
	assert.GreaterOrEqual(t, ds.UsedPct, 0.0)
}

func TestGetDiskSpaceWalksToExistingParent(t *testing.T) {
	ds, err := GetDiskSpace(t.TempDir() + "/does/not/exist")
	assert.NoError(t, err)
	assert.Greater(t, ds.Total, uint64(0))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    uint64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.bytes))
	}
}
