package models

// ContentType represents the kind of media a list or slot carries
type ContentType string

const (
	ContentTypeMovie  ContentType = "movie"
	ContentTypeSeries ContentType = "series"
)

// IsValid reports whether the content type is one of the supported kinds
func (c ContentType) IsValid() bool {
	return c == ContentTypeMovie || c == ContentTypeSeries
}

// ListType identifies the upstream provider of a source list
type ListType string

const (
	// ListTypeMDBList is a curated/trending MDBList top list addressed by slug
	ListTypeMDBList ListType = "mdblist"

	// ListTypeMDBListUser is a user-owned named MDBList list
	ListTypeMDBListUser ListType = "mdblistuser"

	// ListTypeTrakt is a Trakt user list or collection
	ListTypeTrakt ListType = "trakt"

	// ListTypeTop100 is the fixed top-N chart source
	ListTypeTop100 ListType = "top100"
)

// IsValid reports whether the list type is a known provider
func (t ListType) IsValid() bool {
	switch t {
	case ListTypeMDBList, ListTypeMDBListUser, ListTypeTrakt, ListTypeTop100:
		return true
	}
	return false
}

// ListConfig holds the provider-specific fetch parameters of a source list.
// Which fields are required depends on the list type.
type ListConfig struct {
	// Slug addresses a curated MDBList top list or a Trakt list
	Slug string `json:"slug,omitempty"`

	// Username owns the list for user-list providers
	Username string `json:"username,omitempty"`

	// ListName is the user-visible list name for MDBList user lists
	ListName string `json:"list_name,omitempty"`

	// Kind selects the chart sub-kind for the top100 provider
	Kind ContentType `json:"kind,omitempty"`
}

// SourceList is a configured reference to an upstream provider list.
// Its ID is immutable once created; everything else may be edited.
type SourceList struct {
	ID          string      `json:"id"`
	Alias       string      `json:"alias"`
	Type        ListType    `json:"type"`
	ContentType ContentType `json:"content_type"`
	Config      ListConfig  `json:"config"`
	Shuffle     bool        `json:"shuffle"`
	Limit       int         `json:"limit"` // 0 means use Settings.DefaultItemLimit
	Group       string      `json:"group,omitempty"`
}

// DisplayName returns the alias, falling back to the configured identifier
func (l *SourceList) DisplayName() string {
	if l.Alias != "" {
		return l.Alias
	}
	if l.Config.ListName != "" {
		return l.Config.ListName
	}
	return l.Config.Slug
}

// Item is a normalized media descriptor produced by a source adapter
type Item struct {
	ID          string      `json:"id"`
	Type        ContentType `json:"type"`
	Name        string      `json:"name"`
	Poster      string      `json:"poster,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Selection is the active source list of a slot plus its rendered items.
// When a fetch succeeded, Items[0] is always the synthetic header item.
type Selection struct {
	Name       string   `json:"name"`
	SourceType ListType `json:"source_type"`
	SourceID   string   `json:"source_id,omitempty"`
	Items      []Item   `json:"items"`
}

// CatalogSlot is a named, persistent catalog placeholder whose displayed
// content rotates among the source lists referenced by ListIDs.
type CatalogSlot struct {
	ID               string      `json:"id"`
	Alias            string      `json:"alias"`
	ContentType      ContentType `json:"content_type"`
	ListIDs          []string    `json:"list_ids"`
	CurrentSelection *Selection  `json:"current_selection,omitempty"`
}

// HasList reports whether the slot references the given list id
func (s *CatalogSlot) HasList(id string) bool {
	for _, lid := range s.ListIDs {
		if lid == id {
			return true
		}
	}
	return false
}

// RemoveList drops the given list id from the slot's references
func (s *CatalogSlot) RemoveList(id string) {
	kept := s.ListIDs[:0]
	for _, lid := range s.ListIDs {
		if lid != id {
			kept = append(kept, lid)
		}
	}
	s.ListIDs = kept
}

// ActiveSourceID returns the id of the currently selected source list,
// or an empty string when the slot has no committed selection
func (s *CatalogSlot) ActiveSourceID() string {
	if s.CurrentSelection == nil {
		return ""
	}
	return s.CurrentSelection.SourceID
}

// Settings holds the globally tunable behavior of the refresh engine
type Settings struct {
	// RefreshIntervalHours is the scheduled batch refresh interval; 0 disables it
	RefreshIntervalHours int `json:"refresh_interval_hours"`

	// DefaultItemLimit applies to lists whose own limit is unset
	DefaultItemLimit int `json:"default_item_limit"`
}

// DefaultSettings returns the settings used when no blob has been persisted yet
func DefaultSettings() Settings {
	return Settings{
		RefreshIntervalHours: 12,
		DefaultItemLimit:     50,
	}
}

// ConfigData is the whole persisted configuration blob: every mutation
// rewrites it in full through the store
type ConfigData struct {
	Lists    []*SourceList  `json:"lists"`
	Slots    []*CatalogSlot `json:"slots"`
	Settings Settings       `json:"settings"`
}

// NewConfigData returns an empty configuration with default settings
func NewConfigData() *ConfigData {
	return &ConfigData{
		Lists:    make([]*SourceList, 0),
		Slots:    make([]*CatalogSlot, 0),
		Settings: DefaultSettings(),
	}
}

// ListByID resolves a source list by id, returning nil when absent
func (d *ConfigData) ListByID(id string) *SourceList {
	for _, l := range d.Lists {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// SlotByID resolves a catalog slot by id, returning nil when absent
func (d *ConfigData) SlotByID(id string) *CatalogSlot {
	for _, s := range d.Slots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ListsOfType returns all source lists matching the given content type
func (d *ConfigData) ListsOfType(ct ContentType) []*SourceList {
	matched := make([]*SourceList, 0)
	for _, l := range d.Lists {
		if l.ContentType == ct {
			matched = append(matched, l)
		}
	}
	return matched
}

// RemoveList deletes the list and prunes its id from every slot's references.
// Slots whose active selection pointed at the list keep that selection; the
// stale content stays rendered until the next refresh.
func (d *ConfigData) RemoveList(id string) bool {
	found := false
	kept := d.Lists[:0]
	for _, l := range d.Lists {
		if l.ID == id {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	d.Lists = kept

	if found {
		for _, s := range d.Slots {
			s.RemoveList(id)
		}
	}
	return found
}

// RemoveSlot deletes the slot; slots own no lists, so nothing cascades
func (d *ConfigData) RemoveSlot(id string) bool {
	found := false
	kept := d.Slots[:0]
	for _, s := range d.Slots {
		if s.ID == id {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	d.Slots = kept
	return found
}
