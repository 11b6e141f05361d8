package selection

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"time"

	apperrors "github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/logger"
	"github.com/glefebvre/shufflarr/internal/models"
	"github.com/glefebvre/shufflarr/internal/store"
)

// headerIDPrefix marks synthetic header items so they can never be confused
// with real content ids
const headerIDPrefix = "shufflarr:header:"

// Fetcher is the source-adapter contract the engine consumes
type Fetcher interface {
	FetchItems(ctx context.Context, list *models.SourceList, limit int) ([]models.Item, error)
}

// Result reports the outcome of a single-slot refresh
type Result struct {
	SlotID   string `json:"slot_id"`
	Success  bool   `json:"success"`
	ListName string `json:"list_name,omitempty"`

	// Retried is set when an earlier attempt in the same refresh failed
	// before another list succeeded
	Retried         bool   `json:"retried,omitempty"`
	FailedListAlias string `json:"failed_list_alias,omitempty"`
	FailureReason   string `json:"failure_reason,omitempty"`

	// ItemsEmpty is set when the committed fetch returned no items
	ItemsEmpty bool `json:"items_empty,omitempty"`

	// Message carries the first failure's detail when the whole pool failed
	Message string `json:"message,omitempty"`
}

// Engine decides which source list becomes active for each slot, fetches its
// items, and commits the selection. It reads current state, decides, then
// writes once; it provides no mutual exclusion across concurrent top-level
// invocations.
type Engine struct {
	store   *store.Store
	fetcher Fetcher
	log     *logger.Logger

	// randIntN is swapped out in tests for deterministic picks
	randIntN func(n int) int
}

// NewEngine creates a selection engine over the given store and adapters
func NewEngine(st *store.Store, fetcher Fetcher) *Engine {
	return &Engine{
		store:    st,
		fetcher:  fetcher,
		log:      logger.AppLogger(),
		randIntN: rand.Intn,
	}
}

// attemptFailure records the details of one failed fetch attempt
type attemptFailure struct {
	listAlias string
	reason    string
	message   string
}

// RefreshSlot re-selects the active source list for one slot and commits the
// result. The chosen list is drawn uniformly at random from the slot's
// exclusivity-filtered candidate pool; lists whose fetch fails are removed
// from the pool and never retried within this call.
func (e *Engine) RefreshSlot(ctx context.Context, slotID string) (Result, error) {
	data, err := e.store.Load()
	if err != nil {
		return Result{SlotID: slotID}, err
	}

	slot := data.SlotByID(slotID)
	if slot == nil {
		return Result{SlotID: slotID}, apperrors.NotFoundError("slot", slotID)
	}

	result, err := e.refreshSlotData(ctx, data, slot)
	if err != nil {
		return result, err
	}

	e.persist(data)
	return result, nil
}

// RefreshAllSlots re-selects every slot that has at least one configured
// list. Slots with fewer eligible lists are resolved first: they have the
// least flexibility and should get first pick under exclusivity. All
// selections are cleared up front so each slot's exclusivity computation
// only sees slots already decided in this batch, not last cycle's state.
func (e *Engine) RefreshAllSlots(ctx context.Context) ([]Result, error) {
	data, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	for _, slot := range data.Slots {
		slot.CurrentSelection = nil
	}

	eligible := make([]*models.CatalogSlot, 0, len(data.Slots))
	for _, slot := range data.Slots {
		if len(slot.ListIDs) > 0 {
			eligible = append(eligible, slot)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return len(e.candidateLists(data, eligible[i])) < len(e.candidateLists(data, eligible[j]))
	})

	results := make([]Result, 0, len(eligible))
	for _, slot := range eligible {
		result, err := e.refreshSlotData(ctx, data, slot)
		if err != nil {
			e.log.WithFields(map[string]interface{}{
				"slot_id": slot.ID,
				"error":   err.Error(),
			}).Warn("slot refresh failed during batch")
		} else {
			e.persist(data)
		}
		results = append(results, result)
	}

	return results, nil
}

// refreshSlotData runs the selection loop for one slot against the given
// in-memory configuration. It mutates the slot's selection on success and
// leaves it untouched on failure; persistence is the caller's concern.
func (e *Engine) refreshSlotData(ctx context.Context, data *models.ConfigData, slot *models.CatalogSlot) (Result, error) {
	ctx = logger.ContextWithSlotID(ctx, slot.ID)
	result := Result{SlotID: slot.ID}

	candidates := e.candidateLists(data, slot)
	if len(candidates) == 0 {
		result.Message = "no eligible lists configured for this slot"
		return result, apperrors.New(apperrors.CodeNoCandidates, result.Message).WithContext("slot_id", slot.ID)
	}

	pool := e.exclusivityPool(data, slot, candidates)

	var firstFailure *attemptFailure
	for len(pool) > 0 {
		idx := e.randIntN(len(pool))
		list := pool[idx]

		limit := list.Limit
		if limit <= 0 {
			limit = data.Settings.DefaultItemLimit
		}

		items, err := e.fetcher.FetchItems(ctx, list, limit)
		if err != nil {
			if firstFailure == nil {
				firstFailure = &attemptFailure{
					listAlias: list.DisplayName(),
					reason:    reasonForError(err),
					message:   err.Error(),
				}
			}
			e.log.WithFields(map[string]interface{}{
				"slot_id": slot.ID,
				"list":    list.DisplayName(),
				"reason":  reasonForError(err),
			}).Warn("list fetch failed, excluding from pool")
			pool = append(pool[:idx], pool[idx+1:]...)
			continue
		}

		if list.Shuffle {
			e.shuffle(items)
		}

		rendered := make([]models.Item, 0, len(items)+1)
		rendered = append(rendered, e.headerItem(slot, list))
		rendered = append(rendered, items...)

		slot.CurrentSelection = &models.Selection{
			Name:       list.DisplayName(),
			SourceType: list.Type,
			SourceID:   list.ID,
			Items:      rendered,
		}

		result.Success = true
		result.ListName = list.DisplayName()
		result.ItemsEmpty = len(items) == 0
		if firstFailure != nil {
			result.Retried = true
			result.FailedListAlias = firstFailure.listAlias
			result.FailureReason = firstFailure.reason
		}

		e.log.WithFields(map[string]interface{}{
			"slot_id": slot.ID,
			"list":    list.DisplayName(),
			"items":   len(items),
			"retried": result.Retried,
		}).Info("slot selection committed")

		return result, nil
	}

	// Every candidate failed; report the first failure, which belongs to the
	// randomly-first-tried list and is usually the most diagnostic
	result.FailedListAlias = firstFailure.listAlias
	result.FailureReason = firstFailure.reason
	result.Message = firstFailure.message
	return result, apperrors.New(apperrors.CodePoolExhausted, firstFailure.message).WithContext("slot_id", slot.ID)
}

// candidateLists resolves the lists a slot may select from: referenced by
// the slot and matching its content type
func (e *Engine) candidateLists(data *models.ConfigData, slot *models.CatalogSlot) []*models.SourceList {
	candidates := make([]*models.SourceList, 0, len(slot.ListIDs))
	for _, l := range data.Lists {
		if slot.HasList(l.ID) && l.ContentType == slot.ContentType {
			candidates = append(candidates, l)
		}
	}
	return candidates
}

// exclusivityPool removes candidates already active elsewhere, either
// directly or through a shared non-empty group. Exclusivity is best-effort:
// when filtering would empty the pool, the full candidate set is used.
func (e *Engine) exclusivityPool(data *models.ConfigData, slot *models.CatalogSlot, candidates []*models.SourceList) []*models.SourceList {
	activeSources := make(map[string]bool)
	activeGroups := make(map[string]bool)
	for _, other := range data.Slots {
		if other.ID == slot.ID {
			continue
		}
		sourceID := other.ActiveSourceID()
		if sourceID == "" {
			continue
		}
		activeSources[sourceID] = true
		if l := data.ListByID(sourceID); l != nil && l.Group != "" {
			activeGroups[l.Group] = true
		}
	}

	pool := make([]*models.SourceList, 0, len(candidates))
	for _, l := range candidates {
		if activeSources[l.ID] {
			continue
		}
		if l.Group != "" && activeGroups[l.Group] {
			continue
		}
		pool = append(pool, l)
	}

	if len(pool) == 0 {
		pool = append(pool, candidates...)
	}
	return pool
}

// shuffle applies an unbiased Fisher-Yates permutation in place
func (e *Engine) shuffle(items []models.Item) {
	for i := len(items) - 1; i > 0; i-- {
		j := e.randIntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// headerItem builds the synthetic first entry identifying which source list
// a slot is currently showing
func (e *Engine) headerItem(slot *models.CatalogSlot, list *models.SourceList) models.Item {
	name := list.DisplayName()
	return models.Item{
		ID:          fmt.Sprintf("%s%s:%d", headerIDPrefix, slot.ID, time.Now().Unix()),
		Type:        slot.ContentType,
		Name:        name,
		Poster:      posterURL(name),
		Description: fmt.Sprintf("Currently displaying: %s", name),
	}
}

// posterURL generates a placeholder image encoding the list name
func posterURL(name string) string {
	return "https://placehold.co/300x450.png?text=" + url.QueryEscape(name)
}

// persist writes the configuration, logging persistence failures instead of
// propagating them: the in-memory commit already happened and the refresh is
// treated as best-effort complete
func (e *Engine) persist(data *models.ConfigData) {
	if err := e.store.Save(data); err != nil {
		e.log.Error("failed to persist configuration after refresh", err)
	}
}

// reasonForError maps a categorized fetch error onto its display reason
func reasonForError(err error) string {
	switch apperrors.GetErrorCode(err) {
	case apperrors.CodeSourceNotFound:
		return "not found"
	case apperrors.CodeUnauthorized:
		return "access denied"
	case apperrors.CodeEmptyResult:
		return "was empty"
	case apperrors.CodeMissingConfig:
		return "invalid config"
	default:
		return "unreachable"
	}
}
