package adapters

import (
	"context"
	"fmt"

	"github.com/glefebvre/shufflarr/internal/config"
	apperrors "github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/external/cinemeta"
	"github.com/glefebvre/shufflarr/internal/external/mdblist"
	"github.com/glefebvre/shufflarr/internal/external/trakt"
	"github.com/glefebvre/shufflarr/internal/models"
)

// Registry dispatches fetches to the provider client matching a list's type.
// It is the single place that knows which provider backs which ListType.
type Registry struct {
	mdblist    *mdblist.Client
	trakt      *trakt.Client
	charts     *cinemeta.Client
	probeLimit int
}

// NewRegistry builds the provider clients from bootstrap configuration
func NewRegistry(cfg *config.Config) *Registry {
	probeLimit := cfg.Probe.Limit
	if probeLimit <= 0 {
		probeLimit = 5
	}

	return &Registry{
		mdblist:    mdblist.NewClient(mdblist.Config{APIKey: cfg.MDBList.APIKey}),
		trakt:      trakt.NewClient(trakt.Config{ClientID: cfg.Trakt.ClientID}),
		charts:     cinemeta.NewClient(cinemeta.Config{}),
		probeLimit: probeLimit,
	}
}

// FetchItems retrieves the normalized items of a source list. Failures carry
// a categorized fetch-error code; they are never raw transport errors.
func (r *Registry) FetchItems(ctx context.Context, list *models.SourceList, limit int) ([]models.Item, error) {
	switch list.Type {
	case models.ListTypeMDBList:
		return r.mdblist.FetchTopList(ctx, list.Config.Slug, list.ContentType, limit)

	case models.ListTypeMDBListUser:
		return r.mdblist.FetchUserList(ctx, list.Config.Username, list.Config.ListName, list.ContentType, limit)

	case models.ListTypeTrakt:
		return r.trakt.FetchUserList(ctx, list.Config.Username, list.Config.Slug, list.ContentType, limit)

	case models.ListTypeTop100:
		kind := list.Config.Kind
		if kind == "" {
			kind = list.ContentType
		}
		return r.charts.FetchTop(ctx, kind, limit)

	default:
		return nil, apperrors.FetchError(string(list.Type), apperrors.CodeMissingConfig,
			fmt.Sprintf("unknown list type: %s", list.Type), nil)
	}
}

// Validate checks that a list is fetchable before it is persisted. The chart
// source has no credentials or remote identity to verify, so only its config
// shape is checked; every other provider gets a trial fetch with the limit
// clamped to a cheap probe value.
func (r *Registry) Validate(ctx context.Context, list *models.SourceList) error {
	if list.Type == models.ListTypeTop100 {
		kind := list.Config.Kind
		if kind != "" && !kind.IsValid() {
			return apperrors.ValidationError(fmt.Sprintf("invalid chart kind: %s", kind))
		}
		return nil
	}

	items, err := r.FetchItems(ctx, list, r.probeLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return apperrors.FetchError(string(list.Type), apperrors.CodeEmptyResult,
			"list validated but returned no items", nil)
	}
	return nil
}
