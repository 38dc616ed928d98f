// Package backup drives export and import of portable backups: gathering
// records, normalizing photo references, packing archives, and merging or
// overwriting remote and local state.
package backup

import (
	"context"

	"github.com/plantfolk/plantkeeper/internal/client/models"
	"github.com/plantfolk/plantkeeper/internal/client/store"
	"github.com/plantfolk/plantkeeper/internal/common"
)

// RecordSource is the read accessor the orchestrator gathers records
// through. Reads are paginated; pages may overlap, so gathering always
// de-duplicates by id.
type RecordSource interface {
	Plants(ctx context.Context, offset, limit int) ([]models.Plant, error)
	Tasks(ctx context.Context, offset, limit int) ([]models.TaskTemplate, error)
	TaskLogs(ctx context.Context, offset, limit int) ([]models.TaskLog, error)
	Journal(ctx context.Context, offset, limit int) ([]models.JournalEntry, error)

	Locations(ctx context.Context) (*models.LocationConfig, error)
	Catalog(ctx context.Context) (*models.PlantCatalog, error)
	CareProfiles(ctx context.Context) (*models.PlantCareProfiles, error)
}

// Sharer hands a finished archive to the platform sharing surface.
type Sharer interface {
	Share(ctx context.Context, filename, mimeType string, data []byte) error
}

// Session is the authentication collaborator: the orchestrator only needs to
// know whether a user is signed in, to obtain a fresh credential, and whose
// records to scope remote operations to.
type Session interface {
	IsAuthenticated() bool
	RefreshCredential(ctx context.Context) error
	UserID() string
}

// StoreSource reads records from the serialized local store.
type StoreSource struct {
	s *store.Store
}

func NewStoreSource(s *store.Store) *StoreSource {
	return &StoreSource{s: s}
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func (src *StoreSource) Plants(ctx context.Context, offset, limit int) ([]models.Plant, error) {
	all, err := store.ReadAs[models.Plant](ctx, src.s, common.KeyPlants)
	if err != nil {
		return nil, err
	}
	return page(all, offset, limit), nil
}

func (src *StoreSource) Tasks(ctx context.Context, offset, limit int) ([]models.TaskTemplate, error) {
	all, err := store.ReadAs[models.TaskTemplate](ctx, src.s, common.KeyTasks)
	if err != nil {
		return nil, err
	}
	return page(all, offset, limit), nil
}

func (src *StoreSource) TaskLogs(ctx context.Context, offset, limit int) ([]models.TaskLog, error) {
	all, err := store.ReadAs[models.TaskLog](ctx, src.s, common.KeyTaskLogs)
	if err != nil {
		return nil, err
	}
	return page(all, offset, limit), nil
}

func (src *StoreSource) Journal(ctx context.Context, offset, limit int) ([]models.JournalEntry, error) {
	all, err := store.ReadAs[models.JournalEntry](ctx, src.s, common.KeyJournal)
	if err != nil {
		return nil, err
	}
	return page(all, offset, limit), nil
}

func firstOrNil[T any](items []T) *T {
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}

func (src *StoreSource) Locations(ctx context.Context) (*models.LocationConfig, error) {
	items, err := store.ReadAs[models.LocationConfig](ctx, src.s, common.KeyLocations)
	if err != nil {
		return nil, err
	}
	return firstOrNil(items), nil
}

func (src *StoreSource) Catalog(ctx context.Context) (*models.PlantCatalog, error) {
	items, err := store.ReadAs[models.PlantCatalog](ctx, src.s, common.KeyCatalog)
	if err != nil {
		return nil, err
	}
	return firstOrNil(items), nil
}

func (src *StoreSource) CareProfiles(ctx context.Context) (*models.PlantCareProfiles, error) {
	items, err := store.ReadAs[models.PlantCareProfiles](ctx, src.s, common.KeyCareProfiles)
	if err != nil {
		return nil, err
	}
	return firstOrNil(items), nil
}
