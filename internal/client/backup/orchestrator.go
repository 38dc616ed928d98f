package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/plantfolk/plantkeeper/internal/client/archive"
	"github.com/plantfolk/plantkeeper/internal/client/models"
	"github.com/plantfolk/plantkeeper/internal/client/photos"
	"github.com/plantfolk/plantkeeper/internal/client/remote"
	"github.com/plantfolk/plantkeeper/internal/client/store"
	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/logging"
)

// State names one phase of an export or import run.
type State string

const (
	StateIdle            State = "idle"
	StateGathering       State = "gathering"
	StateValidating      State = "validating"
	StateNormalizing     State = "normalizing"
	StatePacking         State = "packing"
	StateSyncingRemote   State = "syncing-remote"
	StatePersistingLocal State = "persisting-local"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

const gatherPageSize = 100

// Config document ids under the config kind.
const (
	configIDLocations    = "locations"
	configIDCatalog      = "plantCatalog"
	configIDCareProfiles = "plantCareProfiles"
)

// Orchestrator drives export (gather → normalize → pack → share) and import
// (unpack → validate → normalize → sync remote → persist local). The remote
// store is written before the local cache on import, so a crash mid-import
// leaves the remote, the durability anchor, ahead of the cache and never
// behind it.
type Orchestrator struct {
	source  RecordSource
	local   *store.Store
	locker  *photos.Locker
	codec   *archive.Codec
	remote  remote.Store
	session Session
	log     logging.Logger
	now     func() time.Time

	mu    sync.Mutex
	state State
}

func NewOrchestrator(source RecordSource, local *store.Store, locker *photos.Locker,
	codec *archive.Codec, rem remote.Store, session Session, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		source:  source,
		local:   local,
		locker:  locker,
		codec:   codec,
		remote:  rem,
		session: session,
		log:     log,
		now:     time.Now,
		state:   StateIdle,
	}
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(ctx context.Context, s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.log.Info(ctx, "backup state", "state", string(s))
}

func (o *Orchestrator) fail(ctx context.Context, phase State, err error) error {
	o.setState(ctx, StateFailed)
	return fmt.Errorf("operation failed during %s phase: %w", phase, err)
}

// Export gathers all records, normalizes photo references down to portable
// filenames, packs the archive, and hands it to sharer. With includePhotos
// the archive is a zip carrying every referenced photo; without, a bare JSON
// manifest.
func (o *Orchestrator) Export(ctx context.Context, includePhotos bool, sharer Sharer) error {
	o.setState(ctx, StateGathering)
	manifest, err := o.gather(ctx)
	if err != nil {
		return o.fail(ctx, StateGathering, err)
	}

	o.setState(ctx, StateNormalizing)
	o.stripResolvedURIs(manifest)
	manifest.Version = models.ManifestVersion
	manifest.ExportDate = o.now().UTC().Format(time.RFC3339)

	o.setState(ctx, StatePacking)
	var data []byte
	var filename, mimeType string
	stamp := o.now().UTC().Format("2006-01-02")
	if includePhotos {
		data, err = o.codec.Pack(ctx, manifest, manifest.PhotoFilenames(), o.locker)
		filename = "plantkeeper-backup-" + stamp + ".zip"
		mimeType = "application/zip"
	} else {
		data, err = json.Marshal(manifest)
		filename = "plantkeeper-backup-" + stamp + ".json"
		mimeType = "application/json"
	}
	if err != nil {
		return o.fail(ctx, StatePacking, err)
	}

	if err := sharer.Share(ctx, filename, mimeType, data); err != nil {
		return o.fail(ctx, StatePacking, err)
	}

	o.setState(ctx, StateDone)
	o.log.Info(ctx, "export finished",
		"plants", len(manifest.Plants), "tasks", len(manifest.Tasks),
		"taskLogs", len(manifest.TaskLogs), "journal", len(manifest.Journal),
		"bytes", len(data))
	return nil
}

// gather performs the paginated full read of every record kind,
// de-duplicating by id across pages.
func (o *Orchestrator) gather(ctx context.Context) (*models.BackupManifest, error) {
	m := &models.BackupManifest{
		Plants:   []models.Plant{},
		Tasks:    []models.TaskTemplate{},
		TaskLogs: []models.TaskLog{},
		Journal:  []models.JournalEntry{},
	}

	plants, err := gatherPages(ctx, o.source.Plants)
	if err != nil {
		return nil, fmt.Errorf("gather plants: %w", err)
	}
	m.Plants = plants

	tasks, err := gatherPages(ctx, o.source.Tasks)
	if err != nil {
		return nil, fmt.Errorf("gather tasks: %w", err)
	}
	m.Tasks = tasks

	logs, err := gatherPages(ctx, o.source.TaskLogs)
	if err != nil {
		return nil, fmt.Errorf("gather task logs: %w", err)
	}
	m.TaskLogs = logs

	journal, err := gatherPages(ctx, o.source.Journal)
	if err != nil {
		return nil, fmt.Errorf("gather journal: %w", err)
	}
	m.Journal = journal

	if loc, err := o.source.Locations(ctx); err == nil && loc != nil {
		n := models.NormalizeLocations(loc)
		m.Locations = &n
	}
	if cat, err := o.source.Catalog(ctx); err == nil && cat != nil {
		n := models.NormalizeCatalog(cat)
		m.PlantCatalog = &n
	}
	if care, err := o.source.CareProfiles(ctx); err == nil && care != nil {
		n := models.NormalizeCareProfiles(care)
		m.PlantCareProfiles = &n
	}

	return m, nil
}

func gatherPages[T models.Record](ctx context.Context, read func(ctx context.Context, offset, limit int) ([]T, error)) ([]T, error) {
	var all []T
	for offset := 0; ; offset += gatherPageSize {
		page, err := read(ctx, offset, gatherPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < gatherPageSize {
			break
		}
	}
	return models.DeduplicateByID(all), nil
}

// stripResolvedURIs removes the non-portable URI caches so only filenames
// travel in the archive.
func (o *Orchestrator) stripResolvedURIs(m *models.BackupManifest) {
	for i := range m.Plants {
		m.Plants[i].ResolvedURIs = nil
	}
	for i := range m.Journal {
		m.Journal[i].ResolvedURIs = nil
	}
}

// Import unpacks and validates archiveData, normalizes photo references,
// pushes the result to the remote store under the chosen conflict policy,
// and only then replaces or merges the local cache.
func (o *Orchestrator) Import(ctx context.Context, archiveData []byte, mode Mode) error {
	o.setState(ctx, StateValidating)
	manifestRaw, handles, err := o.codec.Unpack(ctx, archiveData, o.locker.Backend())
	if err != nil {
		return o.fail(ctx, StateValidating, err)
	}

	manifest, err := models.ValidateManifest(manifestRaw)
	if err != nil {
		return o.fail(ctx, StateValidating, fmt.Errorf("%w: %v", common.ErrInvalidArchive, err))
	}

	o.setState(ctx, StateNormalizing)
	o.rewritePhotoRefs(ctx, manifest, handles)

	o.setState(ctx, StateSyncingRemote)
	if err := o.syncRemote(ctx, manifest, mode); err != nil {
		return o.fail(ctx, StateSyncingRemote, err)
	}

	o.setState(ctx, StatePersistingLocal)
	if err := o.persistLocal(ctx, manifest, mode); err != nil {
		return o.fail(ctx, StatePersistingLocal, err)
	}

	if err := o.local.WriteString(ctx, common.KeyLastSyncedAt, o.now().UTC().Format(time.RFC3339)); err != nil {
		o.log.Warn(ctx, "failed to record sync timestamp", "error", err)
	}

	o.setState(ctx, StateDone)
	o.log.Info(ctx, "import finished", "mode", string(mode),
		"plants", len(manifest.Plants), "journal", len(manifest.Journal))
	return nil
}

// rewritePhotoRefs points photo references at newly materialized archive
// blobs, falling back to locker resolution for filenames the archive did not
// carry. Unresolvable photos stay filename-only; a missing photo is an
// absent reference, not an error.
func (o *Orchestrator) rewritePhotoRefs(ctx context.Context, m *models.BackupManifest, handles map[string]string) {
	resolve := func(filenames []string) []string {
		if len(filenames) == 0 {
			return nil
		}
		uris := make([]string, 0, len(filenames))
		for _, name := range filenames {
			clean := archive.SanitizeName(name)
			if uri, ok := handles[clean]; ok {
				uris = append(uris, uri)
				continue
			}
			if uri := o.locker.Resolve(ctx, name); uri != "" {
				uris = append(uris, uri)
				continue
			}
			o.log.Debug(ctx, "photo reference unresolved", "filename", name)
		}
		return uris
	}

	for i := range m.Plants {
		m.Plants[i].ResolvedURIs = resolve(m.Plants[i].PhotoFilenames)
	}
	for i := range m.Journal {
		m.Journal[i].ResolvedURIs = resolve(m.Journal[i].PhotoFilenames)
	}
}

// syncRemote pushes the manifest to the remote store. It requires a signed-in
// session and a freshly refreshed credential; otherwise nothing is written
// anywhere and the import aborts with ErrNotAuthenticated.
func (o *Orchestrator) syncRemote(ctx context.Context, m *models.BackupManifest, mode Mode) error {
	if !o.session.IsAuthenticated() {
		return common.ErrNotAuthenticated
	}
	if err := o.session.RefreshCredential(ctx); err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrNotAuthenticated, err)
	}

	ops, err := o.buildRemoteOps(ctx, m, mode)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}
	return o.remote.BatchCommit(ctx, ops)
}

func (o *Orchestrator) buildRemoteOps(ctx context.Context, m *models.BackupManifest, mode Mode) ([]remote.WriteOp, error) {
	uid := o.session.UserID()
	var ops []remote.WriteOp

	appendSets := func(kind string, records []models.Record) error {
		for _, r := range records {
			body, err := json.Marshal(withOwner(r, uid))
			if err != nil {
				return err
			}
			ops = append(ops, remote.WriteOp{Op: remote.OpSet, Kind: kind, ID: r.RecordID(), Body: body})
		}
		return nil
	}

	kinds := []struct {
		kind    string
		records []models.Record
	}{
		{common.KindPlant, asRecords(m.Plants)},
		{common.KindTask, asRecords(m.Tasks)},
		{common.KindTaskLog, asRecords(m.TaskLogs)},
		{common.KindJournal, asRecords(m.Journal)},
	}

	for _, k := range kinds {
		if mode == ModeOverwrite {
			// Remote records owned by this user but absent from the import
			// are deleted. Scoping is a best-effort equality query, not a
			// transaction.
			existing, err := o.remote.QueryByField(ctx, k.kind, "user_id", uid)
			if err != nil {
				return nil, fmt.Errorf("query existing %s: %w", k.kind, err)
			}
			imported := make(map[string]struct{}, len(k.records))
			for _, r := range k.records {
				imported[r.RecordID()] = struct{}{}
			}
			for _, doc := range existing {
				if _, keep := imported[doc.ID]; !keep {
					ops = append(ops, remote.WriteOp{Op: remote.OpDelete, Kind: k.kind, ID: doc.ID})
				}
			}
		}
		if err := appendSets(k.kind, k.records); err != nil {
			return nil, err
		}
	}

	configOps, err := o.buildConfigOps(ctx, m, mode)
	if err != nil {
		return nil, err
	}
	return append(ops, configOps...), nil
}

func (o *Orchestrator) buildConfigOps(ctx context.Context, m *models.BackupManifest, mode Mode) ([]remote.WriteOp, error) {
	var ops []remote.WriteOp

	add := func(id string, blob any) error {
		body, err := json.Marshal(blob)
		if err != nil {
			return err
		}
		ops = append(ops, remote.WriteOp{Op: remote.OpSet, Kind: common.KindConfig, ID: id, Body: body})
		return nil
	}

	locations := m.Locations
	catalog := m.PlantCatalog
	care := m.PlantCareProfiles

	if mode == ModeMerge {
		loc := mergeLocations(o.remoteLocations(ctx), m.Locations)
		locations = &loc
		cat := mergeCatalog(o.remoteCatalog(ctx), m.PlantCatalog)
		catalog = &cat
		cp := mergeCareProfiles(o.remoteCareProfiles(ctx), m.PlantCareProfiles)
		care = &cp
	}

	if locations != nil {
		n := models.NormalizeLocations(locations)
		if err := add(configIDLocations, n); err != nil {
			return nil, err
		}
	}
	if catalog != nil {
		n := models.NormalizeCatalog(catalog)
		if err := add(configIDCatalog, n); err != nil {
			return nil, err
		}
	}
	if care != nil {
		n := models.NormalizeCareProfiles(care)
		if err := add(configIDCareProfiles, n); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func (o *Orchestrator) remoteLocations(ctx context.Context) *models.LocationConfig {
	doc, err := o.remote.GetDocument(ctx, common.KindConfig, configIDLocations)
	if err != nil || doc == nil {
		return nil
	}
	var blob models.LocationConfig
	if json.Unmarshal(doc.Body, &blob) != nil {
		return nil
	}
	return &blob
}

func (o *Orchestrator) remoteCatalog(ctx context.Context) *models.PlantCatalog {
	doc, err := o.remote.GetDocument(ctx, common.KindConfig, configIDCatalog)
	if err != nil || doc == nil {
		return nil
	}
	var blob models.PlantCatalog
	if json.Unmarshal(doc.Body, &blob) != nil {
		return nil
	}
	return &blob
}

func (o *Orchestrator) remoteCareProfiles(ctx context.Context) *models.PlantCareProfiles {
	doc, err := o.remote.GetDocument(ctx, common.KindConfig, configIDCareProfiles)
	if err != nil || doc == nil {
		return nil
	}
	var blob models.PlantCareProfiles
	if json.Unmarshal(doc.Body, &blob) != nil {
		return nil
	}
	return &blob
}

// persistLocal updates the local cache after the remote store accepted the
// import. Overwrite replaces collections wholesale; merge layers imported
// records over existing ones by id.
func (o *Orchestrator) persistLocal(ctx context.Context, m *models.BackupManifest, mode Mode) error {
	plants := m.Plants
	tasks := m.Tasks
	logs := m.TaskLogs
	journal := m.Journal
	locations := m.Locations
	catalog := m.PlantCatalog
	care := m.PlantCareProfiles

	if mode == ModeMerge {
		existingPlants, err := store.ReadAs[models.Plant](ctx, o.local, common.KeyPlants)
		if err != nil {
			return err
		}
		plants = MergeRecords(existingPlants, m.Plants)

		existingTasks, err := store.ReadAs[models.TaskTemplate](ctx, o.local, common.KeyTasks)
		if err != nil {
			return err
		}
		tasks = MergeRecords(existingTasks, m.Tasks)

		existingLogs, err := store.ReadAs[models.TaskLog](ctx, o.local, common.KeyTaskLogs)
		if err != nil {
			return err
		}
		logs = MergeRecords(existingLogs, m.TaskLogs)

		existingJournal, err := store.ReadAs[models.JournalEntry](ctx, o.local, common.KeyJournal)
		if err != nil {
			return err
		}
		journal = MergeRecords(existingJournal, m.Journal)

		localLoc, _ := o.source.Locations(ctx)
		merged := mergeLocations(localLoc, m.Locations)
		locations = &merged

		localCat, _ := o.source.Catalog(ctx)
		mergedCat := mergeCatalog(localCat, m.PlantCatalog)
		catalog = &mergedCat

		localCare, _ := o.source.CareProfiles(ctx)
		mergedCare := mergeCareProfiles(localCare, m.PlantCareProfiles)
		care = &mergedCare
	}

	if err := store.WriteAs(ctx, o.local, common.KeyPlants, plants); err != nil {
		return err
	}
	if err := store.WriteAs(ctx, o.local, common.KeyTasks, tasks); err != nil {
		return err
	}
	if err := store.WriteAs(ctx, o.local, common.KeyTaskLogs, logs); err != nil {
		return err
	}
	if err := store.WriteAs(ctx, o.local, common.KeyJournal, journal); err != nil {
		return err
	}

	if locations != nil {
		n := models.NormalizeLocations(locations)
		if err := store.WriteAs(ctx, o.local, common.KeyLocations, []models.LocationConfig{n}); err != nil {
			return err
		}
	}
	if catalog != nil {
		n := models.NormalizeCatalog(catalog)
		if err := store.WriteAs(ctx, o.local, common.KeyCatalog, []models.PlantCatalog{n}); err != nil {
			return err
		}
	}
	if care != nil {
		n := models.NormalizeCareProfiles(care)
		if err := store.WriteAs(ctx, o.local, common.KeyCareProfiles, []models.PlantCareProfiles{n}); err != nil {
			return err
		}
	}
	return nil
}

// asRecords widens a typed slice to the Record interface.
func asRecords[T models.Record](items []T) []models.Record {
	out := make([]models.Record, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// withOwner stamps the session's user id onto a record before upload.
func withOwner(r models.Record, uid string) any {
	switch v := r.(type) {
	case models.Plant:
		v.UserID = uid
		return v
	case models.TaskTemplate:
		v.UserID = uid
		return v
	case models.TaskLog:
		v.UserID = uid
		return v
	case models.JournalEntry:
		v.UserID = uid
		return v
	default:
		return r
	}
}
