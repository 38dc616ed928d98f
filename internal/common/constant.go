package common

// Local key/value store keys, one per record kind plus bookkeeping keys.
const (
	KeyPlants       = "plants"
	KeyTasks        = "tasks"
	KeyTaskLogs     = "task_logs"
	KeyJournal      = "journal"
	KeyLocations    = "locations"
	KeyCatalog      = "plant_catalog"
	KeyCareProfiles = "plant_care_profiles"
	KeyPendingOps   = "pending_ops"
	KeyLastSyncedAt = "last_synced_at"
	KeySession      = "session"
)

// Record kinds as stored in the remote document store.
const (
	KindPlant   = "plants"
	KindTask    = "tasks"
	KindTaskLog = "taskLogs"
	KindJournal = "journal"
	KindConfig  = "config"
)

// MaxBatchOps is the per-commit operation ceiling for batched remote writes.
// Commits are chunked so no single commit exceeds it.
const MaxBatchOps = 450

// AuthHeaderName is the HTTP header carrying the access token.
const AuthHeaderName = "Authorization"
