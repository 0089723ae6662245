package domain

// Platform identifies a content source platform
type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformTelegram Platform = "telegram"
)

// Valid reports whether the platform is one the service can ingest
func (p Platform) Valid() bool {
	return p == PlatformTwitter || p == PlatformTelegram
}

// Source identifies a feed to ingest. Static configuration, immutable
// at runtime.
type Source struct {
	Platform Platform `json:"platform"`
	Handle   string   `json:"handle"`
}

// SyncMode selects the pagination direction of a sync cycle
type SyncMode string

const (
	// SyncModeBackfill walks backward from "now" toward the oldest
	// previously seen item
	SyncModeBackfill SyncMode = "backfill"
	// SyncModeIncremental walks forward from the newest previously
	// seen item
	SyncModeIncremental SyncMode = "incremental"
)

// SyncReport aggregates per-platform inserted counts for one sync
// invocation. Counts are upper bounds: conflicts are absorbed silently
// by the idempotent upsert.
type SyncReport struct {
	Inserted map[Platform]int `json:"inserted"`
}

// NewSyncReport returns an empty report
func NewSyncReport() SyncReport {
	return SyncReport{Inserted: make(map[Platform]int)}
}

// Add records inserted items for a platform
func (r SyncReport) Add(platform Platform, count int) {
	r.Inserted[platform] += count
}
