package specification

import (
	"time"

	"gorm.io/gorm"
)

// IncludeTrashed lifts gorm's soft-delete scope so trashed rows are
// visible. Sync queries almost always want this: trash state itself must
// travel between devices.
type IncludeTrashed struct{}

func (s IncludeTrashed) Apply(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// ChangedSince selects rows edited or trashed at/after the anchor. This
// is the outbound delta filter; pair it with IncludeTrashed.
type ChangedSince struct {
	Since time.Time
}

func (s ChangedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at >= ? OR deleted_at >= ?", s.Since, s.Since)
}

// TrashedBefore selects soft-deleted rows whose deletedAt is older than
// the cutoff. Pair it with IncludeTrashed; used by the retention purge.
type TrashedBefore struct {
	Cutoff time.Time
}

func (s TrashedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NOT NULL AND deleted_at < ?", s.Cutoff)
}
