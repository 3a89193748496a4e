package entity

// LifecycleState disambiguates "never deleted" from "deleted at some time".
// Purged entities have no state: their rows are gone and only the
// hard-delete queue remembers them.
type LifecycleState int

const (
	StateActive LifecycleState = iota
	StateTrashed
)

func (s LifecycleState) String() string {
	if s == StateTrashed {
		return "trashed"
	}
	return "active"
}
