// Package memory provides an in-memory implementation of the repository
// contracts. It backs unit tests and small tools that do not want a
// database file; behavior mirrors the gorm implementation, including the
// default exclusion of trashed rows.
package memory

import (
	"sort"
	"sync"
	"time"

	"notesync/internal/entity"
	"notesync/internal/repository/specification"

	"github.com/google/uuid"
)

type Store struct {
	mu          sync.RWMutex
	notes       map[uuid.UUID]*entity.Note
	tags        map[uuid.UUID]*entity.Tag
	noteTags    map[uuid.UUID][]uuid.UUID
	hardDeletes []entity.HardDeleteRecord
	syncStates  map[uuid.UUID]*entity.SyncState
	conflicts   []*entity.SyncConflict
}

func NewStore() *Store {
	return &Store{
		notes:      make(map[uuid.UUID]*entity.Note),
		tags:       make(map[uuid.UUID]*entity.Tag),
		noteTags:   make(map[uuid.UUID][]uuid.UUID),
		syncStates: make(map[uuid.UUID]*entity.SyncState),
	}
}

// query is the subset of gorm specifications the memory store understands.
type query struct {
	ids            []uuid.UUID
	userId         *uuid.UUID
	includeTrashed bool
	changedSince   *time.Time
	trashedBefore  *time.Time
}

func buildQuery(specs []specification.Specification) query {
	var q query
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			q.ids = []uuid.UUID{spec.ID}
		case specification.ByIDs:
			q.ids = spec.IDs
		case specification.OwnedByUser:
			id := spec.UserID
			q.userId = &id
		case specification.IncludeTrashed:
			q.includeTrashed = true
		case specification.NotDeleted:
			q.includeTrashed = false
		case specification.ChangedSince:
			t := spec.Since
			q.changedSince = &t
		case specification.TrashedBefore:
			t := spec.Cutoff
			q.trashedBefore = &t
		}
	}
	return q
}

func (q query) matchesIds(id uuid.UUID) bool {
	if q.ids == nil {
		return true
	}
	for _, candidate := range q.ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (q query) matchesNote(n *entity.Note) bool {
	if !q.matchesIds(n.Id) {
		return false
	}
	if q.userId != nil && n.UserId != *q.userId {
		return false
	}
	if !q.includeTrashed && n.DeletedAt != nil {
		return false
	}
	if q.changedSince != nil {
		changed := !n.LastChangedAt().Before(*q.changedSince)
		trashed := n.DeletedAt != nil && !n.DeletedAt.Before(*q.changedSince)
		if !changed && !trashed {
			return false
		}
	}
	if q.trashedBefore != nil {
		if n.DeletedAt == nil || !n.DeletedAt.Before(*q.trashedBefore) {
			return false
		}
	}
	return true
}

func (q query) matchesTag(t *entity.Tag) bool {
	if !q.matchesIds(t.Id) {
		return false
	}
	if q.userId != nil && t.UserId != *q.userId {
		return false
	}
	if !q.includeTrashed && t.DeletedAt != nil {
		return false
	}
	if q.changedSince != nil {
		changed := !t.LastChangedAt().Before(*q.changedSince)
		trashed := t.DeletedAt != nil && !t.DeletedAt.Before(*q.changedSince)
		if !changed && !trashed {
			return false
		}
	}
	if q.trashedBefore != nil {
		if t.DeletedAt == nil || !t.DeletedAt.Before(*q.trashedBefore) {
			return false
		}
	}
	return true
}

func copyNote(n *entity.Note) *entity.Note {
	c := *n
	c.TagIds = append([]uuid.UUID(nil), n.TagIds...)
	return &c
}

func copyTag(t *entity.Tag) *entity.Tag {
	c := *t
	return &c
}

// Snapshot helpers used by assertions in tests.

func (s *Store) Note(id uuid.UUID) *entity.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.notes[id]; ok {
		return copyNote(n)
	}
	return nil
}

func (s *Store) Tag(id uuid.UUID) *entity.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tags[id]; ok {
		return copyTag(t)
	}
	return nil
}

func (s *Store) NoteTagIds(noteId uuid.UUID) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]uuid.UUID(nil), s.noteTags[noteId]...)
}

func (s *Store) Conflicts() []*entity.SyncConflict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.SyncConflict, len(s.conflicts))
	copy(out, s.conflicts)
	return out
}

func sortedNotes(notes []*entity.Note) []*entity.Note {
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].Id.String() < notes[j].Id.String()
		}
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})
	return notes
}

func sortedTags(tags []*entity.Tag) []*entity.Tag {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].CreatedAt.Equal(tags[j].CreatedAt) {
			return tags[i].Id.String() < tags[j].Id.String()
		}
		return tags[i].CreatedAt.Before(tags[j].CreatedAt)
	})
	return tags
}
