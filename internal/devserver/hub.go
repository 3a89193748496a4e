package devserver

import (
	"strconv"
	"sync"
	"time"

	"notesync/internal/dto"
	"notesync/internal/entity"

	"github.com/google/uuid"
)

type storedNote struct {
	dto dto.NoteSyncDTO
	seq int64
}

type storedTag struct {
	dto dto.TagSyncDTO
	seq int64
}

type tombstone struct {
	id  uuid.UUID
	seq int64
}

// Hub is the in-memory state behind the reference server. It resolves
// concurrent uploads with the same last-writer-wins rules clients use,
// so any client converges against it; the cursor is a per-hub sequence
// number advanced on every accepted write.
type Hub struct {
	mu        sync.Mutex
	seq       int64
	notes     map[uuid.UUID]*storedNote
	tags      map[uuid.UUID]*storedTag
	noteTombs []tombstone
	tagTombs  []tombstone
}

func NewHub() *Hub {
	return &Hub{
		notes: make(map[uuid.UUID]*storedNote),
		tags:  make(map[uuid.UUID]*storedTag),
	}
}

func (h *Hub) Exchange(req *dto.SyncRequest) *dto.SyncResponse {
	h.mu.Lock()
	defer h.mu.Unlock()

	since := h.parseCursor(req.Cursor)
	var conflicts []dto.SyncConflictDTO

	for _, n := range req.Notes {
		if c := h.acceptNote(n); c != nil {
			conflicts = append(conflicts, *c)
		}
	}
	for _, t := range req.Tags {
		if c := h.acceptTag(t); c != nil {
			conflicts = append(conflicts, *c)
		}
	}
	for _, id := range req.HardDeletedNoteIds {
		if _, ok := h.notes[id]; ok {
			delete(h.notes, id)
			h.seq++
			h.noteTombs = append(h.noteTombs, tombstone{id: id, seq: h.seq})
		}
	}
	for _, id := range req.HardDeletedTagIds {
		if _, ok := h.tags[id]; ok {
			delete(h.tags, id)
			h.seq++
			h.tagTombs = append(h.tagTombs, tombstone{id: id, seq: h.seq})
		}
	}

	changes := dto.SyncChanges{
		Notes:              []dto.NoteSyncDTO{},
		Tags:               []dto.TagSyncDTO{},
		HardDeletedNoteIds: []uuid.UUID{},
		HardDeletedTagIds:  []uuid.UUID{},
	}
	for _, stored := range h.notes {
		// A device never gets its own writes echoed back.
		if stored.seq <= since || stored.dto.LastModifiedByDeviceId == req.DeviceId {
			continue
		}
		changes.Notes = append(changes.Notes, stored.dto)
	}
	for _, stored := range h.tags {
		if stored.seq <= since || stored.dto.LastModifiedByDeviceId == req.DeviceId {
			continue
		}
		changes.Tags = append(changes.Tags, stored.dto)
	}
	for _, tomb := range h.noteTombs {
		if tomb.seq > since {
			changes.HardDeletedNoteIds = append(changes.HardDeletedNoteIds, tomb.id)
		}
	}
	for _, tomb := range h.tagTombs {
		if tomb.seq > since {
			changes.HardDeletedTagIds = append(changes.HardDeletedTagIds, tomb.id)
		}
	}

	return &dto.SyncResponse{
		Cursor:     strconv.FormatInt(h.seq, 10),
		ServerTime: time.Now().UTC(),
		Changes:    changes,
		Conflicts:  conflicts,
	}
}

func (h *Hub) parseCursor(cursor *string) int64 {
	if cursor == nil || *cursor == "" {
		return 0
	}
	since, err := strconv.ParseInt(*cursor, 10, 64)
	if err != nil {
		// An unparseable cursor degrades to a full download, never an
		// error.
		return 0
	}
	return since
}

func (h *Hub) acceptNote(n dto.NoteSyncDTO) *dto.SyncConflictDTO {
	stored, exists := h.notes[n.Id]
	if !exists {
		h.seq++
		h.notes[n.Id] = &storedNote{dto: n, seq: h.seq}
		return nil
	}
	if !wins(n.ClientUpdatedAt, n.DeletedAt, stored.dto.ClientUpdatedAt, stored.dto.DeletedAt) {
		serverContent := stored.dto.Content
		clientContent := n.Content
		return &dto.SyncConflictDTO{
			EntityType:    entity.EntityTypeNote,
			Id:            n.Id,
			ServerVersion: versionOf(stored.dto.BaseVersion),
			ServerContent: &serverContent,
			ClientContent: &clientContent,
			Message:       "a newer revision already exists",
		}
	}
	h.seq++
	h.notes[n.Id] = &storedNote{dto: n, seq: h.seq}
	return nil
}

func (h *Hub) acceptTag(t dto.TagSyncDTO) *dto.SyncConflictDTO {
	stored, exists := h.tags[t.Id]
	if !exists {
		h.seq++
		h.tags[t.Id] = &storedTag{dto: t, seq: h.seq}
		return nil
	}
	if !wins(t.ClientUpdatedAt, t.DeletedAt, stored.dto.ClientUpdatedAt, stored.dto.DeletedAt) {
		return &dto.SyncConflictDTO{
			EntityType:    entity.EntityTypeTag,
			Id:            t.Id,
			ServerVersion: versionOf(stored.dto.BaseVersion),
			Message:       "a newer revision already exists",
		}
	}
	h.seq++
	h.tags[t.Id] = &storedTag{dto: t, seq: h.seq}
	return nil
}

// wins decides whether the incoming revision replaces the stored one:
// deletions dominate at equal or later timestamps, otherwise the later
// clientUpdatedAt takes it, ties keeping what is stored.
func wins(inUpdated time.Time, inDeleted *time.Time, curUpdated time.Time, curDeleted *time.Time) bool {
	if inDeleted != nil && !inDeleted.Before(curUpdated) {
		return true
	}
	if curDeleted != nil && !curDeleted.Before(inUpdated) {
		return false
	}
	return inUpdated.After(curUpdated)
}

func versionOf(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
