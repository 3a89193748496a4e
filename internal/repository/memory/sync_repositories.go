package memory

import (
	"context"
	"sort"
	"time"

	"notesync/internal/entity"

	"github.com/google/uuid"
)

type hardDeleteRepository struct {
	store *Store
}

func (r *hardDeleteRepository) Enqueue(ctx context.Context, userId uuid.UUID, entityType string, ids []uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range ids {
		if r.contains(userId, entityType, id) {
			continue
		}
		r.store.hardDeletes = append(r.store.hardDeletes, entity.HardDeleteRecord{
			Id:         uuid.New(),
			UserId:     userId,
			EntityType: entityType,
			EntityId:   id,
			CreatedAt:  time.Now(),
		})
	}
	return nil
}

func (r *hardDeleteRepository) contains(userId uuid.UUID, entityType string, id uuid.UUID) bool {
	for _, rec := range r.store.hardDeletes {
		if rec.UserId == userId && rec.EntityType == entityType && rec.EntityId == id {
			return true
		}
	}
	return false
}

func (r *hardDeleteRepository) List(ctx context.Context, userId uuid.UUID, entityType string) ([]uuid.UUID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var ids []uuid.UUID
	for _, rec := range r.store.hardDeletes {
		if rec.UserId == userId && rec.EntityType == entityType {
			ids = append(ids, rec.EntityId)
		}
	}
	return ids, nil
}

func (r *hardDeleteRepository) Remove(ctx context.Context, userId uuid.UUID, entityType string, ids []uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.store.hardDeletes[:0]
	for _, rec := range r.store.hardDeletes {
		if rec.UserId == userId && rec.EntityType == entityType && drop[rec.EntityId] {
			continue
		}
		kept = append(kept, rec)
	}
	r.store.hardDeletes = kept
	return nil
}

type syncStateRepository struct {
	store *Store
}

func (r *syncStateRepository) Get(ctx context.Context, userId uuid.UUID) (*entity.SyncState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if state, ok := r.store.syncStates[userId]; ok {
		c := *state
		return &c, nil
	}
	return nil, nil
}

func (r *syncStateRepository) Save(ctx context.Context, state *entity.SyncState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if state.Id == uuid.Nil {
		state.Id = uuid.New()
	}
	now := time.Now()
	state.UpdatedAt = &now
	c := *state
	r.store.syncStates[state.UserId] = &c
	return nil
}

type syncConflictRepository struct {
	store *Store
}

func (r *syncConflictRepository) Create(ctx context.Context, conflict *entity.SyncConflict) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if conflict.Id == uuid.Nil {
		conflict.Id = uuid.New()
	}
	if conflict.CreatedAt.IsZero() {
		conflict.CreatedAt = time.Now()
	}
	c := *conflict
	r.store.conflicts = append(r.store.conflicts, &c)
	return nil
}

func (r *syncConflictRepository) ListRecent(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.SyncConflict, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.SyncConflict
	for _, c := range r.store.conflicts {
		if c.UserId == userId {
			cc := *c
			result = append(result, &cc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
