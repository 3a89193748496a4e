package memory

import (
	"context"
	"fmt"

	"notesync/internal/entity"
	"notesync/internal/repository/specification"

	"github.com/google/uuid"
)

type noteRepository struct {
	store *Store
}

func (r *noteRepository) Create(ctx context.Context, note *entity.Note) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.notes[note.Id]; exists {
		return fmt.Errorf("note %s already exists", note.Id)
	}
	r.store.notes[note.Id] = copyNote(note)
	return nil
}

func (r *noteRepository) Update(ctx context.Context, note *entity.Note) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.notes[note.Id] = copyNote(note)
	return nil
}

func (r *noteRepository) Upsert(ctx context.Context, note *entity.Note) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.notes[note.Id] = copyNote(note)
	return nil
}

func (r *noteRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.notes, id)
	delete(r.store.noteTags, id)
	return nil
}

func (r *noteRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	notes, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}
	return notes[0], nil
}

func (r *noteRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	q := buildQuery(specs)
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.Note
	for _, n := range r.store.notes {
		if q.matchesNote(n) {
			c := copyNote(n)
			c.TagIds = append([]uuid.UUID(nil), r.store.noteTags[n.Id]...)
			result = append(result, c)
		}
	}
	return sortedNotes(result), nil
}

func (r *noteRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	notes, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(notes)), nil
}

func (r *noteRepository) ReplaceTags(ctx context.Context, noteId uuid.UUID, tagIds []uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if len(tagIds) == 0 {
		delete(r.store.noteTags, noteId)
		return nil
	}
	r.store.noteTags[noteId] = append([]uuid.UUID(nil), tagIds...)
	return nil
}

func (r *noteRepository) TagIds(ctx context.Context, noteIds []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := make(map[uuid.UUID][]uuid.UUID, len(noteIds))
	for _, id := range noteIds {
		if tags, ok := r.store.noteTags[id]; ok {
			result[id] = append([]uuid.UUID(nil), tags...)
		}
	}
	return result, nil
}

func (r *noteRepository) ActiveTagReferenceCounts(ctx context.Context, userId uuid.UUID) (map[uuid.UUID]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := make(map[uuid.UUID]int64)
	for noteId, tagIds := range r.store.noteTags {
		note, ok := r.store.notes[noteId]
		if !ok || note.UserId != userId || note.DeletedAt != nil {
			continue
		}
		for _, tagId := range tagIds {
			result[tagId]++
		}
	}
	return result, nil
}
