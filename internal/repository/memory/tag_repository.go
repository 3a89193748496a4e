package memory

import (
	"context"
	"fmt"

	"notesync/internal/entity"
	"notesync/internal/repository/specification"

	"github.com/google/uuid"
)

type tagRepository struct {
	store *Store
}

func (r *tagRepository) Create(ctx context.Context, tag *entity.Tag) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.tags[tag.Id]; exists {
		return fmt.Errorf("tag %s already exists", tag.Id)
	}
	r.store.tags[tag.Id] = copyTag(tag)
	return nil
}

func (r *tagRepository) Update(ctx context.Context, tag *entity.Tag) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.tags[tag.Id] = copyTag(tag)
	return nil
}

func (r *tagRepository) Upsert(ctx context.Context, tag *entity.Tag) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.tags[tag.Id] = copyTag(tag)
	return nil
}

func (r *tagRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.tags, id)
	for noteId, tagIds := range r.store.noteTags {
		kept := tagIds[:0]
		for _, tagId := range tagIds {
			if tagId != id {
				kept = append(kept, tagId)
			}
		}
		if len(kept) == 0 {
			delete(r.store.noteTags, noteId)
		} else {
			r.store.noteTags[noteId] = kept
		}
	}
	return nil
}

func (r *tagRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Tag, error) {
	tags, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags[0], nil
}

func (r *tagRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Tag, error) {
	q := buildQuery(specs)
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*entity.Tag
	for _, t := range r.store.tags {
		if q.matchesTag(t) {
			result = append(result, copyTag(t))
		}
	}
	return sortedTags(result), nil
}

func (r *tagRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	tags, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(tags)), nil
}
