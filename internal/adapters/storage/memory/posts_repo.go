package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-adoption/internal/domain/posts"
)

type PostRepo struct {
	mu   sync.RWMutex
	byID map[string]posts.Post
}

func NewPostRepo() *PostRepo {
	return &PostRepo{
		byID: make(map[string]posts.Post),
	}
}

func (r *PostRepo) Create(ctx context.Context, p posts.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("post id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("post already exists")
	}
	r.byID[p.ID] = clonePost(p)
	return nil
}

func (r *PostRepo) Update(ctx context.Context, p posts.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return posts.ErrNotFound
	}
	r.byID[p.ID] = clonePost(p)
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id string) (posts.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return posts.Post{}, posts.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *PostRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return posts.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *PostRepo) ListFeed(ctx context.Context) ([]posts.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]posts.Post, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, clonePost(p))
	}
	// feed: más nuevos primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *PostRepo) ListByAuthor(ctx context.Context, authorID string) ([]posts.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]posts.Post, 0)
	for _, p := range r.byID {
		if p.AuthorID == authorID {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func clonePost(p posts.Post) posts.Post {
	if p.Comments != nil {
		comments := make([]posts.Comment, len(p.Comments))
		copy(comments, p.Comments)
		p.Comments = comments
	}
	if p.Reactions != nil {
		reactions := make([]posts.Reaction, len(p.Reactions))
		copy(reactions, p.Reactions)
		p.Reactions = reactions
	}
	return p
}
