package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-adoption/internal/domain/adoptions"
	"pet-adoption/internal/domain/users"
)

// UserRepo implementa users.Repository, adoptions.UserStore y
// posts.AuthorStore.
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[string]users.User
	byEmail map[string]string // email -> id
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[string]users.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return errors.New("user already exists")
	}
	if _, exists := r.byEmail[u.Email]; exists {
		return users.ErrEmailTaken
	}

	r.byID[u.ID] = cloneUser(u)
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.byID[u.ID]
	if !exists {
		return users.ErrNotFound
	}

	// Las listas espejo no se pisan por Update: son del engine.
	u.LikedPets = current.LikedPets
	u.FosteredPets = current.FosteredPets
	u.AdoptedPets = current.AdoptedPets
	u.Posts = current.Posts

	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepo) List(ctx context.Context) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

// --- adoptions.UserStore / posts.AuthorStore ---

func (r *UserRepo) HasUser(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byID[id]
	return ok, nil
}

func (r *UserRepo) AddPetRef(ctx context.Context, userID, petID string, rel adoptions.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return adoptions.ErrNotFound
	}

	switch rel {
	case adoptions.RelationLiked:
		u.LikedPets = appendUnique(u.LikedPets, petID)
	case adoptions.RelationFostered:
		u.FosteredPets = appendUnique(u.FosteredPets, petID)
	case adoptions.RelationAdopted:
		u.AdoptedPets = appendUnique(u.AdoptedPets, petID)
	default:
		return errors.New("unknown relation")
	}

	r.byID[userID] = u
	return nil
}

func (r *UserRepo) RemovePetRef(ctx context.Context, userID, petID string, rel adoptions.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return adoptions.ErrNotFound
	}

	switch rel {
	case adoptions.RelationLiked:
		u.LikedPets = removeID(u.LikedPets, petID)
	case adoptions.RelationFostered:
		u.FosteredPets = removeID(u.FosteredPets, petID)
	case adoptions.RelationAdopted:
		u.AdoptedPets = removeID(u.AdoptedPets, petID)
	default:
		return errors.New("unknown relation")
	}

	r.byID[userID] = u
	return nil
}

func (r *UserRepo) AddPostRef(ctx context.Context, userID, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return users.ErrNotFound
	}
	u.Posts = appendUnique(u.Posts, postID)
	r.byID[userID] = u
	return nil
}

func (r *UserRepo) RemovePostRef(ctx context.Context, userID, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return users.ErrNotFound
	}
	u.Posts = removeID(u.Posts, postID)
	r.byID[userID] = u
	return nil
}

func cloneUser(u users.User) users.User {
	u.LikedPets = cloneIDs(u.LikedPets)
	u.FosteredPets = cloneIDs(u.FosteredPets)
	u.AdoptedPets = cloneIDs(u.AdoptedPets)
	u.Posts = cloneIDs(u.Posts)
	return u
}
