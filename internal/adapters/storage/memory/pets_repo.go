package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-adoption/internal/domain/adoptions"
	"pet-adoption/internal/domain/pets"
)

// PetRepo implementa pets.Repository y adoptions.PetStore.
// Las ops de custodia corren enteras bajo el lock, así el chequeo
// de status + mutación es atómico (el equivalente al update
// condicional de Postgres).
type PetRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() *PetRepo {
	return &PetRepo{
		byID: make(map[string]pets.Pet),
	}
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("pet already exists")
	}
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.byID[p.ID]
	if !exists {
		return pets.ErrNotFound
	}

	// Los sets de membresía no se pisan por Update: son del engine.
	p.LikedBy = current.LikedBy
	p.AdoptedBy = current.AdoptedBy
	p.FosteredBy = current.FosteredBy
	p.AdoptionStatus = current.AdoptionStatus

	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return clonePet(p), nil
}

func (r *PetRepo) List(ctx context.Context) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, clonePet(p))
	}
	sortByCreated(out)
	return out, nil
}

func (r *PetRepo) Search(ctx context.Context, f pets.SearchFilter) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if matchesFilter(p, f) {
			matched = append(matched, clonePet(p))
		}
	}
	sortByCreated(matched)

	// paginación page/limit (page 0-based)
	start := f.Page * f.Limit
	if start >= len(matched) {
		return []pets.Pet{}, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *PetRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return pets.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// --- adoptions.PetStore ---

func (r *PetRepo) GetPet(ctx context.Context, id string) (pets.Pet, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return pets.Pet{}, adoptions.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetRepo) ClaimCustody(ctx context.Context, petID, userID string, rel adoptions.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[petID]
	if !ok {
		return adoptions.ErrNotFound
	}
	if p.AdoptionStatus != pets.StatusAdoptable {
		return adoptions.ErrConflict
	}

	switch rel {
	case adoptions.RelationAdopted:
		p.AdoptedBy = appendUnique(p.AdoptedBy, userID)
	case adoptions.RelationFostered:
		p.FosteredBy = appendUnique(p.FosteredBy, userID)
	default:
		return errors.New("relation is not custodial")
	}
	p.AdoptionStatus = rel.Status()

	r.byID[petID] = p
	return nil
}

func (r *PetRepo) ReleaseCustody(ctx context.Context, petID, userID string, rel adoptions.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[petID]
	if !ok {
		return adoptions.ErrNotFound
	}

	switch rel {
	case adoptions.RelationAdopted:
		p.AdoptedBy = removeID(p.AdoptedBy, userID)
	case adoptions.RelationFostered:
		p.FosteredBy = removeID(p.FosteredBy, userID)
	default:
		return errors.New("relation is not custodial")
	}
	p.AdoptionStatus = pets.StatusAdoptable

	r.byID[petID] = p
	return nil
}

func (r *PetRepo) SetLiked(ctx context.Context, petID, userID string, liked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[petID]
	if !ok {
		return adoptions.ErrNotFound
	}

	if liked {
		p.LikedBy = appendUnique(p.LikedBy, userID)
	} else {
		p.LikedBy = removeID(p.LikedBy, userID)
	}

	r.byID[petID] = p
	return nil
}

func matchesFilter(p pets.Pet, f pets.SearchFilter) bool {
	if f.AdoptionStatus != "" && string(p.AdoptionStatus) != f.AdoptionStatus {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.MinHeightCm != nil && p.HeightCm < *f.MinHeightCm {
		return false
	}
	if f.MinWeightKg != nil && p.WeightKg < *f.MinWeightKg {
		return false
	}

	if f.Fuzzy {
		if f.Name != "" && !containsFold(p.Name, f.Name) {
			return false
		}
		if f.Breed != "" && !containsFold(p.Breed, f.Breed) {
			return false
		}
		return true
	}

	if f.Name != "" && p.Name != f.Name {
		return false
	}
	if f.Breed != "" && p.Breed != f.Breed {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// orden estable por created_at asc (solo para consistencia en dev)
func sortByCreated(items []pets.Pet) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

func clonePet(p pets.Pet) pets.Pet {
	p.LikedBy = cloneIDs(p.LikedBy)
	p.AdoptedBy = cloneIDs(p.AdoptedBy)
	p.FosteredBy = cloneIDs(p.FosteredBy)
	return p
}

func cloneIDs(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func appendUnique(in []string, id string) []string {
	for _, v := range in {
		if v == id {
			return in
		}
	}
	return append(cloneIDs(in), id)
}

func removeID(in []string, id string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
