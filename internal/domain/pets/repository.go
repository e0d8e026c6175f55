package pets

import "context"

// SearchFilter arma la búsqueda del directorio.
// Con Fuzzy (autocomplete) name/breed pasan de igualdad exacta a
// substring case-insensitive.
type SearchFilter struct {
	AdoptionStatus string
	Type           string
	Name           string
	Breed          string

	MinHeightCm *float64
	MinWeightKg *float64

	Fuzzy bool

	Page  int // 0-based
	Limit int
}

// Repository: las operaciones por id devuelven ErrNotFound cuando el
// pet no existe; cualquier otro error es falla de storage.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context) ([]Pet, error)
	Search(ctx context.Context, f SearchFilter) ([]Pet, error)
	Delete(ctx context.Context, id string) error
}
