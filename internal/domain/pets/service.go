package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const defaultSearchLimit = 10

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Type  string
	Name  string
	Breed string
	Color string
	Bio   string

	HeightCm float64
	WeightKg float64

	Hypoallergenic      bool
	DietaryRestrictions string
	Picture             string
}

// Create publica una mascota nueva, siempre en estado adoptable.
// Los sets de membresía son propiedad del engine; nunca vienen del cliente.
func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	if strings.TrimSpace(in.Type) == "" ||
		strings.TrimSpace(in.Name) == "" ||
		strings.TrimSpace(in.Breed) == "" ||
		strings.TrimSpace(in.Color) == "" ||
		strings.TrimSpace(in.Bio) == "" {
		return Pet{}, ErrInvalidInput
	}
	if in.HeightCm <= 0 || in.WeightKg <= 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ID:                  uuid.NewString(),
		Type:                strings.TrimSpace(in.Type),
		Name:                strings.TrimSpace(in.Name),
		Breed:               strings.TrimSpace(in.Breed),
		Color:               strings.TrimSpace(in.Color),
		Bio:                 strings.TrimSpace(in.Bio),
		HeightCm:            in.HeightCm,
		WeightKg:            in.WeightKg,
		Hypoallergenic:      in.Hypoallergenic,
		DietaryRestrictions: strings.TrimSpace(in.DietaryRestrictions),
		Picture:             strings.TrimSpace(in.Picture),
		AdoptionStatus:      StatusAdoptable,
		LikedBy:             []string{},
		AdoptedBy:           []string{},
		FosteredBy:          []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}
	// El repo devuelve ErrNotFound si el pet no existe; cualquier otro
	// error es falla de storage y sube tal cual.
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Pet, error) {
	return s.repo.List(ctx)
}

func (s *Service) Search(ctx context.Context, f SearchFilter) ([]Pet, error) {
	if f.AdoptionStatus != "" && !ValidStatus(AdoptionStatus(f.AdoptionStatus)) {
		return nil, ErrInvalidInput
	}
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Limit <= 0 {
		f.Limit = defaultSearchLimit
	}
	return s.repo.Search(ctx, f)
}

// UpdateInput es el patch permitido de PUT /pets/{id}/details.
// Punteros: nil = no tocar. adoptionStatus y los sets quedan afuera
// a propósito: esos los maneja el engine de adopciones.
type UpdateInput struct {
	Type  *string
	Name  *string
	Breed *string
	Color *string
	Bio   *string

	HeightCm *float64
	WeightKg *float64

	Hypoallergenic      *bool
	DietaryRestrictions *string
	Picture             *string
}

func (s *Service) UpdateDetails(ctx context.Context, id string, in UpdateInput) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrInvalidInput
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	if in.Type != nil {
		if strings.TrimSpace(*in.Type) == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Type = strings.TrimSpace(*in.Type)
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Breed != nil {
		if strings.TrimSpace(*in.Breed) == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Color != nil {
		p.Color = strings.TrimSpace(*in.Color)
	}
	if in.Bio != nil {
		p.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.HeightCm != nil {
		if *in.HeightCm <= 0 {
			return Pet{}, ErrInvalidInput
		}
		p.HeightCm = *in.HeightCm
	}
	if in.WeightKg != nil {
		if *in.WeightKg <= 0 {
			return Pet{}, ErrInvalidInput
		}
		p.WeightKg = *in.WeightKg
	}
	if in.Hypoallergenic != nil {
		p.Hypoallergenic = *in.Hypoallergenic
	}
	if in.DietaryRestrictions != nil {
		p.DietaryRestrictions = strings.TrimSpace(*in.DietaryRestrictions)
	}
	if in.Picture != nil {
		p.Picture = strings.TrimSpace(*in.Picture)
	}

	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Delete es incondicional: no chequea custodia activa (responsabilidad
// del caller).
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}
