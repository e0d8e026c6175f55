package adoptions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-adoption/internal/domain/pets"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// ErrConflict: el pet ya tiene un custodio activo (adopted o
	// fostered por cualquier user). Distinto de la re-aplicación
	// idempotente, que es éxito.
	ErrConflict = errors.New("pet already has an active custodian")

	// ErrMirrorWrite: el lado pet quedó commiteado pero el espejo del
	// usuario falló. No se traga: el caller/operador tiene que poder
	// detectarlo y reconciliar (no hay transacción cross-documento).
	ErrMirrorWrite = errors.New("pet side committed but user mirror write failed")
)

// Service es el engine de consistencia de relaciones: máquina de
// estados de custodia + sincronización bidireccional pet<->user.
//
// Orden de escritura fijo: primero el pet (lado autoritativo), re-lectura
// para confirmar el commit, y recién después el espejo en el usuario.
// Best-effort entre documentos: trade-off aceptado, no un descuido.
type Service struct {
	pets  PetStore
	users UserStore
}

func NewService(petStore PetStore, userStore UserStore) *Service {
	return &Service{
		pets:  petStore,
		users: userStore,
	}
}

func (s *Service) Adopt(ctx context.Context, petID, userID string) (Result, error) {
	return s.claim(ctx, petID, userID, RelationAdopted)
}

func (s *Service) Foster(ctx context.Context, petID, userID string) (Result, error) {
	return s.claim(ctx, petID, userID, RelationFostered)
}

func (s *Service) claim(ctx context.Context, petID, userID string, rel Relation) (Result, error) {
	petID, userID, err := s.resolve(ctx, petID, userID)
	if err != nil {
		return Result{}, err
	}

	p, err := s.pets.GetPet(ctx, petID)
	if err != nil {
		return Result{}, fmt.Errorf("pet %s: %w", petID, err)
	}

	// Re-aplicar por el mismo custodio es no-op idempotente.
	if inRelation(p, userID, rel) {
		return Result{Pet: p, Outcome: OutcomeAlreadyApplied}, nil
	}
	if p.AdoptionStatus != pets.StatusAdoptable {
		return Result{}, fmt.Errorf("pet %s is %s: %w", petID, p.AdoptionStatus, ErrConflict)
	}

	// Update condicional (solo desde adoptable): si otro request ganó
	// la carrera, el store devuelve ErrConflict.
	if err := s.pets.ClaimCustody(ctx, petID, userID, rel); err != nil {
		return Result{}, fmt.Errorf("claim custody of pet %s: %w", petID, err)
	}

	// Confirmar que el lado pet quedó commiteado antes de espejar.
	// Una falla de lectura acá NO es ErrMirrorWrite: el estado del
	// commit es desconocido y el error del store sube tal cual.
	p, err = s.pets.GetPet(ctx, petID)
	if err != nil {
		return Result{}, fmt.Errorf("confirm custody of pet %s after claim: %w", petID, err)
	}
	if !inRelation(p, userID, rel) {
		return Result{}, fmt.Errorf("custody of pet %s not visible after claim", petID)
	}

	if err := s.users.AddPetRef(ctx, userID, petID, rel); err != nil {
		return Result{}, fmt.Errorf("mirror pet %s onto user %s: %w", petID, userID, ErrMirrorWrite)
	}

	return Result{Pet: p, Outcome: OutcomeApplied}, nil
}

// Return deshace la custodia vigente del user sobre el pet, sea
// adopted o fostered. Sin custodia vigente no es error: no-op informativo.
func (s *Service) Return(ctx context.Context, petID, userID string) (Result, error) {
	petID, userID, err := s.resolve(ctx, petID, userID)
	if err != nil {
		return Result{}, err
	}

	p, err := s.pets.GetPet(ctx, petID)
	if err != nil {
		return Result{}, fmt.Errorf("pet %s: %w", petID, err)
	}

	var rel Relation
	switch {
	case p.IsAdoptedBy(userID):
		rel = RelationAdopted
	case p.IsFosteredBy(userID):
		rel = RelationFostered
	default:
		return Result{Pet: p, Outcome: OutcomeNotApplicable}, nil
	}

	if err := s.pets.ReleaseCustody(ctx, petID, userID, rel); err != nil {
		return Result{}, fmt.Errorf("release custody of pet %s: %w", petID, err)
	}

	p, err = s.pets.GetPet(ctx, petID)
	if err != nil {
		return Result{}, fmt.Errorf("confirm release of pet %s: %w", petID, err)
	}
	if inRelation(p, userID, rel) {
		return Result{}, fmt.Errorf("release of pet %s not visible", petID)
	}

	if err := s.users.RemovePetRef(ctx, userID, petID, rel); err != nil {
		return Result{}, fmt.Errorf("unmirror pet %s from user %s: %w", petID, userID, ErrMirrorWrite)
	}

	return Result{Pet: p, Outcome: OutcomeApplied}, nil
}

func (s *Service) Like(ctx context.Context, petID, userID string) (Result, error) {
	petID, userID, err := s.resolve(ctx, petID, userID)
	if err != nil {
		return Result{}, err
	}

	p, err := s.pets.GetPet(ctx, petID)
	if err != nil {
		return Result{}, fmt.Errorf("pet %s: %w", petID, err)
	}
	if p.IsLikedBy(userID) {
		return Result{Pet: p, Outcome: OutcomeAlreadyApplied}, nil
	}

	if err := s.pets.SetLiked(ctx, petID, userID, true); err != nil {
		return Result{}, fmt.Errorf("like pet %s: %w", petID, err)
	}

	p, err = s.pets.GetPet(ctx, petID)
	if err != nil {
		return Result{}, fmt.Errorf("confirm like of pet %s: %w", petID, err)
	}
	if !p.IsLikedBy(userID) {
		return Result{}, fmt.Errorf("like of pet %s not visible", petID)
	}

	if err := s.users.AddPetRef(ctx, userID, petID, RelationLiked); err != nil {
		return Result{}, fmt.Errorf("mirror like of pet %s onto user %s: %w", petID, userID, ErrMirrorWrite)
	}

	return Result{Pet: p, Outcome: OutcomeApplied}, nil
}

func (s *Service) Unlike(ctx context.Context, petID, userID string) (Result, error) {
	petID, userID, err := s.resolve(ctx, petID, userID)
	if err != nil {
		return Result{}, err
	}

	p, err := s.pets.GetPet(ctx, petID)
	if err != nil {
		return Result{}, fmt.Errorf("pet %s: %w", petID, err)
	}
	if !p.IsLikedBy(userID) {
		return Result{Pet: p, Outcome: OutcomeNotApplicable}, nil
	}

	if err := s.pets.SetLiked(ctx, petID, userID, false); err != nil {
		return Result{}, fmt.Errorf("unlike pet %s: %w", petID, err)
	}

	p, err = s.pets.GetPet(ctx, petID)
	if err != nil {
		return Result{}, fmt.Errorf("confirm unlike of pet %s: %w", petID, err)
	}
	if p.IsLikedBy(userID) {
		return Result{}, fmt.Errorf("unlike of pet %s not visible", petID)
	}

	if err := s.users.RemovePetRef(ctx, userID, petID, RelationLiked); err != nil {
		return Result{}, fmt.Errorf("unmirror like of pet %s from user %s: %w", petID, userID, ErrMirrorWrite)
	}

	return Result{Pet: p, Outcome: OutcomeApplied}, nil
}

// SeverUser corta la membresía del user en todos los pets referenciados
// por sus listas, al borrar la cuenta. Solo el lado pet: el documento
// del user se borra después. Nunca borra pets.
func (s *Service) SeverUser(ctx context.Context, userID string, liked, fostered, adopted []string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidInput
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && !errors.Is(err, ErrNotFound) && firstErr == nil {
			firstErr = err
		}
	}

	for _, petID := range adopted {
		keep(s.pets.ReleaseCustody(ctx, petID, userID, RelationAdopted))
	}
	for _, petID := range fostered {
		keep(s.pets.ReleaseCustody(ctx, petID, userID, RelationFostered))
	}
	for _, petID := range liked {
		keep(s.pets.SetLiked(ctx, petID, userID, false))
	}

	if firstErr != nil {
		return fmt.Errorf("sever user %s: %w", userID, firstErr)
	}
	return nil
}

func (s *Service) resolve(ctx context.Context, petID, userID string) (string, string, error) {
	petID = strings.TrimSpace(petID)
	userID = strings.TrimSpace(userID)
	if petID == "" || userID == "" {
		return "", "", ErrInvalidInput
	}

	ok, err := s.users.HasUser(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("user %s: %w", userID, err)
	}
	if !ok {
		return "", "", fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return petID, userID, nil
}

func inRelation(p pets.Pet, userID string, rel Relation) bool {
	switch rel {
	case RelationAdopted:
		return p.IsAdoptedBy(userID)
	case RelationFostered:
		return p.IsFosteredBy(userID)
	case RelationLiked:
		return p.IsLikedBy(userID)
	}
	return false
}
