package adoptions

import (
	"context"

	"pet-adoption/internal/domain/pets"
)

// PetStore es el lado autoritativo del espejo: el engine escribe
// primero acá y recién después refleja en el usuario.
//
// Contrato de errores: documentos inexistentes => ErrNotFound;
// ClaimCustody con el pet fuera de adoptable => ErrConflict.
type PetStore interface {
	GetPet(ctx context.Context, id string) (pets.Pet, error)

	// ClaimCustody agrega userID al set de custodia y cambia el status,
	// en un único update condicional: solo si el status actual es
	// adoptable. Así se cierra la carrera de dos adopts simultáneos.
	ClaimCustody(ctx context.Context, petID, userID string, rel Relation) error

	// ReleaseCustody saca a userID del set y vuelve el status a
	// adoptable. El caller verifica la membresía antes de llamar.
	ReleaseCustody(ctx context.Context, petID, userID string, rel Relation) error

	// SetLiked agrega/quita userID de likedBy sin tocar el status.
	SetLiked(ctx context.Context, petID, userID string, liked bool) error
}

// UserStore es el lado espejo (listas *Pets del usuario).
type UserStore interface {
	HasUser(ctx context.Context, id string) (bool, error)
	AddPetRef(ctx context.Context, userID, petID string, rel Relation) error
	RemovePetRef(ctx context.Context, userID, petID string, rel Relation) error
}
