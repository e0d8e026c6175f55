package adoptions

import "pet-adoption/internal/domain/pets"

// Relation identifica la arista entre un user y un pet.
// liked es ortogonal a la custodia; fostered/adopted son custodia
// y mutuamente excluyentes a nivel sistema (un custodio activo por pet).
type Relation string

const (
	RelationLiked    Relation = "liked"
	RelationFostered Relation = "fostered"
	RelationAdopted  Relation = "adopted"
)

// Status destino de cada relación de custodia.
func (r Relation) Status() pets.AdoptionStatus {
	switch r {
	case RelationAdopted:
		return pets.StatusAdopted
	case RelationFostered:
		return pets.StatusFostered
	default:
		return pets.StatusAdoptable
	}
}

// Outcome distingue "aplicado" de los no-ops idempotentes.
// Reintentos y double-submits son éxito, no error; el conflicto real
// (custodia de otro user) sí es error (ErrConflict).
type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeAlreadyApplied Outcome = "already_applied"
	OutcomeNotApplicable  Outcome = "not_applicable"
)

type Result struct {
	Pet     pets.Pet
	Outcome Outcome
}
