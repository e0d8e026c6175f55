package pets

import "time"

// AdoptionStatus define el estado de custodia de una mascota.
// like/unlike no lo tocan: es ortogonal a la custodia.
type AdoptionStatus string

const (
	StatusAdoptable AdoptionStatus = "adoptable"
	StatusFostered  AdoptionStatus = "fostered"
	StatusAdopted   AdoptionStatus = "adopted"
)

func ValidStatus(s AdoptionStatus) bool {
	switch s {
	case StatusAdoptable, StatusFostered, StatusAdopted:
		return true
	}
	return false
}

// Pet representa una mascota publicada para adopción.
// LikedBy/AdoptedBy/FosteredBy son sets de user ids (sin duplicados);
// el espejo del lado usuario vive en users.User (likedPets, etc.).
type Pet struct {
	ID string

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

	AdoptionStatus AdoptionStatus

	LikedBy    []string
	AdoptedBy  []string
	FosteredBy []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Pet) IsLikedBy(userID string) bool    { return containsID(p.LikedBy, userID) }
func (p Pet) IsAdoptedBy(userID string) bool  { return containsID(p.AdoptedBy, userID) }
func (p Pet) IsFosteredBy(userID string) bool { return containsID(p.FosteredBy, userID) }

func containsID(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
