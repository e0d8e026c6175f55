package users

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

// User es la cuenta de la plataforma. Las listas *Pets son el espejo
// de los sets *By del lado pet; las mantiene el engine de adopciones.
type User struct {
	ID    string
	Email string // único, lowercase

	PasswordHash string

	FirstName   string
	LastName    string
	PhoneNumber string

	Role     Role
	ShortBio string
	Avatar   string

	LikedPets    []string
	FosteredPets []string
	AdoptedPets  []string
	Posts        []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
