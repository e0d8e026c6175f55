package users

import "context"

// Repository: las lecturas y el delete devuelven ErrNotFound cuando el
// user no existe; cualquier otro error es falla de storage.
type Repository interface {
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id string) error
}

// MembershipSeverer corta la membresía del user en los pets que
// referencian sus listas antes de borrar la cuenta. Lo implementa el
// engine de adopciones; la interfaz vive acá para no invertir la
// dependencia.
type MembershipSeverer interface {
	SeverUser(ctx context.Context, userID string, liked, fostered, adopted []string) error
}

// PostsPurger borra los posts del autor al borrar la cuenta.
type PostsPurger interface {
	DeleteByAuthor(ctx context.Context, authorID string) error
}
