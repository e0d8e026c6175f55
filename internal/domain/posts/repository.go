package posts

import "context"

// Repository: las operaciones por id devuelven ErrNotFound cuando el
// post no existe; cualquier otro error es falla de storage.
type Repository interface {
	Create(ctx context.Context, p Post) error
	Update(ctx context.Context, p Post) error
	GetByID(ctx context.Context, id string) (Post, error)
	Delete(ctx context.Context, id string) error

	// ListFeed devuelve todos los posts, más nuevos primero.
	ListFeed(ctx context.Context) ([]Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Post, error)
}

// AuthorStore espeja los ids de posts en la lista posts del usuario.
// Lo implementan los repos de usuarios de cada adapter.
type AuthorStore interface {
	HasUser(ctx context.Context, id string) (bool, error)
	AddPostRef(ctx context.Context, userID, postID string) error
	RemovePostRef(ctx context.Context, userID, postID string) error
}
