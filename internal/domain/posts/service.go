package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)

type Service struct {
	repo    Repository
	authors AuthorStore
	now     func() time.Time
}

func NewService(repo Repository, authors AuthorStore) *Service {
	return &Service{
		repo:    repo,
		authors: authors,
		now:     time.Now,
	}
}

type CreateInput struct {
	Content string
	Image   string
	PetID   string
}

func (s *Service) Create(ctx context.Context, authorID string, in CreateInput) (Post, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" || strings.TrimSpace(in.Content) == "" {
		return Post{}, ErrInvalidInput
	}

	ok, err := s.authors.HasUser(ctx, authorID)
	if err != nil {
		return Post{}, err
	}
	if !ok {
		return Post{}, fmt.Errorf("author %s: %w", authorID, ErrNotFound)
	}

	now := s.now()
	p := Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		PetID:     strings.TrimSpace(in.PetID),
		Content:   strings.TrimSpace(in.Content),
		Image:     strings.TrimSpace(in.Image),
		Comments:  []Comment{},
		Reactions: []Reaction{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Post{}, err
	}

	// Espejo en user.posts; el post ya quedó commiteado.
	if err := s.authors.AddPostRef(ctx, authorID, p.ID); err != nil {
		return Post{}, fmt.Errorf("mirror post %s onto user %s: %w", p.ID, authorID, err)
	}

	return p, nil
}

type EditInput struct {
	Content *string
	Image   *string
}

func (s *Service) Edit(ctx context.Context, postID, authorID string, in EditInput) (Post, error) {
	p, err := s.getOwned(ctx, postID, authorID)
	if err != nil {
		return Post{}, err
	}

	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return Post{}, ErrInvalidInput
		}
		p.Content = strings.TrimSpace(*in.Content)
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
	}

	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, postID, authorID string) error {
	p, err := s.getOwned(ctx, postID, authorID)
	if err != nil {
		return err
	}

	if err := s.authors.RemovePostRef(ctx, p.AuthorID, p.ID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}

func (s *Service) GetByID(ctx context.Context, id string) (Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Post{}, ErrInvalidInput
	}
	// El repo devuelve ErrNotFound si el post no existe; cualquier otro
	// error es falla de storage y sube tal cual.
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Feed(ctx context.Context) ([]Post, error) {
	return s.repo.ListFeed(ctx)
}

func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByAuthor(ctx, authorID)
}

func (s *Service) AddComment(ctx context.Context, postID, authorID, content string) (Comment, error) {
	authorID = strings.TrimSpace(authorID)
	content = strings.TrimSpace(content)
	if authorID == "" || content == "" {
		return Comment{}, ErrInvalidInput
	}

	p, err := s.GetByID(ctx, postID)
	if err != nil {
		return Comment{}, err
	}

	c := Comment{
		ID:        uuid.NewString(),
		UserID:    authorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = c.CreatedAt

	if err := s.repo.Update(ctx, p); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// DeleteComment: solo el autor del comentario puede borrarlo.
func (s *Service) DeleteComment(ctx context.Context, postID, commentID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidInput
	}

	p, err := s.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	idx := -1
	for i, c := range p.Comments {
		if c.ID == commentID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}
	if p.Comments[idx].UserID != userID {
		return ErrForbidden
	}

	p.Comments = append(p.Comments[:idx], p.Comments[idx+1:]...)
	p.UpdatedAt = s.now()
	return s.repo.Update(ctx, p)
}

// React aplica semántica de toggle (decisión documentada en DESIGN.md):
// tipo distinto pisa la reacción anterior, mismo tipo la quita.
// Devuelve removed=true cuando el toggle la quitó.
func (s *Service) React(ctx context.Context, postID, userID string, rtype ReactionType) (Reaction, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Reaction{}, false, ErrInvalidInput
	}
	if !ValidReaction(rtype) {
		return Reaction{}, false, ErrInvalidInput
	}

	p, err := s.GetByID(ctx, postID)
	if err != nil {
		return Reaction{}, false, err
	}

	filtered := make([]Reaction, 0, len(p.Reactions))
	var prev *Reaction
	for _, r := range p.Reactions {
		if r.UserID == userID {
			r := r
			prev = &r
			continue
		}
		filtered = append(filtered, r)
	}

	removed := prev != nil && prev.Type == rtype
	reaction := Reaction{UserID: userID, Type: rtype}
	if !removed {
		filtered = append(filtered, reaction)
	}

	p.Reactions = filtered
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Reaction{}, false, err
	}
	return reaction, removed, nil
}

// DeleteByAuthor borra todos los posts del autor (cascade del delete
// de cuenta). Sin espejo: el documento del user se borra después.
func (s *Service) DeleteByAuthor(ctx context.Context, authorID string) error {
	items, err := s.ListByAuthor(ctx, authorID)
	if err != nil {
		return err
	}
	for _, p := range items {
		if err := s.repo.Delete(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, postID, authorID string) (Post, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return Post{}, ErrInvalidInput
	}

	p, err := s.GetByID(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if p.AuthorID != authorID {
		return Post{}, ErrForbidden
	}
	return p, nil
}
