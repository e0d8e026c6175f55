package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"pet-adoption/internal/domain/posts"
)

type PostsRepo struct {
	db *sql.DB
}

func NewPostsRepo(db *sql.DB) *PostsRepo {
	return &PostsRepo{db: db}
}

// comments y reactions van como jsonb embebido en la fila del post.
// Los DTOs de abajo fijan el shape persistido para no depender de los
// tags del dominio.
type commentDoc struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type reactionDoc struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
}

const postColumns = `
	id, author_id, pet_id,
	content, image,
	comments, reactions,
	created_at, updated_at
`

func (r *PostsRepo) Create(ctx context.Context, p posts.Post) error {
	comments, reactions, err := marshalPostDocs(p)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		p.ID,
		p.AuthorID,
		p.PetID,
		p.Content,
		p.Image,
		comments,
		reactions,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PostsRepo) Update(ctx context.Context, p posts.Post) error {
	comments, reactions, err := marshalPostDocs(p)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE posts
		SET
			content = $2,
			image = $3,
			comments = $4,
			reactions = $5,
			updated_at = $6
		WHERE id = $1
	`,
		p.ID,
		p.Content,
		p.Image,
		comments,
		reactions,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return posts.ErrNotFound
	}
	return nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (posts.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return posts.Post{}, posts.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE id = $1
	`, id)

	return scanPost(row)
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return posts.ErrNotFound
	}
	return nil
}

func (r *PostsRepo) ListFeed(ctx context.Context) ([]posts.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *PostsRepo) ListByAuthor(ctx context.Context, authorID string) ([]posts.Post, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC
	`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func marshalPostDocs(p posts.Post) ([]byte, []byte, error) {
	cdocs := make([]commentDoc, 0, len(p.Comments))
	for _, c := range p.Comments {
		cdocs = append(cdocs, commentDoc{
			ID:        c.ID,
			UserID:    c.UserID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	rdocs := make([]reactionDoc, 0, len(p.Reactions))
	for _, re := range p.Reactions {
		rdocs = append(rdocs, reactionDoc{UserID: re.UserID, Type: string(re.Type)})
	}

	comments, err := json.Marshal(cdocs)
	if err != nil {
		return nil, nil, err
	}
	reactions, err := json.Marshal(rdocs)
	if err != nil {
		return nil, nil, err
	}
	return comments, reactions, nil
}

func scanPost(row rowScanner) (posts.Post, error) {
	var p posts.Post
	var comments, reactions []byte

	if err := row.Scan(
		&p.ID,
		&p.AuthorID,
		&p.PetID,
		&p.Content,
		&p.Image,
		&comments,
		&reactions,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return posts.Post{}, posts.ErrNotFound
		}
		return posts.Post{}, err
	}

	var cdocs []commentDoc
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &cdocs); err != nil {
			return posts.Post{}, err
		}
	}
	p.Comments = make([]posts.Comment, 0, len(cdocs))
	for _, c := range cdocs {
		p.Comments = append(p.Comments, posts.Comment{
			ID:        c.ID,
			UserID:    c.UserID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}

	var rdocs []reactionDoc
	if len(reactions) > 0 {
		if err := json.Unmarshal(reactions, &rdocs); err != nil {
			return posts.Post{}, err
		}
	}
	p.Reactions = make([]posts.Reaction, 0, len(rdocs))
	for _, re := range rdocs {
		p.Reactions = append(p.Reactions, posts.Reaction{
			UserID: re.UserID,
			Type:   posts.ReactionType(re.Type),
		})
	}

	return p, nil
}

func collectPosts(rows *sql.Rows) ([]posts.Post, error) {
	out := make([]posts.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
