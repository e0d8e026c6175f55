package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"pet-adoption/internal/domain/adoptions"
	"pet-adoption/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, email, password_hash,
	first_name, last_name, phone_number,
	role, short_bio, avatar,
	liked_pets, fostered_pets, adopted_pets, posts,
	created_at, updated_at
`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.PhoneNumber,
		string(u.Role),
		u.ShortBio,
		u.Avatar,
		idsToJSON(u.LikedPets),
		idsToJSON(u.FosteredPets),
		idsToJSON(u.AdoptedPets),
		idsToJSON(u.Posts),
		u.CreatedAt,
		u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return users.ErrEmailTaken
	}
	return err
}

// Update no toca las listas espejo ni posts: esas columnas las mutan
// AddPetRef/RemovePetRef/AddPostRef/RemovePostRef.
func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			email = $2,
			password_hash = $3,
			first_name = $4,
			last_name = $5,
			phone_number = $6,
			role = $7,
			short_bio = $8,
			avatar = $9,
			updated_at = $10
		WHERE id = $1
	`,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.PhoneNumber,
		string(u.Role),
		u.ShortBio,
		u.Avatar,
		u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return users.ErrEmailTaken
	}
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	return scanUser(row)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return users.User{}, users.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)

	return scanUser(row)
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

// --- adoptions.UserStore / posts.AuthorStore ---

func (r *UsersRepo) HasUser(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *UsersRepo) AddPetRef(ctx context.Context, userID, petID string, rel adoptions.Relation) error {
	col, err := mirrorColumn(rel)
	if err != nil {
		return err
	}
	return r.addRef(ctx, col, userID, petID)
}

func (r *UsersRepo) RemovePetRef(ctx context.Context, userID, petID string, rel adoptions.Relation) error {
	col, err := mirrorColumn(rel)
	if err != nil {
		return err
	}
	return r.removeRef(ctx, col, userID, petID)
}

func (r *UsersRepo) AddPostRef(ctx context.Context, userID, postID string) error {
	return r.addRef(ctx, "posts", userID, postID)
}

func (r *UsersRepo) RemovePostRef(ctx context.Context, userID, postID string) error {
	return r.removeRef(ctx, "posts", userID, postID)
}

func (r *UsersRepo) addRef(ctx context.Context, col, userID, refID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			`+col+` = CASE
				WHEN `+col+` ? $2 THEN `+col+`
				ELSE `+col+` || to_jsonb($2::text)
			END,
			updated_at = now()
		WHERE id = $1
	`, userID, refID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return adoptions.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) removeRef(ctx context.Context, col, userID, refID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			`+col+` = (
				SELECT COALESCE(jsonb_agg(elem), '[]'::jsonb)
				FROM jsonb_array_elements_text(`+col+`) AS elem
				WHERE elem <> $2
			),
			updated_at = now()
		WHERE id = $1
	`, userID, refID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return adoptions.ErrNotFound
	}
	return nil
}

func mirrorColumn(rel adoptions.Relation) (string, error) {
	switch rel {
	case adoptions.RelationLiked:
		return "liked_pets", nil
	case adoptions.RelationFostered:
		return "fostered_pets", nil
	case adoptions.RelationAdopted:
		return "adopted_pets", nil
	}
	return "", fmt.Errorf("unknown relation %q", rel)
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	var role string
	var likedPets, fosteredPets, adoptedPets, posts []byte

	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.PhoneNumber,
		&role,
		&u.ShortBio,
		&u.Avatar,
		&likedPets,
		&fosteredPets,
		&adoptedPets,
		&posts,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}

	u.Role = users.Role(role)
	u.LikedPets = jsonToIDs(likedPets)
	u.FosteredPets = jsonToIDs(fosteredPets)
	u.AdoptedPets = jsonToIDs(adoptedPets)
	u.Posts = jsonToIDs(posts)

	return u, nil
}

// 23505 = unique_violation (email)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
