package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-adoption/internal/domain/adoptions"
	"pet-adoption/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, type, name, breed, color, bio,
	height_cm, weight_kg,
	hypoallergenic, dietary_restrictions, picture,
	adoption_status,
	liked_by, adopted_by, fostered_by,
	created_at, updated_at
`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		p.ID,
		p.Type,
		p.Name,
		p.Breed,
		p.Color,
		p.Bio,
		p.HeightCm,
		p.WeightKg,
		p.Hypoallergenic,
		p.DietaryRestrictions,
		p.Picture,
		string(p.AdoptionStatus),
		idsToJSON(p.LikedBy),
		idsToJSON(p.AdoptedBy),
		idsToJSON(p.FosteredBy),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update solo toca los campos editables; adoption_status y los sets
// de membresía se mutan por los métodos de custodia, nunca por acá.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			type = $2,
			name = $3,
			breed = $4,
			color = $5,
			bio = $6,
			height_cm = $7,
			weight_kg = $8,
			hypoallergenic = $9,
			dietary_restrictions = $10,
			picture = $11,
			updated_at = $12
		WHERE id = $1
	`,
		p.ID,
		p.Type,
		p.Name,
		p.Breed,
		p.Color,
		p.Bio,
		p.HeightCm,
		p.WeightKg,
		p.Hypoallergenic,
		p.DietaryRestrictions,
		p.Picture,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE id = $1
	`, id)

	return scanPet(row)
}

func (r *PetsRepo) List(ctx context.Context) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPets(rows)
}

func (r *PetsRepo) Search(ctx context.Context, f pets.SearchFilter) ([]pets.Pet, error) {
	where := make([]string, 0, 6)
	args := make([]any, 0, 6)

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.AdoptionStatus != "" {
		add("adoption_status = $%d", f.AdoptionStatus)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Name != "" {
		if f.Fuzzy {
			add("name ILIKE $%d", "%"+f.Name+"%")
		} else {
			add("name = $%d", f.Name)
		}
	}
	if f.Breed != "" {
		if f.Fuzzy {
			add("breed ILIKE $%d", "%"+f.Breed+"%")
		} else {
			add("breed = $%d", f.Breed)
		}
	}
	if f.MinHeightCm != nil {
		add("height_cm >= $%d", *f.MinHeightCm)
	}
	if f.MinWeightKg != nil {
		add("weight_kg >= $%d", *f.MinWeightKg)
	}

	q := `SELECT ` + petColumns + ` FROM pets`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(" ORDER BY created_at ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Page*f.Limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPets(rows)
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

// --- adoptions.PetStore ---

func (r *PetsRepo) GetPet(ctx context.Context, id string) (pets.Pet, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return pets.Pet{}, adoptions.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

// ClaimCustody es el update condicional que cierra la carrera de dos
// custodias simultáneas: solo pisa filas en adoptable. Cero filas
// afectadas + el pet existe => otro llegó primero (ErrConflict).
func (r *PetsRepo) ClaimCustody(ctx context.Context, petID, userID string, rel adoptions.Relation) error {
	col, err := custodyColumn(rel)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			`+col+` = CASE
				WHEN `+col+` ? $2 THEN `+col+`
				ELSE `+col+` || to_jsonb($2::text)
			END,
			adoption_status = $3,
			updated_at = now()
		WHERE id = $1
		  AND adoption_status = 'adoptable'
	`, petID, userID, string(rel.Status()))
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		exists, err := r.petExists(ctx, petID)
		if err != nil {
			return err
		}
		if !exists {
			return adoptions.ErrNotFound
		}
		return adoptions.ErrConflict
	}
	return nil
}

func (r *PetsRepo) ReleaseCustody(ctx context.Context, petID, userID string, rel adoptions.Relation) error {
	col, err := custodyColumn(rel)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			`+col+` = (
				SELECT COALESCE(jsonb_agg(elem), '[]'::jsonb)
				FROM jsonb_array_elements_text(`+col+`) AS elem
				WHERE elem <> $2
			),
			adoption_status = 'adoptable',
			updated_at = now()
		WHERE id = $1
	`, petID, userID)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return adoptions.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) SetLiked(ctx context.Context, petID, userID string, liked bool) error {
	var res sql.Result
	var err error

	if liked {
		res, err = r.db.ExecContext(ctx, `
			UPDATE pets
			SET
				liked_by = CASE
					WHEN liked_by ? $2 THEN liked_by
					ELSE liked_by || to_jsonb($2::text)
				END,
				updated_at = now()
			WHERE id = $1
		`, petID, userID)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE pets
			SET
				liked_by = (
					SELECT COALESCE(jsonb_agg(elem), '[]'::jsonb)
					FROM jsonb_array_elements_text(liked_by) AS elem
					WHERE elem <> $2
				),
				updated_at = now()
			WHERE id = $1
		`, petID, userID)
	}
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return adoptions.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) petExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM pets WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func custodyColumn(rel adoptions.Relation) (string, error) {
	switch rel {
	case adoptions.RelationAdopted:
		return "adopted_by", nil
	case adoptions.RelationFostered:
		return "fostered_by", nil
	}
	return "", fmt.Errorf("relation %q is not custodial", rel)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var p pets.Pet
	var status string
	var likedBy, adoptedBy, fosteredBy []byte

	if err := row.Scan(
		&p.ID,
		&p.Type,
		&p.Name,
		&p.Breed,
		&p.Color,
		&p.Bio,
		&p.HeightCm,
		&p.WeightKg,
		&p.Hypoallergenic,
		&p.DietaryRestrictions,
		&p.Picture,
		&status,
		&likedBy,
		&adoptedBy,
		&fosteredBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}

	p.AdoptionStatus = pets.AdoptionStatus(status)
	p.LikedBy = jsonToIDs(likedBy)
	p.AdoptedBy = jsonToIDs(adoptedBy)
	p.FosteredBy = jsonToIDs(fosteredBy)

	return p, nil
}

func collectPets(rows *sql.Rows) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
