package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"animal-catalog/internal/domain/animals"
)

const (
	animalsTable = "animais"

	colID             = "id"
	colCommonName     = "nome_comum"
	colScientificName = "nome_cientifico"
	colFamily         = "familia"
	colDistribution   = "distribuicao_geografica"
	colHabitat        = "habitat"
	colDiet           = "alimentacao"
	colSizeAppearance = "tamanho_aparencia"
	colReproduction   = "reproducao"
	colConservation   = "conservacao"
	colCuriosities    = "curiosidades"
	colImageURL       = "imagem_url"
	colMapURL         = "mapa_distribuicao_url"
)

var animalColumns = []string{
	colID, colCommonName, colScientificName, colFamily, colDistribution, colHabitat,
	colDiet, colSizeAppearance, colReproduction, colConservation, colCuriosities,
	colImageURL, colMapURL,
}

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

func values(a animals.Animal) map[string]any {
	return map[string]any{
		colCommonName:     a.CommonName,
		colScientificName: a.ScientificName,
		colFamily:         a.Family,
		colDistribution:   a.Distribution,
		colHabitat:        a.Habitat,
		colDiet:           a.Diet,
		colSizeAppearance: a.SizeAppearance,
		colReproduction:   a.Reproduction,
		colConservation:   a.Conservation,
		colCuriosities:    a.Curiosities,
		colImageURL:       a.ImageURL,
		colMapURL:         a.MapURL,
	}
}

func (r *AnimalsRepo) Insert(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	vals := values(a)
	vals[colID] = a.ID

	query, args, err := psql.Insert(animalsTable).SetMap(vals).ToSql()
	if err != nil {
		return animals.Animal{}, err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return animals.Animal{}, err
	}
	return a, nil
}

func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) (animals.Animal, error) {
	query, args, err := psql.Update(animalsTable).
		SetMap(values(a)).
		Where(sq.Eq{colID: a.ID}).
		ToSql()
	if err != nil {
		return animals.Animal{}, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return animals.Animal{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, nil
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, animals.ErrNotFound
	}

	query, args, err := psql.Select(animalColumns...).
		From(animalsTable).
		Where(sq.Eq{colID: id}).
		ToSql()
	if err != nil {
		return animals.Animal{}, err
	}

	a, err := scanAnimal(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return animals.Animal{}, animals.ErrNotFound
		}
		return animals.Animal{}, err
	}
	return a, nil
}

func (r *AnimalsRepo) ListByName(ctx context.Context) ([]animals.Animal, error) {
	query, args, err := psql.Select(animalColumns...).
		From(animalsTable).
		OrderBy(colCommonName+" ASC", colID+" ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete(animalsTable).Where(sq.Eq{colID: id}).ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanAnimal lee las columnas en el orden de animalColumns; las de texto pueden ser NULL.
func scanAnimal(s scanner) (animals.Animal, error) {
	var (
		a    animals.Animal
		cols [12]sql.NullString
	)
	dest := []any{&a.ID}
	for i := range cols {
		dest = append(dest, &cols[i])
	}
	if err := s.Scan(dest...); err != nil {
		return animals.Animal{}, err
	}

	a.CommonName = str(cols[0])
	a.ScientificName = str(cols[1])
	a.Family = str(cols[2])
	a.Distribution = str(cols[3])
	a.Habitat = str(cols[4])
	a.Diet = str(cols[5])
	a.SizeAppearance = str(cols[6])
	a.Reproduction = str(cols[7])
	a.Conservation = str(cols[8])
	a.Curiosities = str(cols[9])
	a.ImageURL = str(cols[10])
	a.MapURL = str(cols[11])
	return a, nil
}
