package postgres

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// psql genera SQL con placeholders $1, $2... para pgx.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// defaults razonables para MVP (ajustable luego)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Schema replica las tablas que expone el backend remoto.
const Schema = `
CREATE TABLE IF NOT EXISTS animais (
	id                      TEXT PRIMARY KEY,
	nome_comum              TEXT NOT NULL,
	nome_cientifico         TEXT,
	familia                 TEXT,
	distribuicao_geografica TEXT,
	habitat                 TEXT,
	alimentacao             TEXT,
	tamanho_aparencia       TEXT,
	reproducao              TEXT,
	conservacao             TEXT,
	curiosidades            TEXT,
	imagem_url              TEXT,
	mapa_distribuicao_url   TEXT,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS animais_nome_comum_idx ON animais (nome_comum);

CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	username   TEXT,
	website    TEXT,
	avatar_url TEXT
);
`

// Migrate crea las tablas si no existen.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}

func str(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
