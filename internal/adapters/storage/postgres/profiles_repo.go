package postgres

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"animal-catalog/internal/domain/account"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

func (r *ProfilesRepo) GetProfile(ctx context.Context, userID string) (account.Profile, error) {
	query, args, err := psql.Select("id", "username", "website", "avatar_url").
		From("profiles").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return account.Profile{}, err
	}

	var (
		p                            account.Profile
		username, website, avatarURL sql.NullString
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&p.UserID, &username, &website, &avatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Profile{}, account.ErrNotFound
		}
		return account.Profile{}, err
	}

	p.Username = str(username)
	p.Website = str(website)
	p.AvatarURL = str(avatarURL)
	return p, nil
}
