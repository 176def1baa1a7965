package store

import (
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
)

func IsErrNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Builder renders statements with Postgres placeholders.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
