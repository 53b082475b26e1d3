package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrWalletTaken is returned when a creator insert collides on wallet address
var ErrWalletTaken = errors.New("wallet address already registered")

// ErrDuplicateID is returned when a creator insert collides on id
var ErrDuplicateID = errors.New("id already exists")

const pgUniqueViolation = "23505"

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// uniqueViolation returns the violated constraint name, if err is one
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
