package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	pgUniqueViolation     = "23505"
	mysqlDuplicateEntry   = 1062
	pgFieldSQLState       = 'C'
	pgFieldConstraintName = 'n'

	// sqlite names the columns: "UNIQUE constraint failed: categories.slug".
	sqliteUniqueFailed = "UNIQUE constraint failed:"
)

// UniqueViolation describes a unique-constraint failure reported by the database.
type UniqueViolation struct {
	Constraint string
	Message    string
}

// AsUniqueViolation inspects err for a unique-constraint violation across the
// supported drivers. Driver types are checked first; message substrings are the
// fallback for errors that lost their type on the way up.
func AsUniqueViolation(err error) (UniqueViolation, bool) {
	if err == nil {
		return UniqueViolation{}, false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		if pgErr.Field(pgFieldSQLState) == pgUniqueViolation {
			return UniqueViolation{Constraint: pgErr.Field(pgFieldConstraintName), Message: pgErr.Error()}, true
		}
		return UniqueViolation{}, false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if pgxErr.Code == pgUniqueViolation {
			return UniqueViolation{Constraint: pgxErr.ConstraintName, Message: pgxErr.Message}, true
		}
		return UniqueViolation{}, false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlDuplicateEntry {
			return UniqueViolation{Constraint: mysqlKeyName(myErr.Message), Message: myErr.Message}, true
		}
		return UniqueViolation{}, false
	}

	msg := strings.ToLower(err.Error())
	if _, cols, found := strings.Cut(err.Error(), sqliteUniqueFailed); found {
		cols, _, _ = strings.Cut(strings.TrimSpace(cols), " (")
		return UniqueViolation{Constraint: cols, Message: err.Error()}, true
	}
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, pgUniqueViolation) {
		return UniqueViolation{Message: err.Error()}, true
	}
	return UniqueViolation{}, false
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	_, ok := AsUniqueViolation(err)
	return ok
}

// mysqlKeyName extracts the key from "Duplicate entry 'x' for key 'products.name'".
func mysqlKeyName(msg string) string {
	idx := strings.LastIndex(msg, "for key '")
	if idx < 0 {
		return ""
	}
	rest := msg[idx+len("for key '"):]
	return strings.TrimSuffix(rest, "'")
}

// RequireAffected returns notFound when res reports that no row was touched.
func RequireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
