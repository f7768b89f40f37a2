package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

var (
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnknownUser is returned when a row references a user that no longer exists.
	ErrUnknownUser = errors.New("referenced user does not exist")
)

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func isMissingParent(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlNoReferencedRow
}

type rowScanner func(dest ...interface{}) error
