package errors

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

var queryErrors = []error{
	gorm.ErrInvalidTransaction,
	gorm.ErrNotImplemented,
	gorm.ErrMissingWhereClause,
	gorm.ErrUnsupportedRelation,
	gorm.ErrPrimaryKeyRequired,
	gorm.ErrModelValueRequired,
	gorm.ErrModelAccessibleFieldsRequired,
	gorm.ErrSubQueryRequired,
	gorm.ErrInvalidData,
	gorm.ErrUnsupportedDriver,
	gorm.ErrRegistered,
	gorm.ErrInvalidField,
	gorm.ErrEmptySlice,
	gorm.ErrDryRunModeUnsupported,
	gorm.ErrInvalidDB,
	gorm.ErrInvalidValue,
	gorm.ErrInvalidValueOfLength,
	gorm.ErrPreloadNotAllowed,
	gorm.ErrDuplicatedKey,
	gorm.ErrForeignKeyViolated,
	gorm.ErrCheckConstraintViolated,
	sql.ErrTxDone,
}

// Classify maps err onto a Kind. Application errors keep their own kind;
// library errors are recognised by type.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var apiErr *APIError
	if pkgerrors.As(err, &apiErr) {
		return apiErr.Kind
	}

	var validationErrs validator.ValidationErrors
	if pkgerrors.As(err, &validationErrs) {
		return KindValidation
	}

	if pkgerrors.Is(err, gorm.ErrRecordNotFound) || pkgerrors.Is(err, sql.ErrNoRows) {
		return KindRecordNotFound
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if pkgerrors.As(err, &syntaxErr) || pkgerrors.As(err, &typeErr) ||
		pkgerrors.Is(err, io.EOF) || pkgerrors.Is(err, io.ErrUnexpectedEOF) {
		return KindBadRequest
	}

	var mysqlErr *mysql.MySQLError
	var pgErr *pgconn.PgError
	var sqliteErr sqlite3.Error
	if pkgerrors.As(err, &mysqlErr) || pkgerrors.As(err, &pgErr) || pkgerrors.As(err, &sqliteErr) ||
		pkgerrors.Is(err, driver.ErrBadConn) || pkgerrors.Is(err, sql.ErrConnDone) {
		return KindDatabaseDriver
	}

	for _, target := range queryErrors {
		if pkgerrors.Is(err, target) {
			return KindQuery
		}
	}

	return KindUnknown
}
