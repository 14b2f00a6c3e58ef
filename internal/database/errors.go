package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrForeignKey      = errors.New("foreign key constraint failed")
	ErrUniqueViolation = errors.New("unique constraint violated")
	ErrNotNull         = errors.New("not null constraint failed")
	ErrCheckConstraint = errors.New("check constraint failed")
)

// ConstraintError is a driver error mapped to one of the sentinel errors
// above. Table and Column are set when the driver names them.
type ConstraintError struct {
	Table  string
	Column string
	Cause  error
	Err    error
}

func (e *ConstraintError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%v: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("%v on %s.%s", e.Cause, e.Table, e.Column)
}

func (e *ConstraintError) Unwrap() error {
	return e.Cause
}

var (
	fkPattern     = regexp.MustCompile(`FOREIGN KEY constraint failed`)
	uniquePattern = regexp.MustCompile(`UNIQUE constraint failed: ([^\s,]+)`)
	notNullRegex  = regexp.MustCompile(`NOT NULL constraint failed: ([^\s]+)`)
	checkRegex    = regexp.MustCompile(`CHECK constraint failed`)
)

// ClassifyError maps SQLite constraint failures onto the sentinel errors.
// Other errors are returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()

	switch {
	case fkPattern.MatchString(msg):
		return &ConstraintError{Cause: ErrForeignKey, Err: err}
	case checkRegex.MatchString(msg):
		return &ConstraintError{Cause: ErrCheckConstraint, Err: err}
	}

	if m := uniquePattern.FindStringSubmatch(msg); len(m) == 2 {
		return withColumn(&ConstraintError{Cause: ErrUniqueViolation, Err: err}, m[1])
	}
	if m := notNullRegex.FindStringSubmatch(msg); len(m) == 2 {
		return withColumn(&ConstraintError{Cause: ErrNotNull, Err: err}, m[1])
	}

	return err
}

func withColumn(ce *ConstraintError, qualified string) *ConstraintError {
	if table, column, ok := strings.Cut(qualified, "."); ok {
		ce.Table = table
		ce.Column = column
	}
	return ce
}

func IsUniqueError(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}
