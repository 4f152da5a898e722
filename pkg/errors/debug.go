package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// DriverDiagnostics is what the database driver reported for the failure.
type DriverDiagnostics struct {
	Driver       string `json:"driver"`
	Code         string `json:"code,omitempty"`
	ExtendedCode string `json:"extended_code,omitempty"`
	Constraint   string `json:"constraint,omitempty"`
	Table        string `json:"table,omitempty"`
	Column       string `json:"column,omitempty"`
	Detail       string `json:"detail,omitempty"`
	Message      string `json:"message,omitempty"`
}

// ErrorDump flattens an error tree for structured logs.
type ErrorDump struct {
	TopMessage string             `json:"top_message"`
	Code       Code               `json:"code,omitempty"`
	Chain      []string           `json:"chain,omitempty"`
	Driver     *DriverDiagnostics `json:"driver,omitempty"`
}

// Dump walks err depth-first, following both single and joined (multierr) wrapping.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}

	stack := []error{err}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", current, current))

		switch wrapped := current.(type) {
		case interface{ Unwrap() []error }:
			children := wrapped.Unwrap()
			for i := len(children) - 1; i >= 0; i-- {
				if children[i] != nil {
					stack = append(stack, children[i])
				}
			}
		case interface{ Unwrap() error }:
			if next := wrapped.Unwrap(); next != nil {
				stack = append(stack, next)
			}
		}
	}

	d.Driver = driverDiagnostics(err)
	return d
}

func driverDiagnostics(err error) *DriverDiagnostics {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &DriverDiagnostics{
			Driver:     "pgx",
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &DriverDiagnostics{
			Driver:     "pq",
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return &DriverDiagnostics{
			Driver:       "sqlite3",
			Code:         liteErr.Code.Error(),
			ExtendedCode: liteErr.ExtendedCode.Error(),
			Message:      liteErr.Error(),
		}
	}
	return nil
}

// Fields renders the dump as logger fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Driver != nil {
		fields["db_driver"] = d.Driver.Driver
		fields["db_code"] = d.Driver.Code
		for key, value := range map[string]string{
			"db_extended_code": d.Driver.ExtendedCode,
			"db_constraint":    d.Driver.Constraint,
			"db_table":         d.Driver.Table,
			"db_column":        d.Driver.Column,
			"db_detail":        d.Driver.Detail,
			"db_message":       d.Driver.Message,
		} {
			if value != "" {
				fields[key] = value
			}
		}
	}
	return fields
}
