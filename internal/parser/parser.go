// Package parser turns a line of REPL input into a typed Statement. It is an
// external collaborator to the storage engine (spec §1): it knows nothing
// about pages or B+ trees, only how to read `insert <id> <username> <email>`
// and `select`.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SimonWaldherr/minirel/internal/pager"
)

// StatementType distinguishes the two supported statement shapes.
type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
)

// Statement is a parsed, validated command ready for execution.
type Statement struct {
	Type        StatementType
	RowToInsert pager.Row
}

var (
	// ErrSyntax covers malformed statements: missing fields, unparsable ids.
	ErrSyntax = errors.New("syntax error; could not parse statement")

	// ErrNegativeID is returned when an insert's id is negative.
	ErrNegativeID = errors.New("id must be positive")

	// ErrUnrecognizedStatement covers any leading keyword other than
	// "insert" or "select".
	ErrUnrecognizedStatement = errors.New("unrecognized keyword at start of statement")
)

// Parse tokenizes and validates input, returning the Statement to execute.
// Every error it returns is recoverable: ErrStringTooLong (from the pager
// package), ErrNegativeID, ErrSyntax and ErrUnrecognizedStatement; the REPL
// reports them and continues (spec §7).
func Parse(input string) (Statement, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Statement{}, fmt.Errorf("%w: empty input", ErrUnrecognizedStatement)
	}

	switch fields[0] {
	case "insert":
		return parseInsert(fields)
	case "select":
		return Statement{Type: StatementSelect}, nil
	default:
		return Statement{}, fmt.Errorf("%w '%s'", ErrUnrecognizedStatement, fields[0])
	}
}

func parseInsert(fields []string) (Statement, error) {
	if len(fields) < 4 {
		return Statement{}, ErrSyntax
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return Statement{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if id < 0 {
		return Statement{}, ErrNegativeID
	}

	row, err := pager.NewRow(uint32(id), fields[2], fields[3])
	if err != nil {
		return Statement{}, err
	}

	return Statement{Type: StatementInsert, RowToInsert: row}, nil
}
