// Package repl implements the interactive prompt: line reading, dot-command
// recognition, and the pretty-printers for rows, the tree, and the
// compile-time layout constants. It is an external collaborator to the
// storage engine (spec §1) — everything here calls down into table.Table
// and pager, never the other way around.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SimonWaldherr/minirel/internal/config"
	"github.com/SimonWaldherr/minirel/internal/pager"
	"github.com/SimonWaldherr/minirel/internal/parser"
	"github.com/SimonWaldherr/minirel/internal/table"
)

// REPL drives the read-parse-execute loop against a single open Table.
type REPL struct {
	table *table.Table
	cfg   config.Config
	in    *bufio.Scanner
	out   io.Writer

	interactive bool
}

// New constructs a REPL reading from in and writing to out.
func New(t *table.Table, cfg config.Config, in io.Reader, out io.Writer) *REPL {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 1024), 1024*1024)

	interactive := false
	if f, ok := in.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			interactive = fi.Mode()&os.ModeCharDevice != 0
		}
	}

	return &REPL{table: t, cfg: cfg, in: sc, out: out, interactive: interactive}
}

// Run executes the read-eval-print loop until .exit or end of input. It
// returns nil on a clean .exit; a non-nil error means a fatal storage
// condition reached the top of the call stack and the caller should report
// it and exit non-zero (spec §7).
func (r *REPL) Run() error {
	for {
		if r.interactive {
			fmt.Fprint(r.out, "db > ")
		}

		if !r.in.Scan() {
			return r.in.Err()
		}

		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			exit, err := r.handleMeta(line)
			if err != nil {
				return err
			}
			if exit {
				return nil
			}
			continue
		}

		if err := r.handleStatement(line); err != nil {
			return err
		}
	}
}

func (r *REPL) handleMeta(line string) (exit bool, err error) {
	switch line {
	case ".exit":
		if closeErr := r.table.Close(); closeErr != nil {
			return false, closeErr
		}
		fmt.Fprintln(r.out, "Bye!")
		return true, nil
	case ".btree":
		fmt.Fprintln(r.out, "Tree:")
		if err := r.printTree(r.table.RootPageNum, 0); err != nil {
			return false, err
		}
		return false, nil
	case ".constants":
		fmt.Fprintln(r.out, "Constants:")
		r.printConstants()
		return false, nil
	case ".dump":
		return false, r.dumpYAML()
	default:
		fmt.Fprintf(r.out, "Unrecognized command '%s'\n", line)
		return false, nil
	}
}

func (r *REPL) handleStatement(line string) error {
	stmt, err := parser.Parse(line)
	if err != nil {
		fmt.Fprintln(r.out, statementErrorMessage(err))
		return nil
	}

	switch stmt.Type {
	case parser.StatementInsert:
		switch err := r.table.Insert(stmt.RowToInsert); {
		case err == nil:
			fmt.Fprintln(r.out, "Executed.")
		case errors.Is(err, table.ErrDuplicateKey):
			fmt.Fprintln(r.out, "Error: Duplicate Key.")
		default:
			return err
		}
	case parser.StatementSelect:
		err := r.table.Each(func(row pager.Row) error {
			printRow(r.out, row)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, "Executed.")
	}
	return nil
}

func statementErrorMessage(err error) string {
	switch {
	case errors.Is(err, parser.ErrNegativeID):
		return "ID must be positive."
	case errors.Is(err, pager.ErrStringTooLong):
		return "String is too long."
	case errors.Is(err, parser.ErrSyntax):
		return "Syntax error. Could not parse statement."
	case errors.Is(err, parser.ErrUnrecognizedStatement):
		return fmt.Sprintf("Unrecognized keyword: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func printRow(out io.Writer, row pager.Row) {
	fmt.Fprintf(out, "(%d, %s, %s)\n", row.ID, row.Username, row.Email)
}

func (r *REPL) printConstants() {
	fmt.Fprintf(r.out, "ROW_SIZE: %d\n", pager.RowSize)
	fmt.Fprintf(r.out, "COMMON_NODE_HEADER_SIZE: %d\n", pager.CommonNodeHeaderSize)
	fmt.Fprintf(r.out, "LEAF_NODE_HEADER_SIZE: %d\n", pager.LeafNodeHeaderSize)
	fmt.Fprintf(r.out, "LEAF_NODE_CELL_SIZE: %d\n", pager.LeafNodeCellSize)
	fmt.Fprintf(r.out, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", pager.LeafNodeSpaceForCells)
	fmt.Fprintf(r.out, "LEAF_NODE_MAX_CELLS: %d\n", pager.LeafNodeMaxCells)
}

func (r *REPL) printTree(pageNum pager.PageID, indent uint32) error {
	node, err := r.table.Pager.GetPage(pageNum)
	if err != nil {
		return err
	}

	switch pager.GetNodeType(node) {
	case pager.NodeLeaf:
		numCells := pager.LeafNodeNumCells(node)
		fmt.Fprintf(r.out, "%s- leaf (size %d)\n", strings.Repeat("  ", int(indent)), numCells)
		for i := uint32(0); i < numCells; i++ {
			fmt.Fprintf(r.out, "%s  - %d\n", strings.Repeat("  ", int(indent)), pager.LeafNodeKey(node, i))
		}
	case pager.NodeInternal:
		numKeys := pager.InternalNodeNumKeys(node)
		fmt.Fprintf(r.out, "%s- internal (size %d)\n", strings.Repeat("  ", int(indent)), numKeys)
		for i := uint32(0); i < numKeys; i++ {
			if err := r.printTree(pager.InternalNodeChild(node, i), indent+1); err != nil {
				return err
			}
			fmt.Fprintf(r.out, "%s  - key %d\n", strings.Repeat("  ", int(indent)), pager.InternalNodeKey(node, i))
		}
		if err := r.printTree(pager.InternalNodeRightChild(node), indent+1); err != nil {
			return err
		}
	}

	return nil
}
