package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SimonWaldherr/minirel/internal/pager"
)

func mustRow(t *testing.T, id uint32, username, email string) pager.Row {
	t.Helper()
	row, err := pager.NewRow(id, username, email)
	if err != nil {
		t.Fatalf("NewRow(%d): %v", id, err)
	}
	return row
}

func collect(t *testing.T, tbl *Table) []pager.Row {
	t.Helper()
	var rows []pager.Row
	if err := tbl.Each(func(r pager.Row) error {
		rows = append(rows, r)
		return nil
	}); err != nil {
		t.Fatalf("Each: %v", err)
	}
	return rows
}

// E1 — single insert + select returns the inserted row.
func TestTable_SingleInsertAndSelect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e1.db")
	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tbl.Close()

	if err := tbl.Insert(mustRow(t, 1, "user1", "person1@example.com")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows := collect(t, tbl)
	if len(rows) != 1 || rows[0].ID != 1 || rows[0].Username != "user1" {
		t.Fatalf("got %+v, want single row id=1", rows)
	}
}

// E2 — closing and reopening reproduces the same select output.
func TestTable_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e2.db")

	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tbl.Insert(mustRow(t, 1, "user1", "person1@example.com")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	rows := collect(t, reopened)
	if len(rows) != 1 || rows[0].ID != 1 || rows[0].Email != "person1@example.com" {
		t.Fatalf("got %+v after reopen, want the row inserted before close", rows)
	}
}

// E3 — max-length strings round-trip exactly.
func TestTable_MaxLengthStringsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e3.db")
	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tbl.Close()

	username := strings.Repeat("u", pager.MaxUsernameLen)
	email := strings.Repeat("e", pager.MaxEmailLen)

	if err := tbl.Insert(mustRow(t, 1, username, email)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows := collect(t, tbl)
	if len(rows) != 1 || rows[0].Username != username || rows[0].Email != email {
		t.Fatalf("max-length roundtrip mismatch: %+v", rows)
	}

	if _, err := pager.NewRow(2, username+"x", email); !errors.Is(err, pager.ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong for oversized username, got %v", err)
	}
}

// E5 — duplicate key insert is rejected and leaves the tree unchanged.
func TestTable_DuplicateKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e5.db")
	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tbl.Close()

	if err := tbl.Insert(mustRow(t, 1, "a", "a")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err = tbl.Insert(mustRow(t, 1, "b", "b"))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("second insert: got %v, want ErrDuplicateKey", err)
	}

	rows := collect(t, tbl)
	if len(rows) != 1 || rows[0].Username != "a" {
		t.Fatalf("got %+v, want the original row for id=1 unchanged", rows)
	}
}

// E6 — inserting keys 1..14 in order forces a leaf split into an internal
// root with two size-7 leaf children, separator key 7, exactly per spec §8.
func TestTable_LeafSplitPromotesInternalRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e6.db")
	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tbl.Close()

	for id := uint32(1); id <= 14; id++ {
		row := mustRow(t, id, fmt.Sprintf("user%d", id), fmt.Sprintf("person%d@example.com", id))
		if err := tbl.Insert(row); err != nil {
			t.Fatalf("insert %d: %v", id, err)
		}
	}

	root, err := tbl.Pager.GetPage(tbl.RootPageNum)
	if err != nil {
		t.Fatalf("GetPage(root): %v", err)
	}
	if pager.GetNodeType(root) != pager.NodeInternal {
		t.Fatal("expected root to become an internal node after the 14th insert")
	}
	if pager.InternalNodeNumKeys(root) != 1 {
		t.Fatalf("root num_keys = %d, want 1", pager.InternalNodeNumKeys(root))
	}
	if pager.InternalNodeKey(root, 0) != 7 {
		t.Fatalf("root separator key = %d, want 7", pager.InternalNodeKey(root, 0))
	}

	left, err := tbl.Pager.GetPage(pager.InternalNodeChild(root, 0))
	if err != nil {
		t.Fatalf("GetPage(left): %v", err)
	}
	right, err := tbl.Pager.GetPage(pager.InternalNodeRightChild(root))
	if err != nil {
		t.Fatalf("GetPage(right): %v", err)
	}
	if pager.LeafNodeNumCells(left) != 7 || pager.LeafNodeNumCells(right) != 7 {
		t.Fatalf("leaf sizes = %d/%d, want 7/7", pager.LeafNodeNumCells(left), pager.LeafNodeNumCells(right))
	}

	// Keys strictly increasing within each leaf (invariant 4, spec §8).
	for i := uint32(0); i+1 < 7; i++ {
		if pager.LeafNodeKey(left, i) >= pager.LeafNodeKey(left, i+1) {
			t.Fatalf("left leaf keys not strictly increasing at %d", i)
		}
		if pager.LeafNodeKey(right, i) >= pager.LeafNodeKey(right, i+1) {
			t.Fatalf("right leaf keys not strictly increasing at %d", i)
		}
	}
	if pager.GetNodeMaxKey(left) != pager.InternalNodeKey(root, 0) {
		t.Fatalf("left subtree max key %d != separator key %d", pager.GetNodeMaxKey(left), pager.InternalNodeKey(root, 0))
	}

	// A select after the split still returns all 14 rows in ascending id
	// order, not just the first leaf's 7.
	rows := collect(t, tbl)
	if len(rows) != 14 {
		t.Fatalf("got %d rows after split, want 14", len(rows))
	}
	for i, row := range rows {
		wantID := uint32(i + 1)
		if row.ID != wantID {
			t.Fatalf("rows[%d].ID = %d, want %d (ascending order across leaves)", i, row.ID, wantID)
		}
	}
}

// Property #1 — after any sequence of inserts and a subsequent full select,
// the output is the inserted rows ordered by ascending id. Exercised here
// past the single-leaf capacity (13) and in non-sequential insert order, so
// the scan must cross the leaf split introduced by the reshuffled inserts.
// The id set is kept at exactly 14 (one root split, two size-7 leaves) since
// a second, non-root split is a separately-tracked unimplemented path (see
// errParentUpdateUnimplemented), not what this test is checking.
func TestTable_SelectOrderedAscendingAcrossSplits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "property1.db")
	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tbl.Close()

	ids := []uint32{9, 3, 12, 1, 7, 14, 4, 10, 2, 8, 13, 5, 11, 6}
	for _, id := range ids {
		row := mustRow(t, id, fmt.Sprintf("user%d", id), fmt.Sprintf("person%d@example.com", id))
		if err := tbl.Insert(row); err != nil {
			t.Fatalf("insert %d: %v", id, err)
		}
	}

	rows := collect(t, tbl)
	if len(rows) != len(ids) {
		t.Fatalf("got %d rows, want %d", len(rows), len(ids))
	}
	for i, row := range rows {
		wantID := uint32(i + 1)
		if row.ID != wantID {
			t.Fatalf("rows[%d].ID = %d, want %d", i, row.ID, wantID)
		}
	}
}

func TestTable_FindIsInsertionPoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "find.db")
	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tbl.Close()

	for _, id := range []uint32{10, 20, 30} {
		if err := tbl.Insert(mustRow(t, id, "u", "e")); err != nil {
			t.Fatalf("insert %d: %v", id, err)
		}
	}

	cursor, err := tbl.Find(25)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if cursor.CellNum != 2 {
		t.Fatalf("insertion index for 25 = %d, want 2 (between 20 and 30)", cursor.CellNum)
	}

	exact, err := tbl.Find(20)
	if err != nil {
		t.Fatalf("Find(20): %v", err)
	}
	if exact.CellNum != 1 {
		t.Fatalf("index for exact key 20 = %d, want 1", exact.CellNum)
	}
}
