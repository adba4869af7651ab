package table

import "github.com/SimonWaldherr/minirel/internal/pager"

// Cursor is a positional handle into a table's leaves: a page number, a cell
// index within that page, and a flag marking "one past the last cell". It is
// a value type produced fresh by Find or Start for each high-level
// operation and is not expected to survive a concurrent mutation of the
// tree (spec §4.4 / §9).
type Cursor struct {
	table      *Table
	PageNum    pager.PageID
	CellNum    uint32
	EndOfTable bool
}

// Value returns the RowSize-byte slice the cursor currently points at.
// Precondition: !cursor.EndOfTable.
func (c *Cursor) Value() ([]byte, error) {
	node, err := c.table.Pager.GetPage(c.PageNum)
	if err != nil {
		return nil, err
	}
	return pager.LeafNodeValue(node, c.CellNum), nil
}

// Advance moves the cursor to the next cell, following LeafNodeNextLeaf onto
// the following leaf once the current one is exhausted. EndOfTable is set
// only once the sibling pointer is the 0 sentinel (page 0 is always the
// root, so it can never be a right sibling), matching the reference's
// next-leaf chain laid down by leafSplitAndInsert.
func (c *Cursor) Advance() error {
	node, err := c.table.Pager.GetPage(c.PageNum)
	if err != nil {
		return err
	}

	c.CellNum++
	if c.CellNum >= pager.LeafNodeNumCells(node) {
		next := pager.LeafNodeNextLeaf(node)
		if next == 0 {
			c.EndOfTable = true
			return nil
		}
		c.PageNum = next
		c.CellNum = 0
	}

	return nil
}
