// Package table implements the B+ tree search, insertion, and split
// algorithm on top of the page-level primitives in internal/pager. It is the
// storage engine's public surface: callers open a Table, Insert rows, and
// iterate them with Each.
package table

import (
	"errors"
	"fmt"

	"github.com/SimonWaldherr/minirel/internal/pager"
)

// ErrDuplicateKey is returned by Insert when a row with the same ID already
// exists. The tree is left bytewise unchanged.
var ErrDuplicateKey = errors.New("duplicate key")

// errParentUpdateUnimplemented is the fatal condition spec §4.3/§9 names:
// updating a non-root internal parent after a leaf split is out of scope.
// It is reached whenever a full leaf other than the root must split: after
// the first root split, that is any child leaf of the root (for ascending
// ids, the 21st insert). Insert returns it before modifying any page. The
// engine's test suite does not drive this path.
var errParentUpdateUnimplemented = errors.New("updating a non-root parent after split is not implemented")

// Table is the open handle to a minirel database file: a Pager plus the page
// number of the B+ tree root, which is always 0 once the file has been
// opened.
type Table struct {
	Pager       *pager.Pager
	RootPageNum pager.PageID
}

// Open opens or creates the database file at path, initializing page 0 as an
// empty leaf root if the file is new.
func Open(path string) (*Table, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}

	t := &Table{Pager: p, RootPageNum: 0}

	if p.NumPages() == 0 {
		root, err := p.GetPage(0)
		if err != nil {
			return nil, err
		}
		pager.InitializeLeafNode(root)
		pager.SetNodeRoot(root, true)
	}

	return t, nil
}

// Close flushes every cached page to disk and closes the backing file.
func (t *Table) Close() error {
	return t.Pager.Close()
}

// Start returns a cursor at the smallest key in the table.
func (t *Table) Start() (*Cursor, error) {
	cursor, err := t.Find(0)
	if err != nil {
		return nil, err
	}

	node, err := t.Pager.GetPage(cursor.PageNum)
	if err != nil {
		return nil, err
	}
	cursor.EndOfTable = pager.LeafNodeNumCells(node) == 0

	return cursor, nil
}

// Find descends the tree for key, returning a cursor at the cell where key
// is located, or where it would be inserted.
func (t *Table) Find(key uint32) (*Cursor, error) {
	root, err := t.Pager.GetPage(t.RootPageNum)
	if err != nil {
		return nil, err
	}

	if pager.GetNodeType(root) == pager.NodeLeaf {
		return t.leafFind(t.RootPageNum, key)
	}
	return t.internalFind(t.RootPageNum, key)
}

// leafFind binary-searches a leaf's cells using the half-open [lo, hi)
// convergence rule: the final lo is the smallest index whose key is >= key,
// which doubles as the insertion point (spec §4.3, §9).
func (t *Table) leafFind(pageNum pager.PageID, key uint32) (*Cursor, error) {
	node, err := t.Pager.GetPage(pageNum)
	if err != nil {
		return nil, err
	}

	numCells := pager.LeafNodeNumCells(node)
	lo, hi := uint32(0), numCells

	for lo != hi {
		mid := (lo + hi) / 2
		midKey := pager.LeafNodeKey(node, mid)
		if key == midKey {
			return &Cursor{table: t, PageNum: pageNum, CellNum: mid}, nil
		}
		if key < midKey {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	return &Cursor{table: t, PageNum: pageNum, CellNum: lo}, nil
}

// internalFind binary-searches an internal node's keys for the smallest
// index i with key(i) >= key, then descends into child(i).
func (t *Table) internalFind(pageNum pager.PageID, key uint32) (*Cursor, error) {
	node, err := t.Pager.GetPage(pageNum)
	if err != nil {
		return nil, err
	}

	numKeys := pager.InternalNodeNumKeys(node)
	lo, hi := uint32(0), numKeys

	for lo != hi {
		mid := (lo + hi) / 2
		if pager.InternalNodeKey(node, mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	childNum := pager.InternalNodeChild(node, lo)
	child, err := t.Pager.GetPage(childNum)
	if err != nil {
		return nil, err
	}

	if pager.GetNodeType(child) == pager.NodeLeaf {
		return t.leafFind(childNum, key)
	}
	return t.internalFind(childNum, key)
}

// Insert adds row under key row.ID. It returns ErrDuplicateKey, unchanged,
// if the key already exists.
func (t *Table) Insert(row pager.Row) error {
	cursor, err := t.Find(row.ID)
	if err != nil {
		return err
	}

	leaf, err := t.Pager.GetPage(cursor.PageNum)
	if err != nil {
		return err
	}

	if cursor.CellNum < pager.LeafNodeNumCells(leaf) {
		if pager.LeafNodeKey(leaf, cursor.CellNum) == row.ID {
			return ErrDuplicateKey
		}
	}

	return t.leafInsert(cursor, row)
}

// Each calls fn with every row in ascending key order, following leaf
// siblings across the whole tree. It stops and returns fn's error if fn
// returns one.
func (t *Table) Each(fn func(pager.Row) error) error {
	cursor, err := t.Start()
	if err != nil {
		return err
	}

	for !cursor.EndOfTable {
		value, err := cursor.Value()
		if err != nil {
			return err
		}

		if err := fn(pager.DeserializeRow(value)); err != nil {
			return err
		}

		if err := cursor.Advance(); err != nil {
			return err
		}
	}

	return nil
}

// leafInsert places row at cursor's cell, shifting later cells right, or
// splits the leaf first if it is already full.
func (t *Table) leafInsert(cursor *Cursor, row pager.Row) error {
	node, err := t.Pager.GetPage(cursor.PageNum)
	if err != nil {
		return err
	}

	numCells := pager.LeafNodeNumCells(node)
	if numCells >= pager.LeafNodeMaxCells {
		return t.leafSplitAndInsert(cursor, row)
	}

	for i := numCells; i > cursor.CellNum; i-- {
		copy(pager.LeafNodeCell(node, i), pager.LeafNodeCell(node, i-1))
	}

	pager.SetLeafNodeNumCells(node, numCells+1)
	pager.SetLeafNodeKey(node, cursor.CellNum, row.ID)
	pager.SerializeRow(row, pager.LeafNodeValue(node, cursor.CellNum))

	return nil
}

// leafSplitAndInsert splits an overfull leaf L into L and a new right
// sibling R, distributing L's existing cells plus the one being inserted
// between them, then promotes a separator key to the parent (spec §4.3).
// Only a root leaf can be split; for any other leaf it returns
// errParentUpdateUnimplemented without touching any page.
func (t *Table) leafSplitAndInsert(cursor *Cursor, row pager.Row) error {
	oldNode, err := t.Pager.GetPage(cursor.PageNum)
	if err != nil {
		return err
	}

	if !pager.IsNodeRoot(oldNode) {
		return fmt.Errorf("%w (page %d)", errParentUpdateUnimplemented, cursor.PageNum)
	}

	newPageNum := t.Pager.AllocatePage()
	newNode, err := t.Pager.GetPage(newPageNum)
	if err != nil {
		return err
	}

	pager.InitializeLeafNode(newNode)
	pager.SetNodeParent(newNode, pager.NodeParent(oldNode))
	pager.SetLeafNodeNextLeaf(newNode, pager.LeafNodeNextLeaf(oldNode))
	pager.SetLeafNodeNextLeaf(oldNode, newPageNum)

	var serializedRow [pager.RowSize]byte
	pager.SerializeRow(row, serializedRow[:])

	for i := int(pager.LeafNodeMaxCells); i >= 0; i-- {
		var destNode []byte
		if i >= pager.LeafNodeLeftSplitCount {
			destNode = newNode
		} else {
			destNode = oldNode
		}
		destIdx := uint32(i) % uint32(pager.LeafNodeLeftSplitCount)
		dest := pager.LeafNodeCell(destNode, destIdx)

		switch {
		case i == int(cursor.CellNum):
			pager.SetLeafNodeKey(destNode, destIdx, row.ID)
			copy(pager.LeafNodeValue(destNode, destIdx), serializedRow[:])
		case i > int(cursor.CellNum):
			copy(dest, pager.LeafNodeCell(oldNode, uint32(i-1)))
		default:
			copy(dest, pager.LeafNodeCell(oldNode, uint32(i)))
		}
	}

	pager.SetLeafNodeNumCells(oldNode, uint32(pager.LeafNodeLeftSplitCount))
	pager.SetLeafNodeNumCells(newNode, uint32(pager.LeafNodeRightSplitCount))

	return t.createNewRoot(newPageNum)
}

// createNewRoot re-homes the current root's contents into a new left-child
// page, then re-initializes page 0 as an internal node routing between that
// left child and rightChildPageNum. The root page number never changes.
func (t *Table) createNewRoot(rightChildPageNum pager.PageID) error {
	root, err := t.Pager.GetPage(t.RootPageNum)
	if err != nil {
		return err
	}

	rightChild, err := t.Pager.GetPage(rightChildPageNum)
	if err != nil {
		return err
	}

	leftChildPageNum := t.Pager.AllocatePage()
	leftChild, err := t.Pager.GetPage(leftChildPageNum)
	if err != nil {
		return err
	}

	copy(leftChild, root)
	pager.SetNodeRoot(leftChild, false)

	pager.InitializeInternalNode(root)
	pager.SetNodeRoot(root, true)
	pager.SetInternalNodeNumKeys(root, 1)
	pager.SetInternalNodeChild(root, 0, leftChildPageNum)
	pager.SetInternalNodeKey(root, 0, pager.GetNodeMaxKey(leftChild))
	pager.SetInternalNodeRightChild(root, rightChildPageNum)

	pager.SetNodeParent(leftChild, t.RootPageNum)
	pager.SetNodeParent(rightChild, t.RootPageNum)

	return nil
}
