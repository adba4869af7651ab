// Package pager implements the page-based storage layer for minirel: a
// fixed-size page cache backed by a single database file, and the on-disk
// byte layout of B+ tree nodes.
//
// The file is a flat sequence of PageSize pages. Page 0 is always the tree
// root. There is no write-ahead log, no superblock, and no free list: pages
// are allocated monotonically from the tail of the file and nothing is ever
// freed, matching the fixed-schema, no-deletion design this package serves.
package pager

import (
	"errors"
	"fmt"
)

// ───────────────────────────────────────────────────────────────────────────
// Constants
// ───────────────────────────────────────────────────────────────────────────

const (
	// PageSize is the fixed size, in bytes, of every page on disk and in
	// the cache.
	PageSize = 4096

	// TableMaxPages bounds the in-memory page slot array. GetPage rejects
	// any page number at or above it, and since no page is ever evicted,
	// it also caps the file at TableMaxPages pages.
	TableMaxPages = 100
)

// PageID identifies a page by its position in the file. Page 0 is the root.
type PageID uint32

// ───────────────────────────────────────────────────────────────────────────
// Errors
// ───────────────────────────────────────────────────────────────────────────

var (
	// ErrCorruptFile is returned by Open when the file length is not a
	// whole multiple of PageSize.
	ErrCorruptFile = errors.New("db file is not a whole number of pages; corrupt file")

	// ErrPageOutOfRange is returned by GetPage when pageNum >= TableMaxPages.
	ErrPageOutOfRange = errors.New("page number out of bounds")

	// ErrFlushUnloaded is returned by Flush when asked to write a slot
	// that was never loaded into the cache.
	ErrFlushUnloaded = errors.New("tried to flush a page that was never loaded")
)

// outOfRangeError reports which page number exceeded TableMaxPages.
func outOfRangeError(pageNum PageID) error {
	return fmt.Errorf("%w: %d >= %d", ErrPageOutOfRange, pageNum, TableMaxPages)
}
