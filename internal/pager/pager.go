package pager

import (
	"fmt"
	"io"
	"os"
)

// ───────────────────────────────────────────────────────────────────────────
// Pager
// ───────────────────────────────────────────────────────────────────────────
//
// The Pager owns the database file descriptor and a fixed-size array of page
// buffers. Pages are loaded lazily on first access and kept in memory until
// Close flushes them back to disk; there is no eviction and no dirty-bit
// tracking, since every loaded page is assumed to be a candidate write.

// Pager maps page numbers to mutable PageSize-byte buffers, reading from and
// writing to a single backing file.
type Pager struct {
	file     *os.File
	fileLen  int64
	numPages uint32
	pages    [TableMaxPages][]byte
}

// Open opens or creates the database file at path. It fails with
// ErrCorruptFile if the file length is not a whole multiple of PageSize.
func Open(path string) (*Pager, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open db file: %w", err)
	}

	fileLen, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("seek db file: %w", err)
	}

	if fileLen%PageSize != 0 {
		file.Close()
		return nil, ErrCorruptFile
	}

	return &Pager{
		file:     file,
		fileLen:  fileLen,
		numPages: uint32(fileLen / PageSize),
	}, nil
}

// NumPages reports how many pages are known to exist, including pages
// allocated in memory but not yet flushed.
func (p *Pager) NumPages() uint32 { return p.numPages }

// GetPage returns the mutable PageSize-byte buffer for pageNum, loading it
// from disk on first access. A page number past the current tail of the file
// extends NumPages and returns a zeroed buffer.
func (p *Pager) GetPage(pageNum PageID) ([]byte, error) {
	if pageNum >= TableMaxPages {
		return nil, outOfRangeError(pageNum)
	}

	if p.pages[pageNum] == nil {
		page := make([]byte, PageSize)

		if int64(pageNum) < p.fileLen/PageSize {
			if _, err := p.file.ReadAt(page, int64(pageNum)*PageSize); err != nil && err != io.EOF {
				return nil, fmt.Errorf("read page %d: %w", pageNum, err)
			}
		}

		p.pages[pageNum] = page

		if uint32(pageNum) >= p.numPages {
			p.numPages = uint32(pageNum) + 1
		}
	}

	return p.pages[pageNum], nil
}

// AllocatePage returns the next unused page number at the tail of the file.
// It does not materialize a buffer; the following GetPage call does that.
func (p *Pager) AllocatePage() PageID {
	return PageID(p.numPages)
}

// Flush writes the full PageSize-byte buffer for pageNum to disk at its
// offset. Flushing a page that was never loaded is a programmer error.
func (p *Pager) Flush(pageNum PageID) error {
	if p.pages[pageNum] == nil {
		return ErrFlushUnloaded
	}

	if _, err := p.file.WriteAt(p.pages[pageNum], int64(pageNum)*PageSize); err != nil {
		return fmt.Errorf("write page %d: %w", pageNum, err)
	}

	return nil
}

// Close flushes every loaded page and closes the underlying file. It is
// fatal to the caller's process if either step fails, per the engine's
// durability contract: writes are buffered until Close, so a failed flush
// loses data silently if ignored.
func (p *Pager) Close() error {
	for i := PageID(0); i < PageID(p.numPages); i++ {
		if p.pages[i] == nil {
			continue
		}
		if err := p.Flush(i); err != nil {
			return err
		}
		p.pages[i] = nil
	}

	if err := p.file.Close(); err != nil {
		return fmt.Errorf("close db file: %w", err)
	}

	return nil
}

// CacheStats reports how many of the TableMaxPages slots currently hold a
// loaded buffer, for the .dump meta-command's introspection output.
type CacheStats struct {
	LoadedPages int
	TotalPages  uint32
	PageSize    int
}

// Stats returns a snapshot of the pager's current cache occupancy.
func (p *Pager) Stats() CacheStats {
	loaded := 0
	for i := range p.pages {
		if p.pages[i] != nil {
			loaded++
		}
	}
	return CacheStats{LoadedPages: loaded, TotalPages: p.numPages, PageSize: PageSize}
}
