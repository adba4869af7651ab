package pager

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	if err := os.WriteFile(path, make([]byte, PageSize+1), 0644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("expected ErrCorruptFile for a partial-page file")
	}
}

func TestPager_GetPageOutOfRange(t *testing.T) {
	p := openTempPager(t)
	if _, err := p.GetPage(TableMaxPages); err == nil {
		t.Fatal("expected ErrPageOutOfRange")
	}
}

func TestPager_FlushUnloadedIsError(t *testing.T) {
	p := openTempPager(t)
	if err := p.Flush(5); err == nil {
		t.Fatal("expected error flushing an unloaded page")
	}
}

func TestPager_AllocateAndRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.db")

	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	pageNum := p.AllocatePage()
	buf, err := p.GetPage(pageNum)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	copy(buf, []byte("hello page"))

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer p2.Close()

	buf2, err := p2.GetPage(pageNum)
	if err != nil {
		t.Fatalf("GetPage after reopen: %v", err)
	}
	if string(buf2[:10]) != "hello page" {
		t.Fatalf("got %q, want %q", buf2[:10], "hello page")
	}
}

func openTempPager(t *testing.T) *Pager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	p, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}
