package fsstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestWriteReadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "films.json")
	in := map[string]string{"Heat": "https://example.com/heat?a=1&b=2"}
	if err := WriteJSON(path, in, FileOptions{}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if strings.Contains(string(raw), `\u0026`) || !strings.Contains(string(raw), `a=1&b=2`) {
		t.Fatalf("link was HTML-escaped: %s", raw)
	}

	var out map[string]string
	ok, err := ReadJSON(path, &out)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if !ok {
		t.Fatal("ReadJSON() exists = false, want true")
	}
	if out["Heat"] != in["Heat"] {
		t.Fatalf("ReadJSON() = %v, want %v", out, in)
	}
}

func TestReadJSONMissingAndBlank(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out map[string]string
	ok, err := ReadJSON(filepath.Join(dir, "absent.json"), &out)
	if err != nil || ok {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}

	blank := filepath.Join(dir, "blank.json")
	if err := os.WriteFile(blank, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err = ReadJSON(blank, &out)
	if err != nil || ok {
		t.Fatalf("blank file: ok=%v err=%v", ok, err)
	}
}

func TestReadJSONMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out map[string]string
	_, err := ReadJSON(path, &out)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("ReadJSON() error = %v, want ErrDecode", err)
	}
}

func TestWriteAtomicEmptyPath(t *testing.T) {
	t.Parallel()

	if err := WriteAtomic("  ", []byte("x"), FileOptions{}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("WriteAtomic() error = %v, want ErrInvalidPath", err)
	}
}

func TestWithLockSerializes(t *testing.T) {
	t.Parallel()

	lockPath := LockPath(filepath.Join(t.TempDir(), "doc.json"))
	var (
		mu      sync.Mutex
		active  int
		overlap bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(context.Background(), lockPath, func() error {
				mu.Lock()
				active++
				if active > 1 {
					overlap = true
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithLock() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if overlap {
		t.Fatal("critical sections overlapped")
	}
}
