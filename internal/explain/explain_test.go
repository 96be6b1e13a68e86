package explain

import (
	"os"
	"path/filepath"
	"testing"
)

func TestObserveAndKnown(t *testing.T) {
	r := NewRegistry()
	if r.Known("E0308") {
		t.Fatal("fresh registry must know nothing")
	}

	r.Observe("E0308", true)
	if !r.Known("E0308") {
		t.Fatal("observed code must be known")
	}

	// Отрицательные наблюдения не затирают положительные
	r.Observe("E0308", false)
	if !r.Known("E0308") {
		t.Fatal("negative observation must not forget the code")
	}

	r.Observe("", true)
	if r.Known("") {
		t.Fatal("empty code must never be recorded")
	}
}

func TestRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	r, err := Open("rustmsg-test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.Observe("E0308", true)
	r.Observe("E0502", true)
	if err := r.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := Open("rustmsg-test")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !again.Known("E0308") || !again.Known("E0502") {
		t.Error("codes lost across save/load")
	}
	if again.Known("E9999") {
		t.Error("unknown code reported as known")
	}
}

func TestSaveSkipsWhenClean(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	r, err := Open("rustmsg-test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Без наблюдений файл не создаётся
	if _, err := os.Stat(filepath.Join(os.Getenv("XDG_CACHE_HOME"), "rustmsg-test", cacheFileName)); err == nil {
		t.Error("clean registry must not write a cache file")
	}
}

func TestCorruptCacheStartsFresh(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir := filepath.Join(base, "rustmsg-test")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, cacheFileName), []byte("not msgpack at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Open("rustmsg-test")
	if err != nil {
		t.Fatalf("corrupt cache must not fail Open: %v", err)
	}
	if r.Known("E0308") {
		t.Error("corrupt cache must start empty")
	}
}

func TestInMemorySaveIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Observe("E0308", true)
	if err := r.Save(); err != nil {
		t.Fatalf("in-memory save must be a no-op, got %v", err)
	}
}
