package span

import (
	"os"
	"path/filepath"
	"testing"

	"rustmsg/internal/rustc"
)

func TestIsExternalMacro(t *testing.T) {
	tests := []struct {
		fileName string
		want     bool
	}{
		{"src/main.rs", false},
		{"<println macros>", true},
		{"<quote macros>", true},
		{"/abs/path/lib.rs", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsExternalMacro(tt.fileName); got != tt.want {
			t.Errorf("IsExternalMacro(%q) = %v, want %v", tt.fileName, got, tt.want)
		}
	}
}

func TestRegionOf(t *testing.T) {
	sp := &rustc.Span{LineStart: 3, LineEnd: 3, ColumnStart: 9, ColumnEnd: 14}
	r := RegionOf(sp)
	if r == nil {
		t.Fatal("expected a region")
	}
	if r.Start.Line != 2 || r.Start.Col != 8 {
		t.Errorf("start = %d:%d, want 2:8", r.Start.Line, r.Start.Col)
	}
	if r.End.Line != 2 || r.End.Col != 13 {
		t.Errorf("end = %d:%d, want 2:13", r.End.Line, r.End.Col)
	}
}

func TestRegionOfNoLineInfo(t *testing.T) {
	if r := RegionOf(&rustc.Span{FileName: "src/main.rs"}); r != nil {
		t.Fatalf("span without line info should have nil region, got %v", r)
	}
	if r := RegionOf(nil); r != nil {
		t.Fatalf("nil span should have nil region, got %v", r)
	}
}

func TestResolverPath(t *testing.T) {
	base := t.TempDir()
	r := NewResolver(base)

	got := r.Path("src/main.rs")
	want := filepath.Join(base, "src", "main.rs")
	if got != want {
		t.Errorf("relative path = %q, want %q", got, want)
	}

	// Абсолютные пути проходят как есть
	abs := filepath.Join(base, "lib.rs")
	if got := r.Path(abs); got != abs {
		t.Errorf("absolute path = %q, want %q", got, abs)
	}

	// Cached lookups return the same answer.
	if again := r.Path("src/main.rs"); again != want {
		t.Errorf("cached path = %q, want %q", again, want)
	}
}

func TestResolverPathSymlink(t *testing.T) {
	base := t.TempDir()
	real := filepath.Join(base, "real.rs")
	if err := os.WriteFile(real, []byte("fn main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "link.rs")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	// TempDir itself may live behind a symlink (macOS /tmp)
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		t.Fatal(err)
	}

	r := NewResolver(base)
	if got := r.Path(link); got != filepath.Join(realBase, "real.rs") {
		t.Errorf("symlinked path = %q, want %q", got, filepath.Join(realBase, "real.rs"))
	}
}

func TestRootWalksExpansionChain(t *testing.T) {
	invocation := &rustc.Span{FileName: "src/main.rs", LineStart: 10, LineEnd: 10, ColumnStart: 5, ColumnEnd: 20}
	middle := &rustc.Span{
		FileName:  "<mac2 macros>",
		LineStart: 1,
		Expansion: &rustc.Expansion{Span: invocation, MacroDeclName: "mac2!"},
	}
	leaf := &rustc.Span{
		FileName:  "<mac1 macros>",
		LineStart: 1,
		Expansion: &rustc.Expansion{Span: middle, MacroDeclName: "mac1!"},
	}

	root, exp := Root(leaf)
	if root != invocation {
		t.Fatalf("root = %v, want the invocation span", root)
	}
	if exp == nil || exp.MacroDeclName != "mac2!" {
		t.Fatalf("deepest expansion = %v, want mac2!", exp)
	}
}

func TestRootWithoutExpansion(t *testing.T) {
	sp := &rustc.Span{FileName: "src/main.rs", LineStart: 1}
	root, exp := Root(sp)
	if root != sp || exp != nil {
		t.Fatalf("plain span must be its own root, got (%v, %v)", root, exp)
	}
}

func TestResolveChain(t *testing.T) {
	base := t.TempDir()
	r := NewResolver(base)

	label := "expected `u32`"
	invocation := &rustc.Span{FileName: "src/main.rs", LineStart: 4, LineEnd: 4, ColumnStart: 1, ColumnEnd: 10}
	leaf := &rustc.Span{
		FileName:  "<assert macros>",
		LineStart: 1,
		IsPrimary: true,
		Label:     &label,
		Expansion: &rustc.Expansion{Span: invocation, MacroDeclName: "assert!"},
	}

	got := r.ResolveChain(leaf)
	if got.External {
		t.Fatal("chain rooted in local source must not be external")
	}
	if got.Path != filepath.Join(base, "src", "main.rs") {
		t.Errorf("path = %q", got.Path)
	}
	if got.Region == nil || got.Region.Start.Line != 3 {
		t.Errorf("region = %v, want line 3", got.Region)
	}
	if !got.IsPrimary || got.Label == nil || *got.Label != label {
		t.Errorf("leaf content lost: primary=%v label=%v", got.IsPrimary, got.Label)
	}
}

func TestResolveChainExternal(t *testing.T) {
	r := NewResolver(t.TempDir())
	leaf := &rustc.Span{FileName: "<format macros>", LineStart: 1}

	got := r.ResolveChain(leaf)
	if !got.External {
		t.Fatal("macro span without a local root must be external")
	}
	if got.MacroName != "<format macros>" {
		t.Errorf("macro name = %q", got.MacroName)
	}
	if got.Path != "" {
		t.Errorf("external chain must not resolve a path, got %q", got.Path)
	}
}
