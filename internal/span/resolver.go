package span

import (
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"rustmsg/internal/rustc"
)

// externalMacroMarker appears in span file names that point into a macro
// expansion instead of a real file ("<println macros>").
const externalMacroMarker = "macros>"

// pathCacheSize bounds the realpath cache. Одного запуска cargo хватает
// с большим запасом.
const pathCacheSize = 512

// IsExternalMacro reports whether the file name denotes a macro-expansion
// pseudo-file with no local source to point at.
func IsExternalMacro(fileName string) bool {
	return strings.Contains(fileName, externalMacroMarker)
}

// Root walks the macro-expansion chain to the span where the outermost macro
// was invoked. It returns the root span together with the deepest expansion
// record (the one whose Span is the root), or nil when sp has no expansion.
// Chains are acyclic by construction, so the walk always terminates.
func Root(sp *rustc.Span) (*rustc.Span, *rustc.Expansion) {
	var exp *rustc.Expansion
	for sp != nil && sp.Expansion != nil && sp.Expansion.Span != nil {
		exp = sp.Expansion
		sp = sp.Expansion.Span
	}
	return sp, exp
}

// Resolver maps raw span file names onto absolute, symlink-resolved paths
// relative to the base directory of a compiler run.
type Resolver struct {
	base string
	real *lru.Cache[string, string]
}

// NewResolver creates a resolver rooted at base (the cwd the compiler ran in).
func NewResolver(base string) *Resolver {
	cache, err := lru.New[string, string](pathCacheSize)
	if err != nil {
		// lru.New fails only for non-positive sizes
		panic(err)
	}
	return &Resolver{base: base, real: cache}
}

// Path resolves a span file name into an absolute path. Symlinks are resolved
// so that entries for the same file always share one index key; resolution
// failures (file gone, virtual name) fall back to the cleaned join.
func (r *Resolver) Path(fileName string) string {
	if cached, ok := r.real.Get(fileName); ok {
		return cached
	}
	p := fileName
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.base, p)
	}
	p = filepath.Clean(p)
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	r.real.Add(fileName, p)
	return p
}

// RegionOf converts the 1-based line/column pair of a span into a 0-based
// half-open region. Spans without line information yield nil.
func RegionOf(sp *rustc.Span) *Region {
	if sp == nil || sp.LineStart == 0 {
		return nil
	}
	return &Region{
		Start: Point{Line: clampU32(sp.LineStart - 1), Col: clampU32(sp.ColumnStart - 1)},
		End:   Point{Line: clampU32(sp.LineEnd - 1), Col: clampU32(sp.ColumnEnd - 1)},
	}
}

// Resolve maps a span onto its resolved path and region without walking
// expansion chains.
func (r *Resolver) Resolve(sp *rustc.Span) (string, *Region) {
	return r.Path(sp.FileName), RegionOf(sp)
}

// Resolved couples the location of a chain's root span with the content
// carried on the leaf span that started the walk.
type Resolved struct {
	Path   string
	Region *Region

	// Content flags copied from the leaf: what the diagnostic says.
	IsPrimary            bool
	Label                *string
	SuggestedReplacement *string

	// External is set when even the root points into an external-crate macro,
	// i.e. there is no local source to anchor at.
	External  bool
	MacroName string
}

// ResolveChain resolves a span through its macro-expansion chain: location
// comes from the root span ("where did this come from"), label and
// replacement come from the leaf ("what does it say").
func (r *Resolver) ResolveChain(sp *rustc.Span) Resolved {
	root, _ := Root(sp)
	out := Resolved{
		IsPrimary:            sp.IsPrimary,
		Label:                sp.Label,
		SuggestedReplacement: sp.SuggestedReplacement,
	}
	if root == nil {
		root = sp
	}
	if IsExternalMacro(root.FileName) {
		out.External = true
		out.MacroName = root.FileName
		return out
	}
	out.Path, out.Region = r.Resolve(root)
	return out
}
