package testkit

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// AssertEqual fails the test with a unified diff when got differs from want.
// Makes multi-line markup mismatches actually readable.
func AssertEqual(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		t.Fatalf("diff failed: %v\nwant: %q\ngot:  %q", err, want, got)
	}
	t.Errorf("output mismatch:\n%s", diff)
}
