package index

import (
	"fmt"
	"testing"

	"rustmsg/internal/diag"
	"rustmsg/internal/span"
	"rustmsg/internal/trace"
)

const sid = SessionID("view-1")

func mkEntry(path string, line uint32, sev diag.Severity, text string) *diag.Entry {
	e := diag.NewEntry()
	e.Path = path
	e.Severity = sev
	e.Text = text
	e.Region = &span.Region{
		Start: span.Point{Line: line, Col: 0},
		End:   span.Point{Line: line, Col: 5},
	}
	return e
}

func mkTree(path string, line uint32, sev diag.Severity, text string) *diag.Tree {
	return diag.NewTreeWith(mkEntry(path, line, sev, text))
}

func TestInsertAndVisible(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)

	tr := diag.NewTreeWith(
		mkEntry("/w/main.rs", 4, diag.SevError, "mismatched types"),
		mkEntry("/w/main.rs", 2, diag.SevNote, "expected due to this"),
	)
	if !x.Insert(sid, gen, tr) {
		t.Fatal("insert failed")
	}

	got := x.Visible(sid, "/w/main.rs")
	if len(got) != 2 {
		t.Fatalf("visible = %d entries, want 2", len(got))
	}
	if got[0].RegionKey != "rust-1" || got[1].RegionKey != "rust-2" {
		t.Errorf("region keys = %q, %q", got[0].RegionKey, got[1].RegionKey)
	}
	if !x.HasPath(sid, "/w/main.rs") || x.HasPath(sid, "/w/other.rs") {
		t.Error("HasPath answers wrong")
	}
}

func TestInsertDeduplicates(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)

	if !x.Insert(sid, gen, mkTree("/w/main.rs", 4, diag.SevError, "boom")) {
		t.Fatal("first insert failed")
	}
	// cargo часто повторяет одну и ту же диагностику за компиляцию
	if x.Insert(sid, gen, mkTree("/w/main.rs", 4, diag.SevError, "boom")) {
		t.Fatal("duplicate tree must be rejected")
	}
	if got := len(x.Visible(sid, "/w/main.rs")); got != 1 {
		t.Fatalf("visible = %d entries, want 1", got)
	}

	// Different text at the same spot is a different diagnostic.
	if !x.Insert(sid, gen, mkTree("/w/main.rs", 4, diag.SevError, "other message")) {
		t.Fatal("distinct tree rejected")
	}
}

func TestInsertStaleGeneration(t *testing.T) {
	x := New(trace.Nop)
	oldGen := x.RunStarted(sid)
	newGen := x.RunStarted(sid)

	if x.Insert(sid, oldGen, mkTree("/w/main.rs", 1, diag.SevError, "late record")) {
		t.Fatal("record from a superseded run must be discarded")
	}
	if !x.Insert(sid, newGen, mkTree("/w/main.rs", 1, diag.SevError, "fresh record")) {
		t.Fatal("current-run record rejected")
	}
}

func TestInsertSkipsUnaddressable(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)

	tr := diag.NewTreeWith(
		mkEntry("/w/main.rs", 1, diag.SevError, "boom"),
		mkEntry("", 0, diag.SevNote, "pathless"),
		mkEntry("/w/<format macros>", 0, diag.SevNote, "macro pseudo-file"),
	)
	if !x.Insert(sid, gen, tr) {
		t.Fatal("insert failed")
	}
	if got := len(x.Visible(sid, "/w/main.rs")); got != 1 {
		t.Fatalf("visible = %d, want only the addressable entry", got)
	}
	if x.HasPath(sid, "/w/<format macros>") {
		t.Error("macro pseudo-path must never become a key")
	}
}

func TestSortOrder(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)

	x.Insert(sid, gen, mkTree("/w/b.rs", 5, diag.SevWarning, "warn b"))
	x.Insert(sid, gen, mkTree("/w/a.rs", 9, diag.SevError, "error a late"))
	x.Insert(sid, gen, mkTree("/w/a.rs", 1, diag.SevError, "error a early"))
	x.Insert(sid, gen, mkTree("/w/a.rs", 2, diag.SevWarning, "warn a"))
	x.RunFinished(sid, gen)

	var got []string
	for _, item := range x.ListAll(sid) {
		got = append(got, item.Label)
	}
	want := []string{"error a early", "error a late", "warn a", "warn b"}
	if len(got) != len(want) {
		t.Fatalf("list = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("list[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Сортировка идемпотентна
	x.Sort(sid)
	var again []string
	for _, item := range x.ListAll(sid) {
		again = append(again, item.Label)
	}
	for i := range want {
		if again[i] != want[i] {
			t.Errorf("after resort list[%d] = %q, want %q", i, again[i], want[i])
		}
	}
}

func TestListAllLocations(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)

	x.Insert(sid, gen, mkTree("/w/main.rs", 4, diag.SevError, "boom"))
	eof := diag.NewEntry()
	eof.Path = "/w/main.rs"
	eof.Severity = diag.SevError
	eof.Text = "main function not found"
	x.Insert(sid, gen, diag.NewTreeWith(eof))

	items := x.ListAll(sid)
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0].Location != "/w/main.rs:5" {
		t.Errorf("location = %q, want 1-based line", items[0].Location)
	}
	if items[1].Location != "/w/main.rs" {
		t.Errorf("end-of-file location = %q, want bare path", items[1].Location)
	}
}

func TestHideCascades(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)

	tr := diag.NewTreeWith(
		mkEntry("/w/main.rs", 4, diag.SevError, "boom"),
		mkEntry("/w/lib.rs", 9, diag.SevNote, "declared here"),
	)
	other := mkTree("/w/main.rs", 20, diag.SevError, "unrelated")
	x.Insert(sid, gen, tr)
	x.Insert(sid, gen, other)

	x.Hide(sid, tr.Primary().ID)

	if got := len(x.Visible(sid, "/w/lib.rs")); got != 0 {
		t.Errorf("children must hide with their primary, %d still visible", got)
	}
	if got := len(x.Visible(sid, "/w/main.rs")); got != 1 {
		t.Errorf("unrelated tree must stay, visible = %d", got)
	}
	// Скрытие — мягкое: записи остаются для снятия оверлеев
	if x.HasPath(sid, "/w/lib.rs") != true {
		t.Error("hidden entries keep their path key")
	}
}

func TestHideChildOnly(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)

	child := mkEntry("/w/main.rs", 9, diag.SevNote, "note")
	tr := diag.NewTreeWith(mkEntry("/w/main.rs", 4, diag.SevError, "boom"), child)
	x.Insert(sid, gen, tr)

	x.Hide(sid, child.ID)

	vis := x.Visible(sid, "/w/main.rs")
	if len(vis) != 1 || !vis[0].Primary {
		t.Fatalf("hiding a child must not touch the primary, visible = %d", len(vis))
	}
}

func TestClearAndCloseSession(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)
	x.Insert(sid, gen, mkTree("/w/main.rs", 1, diag.SevError, "boom"))

	otherGen := x.RunStarted("view-2")
	x.Insert("view-2", otherGen, mkTree("/w/main.rs", 1, diag.SevError, "other session"))

	x.Clear(sid)
	if len(x.Paths(sid)) != 0 {
		t.Error("clear must drop all paths")
	}
	if len(x.Paths("view-2")) != 1 {
		t.Error("clear must not leak into other sessions")
	}
	// Поколение переживает очистку
	if x.Insert(sid, gen, mkTree("/w/main.rs", 2, diag.SevError, "still same run")) != true {
		t.Error("generation must survive a clear")
	}

	x.CloseSession(sid)
	if len(x.Paths(sid)) != 0 {
		t.Error("closed session must be empty")
	}
}

func TestAdvanceNextWraps(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)
	for i := 0; i < 3; i++ {
		x.Insert(sid, gen, mkTree("/w/main.rs", uint32(i*10), diag.SevError, fmt.Sprintf("error %d", i)))
	}
	x.RunFinished(sid, gen)

	var seen []string
	for i := 0; i < 4; i++ {
		e, ok := x.Advance(sid, Next, FilterAll)
		if !ok {
			t.Fatalf("advance %d found nothing", i)
		}
		seen = append(seen, e.Text)
	}
	want := []string{"error 0", "error 1", "error 2", "error 0"}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("advance[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestAdvancePrevFromUnset(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)
	x.Insert(sid, gen, mkTree("/w/main.rs", 1, diag.SevError, "first"))
	x.Insert(sid, gen, mkTree("/w/main.rs", 5, diag.SevError, "last"))
	x.RunFinished(sid, gen)

	e, ok := x.Advance(sid, Prev, FilterAll)
	if !ok || e.Text != "last" {
		t.Fatalf("prev from unset cursor = %v, want the last entry", e)
	}
	e, ok = x.Advance(sid, Prev, FilterAll)
	if !ok || e.Text != "first" {
		t.Fatalf("second prev = %v, want the first entry", e)
	}
	// wrap
	e, ok = x.Advance(sid, Prev, FilterAll)
	if !ok || e.Text != "last" {
		t.Fatalf("wrapped prev = %v, want the last entry", e)
	}
}

func TestAdvanceFilters(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)
	x.Insert(sid, gen, mkTree("/w/main.rs", 1, diag.SevError, "the error"))
	x.Insert(sid, gen, mkTree("/w/main.rs", 5, diag.SevWarning, "the warning"))
	x.RunFinished(sid, gen)

	e, ok := x.Advance(sid, Next, FilterErrors)
	if !ok || e.Text != "the error" {
		t.Fatalf("FilterErrors = %v", e)
	}
	// повторный вызов оборачивается на ту же запись
	e, ok = x.Advance(sid, Next, FilterErrors)
	if !ok || e.Text != "the error" {
		t.Fatalf("FilterErrors wrap = %v", e)
	}

	e, ok = x.Advance(sid, Next, FilterWarnings)
	if !ok || e.Text != "the warning" {
		t.Fatalf("FilterWarnings = %v", e)
	}
}

func TestAdvanceSkipsChildrenAndHidden(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)

	tr := diag.NewTreeWith(
		mkEntry("/w/main.rs", 1, diag.SevError, "boom"),
		mkEntry("/w/main.rs", 2, diag.SevNote, "child note"),
	)
	hidden := mkTree("/w/main.rs", 30, diag.SevError, "hidden one")
	x.Insert(sid, gen, tr)
	x.Insert(sid, gen, hidden)
	x.RunFinished(sid, gen)
	x.Hide(sid, hidden.Primary().ID)

	for i := 0; i < 3; i++ {
		e, ok := x.Advance(sid, Next, FilterAll)
		if !ok {
			t.Fatal("advance found nothing")
		}
		if e.Text != "boom" {
			t.Fatalf("advance landed on %q", e.Text)
		}
	}
}

func TestAdvanceNoMatch(t *testing.T) {
	x := New(trace.Nop)
	gen := x.RunStarted(sid)
	x.Insert(sid, gen, mkTree("/w/main.rs", 1, diag.SevWarning, "only a warning"))
	x.RunFinished(sid, gen)

	if _, ok := x.Advance(sid, Next, FilterErrors); ok {
		t.Fatal("no errors exist, advance must fail")
	}
	// Неудачный поиск не должен портить курсор
	e, ok := x.Advance(sid, Next, FilterAll)
	if !ok || e.Text != "only a warning" {
		t.Fatalf("cursor corrupted after failed scan: %v", e)
	}
}

func TestAdvanceEmptySession(t *testing.T) {
	x := New(trace.Nop)
	if _, ok := x.Advance("nobody", Next, FilterAll); ok {
		t.Fatal("unknown session must not advance")
	}
}
