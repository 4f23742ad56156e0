// internal/app/system/paging/paging_test.go
package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/projects", nil)
	w := Parse(r)
	if w.Limit != PageSize {
		t.Errorf("Limit = %d, want %d", w.Limit, PageSize)
	}
	if w.Offset != 0 {
		t.Errorf("Offset = %d, want 0", w.Offset)
	}
}

func TestParseExplicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/projects?limit=10&offset=30", nil)
	w := Parse(r)
	if w.Limit != 10 || w.Offset != 30 {
		t.Errorf("got %+v, want limit 10 offset 30", w)
	}
}

func TestParseClampsAndIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/projects?limit=9999&offset=-5", nil)
	w := Parse(r)
	if w.Limit != MaxPageSize {
		t.Errorf("Limit = %d, want clamp to %d", w.Limit, MaxPageSize)
	}
	if w.Offset != 0 {
		t.Errorf("Offset = %d, want 0 for negative input", w.Offset)
	}

	r = httptest.NewRequest("GET", "/projects?limit=abc", nil)
	if got := Parse(r).Limit; got != PageSize {
		t.Errorf("Limit = %d, want default for non-numeric input", got)
	}
}

func TestMetaFor(t *testing.T) {
	w := Window{Limit: 10, Offset: 20}

	full := MetaFor(w, 10)
	if !full.HasNext {
		t.Error("full page should report HasNext")
	}
	partial := MetaFor(w, 3)
	if partial.HasNext {
		t.Error("partial page should not report HasNext")
	}
	if partial.Count != 3 || partial.Offset != 20 {
		t.Errorf("unexpected meta: %+v", partial)
	}
}
