// internal/app/system/rolepolicy/rolepolicy_test.go
package rolepolicy

import (
	"testing"

	"github.com/dalemusser/eventhub/internal/app/system/status"
)

func TestParse(t *testing.T) {
	tbl, err := Parse(" Ada@Example.com = Admin , org@example.com=organizer, ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tbl.Len())
	}
	if got := tbl.Resolve("ada@example.com", ""); got != status.RoleAdmin {
		t.Errorf("Resolve(ada) = %q, want admin", got)
	}
	if got := tbl.Resolve("ADA@EXAMPLE.COM", status.RoleAssistant); got != status.RoleAdmin {
		t.Errorf("Resolve is not case-insensitive: got %q", got)
	}
}

func TestParse_Empty(t *testing.T) {
	tbl, err := Parse("   ")
	if err != nil {
		t.Fatalf("Parse empty: %v", err)
	}
	if tbl.Len() != 0 {
		t.Errorf("Len = %d, want 0", tbl.Len())
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, spec := range []string{
		"no-equals-here",
		"=admin",
		"someone@example.com=superuser",
	} {
		if _, err := Parse(spec); err == nil {
			t.Errorf("Parse(%q) should fail", spec)
		}
	}
}

func TestResolve_Fallbacks(t *testing.T) {
	tbl, err := Parse("boss@example.com=admin")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := tbl.Resolve("plain@example.com", status.RoleEditor); got != status.RoleEditor {
		t.Errorf("profile role ignored: got %q", got)
	}
	if got := tbl.Resolve("plain@example.com", "weird"); got != status.RoleAssistant {
		t.Errorf("invalid profile role should fall back to assistant, got %q", got)
	}
	if got := tbl.Resolve("plain@example.com", ""); got != status.RoleAssistant {
		t.Errorf("empty profile role should fall back to assistant, got %q", got)
	}
	// Overrides win over the profile role.
	if got := tbl.Resolve("boss@example.com", status.RoleAssistant); got != status.RoleAdmin {
		t.Errorf("override lost to profile role: got %q", got)
	}
}
