// internal/app/system/csvutil/invites_test.go
package csvutil

import (
	"strings"
	"testing"

	"github.com/dalemusser/eventhub/internal/app/system/status"
)

func TestPreScanInvitesCSV(t *testing.T) {
	in := strings.Join([]string{
		"Full Name,Email,Role",
		"Ada Lovelace,Ada@Example.com,editor",
		"Grace Hopper,grace@example.com",
		"No Email,not-an-email",
		"Dupe,ada@example.com",
		",second@example.com",
	}, "\n")

	rows, problems, err := PreScanInvitesCSV(strings.NewReader(in), "")
	if err != nil {
		t.Fatalf("PreScanInvitesCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(rows), rows)
	}
	if rows[0].Email != "ada@example.com" || rows[0].Role != status.RoleEditor {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Role != status.RoleAssistant {
		t.Errorf("empty role should fall back to assistant, got %q", rows[1].Role)
	}
	// A missing name is fine; the email is the identity.
	if rows[2].Email != "second@example.com" || rows[2].FullName != "" {
		t.Errorf("row 2 = %+v", rows[2])
	}

	if len(problems) != 2 {
		t.Fatalf("got %d problems, want 2: %v", len(problems), problems)
	}
	if !strings.Contains(problems[0], "invalid email") {
		t.Errorf("problems[0] = %q", problems[0])
	}
	if !strings.Contains(problems[1], "duplicate email") {
		t.Errorf("problems[1] = %q", problems[1])
	}
}

func TestPreScanInvitesCSV_NoHeader(t *testing.T) {
	rows, problems, err := PreScanInvitesCSV(strings.NewReader("Solo Person,solo@example.com\n"), "organizer")
	if err != nil {
		t.Fatalf("PreScanInvitesCSV: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("problems: %v", problems)
	}
	if len(rows) != 1 || rows[0].Role != status.RoleOrganizer {
		t.Errorf("rows = %+v", rows)
	}
}

func TestPreScanInvitesCSV_UnknownRole(t *testing.T) {
	rows, problems, err := PreScanInvitesCSV(strings.NewReader("X,x@example.com,superuser\n"), "")
	if err != nil {
		t.Fatalf("PreScanInvitesCSV: %v", err)
	}
	if len(rows) != 0 || len(problems) != 1 {
		t.Errorf("rows=%v problems=%v", rows, problems)
	}
}

func TestPreScanInvitesCSV_Empty(t *testing.T) {
	rows, problems, err := PreScanInvitesCSV(strings.NewReader(""), "")
	if err != nil {
		t.Fatalf("PreScanInvitesCSV: %v", err)
	}
	if len(rows) != 0 || len(problems) != 0 {
		t.Errorf("rows=%v problems=%v", rows, problems)
	}
}
