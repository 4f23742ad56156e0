// internal/app/system/csvutil/invites.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/status"
)

// InviteRow is one normalized row from a bulk-invitation upload.
type InviteRow struct {
	FullName string
	Email    string
	Role     string
}

// PreScanInvitesCSV reads every row from r and validates the whole file
// before anything is written. Rows are "full name,email[,role]"; a header
// line is detected and skipped. Bad rows come back as problem strings keyed
// by line number, duplicate emails within the file are collapsed to the
// first occurrence, and an empty role falls back to defaultRole. The error
// return is reserved for unreadable input.
func PreScanInvitesCSV(r io.Reader, defaultRole string) (rows []InviteRow, problems []string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	defaultRole = normalize.Role(defaultRole)
	if !status.IsValidRole(defaultRole) {
		defaultRole = status.RoleAssistant
	}

	seen := make(map[string]bool)
	line := 0
	for {
		rec, rerr := reader.Read()
		if rerr == io.EOF {
			break
		}
		line++
		if rerr != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", line, rerr))
			continue
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if len(rows) >= MaxRows {
			return nil, nil, fmt.Errorf("file has more than %d rows", MaxRows)
		}
		if len(rec) < 2 {
			problems = append(problems, fmt.Sprintf("line %d: want name,email[,role]", line))
			continue
		}

		row := InviteRow{
			FullName: normalize.Name(rec[0]),
			Email:    normalize.Email(rec[1]),
			Role:     defaultRole,
		}
		if row.Email == "" || !strings.Contains(row.Email, "@") {
			problems = append(problems, fmt.Sprintf("line %d: invalid email %q", line, rec[1]))
			continue
		}
		if len(rec) >= 3 && strings.TrimSpace(rec[2]) != "" {
			role := normalize.Role(rec[2])
			if !status.IsValidRole(role) {
				problems = append(problems, fmt.Sprintf("line %d: unknown role %q", line, rec[2]))
				continue
			}
			row.Role = role
		}
		if seen[row.Email] {
			problems = append(problems, fmt.Sprintf("line %d: duplicate email %q", line, row.Email))
			continue
		}
		seen[row.Email] = true
		rows = append(rows, row)
	}
	return rows, problems, nil
}

func isHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	first := strings.TrimSpace(rec[0])
	return (strings.EqualFold(first, "full name") || strings.EqualFold(first, "name")) &&
		strings.EqualFold(strings.TrimSpace(rec[1]), "email")
}
