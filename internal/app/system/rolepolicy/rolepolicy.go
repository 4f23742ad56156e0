// internal/app/system/rolepolicy/rolepolicy.go
package rolepolicy

import (
	"fmt"
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/status"
)

// Table maps email addresses to forced roles. It replaces the inline
// email-equality checks the sign-in path would otherwise carry: whoever signs
// in with a listed email gets the listed role regardless of what their profile
// document says.
type Table struct {
	overrides map[string]string
}

// Parse builds a Table from a comma-separated list of email=role pairs, e.g.
// "ada@example.com=admin, org@example.com=organizer". Unknown roles and
// malformed pairs are rejected so a typo in config fails startup instead of
// silently granting nothing.
func Parse(spec string) (*Table, error) {
	t := &Table{overrides: make(map[string]string)}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return t, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		email, role, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("role override %q: want email=role", pair)
		}
		email = normalize.Email(email)
		role = normalize.Role(role)
		if email == "" {
			return nil, fmt.Errorf("role override %q: empty email", pair)
		}
		if !status.IsValidRole(role) {
			return nil, fmt.Errorf("role override %q: unknown role %q", pair, role)
		}
		t.overrides[email] = role
	}
	return t, nil
}

// Resolve returns the effective role for an email: the override when one
// exists, otherwise the profile role, otherwise the default assistant role.
// A broken or missing profile read resolves the same way, so sign-in never
// fails on the role lookup.
func (t *Table) Resolve(email, profileRole string) string {
	if role, ok := t.overrides[normalize.Email(email)]; ok {
		return role
	}
	if r := normalize.Role(profileRole); status.IsValidRole(r) {
		return r
	}
	return status.RoleAssistant
}

// Len returns the number of configured overrides.
func (t *Table) Len() int { return len(t.overrides) }
