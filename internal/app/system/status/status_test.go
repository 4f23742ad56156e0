// internal/app/system/status/status_test.go
package status

import "testing"

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) bool
		valid []string
	}{
		{"user", IsValidUser, []string{Active, Invited, Disabled}},
		{"role", IsValidRole, []string{RoleAdmin, RoleOrganizer, RoleAssistant, RoleEditor}},
		{"project", IsValidProject, []string{ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted}},
		{"task", IsValidTask, []string{TaskTodo, TaskInProgress, TaskReview, TaskBlocked, TaskDone}},
		{"priority", IsValidPriority, []string{PriorityLow, PriorityMedium, PriorityHigh}},
		{"event", IsValidEvent, []string{EventDraft, EventPublished, EventCancelled}},
		{"price", IsValidPriceType, []string{PriceFree, PricePaid}},
		{"registration", IsValidRegistration, []string{RegPendingPayment, RegConfirmed}},
		{"speaker", IsValidSpeaker, []string{SpeakerInvited, SpeakerActive}},
		{"invitation", IsValidInvitation, []string{InvitePending, InviteAccepted, InviteDeclined}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range tt.valid {
				if !tt.fn(v) {
					t.Errorf("%q should be valid", v)
				}
			}
			for _, v := range []string{"", "ACTIVE", "unknown", " active"} {
				if tt.fn(v) {
					t.Errorf("%q should be rejected", v)
				}
			}
		})
	}
}
