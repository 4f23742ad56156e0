// internal/app/system/status/status.go
package status

// Package status defines the closed value sets for every role/status/priority
// string the application stores. Values outside these sets are rejected at the
// store boundary; nothing downstream needs to handle unknown strings.

// User statuses.
const (
	Active   = "active"
	Invited  = "invited"
	Disabled = "disabled"
)

// Roles.
const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RoleAssistant = "assistant"
	RoleEditor    = "editor"
)

// Project statuses.
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on-hold"
	ProjectCompleted = "completed"
)

// Task statuses.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in-progress"
	TaskReview     = "review"
	TaskBlocked    = "blocked"
	TaskDone       = "done"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Event statuses.
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventCancelled = "cancelled"
)

// Event price types.
const (
	PriceFree = "free"
	PricePaid = "paid"
)

// Registration statuses.
const (
	RegPendingPayment = "pending_payment"
	RegConfirmed      = "confirmed"
)

// Speaker statuses.
const (
	SpeakerInvited = "invited"
	SpeakerActive  = "active"
)

// Invitation statuses.
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteDeclined = "declined"
)

// IsValidUser reports whether s is a valid user status.
func IsValidUser(s string) bool {
	switch s {
	case Active, Invited, Disabled:
		return true
	}
	return false
}

// IsValidRole reports whether r is a known role.
func IsValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleAssistant, RoleEditor:
		return true
	}
	return false
}

// IsValidProject reports whether s is a valid project status.
func IsValidProject(s string) bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted:
		return true
	}
	return false
}

// IsValidTask reports whether s is a valid task status.
func IsValidTask(s string) bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskBlocked, TaskDone:
		return true
	}
	return false
}

// IsValidPriority reports whether p is a valid task priority.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// IsValidEvent reports whether s is a valid event status.
func IsValidEvent(s string) bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled:
		return true
	}
	return false
}

// IsValidPriceType reports whether p is a valid price type.
func IsValidPriceType(p string) bool {
	return p == PriceFree || p == PricePaid
}

// IsValidRegistration reports whether s is a valid registration status.
func IsValidRegistration(s string) bool {
	return s == RegPendingPayment || s == RegConfirmed
}

// IsValidSpeaker reports whether s is a valid speaker status.
func IsValidSpeaker(s string) bool {
	return s == SpeakerInvited || s == SpeakerActive
}

// IsValidInvitation reports whether s is a valid invitation status.
func IsValidInvitation(s string) bool {
	switch s {
	case InvitePending, InviteAccepted, InviteDeclined:
		return true
	}
	return false
}
