package api

import "encoding/json"

// User is the support view of an account.
type User struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	GivenName           string `json:"given_name"`
	FamilyName          string `json:"family_name"`
	SupportAccess       bool   `json:"supportAccess"`
	Locked              bool   `json:"locked"`
	SubscriptionEndDate string `json:"subscriptionEndDate,omitempty"`
}

// UsersPage is one page of the support user list.
type UsersPage struct {
	Users      []User `json:"users"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
	Page       int    `json:"page"`
}

// AuditLog is a single support audit entry. Details is free-form JSON whose
// shape depends on the recorded action.
type AuditLog struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	ActorEmail string          `json:"actorEmail"`
	TargetID   string          `json:"targetId,omitempty"`
	CreatedAt  string          `json:"createdAt"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// AuditLogsPage is one page of the audit log list.
type AuditLogsPage struct {
	Logs       []AuditLog `json:"logs"`
	Total      int        `json:"total"`
	TotalPages int        `json:"totalPages"`
	Page       int        `json:"page"`
}

// RegistryItem is a single entry on a gift or item registry.
type RegistryItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	URL           string `json:"url,omitempty"`
	Purchased     bool   `json:"purchased"`
	PurchaserName string `json:"purchaserName,omitempty"`
}

// Registry is a shareable gift or item registry. NeedsPasscode marks a gated
// state where only the name is disclosed.
type Registry struct {
	Name          string         `json:"name"`
	OwnerName     string         `json:"ownerName,omitempty"`
	Items         []RegistryItem `json:"items,omitempty"`
	NeedsPasscode bool           `json:"needsPasscode"`
	// Message is set when a submitted passcode was rejected.
	Message string `json:"-"`
}

// SantaEvent is the public summary of a Secret Santa event.
type SantaEvent struct {
	Name             string `json:"name"`
	ExchangeDate     string `json:"exchangeDate,omitempty"`
	Budget           string `json:"budget,omitempty"`
	NeedsCredentials bool   `json:"needsCredentials"`
}

// SantaCredentials identify a participant for per-call authorization. They
// are passed with each request and never stored.
type SantaCredentials struct {
	Email    string `json:"email"`
	Passcode string `json:"passcode"`
}

// SantaData is the participant-scoped view of an event: who they drew and
// that person's registry.
type SantaData struct {
	ParticipantName string         `json:"participantName"`
	AssignedTo      string         `json:"assignedTo"`
	AssignedItems   []RegistryItem `json:"assignedItems,omitempty"`
}
