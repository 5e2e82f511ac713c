package identity

import "encoding/json"

// Webhook event types the provider delivers.
const (
	EventOrganizationCreated = "organization.created"
	EventOrganizationUpdated = "organization.updated"
	EventMembershipCreated   = "organizationMembership.created"
	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
)

// Event is the webhook envelope: a type tag plus a type-specific data
// object.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// OrganizationData is the payload for organization.* events.
type OrganizationData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	// Tier rides in provider metadata; empty means starter.
	PublicMetadata struct {
		Tier string `json:"tier"`
	} `json:"public_metadata"`
}

// MembershipData is the payload for organizationMembership.created.
type MembershipData struct {
	Organization struct {
		ID string `json:"id"`
	} `json:"organization"`
	PublicUserData struct {
		UserID    string `json:"user_id"`
		Email     string `json:"identifier"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"public_user_data"`
	Role string `json:"role"`
}

// UserData is the payload for user.* events.
type UserData struct {
	ID             string `json:"id"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
