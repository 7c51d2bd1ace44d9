// Package identity integrates with the external identity provider: session
// token verification, the management API (user lookup and metadata writes),
// and signed lifecycle webhooks.
package identity

import "strings"

// Identity is the provider's view of a user. The subject id is the stable
// correlation key linking the provider identity to the application user row.
type Identity struct {
	SubjectID string
	Emails    []string
	FirstName string
	LastName  string
	AvatarURL string

	// PublicRole is the role field of the provider-side public metadata bag,
	// the read-side mirror of the application role. UnsafeRole is the role
	// field of the client-writable bag, populated by sign-up forms.
	PublicRole string
	UnsafeRole string
}

// PrimaryEmail returns the canonical (first) email address, lowered.
// Returns "" when the identity carries no email.
func (i *Identity) PrimaryEmail() string {
	if len(i.Emails) == 0 {
		return ""
	}
	return strings.ToLower(i.Emails[0])
}

// MetadataRole returns the role recorded in the identity metadata bags,
// public metadata taking precedence over the client-writable bag.
func (i *Identity) MetadataRole() string {
	if i.PublicRole != "" {
		return i.PublicRole
	}
	return i.UnsafeRole
}

// metadataBag is the wire shape of a provider metadata object. Only the role
// field matters to this application; other keys are ignored.
type metadataBag struct {
	Role string `json:"role,omitempty"`
}

// emailAddress is the wire shape of a provider email entry.
type emailAddress struct {
	EmailAddress string `json:"email_address"`
}

// userPayload is the provider's wire representation of a user, shared by the
// management API and webhook event data.
type userPayload struct {
	ID             string         `json:"id"`
	EmailAddresses []emailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	PublicMetadata metadataBag    `json:"public_metadata"`
	UnsafeMetadata metadataBag    `json:"unsafe_metadata"`
	Deleted        bool           `json:"deleted,omitempty"`
}

func (p *userPayload) toIdentity() *Identity {
	emails := make([]string, 0, len(p.EmailAddresses))
	for _, e := range p.EmailAddresses {
		if e.EmailAddress != "" {
			emails = append(emails, e.EmailAddress)
		}
	}

	return &Identity{
		SubjectID:  p.ID,
		Emails:     emails,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		AvatarURL:  p.ImageURL,
		PublicRole: p.PublicMetadata.Role,
		UnsafeRole: p.UnsafeMetadata.Role,
	}
}
