package types

// MemberID represents a DICloak member identifier
type MemberID string

// String returns the string representation
func (id MemberID) String() string {
	return string(id)
}

// GroupID represents an environment group identifier
type GroupID string

// String returns the string representation
func (id GroupID) String() string {
	return string(id)
}

// TeamID is the opaque tenant scope identifier some DICloak endpoints
// require. It is only meaningful for the credentials it was resolved with.
type TeamID string

// String returns the string representation
func (id TeamID) String() string {
	return string(id)
}

// RoleID represents a member role identifier
type RoleID string

// String returns the string representation
func (id RoleID) String() string {
	return string(id)
}

// MemberType represents the member account classification
type MemberType string

// Member types
const (
	MemberTypeInternal MemberType = "INTERNAL"
	MemberTypeExternal MemberType = "EXTERNAL"
)

// IsValid checks if the member type is a known value
func (t MemberType) IsValid() bool {
	return t == MemberTypeInternal || t == MemberTypeExternal
}

// MemberStatus represents the member activation state
type MemberStatus string

// Member statuses
const (
	MemberStatusEnabled  MemberStatus = "ENABLED"
	MemberStatusDisabled MemberStatus = "DISABLED"
)

// IsValid checks if the member status is a known value
func (s MemberStatus) IsValid() bool {
	return s == MemberStatusEnabled || s == MemberStatusDisabled
}
