package types

// Capability is a platform permission a bulk operation depends on
type Capability int

const (
	CapabilityManageRoles Capability = iota + 1
	CapabilityManageBans
)

// String returns the human readable capability name
func (c Capability) String() string {
	switch c {
	case CapabilityManageRoles:
		return "manage roles"
	case CapabilityManageBans:
		return "ban members"
	default:
		return "unknown"
	}
}

// IsValid checks if the capability is one of the known values
func (c Capability) IsValid() bool {
	return c == CapabilityManageRoles || c == CapabilityManageBans
}

// CapabilitySet is the set of capabilities held by an actor
type CapabilitySet uint8

// NewCapabilitySet builds a set from the given capabilities
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

// AllCapabilities returns a set holding every known capability
func AllCapabilities() CapabilitySet {
	return NewCapabilitySet(CapabilityManageRoles, CapabilityManageBans)
}

// With returns a copy of the set including c
func (s CapabilitySet) With(c Capability) CapabilitySet {
	if !c.IsValid() {
		return s
	}
	return s | 1<<uint(c)
}

// Has reports whether c is in the set
func (s CapabilitySet) Has(c Capability) bool {
	if !c.IsValid() {
		return false
	}
	return s&(1<<uint(c)) != 0
}

// List returns the capabilities in the set in declaration order
func (s CapabilitySet) List() []Capability {
	var caps []Capability
	for _, c := range []Capability{CapabilityManageRoles, CapabilityManageBans} {
		if s.Has(c) {
			caps = append(caps, c)
		}
	}
	return caps
}
