// Package campus defines the fixed vocabularies of the reporting system:
// campus locations, incident categories, incident statuses, and the user
// role model with its authority groups. A Profile bundles them so the rest
// of the application never hardcodes a location or role list.
package campus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Role is a user role from the closed role set.
type Role string

const (
	RoleStudent       Role = "student"
	RoleAdmin         Role = "admin"
	RoleSecurityHead  Role = "security_head"
	RolePrincipal     Role = "principal"
	RoleHOD           Role = "hod"
	RoleClassInCharge Role = "class_in_charge"
)

// Status is an incident lifecycle status.
type Status string

const (
	StatusReported      Status = "reported"
	StatusInvestigating Status = "investigating"
	StatusActionTaken   Status = "action_taken"
	StatusResolved      Status = "resolved"
)

// UserStatus is the account state of a user.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusBanned   UserStatus = "banned"
)

// Profile holds the enumerated vocabularies for one campus deployment.
type Profile struct {
	Locations     []string `yaml:"locations"`
	IncidentTypes []string `yaml:"incident_types"`

	// AuthorityRoles are roles allowed into admin-tagged views and user
	// management. The whole group satisfies an "admin" requirement, not
	// just the literal admin role.
	AuthorityRoles []Role `yaml:"authority_roles"`

	// StatusAuthorityRoles are roles allowed to change incident status.
	StatusAuthorityRoles []Role `yaml:"status_authority_roles"`

	locationSet map[string]bool
	typeSet     map[string]bool
	authority   map[Role]bool
	statusAuth  map[Role]bool
}

// DefaultProfile returns the built-in campus profile.
func DefaultProfile() *Profile {
	p := &Profile{
		Locations: []string{
			"Block A",
			"Block R9",
			"Btech EM Main Block",
			"New Block",
			"Playground",
			"Pharmacy Block",
			"Parking",
			"Boys Hostel",
			"RC Main Block",
			"Girls Hostel",
			"RC Diploma Block",
			"RC Civil Block",
			"Canteen",
			"Block T",
			"Gate C",
			"Gate B",
			"Gate A",
		},
		IncidentTypes: []string{
			"fire",
			"fight",
			"medical",
			"harassment",
			"theft",
			"suspicious_activity",
			"vandalism",
			"other",
		},
		AuthorityRoles: []Role{
			RoleAdmin,
			RoleSecurityHead,
			RolePrincipal,
			RoleHOD,
			RoleClassInCharge,
		},
		StatusAuthorityRoles: []Role{
			RoleAdmin,
			RoleSecurityHead,
			RolePrincipal,
			RoleHOD,
			RoleClassInCharge,
		},
	}
	p.index()
	return p
}

// LoadProfile reads a YAML profile from path. Missing sections fall back to
// the defaults, so a file may override only the location list.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read campus profile: %w", err)
	}

	var loaded Profile
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse campus profile: %w", err)
	}

	p := DefaultProfile()
	if len(loaded.Locations) > 0 {
		p.Locations = loaded.Locations
	}
	if len(loaded.IncidentTypes) > 0 {
		p.IncidentTypes = loaded.IncidentTypes
	}
	if len(loaded.AuthorityRoles) > 0 {
		p.AuthorityRoles = loaded.AuthorityRoles
	}
	if len(loaded.StatusAuthorityRoles) > 0 {
		p.StatusAuthorityRoles = loaded.StatusAuthorityRoles
	}
	p.index()
	return p, nil
}

// index rebuilds the lookup sets after the slices change.
func (p *Profile) index() {
	p.locationSet = make(map[string]bool, len(p.Locations))
	for _, l := range p.Locations {
		p.locationSet[l] = true
	}
	p.typeSet = make(map[string]bool, len(p.IncidentTypes))
	for _, t := range p.IncidentTypes {
		p.typeSet[t] = true
	}
	p.authority = make(map[Role]bool, len(p.AuthorityRoles))
	for _, r := range p.AuthorityRoles {
		p.authority[r] = true
	}
	p.statusAuth = make(map[Role]bool, len(p.StatusAuthorityRoles))
	for _, r := range p.StatusAuthorityRoles {
		p.statusAuth[r] = true
	}
}

// ValidLocation reports whether loc is in the campus location enum.
func (p *Profile) ValidLocation(loc string) bool {
	return p.locationSet[loc]
}

// ValidIncidentType reports whether t is a known incident category.
func (p *Profile) ValidIncidentType(t string) bool {
	return p.typeSet[t]
}

// IsAuthority reports whether role belongs to the admin authority group.
func (p *Profile) IsAuthority(role Role) bool {
	return p.authority[role]
}

// CanChangeStatus reports whether role may perform incident status
// transitions.
func (p *Profile) CanChangeStatus(role Role) bool {
	return p.statusAuth[role]
}

// ValidRoles is the closed set of user roles.
var ValidRoles = []Role{
	RoleStudent,
	RoleAdmin,
	RoleSecurityHead,
	RolePrincipal,
	RoleHOD,
	RoleClassInCharge,
}

// ValidRole reports whether r is a member of the role enum.
func ValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

// ValidStatuses is the ordered incident status vocabulary.
var ValidStatuses = []Status{
	StatusReported,
	StatusInvestigating,
	StatusActionTaken,
	StatusResolved,
}

// ValidStatus reports whether s is a member of the status enum.
func ValidStatus(s Status) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether an incident may move from one status to
// another. Direct jumps are allowed (a report can go straight to resolved),
// but resolved is terminal and self-transitions are rejected.
func CanTransition(from, to Status) bool {
	if !ValidStatus(from) || !ValidStatus(to) {
		return false
	}
	if from == StatusResolved {
		return false
	}
	return from != to
}

// ValidUserStatus reports whether s is a member of the account-state enum.
func ValidUserStatus(s UserStatus) bool {
	switch s {
	case UserStatusPending, UserStatusApproved, UserStatusBanned:
		return true
	}
	return false
}
