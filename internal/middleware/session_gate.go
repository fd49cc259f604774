package middleware

import "github.com/campuswatch/campuswatch/internal/campus"

// The session gate decides whether a view of the system may be shown to the
// holder of a session. It is pure so the same rules serve HTTP handlers, the
// websocket upgrade, and tests without a running server.

// SessionResolution describes how far session lookup has progressed.
type SessionResolution int

const (
	// SessionUnresolved means the session lookup is still in flight.
	// The gate must wait, never deny: a slow lookup is not a missing
	// session.
	SessionUnresolved SessionResolution = iota

	// SessionAbsent means the lookup finished and found no session.
	SessionAbsent

	// SessionPresent means an authenticated session exists.
	SessionPresent
)

// GateVerdict is the gate's decision for one access attempt.
type GateVerdict int

const (
	VerdictWait GateVerdict = iota
	VerdictDeny
	VerdictAllow
)

// Deny reasons, kept distinct so audit logs can tell an unauthenticated
// visitor from an authenticated user on the wrong portal.
const (
	DenyNoSession = "no-session"
	DenyWrongRole = "wrong-role"
)

// GateRequest describes one access attempt against a protected surface.
type GateRequest struct {
	Resolution SessionResolution
	Role       campus.Role

	// RequiredRole is the role the surface demands. "admin" admits the
	// whole authority group. Empty means any authenticated session.
	RequiredRole string
}

// GateDecision is the outcome of a gate evaluation.
type GateDecision struct {
	Verdict GateVerdict

	// Reason is set on deny.
	Reason string
}

// SessionGate evaluates access attempts against a campus profile.
type SessionGate struct {
	profile *campus.Profile
}

func NewSessionGate(profile *campus.Profile) *SessionGate {
	return &SessionGate{profile: profile}
}

// Decide evaluates one access attempt. The ordering is fixed: an unresolved
// session always waits, a missing session is denied before any role check,
// and only then is the role compared against the requirement.
func (g *SessionGate) Decide(req GateRequest) GateDecision {
	switch req.Resolution {
	case SessionUnresolved:
		return GateDecision{Verdict: VerdictWait}
	case SessionAbsent:
		return GateDecision{Verdict: VerdictDeny, Reason: DenyNoSession}
	}

	if req.RequiredRole == "" {
		return GateDecision{Verdict: VerdictAllow}
	}

	if req.RequiredRole == "admin" {
		if g.profile.IsAuthority(req.Role) {
			return GateDecision{Verdict: VerdictAllow}
		}
		return GateDecision{Verdict: VerdictDeny, Reason: DenyWrongRole}
	}

	if string(req.Role) == req.RequiredRole || g.profile.IsAuthority(req.Role) {
		return GateDecision{Verdict: VerdictAllow}
	}
	return GateDecision{Verdict: VerdictDeny, Reason: DenyWrongRole}
}
