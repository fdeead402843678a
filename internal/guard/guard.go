// Package guard decides whether a view may render for the current session.
//
// While the session is still loading, every guard answers [Loading]; redirects only
// happen once the persisted token has been read.
package guard

import (
	"sync"

	"github.com/desertthunder/vibra/internal/session"
)

// Kind selects the rule a guard enforces.
type Kind int

const (
	// RequireAuth admits signed-in sessions and redirects everyone else to the login view.
	RequireAuth Kind = iota
	// RequireAnon admits anonymous sessions and redirects signed-in users to the home view.
	RequireAnon
)

func (k Kind) String() string {
	switch k {
	case RequireAuth:
		return "require-auth"
	case RequireAnon:
		return "require-anon"
	default:
		return "unknown"
	}
}

// Status is the outcome of evaluating a guard.
type Status int

const (
	Loading Status = iota
	Allowed
	Redirected
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Allowed:
		return "allowed"
	case Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Target names a redirect destination.
type Target string

const (
	TargetNone  Target = ""
	TargetLogin Target = "login"
	TargetHome  Target = "home"
)

// Decision is the result of [Evaluate].
type Decision struct {
	Status Status
	Target Target
}

// Placeholder is rendered while a guard is loading.
const Placeholder = "Loading..."

// Evaluate applies kind to state.
func Evaluate(kind Kind, state session.State) Decision {
	if state.IsLoading {
		return Decision{Status: Loading}
	}

	switch kind {
	case RequireAuth:
		if state.Token == "" {
			return Decision{Status: Redirected, Target: TargetLogin}
		}
	case RequireAnon:
		if state.Token != "" {
			return Decision{Status: Redirected, Target: TargetHome}
		}
	}
	return Decision{Status: Allowed}
}

// Guard tracks one render of a guarded view.
//
// It moves from [Loading] to either [Allowed] or [Redirected] and then stays there
// until [Guard.Reset], so a session change during a render never flips the outcome.
type Guard struct {
	mu       sync.Mutex
	kind     Kind
	decision Decision
}

// New returns a guard in the loading state.
func New(kind Kind) *Guard {
	return &Guard{kind: kind}
}

// Kind returns the rule the guard enforces.
func (g *Guard) Kind() Kind { return g.kind }

// Check evaluates state unless the guard has already resolved.
func (g *Guard) Check(state session.State) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.decision.Status != Loading {
		return g.decision
	}
	g.decision = Evaluate(g.kind, state)
	return g.decision
}

// Decision returns the current outcome without evaluating.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Reset returns the guard to the loading state for a new render.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decision = Decision{}
}
