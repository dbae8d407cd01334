// Package session holds the per-conversation draft state for in-flight
// slot-filling flows. Stores are injected so the dialog layer never touches
// process-wide singletons.
package session

import (
	"context"
	"strings"
	"time"
)

// Phase identifies which flow a session is currently in.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseSupplement       Phase = "creating-supplement"
	PhaseMedicine         Phase = "creating-medicine"
	PhaseVaccine          Phase = "creating-vaccine"
	PhaseMedicineSchedule Phase = "creating-medicine-schedule"
	PhaseVaccineSchedule  Phase = "creating-vaccine-schedule"
	PhaseHealthScore      Phase = "scoring-health"
)

// Creating reports whether the phase is one of the entity-creation flows.
func (p Phase) Creating() bool {
	switch p {
	case PhaseSupplement, PhaseMedicine, PhaseVaccine, PhaseMedicineSchedule, PhaseVaccineSchedule:
		return true
	}
	return false
}

// ResolvedEntity is a catalog record matched by the resolver, cached on the
// session so it is not re-resolved every turn.
type ResolvedEntity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// State is one conversation's draft. Collected keys must always belong to the
// active phase's field set; cross-entity leakage is a bug.
type State struct {
	Phase          Phase             `json:"phase"`
	Collected      map[string]string `json:"collected,omitempty"`
	DoseTimes      []string          `json:"doseTimes,omitempty"`
	SuggestedField string            `json:"suggestedField,omitempty"`
	SuggestedValue string            `json:"suggestedValue,omitempty"`
	Resolved       *ResolvedEntity   `json:"resolved,omitempty"`
	// QuantityDerived marks a schedule quantity computed from the date span
	// rather than stated by the user, so it is recomputed when the span
	// changes instead of silently going stale.
	QuantityDerived bool `json:"quantityDerived,omitempty"`
	ExitPending     bool `json:"exitPending,omitempty"`
	HealthAnswers  map[int]string    `json:"healthAnswers,omitempty"`
	PreviousScore  string            `json:"previousScore,omitempty"`
	LastAccessedAt time.Time         `json:"lastAccessedAt"`
}

// New returns a fresh session in the given phase.
func New(phase Phase) *State {
	return &State{
		Phase:     phase,
		Collected: make(map[string]string),
	}
}

// MergeCollected overlays a patch onto the collected fields. New non-empty
// values win; empty patch values never regress a field that was already set.
func (s *State) MergeCollected(patch map[string]string) {
	if s.Collected == nil {
		s.Collected = make(map[string]string, len(patch))
	}
	for k, v := range patch {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		s.Collected[k] = v
	}
}

// ClearFields removes the named fields, used when a domain-service error
// requires re-collecting only the colliding values.
func (s *State) ClearFields(fields ...string) {
	for _, f := range fields {
		delete(s.Collected, f)
	}
}

// Touch updates the last-access timestamp used by the TTL sweep.
func (s *State) Touch(now time.Time) {
	s.LastAccessedAt = now
}

// Store is the injected session backend. Get returns nil when no session
// exists; Evict is an idempotent no-op for unknown keys.
type Store interface {
	Get(ctx context.Context, key string) (*State, error)
	Save(ctx context.Context, key string, s *State) error
	Evict(ctx context.Context, key string) error
	Close() error
}

// Key derives the session identifier from the request's identity signals.
// Precedence: authenticated user id, then chat id, then anonymous token, then
// caller IP, then a literal anonymous marker. Aliases never diverge: the
// strongest available signal always wins so two tabs of one user share state.
func Key(userID, chatID, anonToken, ip string) string {
	if v := strings.TrimSpace(userID); v != "" {
		return "user:" + v
	}
	if v := strings.TrimSpace(chatID); v != "" {
		return "chat:" + v
	}
	if v := strings.TrimSpace(anonToken); v != "" {
		return "anon:" + v
	}
	if v := strings.TrimSpace(ip); v != "" {
		return "ip:" + v
	}
	return "anonymous"
}
