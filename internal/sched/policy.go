package sched

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/wellesley-hci/lexi-api/internal/domain"
)

// SelectionPolicy scores an eligible user for a task. The assignment engine
// picks the highest score, breaking ties by lowest same-day load and then by
// earliest join time. A real distance metric can be substituted by adding an
// implementation; the assignment loop never changes.
type SelectionPolicy interface {
	// Name identifies the policy in config and logs.
	Name() string

	// Score rates the user for the task. loadToday is the number of tasks
	// already assigned to the user today in this workspace.
	Score(user *domain.User, task *domain.Task, loadToday int) float64
}

// Policy names recognized in configuration.
const (
	PolicyFairness  = "fairness"
	PolicyProximity = "proximity"
)

// NewPolicy returns the policy registered under name.
func NewPolicy(name string, proximityBonus float64, seed int64) (SelectionPolicy, error) {
	switch name {
	case PolicyFairness:
		return FairnessPolicy{}, nil
	case PolicyProximity:
		return NewProximityPolicy(proximityBonus, seed), nil
	default:
		return nil, fmt.Errorf("unknown selection policy %q", name)
	}
}

// FairnessPolicy rewards users carrying less of today's load. It is fully
// deterministic: together with the tie-break rules it spreads a day's tasks
// evenly, favoring longer-standing members.
type FairnessPolicy struct{}

// Name implements SelectionPolicy.
func (FairnessPolicy) Name() string { return PolicyFairness }

// Score implements SelectionPolicy.
func (FairnessPolicy) Score(_ *domain.User, _ *domain.Task, loadToday int) float64 {
	return 1.0 / float64(1+loadToday)
}

// ProximityPolicy stands in for GPS-based selection while user locations are
// not collected: a random base score plus a small fixed bonus. Replace Score
// with a distance metric once coordinates are available. One instance is
// shared between the scheduler loop and manual triggers, so rng access is
// serialized.
type ProximityPolicy struct {
	bonus float64
	mu    sync.Mutex
	rng   *rand.Rand
}

// NewProximityPolicy creates a ProximityPolicy with the given bonus weight.
func NewProximityPolicy(bonus float64, seed int64) *ProximityPolicy {
	return &ProximityPolicy{bonus: bonus, rng: rand.New(rand.NewSource(seed))}
}

// Name implements SelectionPolicy.
func (p *ProximityPolicy) Name() string { return PolicyProximity }

// Score implements SelectionPolicy.
func (p *ProximityPolicy) Score(_ *domain.User, _ *domain.Task, _ int) float64 {
	p.mu.Lock()
	base := 0.1 + p.rng.Float64()*0.9
	p.mu.Unlock()
	return base + p.bonus*0.1
}
