package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"frontier/internal/core/errors"
	"frontier/internal/engine/dataset"
)

// MaxTransitiveDistanceCap bounds the user-adjustable BFS depth. Values
// beyond it are clamped, not rejected.
const MaxTransitiveDistanceCap = 8

// FilterOptions selects the function subset the reachability graph is built
// over. Zero minimums admit everything; an empty NamePattern matches all.
type FilterOptions struct {
	Statuses              []dataset.Status
	IncludeOld            bool
	MinFunctionSize       int
	MinTotalNewBB         int
	MaxTransitiveDistance int
	IncludeUnconnected    bool
	NamePattern           string
}

func DefaultFilters() FilterOptions {
	return FilterOptions{
		Statuses:              []dataset.Status{dataset.StatusNew, dataset.StatusChanged},
		MaxTransitiveDistance: 2,
	}
}

func (o FilterOptions) normalized() FilterOptions {
	if len(o.Statuses) == 0 {
		o.Statuses = []dataset.Status{dataset.StatusNew, dataset.StatusChanged}
	}
	if o.MaxTransitiveDistance < 0 {
		o.MaxTransitiveDistance = 0
	}
	if o.MaxTransitiveDistance > MaxTransitiveDistanceCap {
		o.MaxTransitiveDistance = MaxTransitiveDistanceCap
	}
	if o.MinFunctionSize < 0 {
		o.MinFunctionSize = 0
	}
	if o.MinTotalNewBB < 0 {
		o.MinTotalNewBB = 0
	}
	return o
}

// Signature is the canonical cache key for a filter configuration.
func (o FilterOptions) Signature() string {
	o = o.normalized()
	statuses := make([]string, 0, len(o.Statuses))
	for _, s := range o.Statuses {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	return fmt.Sprintf("s=%s;old=%t;size=%d;newbb=%d;d=%d;unc=%t;name=%s",
		strings.Join(statuses, ","), o.IncludeOld, o.MinFunctionSize,
		o.MinTotalNewBB, o.MaxTransitiveDistance, o.IncludeUnconnected, o.NamePattern)
}

type predicate struct {
	statuses map[dataset.Status]bool
	minSize  int
	minNewBB int
	name     glob.Glob
}

func (o FilterOptions) compile() (*predicate, error) {
	p := &predicate{
		statuses: make(map[dataset.Status]bool, len(o.Statuses)+1),
		minSize:  o.MinFunctionSize,
		minNewBB: o.MinTotalNewBB,
	}
	for _, s := range o.Statuses {
		p.statuses[s] = true
	}
	if o.IncludeOld {
		p.statuses[dataset.StatusOld] = true
	}
	if o.NamePattern != "" {
		g, err := glob.Compile(o.NamePattern)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid name pattern")
		}
		p.name = g
	}
	return p, nil
}

func (p *predicate) match(fn *dataset.Function) bool {
	if !p.statuses[fn.Status] {
		return false
	}
	if fn.Size < p.minSize {
		return false
	}
	if fn.Attribution.TotalNewBB < p.minNewBB {
		return false
	}
	if p.name != nil && !p.name.Match(fn.Name) {
		return false
	}
	return true
}
