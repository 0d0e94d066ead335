package resolver

import (
	"sort"

	"github.com/agnivade/levenshtein"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	// DefaultFuzzyToleranceConstant is the largest edit distance accepted for fuzzy matches.
	DefaultFuzzyToleranceConstant = 2

	matchKindExactLabel     = "exact"
	matchKindFuzzyLabel     = "fuzzy"
	matchKindNoneLabel      = "none"
	matchKindAmbiguousLabel = "ambiguous"
)

// MatchKind classifies how a requested name matched the set.
type MatchKind int

// Supported match kinds.
const (
	MatchNone MatchKind = iota
	MatchExact
	MatchFuzzy
	MatchAmbiguous
)

// String returns a human readable label.
func (kind MatchKind) String() string {
	switch kind {
	case MatchExact:
		return matchKindExactLabel
	case MatchFuzzy:
		return matchKindFuzzyLabel
	case MatchAmbiguous:
		return matchKindAmbiguousLabel
	default:
		return matchKindNoneLabel
	}
}

// MatchResult describes the outcome of matching a requested name.
type MatchResult struct {
	Requested  string
	Kind       MatchKind
	Name       string
	Distance   int
	Candidates []string
}

// Matched reports whether the request resolved to exactly one name.
func (result MatchResult) Matched() bool {
	return result.Kind == MatchExact || result.Kind == MatchFuzzy
}

// RepositorySet is a lower-cased set of repository names with fuzzy lookup.
type RepositorySet struct {
	names     mapset.Set[string]
	tolerance int
}

// NewRepositorySet builds a set from names; a tolerance of zero or less disables fuzzy matching.
func NewRepositorySet(names []string, tolerance int) RepositorySet {
	normalizedNames := mapset.NewThreadUnsafeSet[string]()
	for _, name := range names {
		normalizedName := shared.NormalizeRepositoryName(name)
		if len(normalizedName) == 0 {
			continue
		}
		normalizedNames.Add(normalizedName)
	}
	return RepositorySet{names: normalizedNames, tolerance: tolerance}
}

// Len returns the number of names.
func (set RepositorySet) Len() int {
	if set.names == nil {
		return 0
	}
	return set.names.Cardinality()
}

// Names returns the sorted names.
func (set RepositorySet) Names() []string {
	if set.names == nil {
		return nil
	}
	names := set.names.ToSlice()
	sort.Strings(names)
	return names
}

// ContainsExact reports case-insensitive membership without fuzzy fallback.
func (set RepositorySet) ContainsExact(name string) bool {
	if set.names == nil {
		return false
	}
	return set.names.Contains(shared.NormalizeRepositoryName(name))
}

// Contains reports membership, falling back to an unambiguous fuzzy match.
func (set RepositorySet) Contains(name string) bool {
	return set.Match(name).Matched()
}

// Match resolves a requested name. Exact matches win; otherwise the closest name within tolerance is
// chosen, and a tie at the closest distance is reported as ambiguous.
func (set RepositorySet) Match(name string) MatchResult {
	normalizedRequest := shared.NormalizeRepositoryName(name)
	result := MatchResult{Requested: name, Kind: MatchNone}
	if set.names == nil || len(normalizedRequest) == 0 {
		return result
	}

	if set.names.Contains(normalizedRequest) {
		result.Kind = MatchExact
		result.Name = normalizedRequest
		return result
	}
	if set.tolerance <= 0 {
		return result
	}

	bestDistance := set.tolerance + 1
	var closestNames []string
	for _, candidate := range set.Names() {
		distance := levenshtein.ComputeDistance(normalizedRequest, candidate)
		switch {
		case distance > set.tolerance:
			continue
		case distance < bestDistance:
			bestDistance = distance
			closestNames = []string{candidate}
		case distance == bestDistance:
			closestNames = append(closestNames, candidate)
		}
	}

	switch len(closestNames) {
	case 0:
		return result
	case 1:
		result.Kind = MatchFuzzy
		result.Name = closestNames[0]
		result.Distance = bestDistance
		return result
	default:
		result.Kind = MatchAmbiguous
		result.Distance = bestDistance
		result.Candidates = closestNames
		return result
	}
}
