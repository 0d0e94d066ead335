package resolver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/temirov/orgsync/internal/manifest"
	"github.com/temirov/orgsync/internal/repos/executor"
	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	listerNotConfiguredMessage          = "remote repository lister not configured"
	organizationRequiredMessage         = "organization is required"
	listingErrorTemplateConstant        = "unable to list repositories of %s: %w"
	invalidExclusionPatternTemplate     = "invalid exclusion pattern %q: %w"
	globMetacharactersConstant          = "*?[{"
	manifestConcurrencyConstant         = 8
	exclusionReasonArchivedConstant     = "archived"
	exclusionReasonExcludedNameConstant = "excluded by name"
	exclusionReasonPatternTemplate      = "matches exclusion pattern %q"
	exclusionReasonPlatformTemplate     = "manifest platform %q is not supported on %s"
	pickUnresolvedMessageConstant       = "pick did not resolve to a repository"
	pickFuzzyMessageConstant            = "pick resolved by fuzzy match"
	manifestCheckFailedMessageConstant  = "platform manifest could not be checked; keeping repository"
	repositoryExcludedMessageConstant   = "repository excluded"
	logFieldRequestedConstant           = "requested"
	logFieldResolvedConstant            = "resolved"
	logFieldDistanceConstant            = "distance"
	logFieldMatchKindConstant           = "match"
	logFieldCandidatesConstant          = "candidates"
	logFieldRepositoryConstant          = "repository"
	logFieldReasonConstant              = "reason"
)

var (
	// ErrListerNotConfigured indicates the resolver lacks a repository lister.
	ErrListerNotConfigured = errors.New(listerNotConfiguredMessage)
	// ErrOrganizationRequired indicates no organization was supplied.
	ErrOrganizationRequired = errors.New(organizationRequiredMessage)
)

// Options configures repository resolution.
type Options struct {
	Organization     string
	Branch           string
	ExcludedNames    []string
	ExcludedPatterns []string
	PickList         []string
	FuzzyTolerance   int
	PlatformFilter   bool
	ManifestFileName string
	OperatingSystem  string
}

// ExcludedRepository records a remote repository removed by a filter.
type ExcludedRepository struct {
	Name   string
	Reason string
}

// Resolution is the filtered set of remote repositories to act on.
type Resolution struct {
	Set          RepositorySet
	Repositories map[string]shared.RemoteRepository
	Excluded     []ExcludedRepository
	Unresolved   []MatchResult
	Picked       bool
}

// Repository returns the remote record for a name, ignoring case.
func (resolution Resolution) Repository(repositoryName string) (shared.RemoteRepository, bool) {
	repository, exists := resolution.Repositories[shared.NormalizeRepositoryName(repositoryName)]
	return repository, exists
}

// DefaultBranches maps lower-cased names to the default branch each remote repository reports.
func (resolution Resolution) DefaultBranches() map[string]string {
	defaultBranches := make(map[string]string, len(resolution.Repositories))
	for normalizedName, remoteRepository := range resolution.Repositories {
		if len(remoteRepository.DefaultBranch) > 0 {
			defaultBranches[normalizedName] = remoteRepository.DefaultBranch
		}
	}
	return defaultBranches
}

// SortedRepositories returns the remote records sorted by lower-cased name.
func (resolution Resolution) SortedRepositories() []shared.RemoteRepository {
	repositories := make([]shared.RemoteRepository, 0, len(resolution.Repositories))
	for _, normalizedName := range resolution.Set.Names() {
		repositories = append(repositories, resolution.Repositories[normalizedName])
	}
	return repositories
}

// Resolver computes the set of remote repositories a run acts on.
type Resolver struct {
	lister          shared.RemoteRepositoryLister
	manifestFetcher shared.RemoteManifestFetcher
	logger          *zap.Logger
}

// NewResolver constructs a Resolver. The manifest fetcher is optional when platform filtering is disabled.
func NewResolver(lister shared.RemoteRepositoryLister, manifestFetcher shared.RemoteManifestFetcher, logger *zap.Logger) (*Resolver, error) {
	if lister == nil {
		return nil, ErrListerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lister: lister, manifestFetcher: manifestFetcher, logger: logger}, nil
}

// Resolve lists the organization and applies, in order: archived filter, exclusions, pick-list and
// platform compatibility. Listing errors are fatal.
func (resolver *Resolver) Resolve(executionContext context.Context, options Options) (Resolution, error) {
	organization := strings.TrimSpace(options.Organization)
	if len(organization) == 0 {
		return Resolution{}, ErrOrganizationRequired
	}

	exclusionFilter, filterError := newExclusionFilter(options.ExcludedNames, options.ExcludedPatterns)
	if filterError != nil {
		return Resolution{}, filterError
	}

	remoteRepositories, listingError := resolver.lister.ListOrganizationRepositories(executionContext, organization)
	if listingError != nil {
		return Resolution{}, fmt.Errorf(listingErrorTemplateConstant, organization, listingError)
	}

	resolution := Resolution{Repositories: make(map[string]shared.RemoteRepository, len(remoteRepositories))}
	for _, remoteRepository := range remoteRepositories {
		normalizedName := shared.NormalizeRepositoryName(remoteRepository.Name)
		if len(normalizedName) == 0 {
			continue
		}
		if remoteRepository.Archived {
			resolution.exclude(resolver.logger, remoteRepository.Name, exclusionReasonArchivedConstant)
			continue
		}
		if excluded, reason := exclusionFilter.excludes(normalizedName); excluded {
			resolution.exclude(resolver.logger, remoteRepository.Name, reason)
			continue
		}
		resolution.Repositories[normalizedName] = remoteRepository
	}

	candidateSet := NewRepositorySet(mapKeys(resolution.Repositories), options.FuzzyTolerance)
	if len(options.PickList) > 0 {
		resolution.Picked = true
		candidateSet = resolver.applyPickList(&resolution, candidateSet, options.PickList, options.FuzzyTolerance)
	}

	if options.PlatformFilter && resolver.manifestFetcher != nil {
		candidateSet = resolver.applyPlatformFilter(executionContext, &resolution, candidateSet, organization, options)
	}

	for normalizedName := range resolution.Repositories {
		if !candidateSet.ContainsExact(normalizedName) {
			delete(resolution.Repositories, normalizedName)
		}
	}
	resolution.Set = candidateSet
	return resolution, nil
}

func (resolver *Resolver) applyPickList(resolution *Resolution, candidateSet RepositorySet, pickList []string, tolerance int) RepositorySet {
	pickedNames := make([]string, 0, len(pickList))
	for _, requestedName := range pickList {
		if len(strings.TrimSpace(requestedName)) == 0 {
			continue
		}
		matchResult := candidateSet.Match(requestedName)
		switch matchResult.Kind {
		case MatchExact:
			pickedNames = append(pickedNames, matchResult.Name)
		case MatchFuzzy:
			resolver.logger.Info(
				pickFuzzyMessageConstant,
				zap.String(logFieldRequestedConstant, requestedName),
				zap.String(logFieldResolvedConstant, matchResult.Name),
				zap.Int(logFieldDistanceConstant, matchResult.Distance),
			)
			pickedNames = append(pickedNames, matchResult.Name)
		default:
			resolver.logger.Warn(
				pickUnresolvedMessageConstant,
				zap.String(logFieldRequestedConstant, requestedName),
				zap.String(logFieldMatchKindConstant, matchResult.Kind.String()),
				zap.Strings(logFieldCandidatesConstant, matchResult.Candidates),
			)
			resolution.Unresolved = append(resolution.Unresolved, matchResult)
		}
	}
	return NewRepositorySet(pickedNames, tolerance)
}

func (resolver *Resolver) applyPlatformFilter(executionContext context.Context, resolution *Resolution, candidateSet RepositorySet, organization string, options Options) RepositorySet {
	operatingSystem := options.OperatingSystem
	if len(operatingSystem) == 0 {
		operatingSystem = runtime.GOOS
	}
	manifestFileName := options.ManifestFileName
	if len(manifestFileName) == 0 {
		manifestFileName = manifest.DefaultFileNameConstant
	}

	candidateNames := candidateSet.Names()
	var exclusionMutex sync.Mutex
	compatibleNames := make([]string, len(candidateNames))
	executor.ForEach(executionContext, executor.NewPool(manifestConcurrencyConstant), candidateNames, func(itemContext context.Context, itemIndex int, normalizedName string) error {
		remoteRepository := resolution.Repositories[normalizedName]
		branch := shared.ResolveBranch(options.Branch, remoteRepository.DefaultBranch)
		lookup := resolver.manifestFetcher.FetchManifest(itemContext, organization, remoteRepository.Name, branch, manifestFileName)
		switch lookup.Status {
		case manifest.LookupFailed:
			resolver.logger.Warn(
				manifestCheckFailedMessageConstant,
				zap.String(logFieldRepositoryConstant, remoteRepository.Name),
				zap.Error(lookup.Err),
			)
		case manifest.LookupPresent:
			if !lookup.Manifest.SupportsOperatingSystem(operatingSystem) {
				exclusionMutex.Lock()
				resolution.exclude(resolver.logger, remoteRepository.Name, fmt.Sprintf(exclusionReasonPlatformTemplate, lookup.Manifest.Platform, operatingSystem))
				exclusionMutex.Unlock()
				return nil
			}
		}
		compatibleNames[itemIndex] = normalizedName
		return nil
	})

	return NewRepositorySet(compatibleNames, options.FuzzyTolerance)
}

func (resolution *Resolution) exclude(logger *zap.Logger, repositoryName string, reason string) {
	resolution.Excluded = append(resolution.Excluded, ExcludedRepository{Name: repositoryName, Reason: reason})
	logger.Debug(
		repositoryExcludedMessageConstant,
		zap.String(logFieldRepositoryConstant, repositoryName),
		zap.String(logFieldReasonConstant, reason),
	)
}

type exclusionFilter struct {
	names    mapset.Set[string]
	patterns []string
}

func newExclusionFilter(excludedNames []string, excludedPatterns []string) (exclusionFilter, error) {
	filter := exclusionFilter{names: mapset.NewThreadUnsafeSet[string]()}
	for _, excludedName := range excludedNames {
		normalizedName := shared.NormalizeRepositoryName(excludedName)
		if len(normalizedName) > 0 {
			filter.names.Add(normalizedName)
		}
	}
	for _, excludedPattern := range excludedPatterns {
		normalizedPattern := shared.NormalizeRepositoryName(excludedPattern)
		if len(normalizedPattern) == 0 {
			continue
		}
		if isGlobPattern(normalizedPattern) && !doublestar.ValidatePattern(normalizedPattern) {
			return exclusionFilter{}, fmt.Errorf(invalidExclusionPatternTemplate, excludedPattern, doublestar.ErrBadPattern)
		}
		filter.patterns = append(filter.patterns, normalizedPattern)
	}
	return filter, nil
}

func (filter exclusionFilter) excludes(normalizedName string) (bool, string) {
	if filter.names.Contains(normalizedName) {
		return true, exclusionReasonExcludedNameConstant
	}
	for _, pattern := range filter.patterns {
		if isGlobPattern(pattern) {
			if matched, _ := doublestar.Match(pattern, normalizedName); matched {
				return true, fmt.Sprintf(exclusionReasonPatternTemplate, pattern)
			}
			continue
		}
		if strings.Contains(normalizedName, pattern) {
			return true, fmt.Sprintf(exclusionReasonPatternTemplate, pattern)
		}
	}
	return false, ""
}

func isGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, globMetacharactersConstant)
}

func mapKeys(repositories map[string]shared.RemoteRepository) []string {
	keys := make([]string, 0, len(repositories))
	for key := range repositories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
