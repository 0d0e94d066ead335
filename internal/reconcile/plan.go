package reconcile

import (
	"sort"

	"github.com/temirov/orgsync/internal/repos/inventory"
	"github.com/temirov/orgsync/internal/repos/resolver"
	"github.com/temirov/orgsync/internal/repos/shared"
)

// Plan is the diff between the resolved remote set and the workspace inventory.
type Plan struct {
	Resolution resolver.Resolution
	Inventory  inventory.Inventory
	// Clone holds remote names without a local checkout, sorted.
	Clone []string
	// Existing holds local checkouts of resolved remote repositories, sorted by name.
	Existing []shared.LocalRepository
	// LocalOnly holds checkouts outside the resolved remote set.
	LocalOnly []string
}

// BuildPlan diffs a resolution against an inventory. Names compare case-insensitively and exactly;
// fuzzy matching applies to pick-lists only.
func BuildPlan(resolution resolver.Resolution, localInventory inventory.Inventory) Plan {
	plan := Plan{Resolution: resolution, Inventory: localInventory}

	for _, remoteRepository := range resolution.SortedRepositories() {
		localRepository, exists := localInventory.Repository(remoteRepository.Name)
		if !exists {
			plan.Clone = append(plan.Clone, remoteRepository.Name)
			continue
		}
		plan.Existing = append(plan.Existing, localRepository)
	}

	for _, normalizedName := range localInventory.Names() {
		if resolution.Set.ContainsExact(normalizedName) {
			continue
		}
		if localRepository, exists := localInventory.Repository(normalizedName); exists {
			plan.LocalOnly = append(plan.LocalOnly, localRepository.Name)
		}
	}

	sort.SliceStable(plan.Existing, func(leftIndex, rightIndex int) bool {
		return shared.NormalizeRepositoryName(plan.Existing[leftIndex].Name) < shared.NormalizeRepositoryName(plan.Existing[rightIndex].Name)
	})
	return plan
}

// PickedExisting returns the existing checkouts a pick-list selected.
func (plan Plan) PickedExisting() []shared.LocalRepository {
	if !plan.Resolution.Picked {
		return nil
	}
	return plan.Existing
}

// AssignBranches sets the branch of every work item from the configured branch or, when none is configured,
// the default branch of the matching remote repository.
func AssignBranches(workItems []shared.WorkItem, configuredBranch string, defaultBranches map[string]string) []shared.WorkItem {
	for itemIndex := range workItems {
		repositoryBranch := defaultBranches[shared.NormalizeRepositoryName(workItems[itemIndex].RepositoryName)]
		workItems[itemIndex].Branch = shared.ResolveBranch(configuredBranch, repositoryBranch)
	}
	return workItems
}

// WorkItems converts names into work items of a single action.
func WorkItems(repositoryNames []string, action shared.RepositoryAction, skipInstall bool) []shared.WorkItem {
	workItems := make([]shared.WorkItem, 0, len(repositoryNames))
	for _, repositoryName := range repositoryNames {
		workItems = append(workItems, shared.WorkItem{RepositoryName: repositoryName, Action: action, SkipInstall: skipInstall})
	}
	return workItems
}
