package reconcile

import (
	"errors"
	"strings"

	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	organizationRequiredMessage = "github organization is required (set github.organization, --org or GITHUB_ORGA)"
	workspaceRequiredMessage    = "workspace path is required"
	freshRequiresPickMessage    = "--fresh requires at least one --pick"
	freshWithUpdateMessage      = "--fresh cannot be combined with --update"
)

var (
	// ErrOrganizationRequired indicates a run without an organization.
	ErrOrganizationRequired = errors.New(organizationRequiredMessage)
	// ErrWorkspaceRequired indicates a run without a workspace.
	ErrWorkspaceRequired = errors.New(workspaceRequiredMessage)
	// ErrFreshRequiresPick indicates --fresh without a pick-list.
	ErrFreshRequiresPick = errors.New(freshRequiresPickMessage)
	// ErrFreshWithUpdate indicates --fresh combined with an update-only run.
	ErrFreshWithUpdate = errors.New(freshWithUpdateMessage)
)

// Options holds the settings shared by install and update runs.
type Options struct {
	Organization  string
	Branch        string
	WorkspacePath string
	PickList      []string
	Confirmation  shared.ConfirmationPolicy
	Configuration Configuration
}

// Validate checks the options before any remote or local work starts.
func (options Options) Validate() error {
	if len(strings.TrimSpace(options.Organization)) == 0 {
		return ErrOrganizationRequired
	}
	if len(strings.TrimSpace(options.WorkspacePath)) == 0 {
		return ErrWorkspaceRequired
	}
	return nil
}

// InstallOptions configures an install run.
type InstallOptions struct {
	Options
	// SkipInstall clones without running npm.
	SkipInstall bool
	// UpdateOnly skips cloning and only pulls stale checkouts.
	UpdateOnly bool
	// Fresh removes the picked local checkouts so they are cloned again.
	Fresh bool
}

// Validate checks install specific flag combinations.
func (options InstallOptions) Validate() error {
	if validationError := options.Options.Validate(); validationError != nil {
		return validationError
	}
	if options.Fresh && options.UpdateOnly {
		return ErrFreshWithUpdate
	}
	if options.Fresh && len(options.PickList) == 0 {
		return ErrFreshRequiresPick
	}
	return nil
}

// InstallPolicy returns the policy applied to pulls that follow an install run.
func (options InstallOptions) InstallPolicy() shared.InstallPolicy {
	if options.SkipInstall {
		return shared.InstallNever
	}
	return shared.InstallAsk
}

// UpdateOptions configures an update run.
type UpdateOptions struct {
	Options
	Install shared.InstallPolicy
}
