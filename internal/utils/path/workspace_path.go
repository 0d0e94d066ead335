package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	homeShortcutConstant       = "~"
	homeShortcutPrefixConstant = "~/"
)

// HomeDirectoryProvider resolves the current user's home directory.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves an environment variable.
type EnvironmentLookup func(name string) (string, bool)

// WorkspacePathExpander normalizes user supplied workspace locations such as "~/SlimIO" or "$WORKSPACES/slimio".
type WorkspacePathExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	environmentLookup     EnvironmentLookup
	homeDirectory         string
	homeDirectoryError    error
	homeDirectoryOnce     sync.Once
}

// NewWorkspacePathExpander uses the operating system home directory and environment.
func NewWorkspacePathExpander() *WorkspacePathExpander {
	return NewWorkspacePathExpanderWithLookups(os.UserHomeDir, os.LookupEnv)
}

// NewWorkspacePathExpanderWithLookups substitutes the home and environment sources. Nil values fall back to the
// operating system.
func NewWorkspacePathExpanderWithLookups(homeDirectoryProvider HomeDirectoryProvider, environmentLookup EnvironmentLookup) *WorkspacePathExpander {
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	return &WorkspacePathExpander{homeDirectoryProvider: homeDirectoryProvider, environmentLookup: environmentLookup}
}

// Expand trims the path, substitutes environment variables and the home shortcut, then cleans the result.
// Unknown variables expand to nothing; an unresolvable home directory leaves the shortcut in place.
func (expander *WorkspacePathExpander) Expand(workspacePath string) string {
	trimmedPath := strings.TrimSpace(workspacePath)
	if expander == nil || len(trimmedPath) == 0 {
		return trimmedPath
	}

	expandedPath := os.Expand(trimmedPath, func(variableName string) string {
		value, _ := expander.environmentLookup(variableName)
		return value
	})

	switch {
	case expandedPath == homeShortcutConstant:
		if homeDirectory := expander.home(); len(homeDirectory) > 0 {
			return homeDirectory
		}
		return expandedPath
	case strings.HasPrefix(expandedPath, homeShortcutPrefixConstant), strings.HasPrefix(expandedPath, homeShortcutConstant+string(os.PathSeparator)):
		homeDirectory := expander.home()
		if len(homeDirectory) == 0 {
			return expandedPath
		}
		return filepath.Join(homeDirectory, expandedPath[len(homeShortcutPrefixConstant):])
	}
	return filepath.Clean(expandedPath)
}

func (expander *WorkspacePathExpander) home() string {
	expander.homeDirectoryOnce.Do(func() {
		expander.homeDirectory, expander.homeDirectoryError = expander.homeDirectoryProvider()
	})
	if expander.homeDirectoryError != nil {
		return ""
	}
	return expander.homeDirectory
}
