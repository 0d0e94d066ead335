package policy

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/temirov/orgsync/internal/npm"
	"github.com/temirov/orgsync/internal/repos/shared"
)

// Severity grades a finding.
type Severity string

// Supported severities.
const (
	SeverityCritical Severity = Severity("crit")
	SeverityWarning  Severity = Severity("warn")
)

const (
	readmeFileNameConstant       = "README.md"
	licenseFileNameConstant      = "LICENSE"
	gitIgnoreFileNameConstant    = ".gitignore"
	editorConfigFileNameConstant = ".editorconfig"
	testScriptNameConstant       = "test"
)

// Subject is the checkout under evaluation.
type Subject struct {
	Repository shared.LocalRepository
	Package    npm.PackageDocument
	HasPackage bool
	FileSystem shared.FileSystem
}

// Rule is a single project-structure check. Violated reports whether the subject breaks the rule.
type Rule struct {
	Identifier string
	Severity   Severity
	Message    string
	Violated   func(subject Subject) (bool, error)
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			Identifier: "package-json",
			Severity:   SeverityCritical,
			Message:    "package.json is missing",
			Violated: func(subject Subject) (bool, error) {
				return !subject.HasPackage, nil
			},
		},
		{
			Identifier: "package-name",
			Severity:   SeverityCritical,
			Message:    "package.json has no name",
			Violated: packageRule(func(document npm.PackageDocument) bool {
				return len(strings.TrimSpace(document.Name)) == 0
			}),
		},
		{
			Identifier: "manifest-type",
			Severity:   SeverityCritical,
			Message:    "manifest has no project type",
			Violated: func(subject Subject) (bool, error) {
				return len(strings.TrimSpace(subject.Repository.Manifest.Type)) == 0, nil
			},
		},
		missingFileRule("readme", readmeFileNameConstant),
		missingFileRule("license", licenseFileNameConstant),
		missingFileRule("gitignore", gitIgnoreFileNameConstant),
		missingFileRule("editorconfig", editorConfigFileNameConstant),
		{
			Identifier: "package-description",
			Severity:   SeverityWarning,
			Message:    "package.json has no description",
			Violated: packageRule(func(document npm.PackageDocument) bool {
				return len(strings.TrimSpace(document.Description)) == 0
			}),
		},
		{
			Identifier: "test-script",
			Severity:   SeverityWarning,
			Message:    "package.json declares no test script",
			Violated: packageRule(func(document npm.PackageDocument) bool {
				return len(strings.TrimSpace(document.Scripts[testScriptNameConstant])) == 0
			}),
		},
		{
			Identifier: "engines",
			Severity:   SeverityWarning,
			Message:    "package.json declares no engines",
			Violated: packageRule(func(document npm.PackageDocument) bool {
				return len(document.Engines) == 0
			}),
		},
	}
}

// packageRule only applies when package.json exists; its absence is reported once by the package-json rule.
func packageRule(violated func(document npm.PackageDocument) bool) func(subject Subject) (bool, error) {
	return func(subject Subject) (bool, error) {
		if !subject.HasPackage {
			return false, nil
		}
		return violated(subject.Package), nil
	}
}

func missingFileRule(identifier string, fileName string) Rule {
	return Rule{
		Identifier: identifier,
		Severity:   SeverityWarning,
		Message:    fileName + " is missing",
		Violated: func(subject Subject) (bool, error) {
			_, statError := subject.FileSystem.Stat(filepath.Join(subject.Repository.Path, fileName))
			if statError == nil {
				return false, nil
			}
			if errors.Is(statError, fs.ErrNotExist) {
				return true, nil
			}
			return false, statError
		},
	}
}
