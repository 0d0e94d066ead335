package npm

import (
	"strings"

	"golang.org/x/mod/semver"
)

const (
	semverPrefixConstant      = "v"
	rangeAlternativeSeparator = "||"
	rangeHyphenSeparator      = " - "
	rangeOperatorCharacters   = "^~=<>v "
	updateKindNoneLabel       = "none"
	updateKindPatchLabel      = "patch"
	updateKindMinorLabel      = "minor"
	updateKindMajorLabel      = "major"
	updateKindUnknownLabel    = "unknown"
)

// UpdateKind classifies the difference between an installed and a latest version.
type UpdateKind int

// Supported update kinds.
const (
	UpdateNone UpdateKind = iota
	UpdatePatch
	UpdateMinor
	UpdateMajor
	UpdateUnknown
)

// String returns a human readable label.
func (kind UpdateKind) String() string {
	switch kind {
	case UpdatePatch:
		return updateKindPatchLabel
	case UpdateMinor:
		return updateKindMinorLabel
	case UpdateMajor:
		return updateKindMajorLabel
	case UpdateUnknown:
		return updateKindUnknownLabel
	default:
		return updateKindNoneLabel
	}
}

// ClassifyUpdate compares two semantic versions. Versions that do not parse yield UpdateUnknown.
func ClassifyUpdate(currentVersion string, latestVersion string) UpdateKind {
	current := canonicalVersion(currentVersion)
	latest := canonicalVersion(latestVersion)
	if len(current) == 0 || len(latest) == 0 {
		return UpdateUnknown
	}
	if semver.Compare(latest, current) <= 0 {
		return UpdateNone
	}
	if semver.Major(latest) != semver.Major(current) {
		return UpdateMajor
	}
	if semver.MajorMinor(latest) != semver.MajorMinor(current) {
		return UpdateMinor
	}
	return UpdatePatch
}

// VersionFromRange extracts the lowest concrete version a declared range refers to, such as 1.2.0
// from "^1.2.0". Ranges without a concrete version return an empty string.
func VersionFromRange(versionRange string) string {
	candidate := strings.TrimSpace(versionRange)
	if alternative, _, found := strings.Cut(candidate, rangeAlternativeSeparator); found {
		candidate = strings.TrimSpace(alternative)
	}
	if lowerBound, _, found := strings.Cut(candidate, rangeHyphenSeparator); found {
		candidate = strings.TrimSpace(lowerBound)
	}
	if fields := strings.Fields(candidate); len(fields) > 1 {
		candidate = fields[0]
	}
	candidate = strings.TrimLeft(candidate, rangeOperatorCharacters)
	if len(canonicalVersion(candidate)) == 0 {
		return ""
	}
	return candidate
}

func canonicalVersion(version string) string {
	trimmedVersion := strings.TrimPrefix(strings.TrimSpace(version), semverPrefixConstant)
	if len(trimmedVersion) == 0 {
		return ""
	}
	return semver.Canonical(semverPrefixConstant + trimmedVersion)
}
