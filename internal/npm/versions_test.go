package npm_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/orgsync/internal/npm"
)

func TestClassifyUpdate(testInstance *testing.T) {
	testCases := []struct {
		current  string
		latest   string
		expected npm.UpdateKind
	}{
		{current: "1.2.3", latest: "1.2.3", expected: npm.UpdateNone},
		{current: "1.2.3", latest: "1.2.4", expected: npm.UpdatePatch},
		{current: "1.2.3", latest: "1.3.0", expected: npm.UpdateMinor},
		{current: "1.2.3", latest: "2.0.0", expected: npm.UpdateMajor},
		{current: "2.0.0", latest: "1.9.9", expected: npm.UpdateNone},
		{current: "v1.0", latest: "1.0.1", expected: npm.UpdatePatch},
		{current: "1.0.0-beta.1", latest: "1.0.0", expected: npm.UpdatePatch},
		{current: "latest", latest: "1.0.0", expected: npm.UpdateUnknown},
		{current: "", latest: "1.0.0", expected: npm.UpdateUnknown},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s_to_%s", testCaseIndex, testCase.current, testCase.latest), func(subtest *testing.T) {
			require.Equal(subtest, testCase.expected, npm.ClassifyUpdate(testCase.current, testCase.latest))
		})
	}
}

func TestVersionFromRange(testInstance *testing.T) {
	testCases := []struct {
		versionRange string
		expected     string
	}{
		{versionRange: "^1.2.0", expected: "1.2.0"},
		{versionRange: "~3.0.1", expected: "3.0.1"},
		{versionRange: ">=1.2.0 <2.0.0", expected: "1.2.0"},
		{versionRange: "1.0.0 - 1.4.0", expected: "1.0.0"},
		{versionRange: "^2.0.0 || ^3.0.0", expected: "2.0.0"},
		{versionRange: "4.1.1", expected: "4.1.1"},
		{versionRange: "latest", expected: ""},
		{versionRange: "github:SlimIO/is", expected: ""},
		{versionRange: "*", expected: ""},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.versionRange), func(subtest *testing.T) {
			require.Equal(subtest, testCase.expected, npm.VersionFromRange(testCase.versionRange))
		})
	}
}
