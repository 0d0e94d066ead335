package stats_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/temirov/orgsync/internal/githubapi"
	"github.com/temirov/orgsync/internal/repos/shared"
	"github.com/temirov/orgsync/internal/stats"
)

type stubClient struct {
	stubLister
	stubStatisticsReader
}

func TestCommandBuilderRendersReport(testInstance *testing.T) {
	client := stubClient{
		stubLister: stubLister{repositories: []shared.RemoteRepository{
			{Name: "core", OpenIssues: 3},
			{Name: "quiet"},
		}},
		stubStatisticsReader: stubStatisticsReader{pullRequests: map[string]int{"core": 1}},
	}

	testCases := []struct {
		name            string
		arguments       []string
		organization    string
		client          stubClient
		expectErrorText string
		validate        func(*testing.T, string)
	}{
		{
			name:         "json",
			arguments:    []string{"--format", "json"},
			organization: "SlimIO",
			client:       client,
			validate: func(subtest *testing.T, output string) {
				var decoded stats.Report
				require.NoError(subtest, json.Unmarshal([]byte(output), &decoded))
				require.Equal(subtest, []stats.Row{{Repository: "SlimIO/core", Issues: 2, PullRequests: 1}}, decoded.Rows)
			},
		},
		{
			name:         "table",
			arguments:    []string{"--format", "table"},
			organization: "SlimIO",
			client:       client,
			validate: func(subtest *testing.T, output string) {
				require.Contains(subtest, output, "SlimIO/core")
				require.NotContains(subtest, output, "quiet")
			},
		},
		{
			name:            "unsupported_format",
			arguments:       []string{"--format", "xml"},
			organization:    "SlimIO",
			client:          client,
			expectErrorText: "invalid format",
		},
		{
			name:            "missing_organization",
			arguments:       []string{"--format", "json"},
			client:          client,
			expectErrorText: stats.ErrOrganizationRequired.Error(),
		},
		{
			name:            "listing_failure",
			arguments:       []string{"--format", "json"},
			organization:    "SlimIO",
			client:          stubClient{stubLister: stubLister{err: errors.New("unauthorized")}},
			expectErrorText: "unauthorized",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			organization := testCase.organization
			builder := stats.CommandBuilder{
				ConfigurationProvider: func() stats.CommandConfiguration {
					return stats.CommandConfiguration{
						GitHub: githubapi.Configuration{Organization: organization},
						Stats:  stats.Configuration{Concurrency: 2},
					}
				},
				Client: testCase.client,
			}
			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			var output bytes.Buffer
			command.SetContext(context.Background())
			command.SetOut(&output)
			command.SetErr(&output)
			command.SetArgs(testCase.arguments)

			executionError := command.Execute()
			if len(testCase.expectErrorText) > 0 {
				require.Error(subtest, executionError)
				require.Contains(subtest, executionError.Error(), testCase.expectErrorText)
				return
			}
			require.NoError(subtest, executionError)
			testCase.validate(subtest, output.String())
		})
	}
}

func TestConfigurationSanitize(testInstance *testing.T) {
	require.Equal(testInstance, stats.DefaultConcurrencyConstant, stats.Configuration{}.Sanitize().Concurrency)
	require.Equal(testInstance, 3, stats.Configuration{Concurrency: 3}.Sanitize().Concurrency)
	require.Equal(testInstance, map[string]any{"reports.stats.concurrency": stats.DefaultConcurrencyConstant}, stats.DefaultConfigurationValues("reports.stats"))
}
