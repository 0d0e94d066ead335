package stats_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/orgsync/internal/githubapi"
	"github.com/temirov/orgsync/internal/repos/shared"
	"github.com/temirov/orgsync/internal/stats"
)

type stubLister struct {
	repositories []shared.RemoteRepository
	err          error
}

func (lister stubLister) ListOrganizationRepositories(_ context.Context, _ string) ([]shared.RemoteRepository, error) {
	return lister.repositories, lister.err
}

type stubStatisticsReader struct {
	pullRequests map[string]int
	failures     map[string]error
}

func (reader stubStatisticsReader) RepositoryStatistics(_ context.Context, organization string, repository shared.RemoteRepository) (githubapi.RepositoryStatistics, error) {
	if failure, failed := reader.failures[repository.Name]; failed {
		return githubapi.RepositoryStatistics{}, failure
	}
	pullRequests := reader.pullRequests[repository.Name]
	return githubapi.RepositoryStatistics{
		Name:             repository.Name,
		FullName:         organization + "/" + repository.Name,
		OpenIssues:       repository.OpenIssues - pullRequests,
		OpenPullRequests: pullRequests,
	}, nil
}

func TestServiceBuild(testInstance *testing.T) {
	lister := stubLister{repositories: []shared.RemoteRepository{
		{Name: "quiet", OpenIssues: 0},
		{Name: "core", OpenIssues: 5},
		{Name: "addon", OpenIssues: 5},
		{Name: "registry", OpenIssues: 2},
		{Name: "flaky", OpenIssues: 3},
		{Name: "reviews", OpenIssues: 2},
	}}
	reader := stubStatisticsReader{
		pullRequests: map[string]int{"core": 1, "addon": 2, "registry": 0, "reviews": 2},
		failures:     map[string]error{"flaky": errors.New("rate limited")},
	}

	observerCore, observedLogs := observer.New(zapcore.WarnLevel)
	service, serviceError := stats.NewService(lister, reader, zap.New(observerCore))
	require.NoError(testInstance, serviceError)

	statsReport, buildError := service.Build(context.Background(), stats.Options{Organization: "SlimIO", Concurrency: 2})
	require.NoError(testInstance, buildError)

	require.Equal(testInstance, []stats.Row{
		{Repository: "SlimIO/core", Issues: 4, PullRequests: 1},
		{Repository: "SlimIO/addon", Issues: 3, PullRequests: 2},
		{Repository: "SlimIO/registry", Issues: 2, PullRequests: 0},
		{Repository: "SlimIO/reviews", Issues: 0, PullRequests: 2},
	}, statsReport.Rows)
	require.Equal(testInstance, []stats.RepositoryError{{Repository: "flaky", Message: "rate limited"}}, statsReport.Errors)
	require.Equal(testInstance, 1, observedLogs.Len())

	table := statsReport.Table()
	require.Len(testInstance, table.Rows, 4)
	require.Equal(testInstance, []string{"flaky: rate limited"}, table.Footnotes)
}

func TestServiceBuildFailures(testInstance *testing.T) {
	service, serviceError := stats.NewService(stubLister{err: errors.New("unauthorized")}, stubStatisticsReader{}, nil)
	require.NoError(testInstance, serviceError)

	_, buildError := service.Build(context.Background(), stats.Options{})
	require.ErrorIs(testInstance, buildError, stats.ErrOrganizationRequired)

	_, buildError = service.Build(context.Background(), stats.Options{Organization: "SlimIO"})
	require.Error(testInstance, buildError)
	require.Contains(testInstance, buildError.Error(), "unauthorized")

	_, serviceError = stats.NewService(nil, stubStatisticsReader{}, nil)
	require.ErrorIs(testInstance, serviceError, stats.ErrListerNotConfigured)

	_, serviceError = stats.NewService(stubLister{}, nil, nil)
	require.ErrorIs(testInstance, serviceError, stats.ErrStatisticsReaderNotConfigured)
}
