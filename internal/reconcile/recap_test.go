package reconcile_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/orgsync/internal/reconcile"
	"github.com/temirov/orgsync/internal/repos/executor"
	"github.com/temirov/orgsync/internal/repos/shared"
	"github.com/temirov/orgsync/internal/repos/staleness"
)

func TestRecapRenderListsEveryProblem(testInstance *testing.T) {
	started := time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)
	pulled := []shared.BatchResult{
		{RepositoryName: "core", Action: shared.RepositoryActionPull, Outcome: shared.BatchOutcomeSuccess},
		{RepositoryName: "events", Action: shared.RepositoryActionPull, Outcome: shared.BatchOutcomeFailure, Reason: "non-fast-forward update"},
	}
	recap := reconcile.Recap{
		Started:  started,
		Finished: started.Add(3 * time.Second),
		Classifications: []staleness.Classification{
			{Repository: shared.LocalRepository{Name: "core"}, Status: staleness.StatusStale},
			{Repository: shared.LocalRepository{Name: "gate"}, Status: staleness.StatusNeedsAttention, Reason: "reference not found"},
		},
		Pulled: executor.Summarize(pulled),
	}

	output := &bytes.Buffer{}
	recap.Render(shared.NewWriterReporter(output))

	renderedOutput := output.String()
	require.Contains(testInstance, renderedOutput, "Pulled 1 of 2 repositories")
	require.Contains(testInstance, renderedOutput, "Failures:")
	require.Contains(testInstance, renderedOutput, "events (pull): non-fast-forward update")
	require.Contains(testInstance, renderedOutput, "gate (needs attention): reference not found")
	require.NotContains(testInstance, renderedOutput, "core (")
	require.Len(testInstance, recap.Attention(), 1)
}

func TestRecapRenderWithoutProblems(testInstance *testing.T) {
	started := time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)
	recap := reconcile.Recap{Started: started, Finished: started}

	output := &bytes.Buffer{}
	recap.Render(shared.NewWriterReporter(output))
	require.NotContains(testInstance, output.String(), "Failures:")
	require.Contains(testInstance, output.String(), "Finished in")
}
