package reconcile

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/temirov/orgsync/internal/repos/executor"
	"github.com/temirov/orgsync/internal/repos/resolver"
	"github.com/temirov/orgsync/internal/repos/shared"
	"github.com/temirov/orgsync/internal/repos/staleness"
)

const (
	recapClonedTemplateConstant     = "Cloned %d of %d repositories\n"
	recapPulledTemplateConstant     = "Pulled %d of %d repositories\n"
	recapFailuresHeaderConstant     = "Failures:\n"
	recapFailureTemplateConstant    = "  - %s (%s): %s\n"
	recapAttentionTemplateConstant  = "  ! %s (%s): %s\n"
	recapElapsedTemplateConstant    = "Finished in %s\n"
	elapsedNowLabelConstant         = "now"
	elapsedUnderSecondLabelConstant = "less than a second"
	lagDivergedLabelConstant        = "diverged"
	lagBehindLabelConstant          = "behind"
	lagAheadLabelConstant           = "ahead"
)

// Recap aggregates the outcome of a run.
type Recap struct {
	Started         time.Time
	Finished        time.Time
	Unresolved      []resolver.MatchResult
	Removals        []shared.BatchResult
	Cloned          executor.Summary
	Classifications []staleness.Classification
	Pulled          executor.Summary
	PullDeclined    bool
}

// Failures lists every failed removal, clone and pull.
func (recap Recap) Failures() []shared.BatchResult {
	failures := make([]shared.BatchResult, 0, len(recap.Removals)+len(recap.Cloned.Failures)+len(recap.Pulled.Failures))
	failures = append(failures, recap.Removals...)
	failures = append(failures, recap.Cloned.Failures...)
	failures = append(failures, recap.Pulled.Failures...)
	return failures
}

// Attention lists the classifications that could not be compared and were left untouched.
func (recap Recap) Attention() []staleness.Classification {
	_, _, attention := staleness.Partition(recap.Classifications)
	return attention
}

// Elapsed returns the wall time of the run.
func (recap Recap) Elapsed() time.Duration {
	return recap.Finished.Sub(recap.Started)
}

// Render writes the closing summary.
func (recap Recap) Render(reporter shared.Reporter) {
	if len(recap.Cloned.Results) > 0 {
		reporter.Printf(recapClonedTemplateConstant, recap.Cloned.SuccessCount, len(recap.Cloned.Results))
	}
	if len(recap.Pulled.Results) > 0 {
		reporter.Printf(recapPulledTemplateConstant, recap.Pulled.SuccessCount, len(recap.Pulled.Results))
	}
	failures := recap.Failures()
	attention := recap.Attention()
	if len(failures) > 0 || len(attention) > 0 {
		reporter.Printf(recapFailuresHeaderConstant)
		for _, failure := range failures {
			reporter.Printf(recapFailureTemplateConstant, failure.RepositoryName, failure.Action, failure.Reason)
		}
		for _, classification := range attention {
			reporter.Printf(recapAttentionTemplateConstant, classification.Repository.Name, classification.Status, classification.Reason)
		}
	}
	reporter.Printf(recapElapsedTemplateConstant, humanizeElapsed(recap.Started, recap.Finished))
}

func humanizeElapsed(started time.Time, finished time.Time) string {
	elapsed := strings.TrimSpace(humanize.RelTime(started, finished, "", ""))
	if elapsed == elapsedNowLabelConstant {
		return elapsedUnderSecondLabelConstant
	}
	return elapsed
}

// describeLag phrases how far the local commit trails the remote one, such as "3 days behind".
func describeLag(classification staleness.Classification) string {
	lag := humanize.RelTime(classification.Local.CommitterTime, classification.Remote.CommitterTime, lagBehindLabelConstant, lagAheadLabelConstant)
	if lag == elapsedNowLabelConstant {
		return lagDivergedLabelConstant
	}
	return lag
}
