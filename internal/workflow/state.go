package workflow

// State is a step of the save-to-commit workflow.
type State int

const (
	StateIdle State = iota
	StateCheckingRepo
	StateDiffing
	StateAwaitingSuggestion
	StateAwaitingUserChoice
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheckingRepo:
		return "checking-repo"
	case StateDiffing:
		return "diffing"
	case StateAwaitingSuggestion:
		return "awaiting-suggestion"
	case StateAwaitingUserChoice:
		return "awaiting-user-choice"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Outcome is how a single save event ended.
type Outcome int

const (
	OutcomeNotRepository Outcome = iota
	OutcomeNoDiff
	OutcomeSuggestionFailed
	OutcomeDeclined
	OutcomeSuperseded
	OutcomeDismissed
	OutcomeDryRun
	OutcomeCommitted
	OutcomePushed
	OutcomeCommitFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotRepository:
		return "not-repository"
	case OutcomeNoDiff:
		return "no-diff"
	case OutcomeSuggestionFailed:
		return "suggestion-failed"
	case OutcomeDeclined:
		return "declined"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeDismissed:
		return "dismissed"
	case OutcomeDryRun:
		return "dry-run"
	case OutcomeCommitted:
		return "committed"
	case OutcomePushed:
		return "pushed"
	case OutcomeCommitFailed:
		return "commit-failed"
	default:
		return "unknown"
	}
}
