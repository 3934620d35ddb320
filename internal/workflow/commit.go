package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/samzong/aicommiter/internal/gitutil"
	"github.com/samzong/aicommiter/internal/llm"
	"github.com/samzong/aicommiter/internal/ui"
)

type Options struct {
	DryRun   bool
	NoVerify bool
	// SpinnerWriter receives the waiting spinner; nil disables it.
	SpinnerWriter io.Writer
	Logger        *slog.Logger
	// OnTransition observes every state change of every save event.
	OnTransition func(path string, from, to State)
}

// Orchestrator reacts to save events. One instance serves every repository.
type Orchestrator struct {
	git       GitClient
	suggester Suggester
	prompter  Prompter
	notifier  ui.Notifier
	opts      Options
	logger    *slog.Logger

	tasks *taskSet
	// interactMu serialises prompting and committing across saves.
	interactMu sync.Mutex

	// spinMu guards prompting and spinners. No spinner runs while a prompt is open.
	spinMu     sync.Mutex
	prompting  bool
	spinners   map[activity]struct{}
	newSpinner func(message string) activity
}

// activity is a progress indicator such as a terminal spinner.
type activity interface {
	Start()
	Stop()
}

func NewOrchestrator(git GitClient, suggester Suggester, prompter Prompter, notifier ui.Notifier, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	o := &Orchestrator{
		git:       git,
		suggester: suggester,
		prompter:  prompter,
		notifier:  notifier,
		opts:      opts,
		logger:    logger,
		tasks:     newTaskSet(),
		spinners:  make(map[activity]struct{}),
	}
	o.newSpinner = func(message string) activity {
		if o.opts.SpinnerWriter == nil {
			return nil
		}
		return ui.NewSpinnerTo(o.opts.SpinnerWriter, message)
	}
	return o
}

// event tracks the state of one save.
type event struct {
	o     *Orchestrator
	path  string
	state State
}

func (e *event) to(next State) {
	e.o.logger.Debug("transition", "path", e.path, "from", e.state.String(), "to", next.String())
	if e.o.opts.OnTransition != nil {
		e.o.opts.OnTransition(e.path, e.state, next)
	}
	e.state = next
}

func (e *event) finish(outcome Outcome, err error) (Outcome, error) {
	e.to(StateIdle)
	if err != nil {
		e.o.logger.Debug("save handled", "path", e.path, "outcome", outcome.String(), "error", err)
	} else {
		e.o.logger.Debug("save handled", "path", e.path, "outcome", outcome.String())
	}
	return outcome, err
}

// HandleSave runs the suggest-and-commit workflow for one saved file.
// Gate failures return silently; suggestion and git failures are notified
// to the user and returned.
func (o *Orchestrator) HandleSave(ctx context.Context, path string) (Outcome, error) {
	ev := &event{o: o, path: path, state: StateIdle}

	ev.to(StateCheckingRepo)
	if !o.git.IsRepository(ctx, path) {
		return ev.finish(OutcomeNotRepository, nil)
	}

	ev.to(StateDiffing)
	diff, ok := o.git.WorkingDiff(ctx, path)
	if !ok {
		return ev.finish(OutcomeNoDiff, nil)
	}
	root, err := o.git.TopLevel(ctx, path)
	if err != nil {
		return ev.finish(OutcomeNoDiff, nil)
	}

	ev.to(StateAwaitingSuggestion)
	suggestion, err := o.suggest(ctx, root, diff)
	switch {
	case errors.Is(err, errSuperseded):
		return ev.finish(OutcomeSuperseded, nil)
	case err != nil && ctx.Err() != nil:
		return ev.finish(OutcomeSuggestionFailed, ctx.Err())
	case err != nil:
		o.notifier.Error(err.Error())
		return ev.finish(OutcomeSuggestionFailed, err)
	case !suggestion.ShouldCommit:
		return ev.finish(OutcomeDeclined, nil)
	}

	o.interactMu.Lock()
	defer o.interactMu.Unlock()

	ev.to(StateAwaitingUserChoice)
	o.beginPrompt()
	decision, err := o.prompter.Choose(ctx, suggestion.Message)
	o.endPrompt()
	if err != nil {
		if ctx.Err() == nil {
			o.notifier.Error(err.Error())
		}
		return ev.finish(OutcomeDismissed, err)
	}
	if decision.Choice == ChoiceDismiss {
		return ev.finish(OutcomeDismissed, nil)
	}

	message := suggestion.Message
	if decision.Message != "" {
		message = decision.Message
	}

	ev.to(StateCommitting)
	outcome, err := o.commit(ctx, root, message, decision.Choice == ChoiceCommitPush)
	return ev.finish(outcome, err)
}

func (o *Orchestrator) suggest(ctx context.Context, root, diff string) (llm.Suggestion, error) {
	taskCtx, done := o.tasks.begin(ctx, root)
	defer done()

	sp := o.startSpinner("Asking for a commit suggestion...")
	suggestion, err := o.suggester.Suggest(taskCtx, diff)
	o.stopSpinner(sp)

	if superseded(taskCtx) {
		return llm.Suggestion{}, errSuperseded
	}
	if err != nil {
		return llm.Suggestion{}, err
	}
	if suggestion.ShouldCommit && suggestion.Message == "" {
		return llm.Suggestion{}, nil
	}
	return suggestion, nil
}

func (o *Orchestrator) startSpinner(message string) activity {
	o.spinMu.Lock()
	defer o.spinMu.Unlock()
	if o.prompting {
		return nil
	}
	sp := o.newSpinner(message)
	if sp == nil {
		return nil
	}
	sp.Start()
	o.spinners[sp] = struct{}{}
	return sp
}

func (o *Orchestrator) stopSpinner(sp activity) {
	if sp == nil {
		return
	}
	o.spinMu.Lock()
	defer o.spinMu.Unlock()
	if _, ok := o.spinners[sp]; ok {
		delete(o.spinners, sp)
		sp.Stop()
	}
}

// beginPrompt stops every running spinner and keeps new ones from starting
// until endPrompt.
func (o *Orchestrator) beginPrompt() {
	o.spinMu.Lock()
	defer o.spinMu.Unlock()
	o.prompting = true
	for sp := range o.spinners {
		delete(o.spinners, sp)
		sp.Stop()
	}
}

func (o *Orchestrator) endPrompt() {
	o.spinMu.Lock()
	defer o.spinMu.Unlock()
	o.prompting = false
}

func (o *Orchestrator) commit(ctx context.Context, root, message string, push bool) (Outcome, error) {
	if o.opts.DryRun {
		o.notifier.Info(fmt.Sprintf("Dry run mode, would run in %s: %s", root, gitutil.CommitCommandLine(message, push)))
		return OutcomeDryRun, nil
	}

	if err := o.git.AddAll(ctx, root); err != nil {
		return o.commitFailed(err)
	}

	var args []string
	if o.opts.NoVerify {
		args = append(args, "--no-verify")
	}
	if err := o.git.Commit(ctx, root, message, args...); err != nil {
		return o.commitFailed(err)
	}

	if !push {
		o.notifier.Info(fmt.Sprintf("Successfully committed: %s", message))
		return OutcomeCommitted, nil
	}

	if err := o.git.Push(ctx, root); err != nil {
		return o.commitFailed(err)
	}
	o.notifier.Info(fmt.Sprintf("Successfully committed and pushed: %s", message))
	return OutcomePushed, nil
}

func (o *Orchestrator) commitFailed(err error) (Outcome, error) {
	o.notifier.Error(fmt.Sprintf("Failed to execute git command: %v", err))
	return OutcomeCommitFailed, err
}
