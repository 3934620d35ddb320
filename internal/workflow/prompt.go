package workflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Choice is the user's answer to a suggested commit.
type Choice int

const (
	ChoiceDismiss Choice = iota
	ChoiceCommit
	ChoiceCommitPush
)

func (c Choice) String() string {
	switch c {
	case ChoiceCommit:
		return "Commit"
	case ChoiceCommitPush:
		return "Commit & Push"
	default:
		return "Dismiss"
	}
}

// ParseChoice maps a flag value to a Choice.
func ParseChoice(value string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "dismiss", "none":
		return ChoiceDismiss, nil
	case "commit":
		return ChoiceCommit, nil
	case "push", "commit-push", "commit&push":
		return ChoiceCommitPush, nil
	default:
		return ChoiceDismiss, fmt.Errorf("invalid choice %q: use commit, push or dismiss", value)
	}
}

// Decision is a Choice plus an optional edited message.
type Decision struct {
	Choice  Choice
	Message string
}

// Prompter asks the user what to do with a suggested message. Choose must
// return once ctx is done.
type Prompter interface {
	Choose(ctx context.Context, message string) (Decision, error)
}

type InteractivePrompter struct {
	ErrWriter io.Writer
	Stdin     io.Reader
	// Menu shows a selection menu instead of the one-line prompt.
	Menu bool

	once   sync.Once
	reader *bufio.Reader

	mu sync.Mutex
	// pending is a read still in flight after its prompt was cancelled.
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func (p *InteractivePrompter) input() (io.Reader, error) {
	stdin := p.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	if f, ok := stdin.(*os.File); ok {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			return nil, errors.New("stdin is not a terminal, use --choice to answer without a prompt")
		}
	}
	return stdin, nil
}

func (p *InteractivePrompter) Choose(ctx context.Context, message string) (Decision, error) {
	stdin, err := p.input()
	if err != nil {
		return Decision{}, err
	}
	if p.Menu {
		answer, err := p.menu(ctx, stdin, message)
		if err != nil {
			return Decision{}, err
		}
		return p.decide(ctx, answer, message)
	}

	p.once.Do(func() { p.reader = bufio.NewReader(stdin) })

	fmt.Fprintf(p.ErrWriter, "\nSuggested Commit Message: %s\n", message)
	fmt.Fprint(p.ErrWriter, "[c]ommit, commit & [p]ush, [e]dit then commit, [d]ismiss (default dismiss): ")

	response, err := p.readLine(ctx)
	if err != nil {
		return Decision{}, err
	}
	return p.decide(ctx, response, message)
}

// readLine reads one answer, giving up when ctx is done. A read abandoned
// that way is picked up by the next call.
func (p *InteractivePrompter) readLine(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.pending == nil {
		ch := make(chan lineResult, 1)
		p.pending = ch
		go func() {
			line, err := p.reader.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
	}
	pending := p.pending
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-pending:
		p.mu.Lock()
		p.pending = nil
		p.mu.Unlock()
		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.line != "") {
			return "", fmt.Errorf("failed to read user input: %w", res.err)
		}
		return res.line, nil
	}
}

func (p *InteractivePrompter) menu(ctx context.Context, stdin io.Reader, message string) (string, error) {
	answer := "dismiss"
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Suggested Commit Message: " + message).
			Options(
				huh.NewOption("Commit", "commit"),
				huh.NewOption("Commit & Push", "push"),
				huh.NewOption("Edit then commit", "edit"),
				huh.NewOption("Dismiss", "dismiss"),
			).
			Value(&answer),
	)).WithInput(stdin).WithOutput(p.ErrWriter)

	if err := form.RunWithContext(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, huh.ErrUserAborted) {
			return "dismiss", nil
		}
		return "", fmt.Errorf("failed to read user input: %w", err)
	}
	return answer, nil
}

func (p *InteractivePrompter) decide(ctx context.Context, response, message string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "c", "commit":
		return Decision{Choice: ChoiceCommit}, nil
	case "p", "push":
		return Decision{Choice: ChoiceCommitPush}, nil
	case "e", "edit":
		edited, err := p.openEditor(ctx, message)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Choice: ChoiceCommit, Message: edited}, nil
	default:
		return Decision{Choice: ChoiceDismiss}, nil
	}
}

func (p *InteractivePrompter) openEditor(ctx context.Context, message string) (string, error) {
	fmt.Fprintln(p.ErrWriter, "Opening editor to modify commit message...")

	tmpFile, err := os.CreateTemp("", "aicommiter-commit-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	tmpFileName := tmpFile.Name()
	defer os.Remove(tmpFileName)

	if _, err := tmpFile.WriteString(message); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write to temporary file: %w", err)
	}
	tmpFile.Close()

	cmd := exec.CommandContext(ctx, getEditor(), tmpFileName)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to open editor: %w", err)
	}

	editedBytes, err := os.ReadFile(tmpFileName)
	if err != nil {
		return "", fmt.Errorf("failed to read edited message: %w", err)
	}

	edited := strings.TrimSpace(string(editedBytes))
	if edited == "" {
		fmt.Fprintln(p.ErrWriter, "Empty message provided, using original message")
		return "", nil
	}
	return edited, nil
}

// FixedPrompter answers every suggestion with the same choice.
type FixedPrompter struct {
	Choice Choice
}

func (p FixedPrompter) Choose(context.Context, string) (Decision, error) {
	return Decision{Choice: p.Choice}, nil
}

func getEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	return "vi"
}
