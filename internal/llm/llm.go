package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samzong/aicommiter/internal/config"
	"github.com/samzong/aicommiter/internal/credential"
	"github.com/sashabaranov/go-openai"
)

// SystemPrompt is the fixed instruction sent with every diff.
const SystemPrompt = "You are an assistant that gets the output of the command git diff in a repo " +
	"and determines if these changes should be committed. If they should not, answer just with the word NO. " +
	"Otherwise answer just with the suggested commit message and nothing else."

const (
	MaxTokens   = 50
	Temperature = float32(0.7)

	declineToken = "no"
)

// ErrMissingCredential is returned before any request when no API key is stored.
var ErrMissingCredential = errors.New("API key is missing, run `aicommiter set-key` first")

// RequestError wraps a failed suggestion request.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to get commit suggestion (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to get commit suggestion: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Suggestion is the model's verdict on one diff.
type Suggestion struct {
	ShouldCommit bool
	Message      string
}

// ParseSuggestion interprets a completion. "no" in any case declines;
// any other non-empty text is the commit message.
func ParseSuggestion(text string) Suggestion {
	message := strings.TrimSpace(text)
	if message == "" || strings.EqualFold(message, declineToken) {
		return Suggestion{}
	}
	return Suggestion{ShouldCommit: true, Message: message}
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures a Client.
type Options struct {
	Model      string
	APIBase    string
	Timeout    time.Duration
	Store      credential.Store
	HTTPClient *http.Client
}

// Client asks a chat-completion endpoint whether a diff is worth committing.
type Client struct {
	opts         Options
	newCompleter func(apiKey string) chatCompleter
}

func NewClient(opts Options) *Client {
	c := &Client{opts: opts}
	c.newCompleter = c.openAICompleter
	return c
}

func (c *Client) openAICompleter(apiKey string) chatCompleter {
	clientConfig := openai.DefaultConfig(apiKey)
	if c.opts.APIBase != "" {
		clientConfig.BaseURL = strings.TrimRight(c.opts.APIBase, "/")
	}
	if c.opts.HTTPClient != nil {
		clientConfig.HTTPClient = c.opts.HTTPClient
	}
	return openai.NewClientWithConfig(clientConfig)
}

func (c *Client) apiKey() (string, error) {
	if c.opts.Store == nil {
		return "", ErrMissingCredential
	}
	key, ok := c.opts.Store.Get()
	if !ok {
		return "", ErrMissingCredential
	}
	return key, nil
}

func (c *Client) model() string {
	if c.opts.Model == "" {
		return config.DefaultModel
	}
	return c.opts.Model
}

// Suggest sends diff with the fixed instruction and parses the first completion.
func (c *Client) Suggest(ctx context.Context, diff string) (Suggestion, error) {
	key, err := c.apiKey()
	if err != nil {
		return Suggestion{}, err
	}

	content, err := c.complete(ctx, key, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: diff},
	}, MaxTokens)
	if err != nil {
		return Suggestion{}, err
	}
	return ParseSuggestion(content), nil
}

// TestConnection sends a minimal request to verify the key and endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	key, err := c.apiKey()
	if err != nil {
		return err
	}
	_, err = c.complete(ctx, key, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "ping"},
	}, 1)
	return err
}

func (c *Client) complete(
	ctx context.Context,
	apiKey string,
	messages []openai.ChatCompletionMessage,
	maxTokens int,
) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	resp, err := c.newCompleter(apiKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model(),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: Temperature,
	})
	if err != nil {
		return "", &RequestError{StatusCode: statusCode(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &RequestError{Err: errors.New("LLM returned empty response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
