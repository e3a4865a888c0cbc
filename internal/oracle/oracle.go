// Package oracle decides, per conversation turn, whether to answer directly
// or to call a catalog tool, and narrates tool results back to the user.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Nour-MZ/Nomada/internal/models"
)

const DefaultModel = "gpt-4o-mini"

// Narration is everything the oracle sees when explaining a tool result.
type Narration struct {
	UserMessage string
	Tool        string
	Description string
	Args        map[string]any
	Result      any
}

// Client is a decision oracle backed by the OpenAI chat completions API.
type Client struct {
	api         openai.Client
	model       string
	temperature float64
	logger      *log.Logger
}

type Option func(*Client)

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithTemperature(t float64) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// New creates an oracle client. baseURL may be empty for the public API.
func New(apiKey, model, baseURL string, opts ...Option) *Client {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		api:    openai.NewClient(reqOpts...),
		model:  model,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SystemPrompt renders the decision protocol around the catalog listing.
func SystemPrompt(catalogPrompt string) string {
	var b strings.Builder
	b.WriteString("You are a travel booking assistant that can search and book flights and hotels by calling tools.\n")
	b.WriteString("Tools available:\n")
	b.WriteString(catalogPrompt)
	b.WriteString("\n\nYou MUST decide if you need to call a tool.\n")
	b.WriteString("If you need a tool, respond ONLY with a JSON object of the form:\n")
	b.WriteString("{\n  \"tool\": \"<tool_name>\",\n  \"args\": { ... }\n}\n")
	b.WriteString("where <tool_name> is one of the tools above, and args contains only simple JSON types.\n")
	b.WriteString("When the user picks an option from earlier search results, pass its number as index.\n")
	b.WriteString("If you can answer directly without tools, respond ONLY with:\n")
	b.WriteString("{ \"answer\": \"<your natural language answer>\" }\n")
	b.WriteString("Do not add any extra text outside the JSON. The JSON must be the entire response.")
	return b.String()
}

// Decide asks the model for the next step given the recent conversation.
// Output that is not a decision object degrades to a direct answer.
func (c *Client) Decide(ctx context.Context, history []models.Turn, catalogPrompt string) (models.Decision, error) {
	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(SystemPrompt(catalogPrompt))}
	for _, turn := range history {
		switch turn.Role {
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		case models.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}

	text, err := c.complete(ctx, messages)
	if err != nil {
		return models.Decision{}, err
	}
	decision, err := ParseDecision(text)
	if err != nil {
		c.logger.Printf("oracle output degraded to answer model=%s err=%v", c.model, err)
	}
	return decision, nil
}

// Narrate explains a tool result in plain language.
func (c *Client) Narrate(ctx context.Context, n Narration) (string, error) {
	args, _ := json.MarshalIndent(n.Args, "", "  ")
	result, _ := json.MarshalIndent(n.Result, "", "  ")
	prompt := fmt.Sprintf("You are a travel booking assistant. A tool has been called on behalf of the user.\n\n"+
		"User message:\n%s\n\n"+
		"Tool used: %s\n"+
		"Tool description: %s\n"+
		"Arguments: %s\n\n"+
		"Raw tool result (JSON):\n%s\n\n"+
		"Now explain the result to the user in clear natural language. "+
		"Summarize key details of the flight offers, hotel options, order status, or payment if applicable. "+
		"If the result is an error, say what went wrong and what the user can provide to fix it. "+
		"Do not show the raw JSON, just a human-readable explanation.",
		n.UserMessage, n.Tool, n.Description, args, result)

	return c.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a helpful travel booking assistant."),
		openai.UserMessage(prompt),
	})
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call oracle: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("oracle returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ParseFailure is returned alongside the degraded decision when model
// output is not a decision object.
type ParseFailure struct {
	Output string
	Err    error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("unparseable oracle output: %v", e.Err)
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

type wireDecision struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Answer *string        `json:"answer"`
}

// ParseDecision reads {"tool","args"} or {"answer"} from model output. A
// Markdown code fence around the object is tolerated. On failure the whole
// output becomes a direct answer and a *ParseFailure is returned with it.
func ParseDecision(output string) (models.Decision, error) {
	text := stripFence(strings.TrimSpace(output))

	var wire wireDecision
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return models.DirectAnswer(output), &ParseFailure{Output: output, Err: err}
	}
	switch {
	case wire.Tool != "":
		return models.ToolCall(wire.Tool, wire.Args), nil
	case wire.Answer != nil:
		return models.DirectAnswer(*wire.Answer), nil
	}
	return models.DirectAnswer(output), &ParseFailure{Output: output, Err: errors.New("object has neither tool nor answer")}
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
