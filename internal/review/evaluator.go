package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are reviewing a Jira issue field for a Product Owner ahead of a
refinement session. Judge the quality of the content against the stated
criterion, not just its presence. Respond with a JSON object:
{"pass": true|false, "reasoning": "one or two sentences"}.
Template text, placeholders, and boilerplate always fail.`

// Verdict is the agent's judgement of one review request.
type Verdict struct {
	Field     string `json:"field"`
	Criterion string `json:"criterion"`
	Pass      bool   `json:"pass"`
	Reasoning string `json:"reasoning"`
}

// Session collects the verdicts of one review run. The zero value is not
// usable; build one with NewSession.
type Session struct {
	ID       string    `json:"id"`
	IssueKey string    `json:"issue_key"`
	Model    string    `json:"model"`
	Started  time.Time `json:"started"`
	Verdicts []Verdict `json:"verdicts"`
}

// NewSession starts an empty review session for an issue.
func NewSession(issueKey, model string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		IssueKey: issueKey,
		Model:    model,
		Started:  time.Now().UTC(),
	}
}

// Passed counts passing verdicts.
func (s *Session) Passed() int {
	var n int
	for _, v := range s.Verdicts {
		if v.Pass {
			n++
		}
	}
	return n
}

// Evaluator runs review requests through an OpenAI model. A nil Evaluator
// is valid and disabled; Enabled reports false and Evaluate fails.
type Evaluator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewEvaluator builds an evaluator, or a disabled one when no API key is
// configured. Missing keys are not an error: the deterministic checks work
// without an agent, so the CLI degrades instead of failing.
func NewEvaluator(apiKey, model string) *Evaluator {
	logger := slog.Default().With("component", "review")
	if apiKey == "" {
		logger.Debug("no OpenAI key configured, agent review disabled")
		return nil
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Evaluator{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Enabled reports whether the evaluator can actually call a model.
func (e *Evaluator) Enabled() bool {
	return e != nil && e.client != nil
}

// Evaluate judges every request and appends the verdicts to the session.
// One bad response does not abort the run; the rest of the requests still
// get evaluated.
func (e *Evaluator) Evaluate(ctx context.Context, session *Session, reqs []Request) error {
	if !e.Enabled() {
		return fmt.Errorf("review: no OpenAI API key configured (set OPENAI_API_KEY)")
	}

	for _, req := range reqs {
		verdict, err := e.judge(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("agent evaluation failed", "field", req.Field, "error", err)
			continue
		}
		session.Verdicts = append(session.Verdicts, verdict)
	}
	return nil
}

func (e *Evaluator) judge(ctx context.Context, req Request) (Verdict, error) {
	userPrompt := fmt.Sprintf("Criterion: %s\n\nContent:\n%s\n\n%s", req.Criterion, req.Content, req.Prompt)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("completion for %s: %w", req.Field, err)
	}
	if len(resp.Choices) == 0 {
		return Verdict{}, fmt.Errorf("completion for %s: no choices", req.Field)
	}

	verdict := Verdict{Field: req.Field, Criterion: req.Criterion}
	if err := parseVerdict(resp.Choices[0].Message.Content, &verdict); err != nil {
		return Verdict{}, fmt.Errorf("parse verdict for %s: %w", req.Field, err)
	}

	e.logger.Debug("agent verdict",
		"field", req.Field,
		"pass", verdict.Pass,
		"tokens_used", resp.Usage.TotalTokens,
	)
	return verdict, nil
}

// parseVerdict decodes the model's JSON reply, tolerating a markdown code
// fence around it.
func parseVerdict(reply string, v *Verdict) error {
	reply = strings.TrimSpace(reply)
	if strings.HasPrefix(reply, "```") {
		reply = strings.TrimPrefix(reply, "```json")
		reply = strings.TrimPrefix(reply, "```")
		reply = strings.TrimSuffix(strings.TrimSpace(reply), "```")
	}
	var parsed struct {
		Pass      bool   `json:"pass"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return err
	}
	v.Pass = parsed.Pass
	v.Reasoning = parsed.Reasoning
	return nil
}
