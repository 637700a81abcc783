package briefing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"star-task/internal/domain"
	apperrors "star-task/internal/errors"
	"star-task/internal/logging"
)

// Generator sends one prompt to a text model and returns the raw reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const promptTemplate = `Generate a cool space-themed mission codename and a short 1-sentence 8-bit style motivational briefing for this task: "%s"`

// Prompt builds the instruction sent for a mission title.
func Prompt(title string) string {
	return fmt.Sprintf(promptTemplate, title)
}

// responseSchema constrains the model to the two fields ParseBriefing reads.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"codename": {
			Type:        genai.TypeString,
			Description: "A short space-themed codename, e.g., 'Project Nebula-9'",
		},
		"motivationalQuote": {
			Type:        genai.TypeString,
			Description: "A short, gritty, futuristic military-style briefing sentence.",
		},
	},
	PropertyOrdering: []string{"codename", "motivationalQuote"},
	Required:         []string{"codename", "motivationalQuote"},
}

// GenaiGenerator calls the Gemini API through google.golang.org/genai.
type GenaiGenerator struct {
	client *genai.Client
	model  string
}

// NewGenaiGenerator creates a client for the Gemini API backend.
func NewGenaiGenerator(ctx context.Context, apiKey, model string) (*GenaiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenaiGenerator{client: client, model: model}, nil
}

// Generate requests a JSON reply matching responseSchema.
func (g *GenaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Gemini is the Provider backed by a Generator. Every failure falls back.
type Gemini struct {
	generator Generator
	timeout   time.Duration
	logger    *logging.Logger
}

// NewGemini creates a provider. A zero timeout leaves the caller's deadline in charge.
func NewGemini(generator Generator, timeout time.Duration, logger *logging.Logger) *Gemini {
	return &Gemini{generator: generator, timeout: timeout, logger: logger}
}

// RequestBriefing implements Provider.
func (g *Gemini) RequestBriefing(ctx context.Context, title string) domain.Briefing {
	b, err := g.Fetch(ctx, title)
	if err != nil {
		g.logger.Warnf("briefing for %q fell back: %v", title, err)
		return Fallback
	}
	g.logger.Debugf("briefing for %q: %s", title, b.Codename)
	return b
}

// Fetch performs one request and reports why it failed, if it did.
// Errors are *AppError of type briefing_unavailable, timeout or cancelled.
func (g *Gemini) Fetch(ctx context.Context, title string) (domain.Briefing, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.generator.Generate(ctx, Prompt(title))
	if ctxErr := apperrors.FromContext(ctx, "briefing"); ctxErr != nil {
		return domain.Briefing{}, ctxErr
	}
	if err != nil {
		return domain.Briefing{}, apperrors.NewBriefingUnavailableError("request failed", err)
	}

	b, err := ParseBriefing(text)
	if err != nil {
		return domain.Briefing{}, apperrors.NewBriefingUnavailableError("unusable response", err)
	}
	return b, nil
}

type briefingResponse struct {
	Codename          string `json:"codename"`
	MotivationalQuote string `json:"motivationalQuote"`
}

// ParseBriefing decodes a model reply. Both fields must be present and non-blank.
func ParseBriefing(text string) (domain.Briefing, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return domain.Briefing{}, fmt.Errorf("empty response")
	}

	var resp briefingResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return domain.Briefing{}, fmt.Errorf("decode response: %w", err)
	}

	b := domain.Briefing{
		Codename: strings.TrimSpace(resp.Codename),
		Tagline:  strings.TrimSpace(resp.MotivationalQuote),
	}
	if b.Codename == "" {
		return domain.Briefing{}, fmt.Errorf("response has no codename")
	}
	if b.Tagline == "" {
		return domain.Briefing{}, fmt.Errorf("response has no motivationalQuote")
	}
	return b, nil
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}
