package langchain

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/poiesic/ragcore/ai"
)

// ErrNoChoices is returned when the model responds without any choices.
var ErrNoChoices = errors.New("model returned no choices")

// Generator implements ai.Generator over a langchaingo chat model.
type Generator struct {
	model       llms.Model
	temperature float64
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator wraps a langchaingo model.
func NewGenerator(model llms.Model, temperature float64, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

// Generate sends instruction as the system message and the rendered context
// and question as the user message.
func (g *Generator) Generate(ctx context.Context, instruction, contextText, question string) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(instruction),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(ai.UserPrompt(contextText, question)),
			},
		},
	}

	g.logger.Debug("generating answer", "context_length", len(contextText), "question_length", len(question))

	response, err := g.model.GenerateContent(ctx, content, llms.WithTemperature(g.temperature))
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		g.logger.Warn("no choices returned from model")
		return "", ErrNoChoices
	}
	return response.Choices[0].Content, nil
}
