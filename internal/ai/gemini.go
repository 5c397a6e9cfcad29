package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiDefaultModel = "gemini-1.5-flash"

// GeminiProvider calls Google's Gemini API through the official client
type GeminiProvider struct {
	apiKey string
	model  string
}

// NewGeminiProvider creates a provider bound to one credential and model
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiProvider{apiKey: apiKey, model: model}
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Complete sends the system prompt and conversation and returns the raw text
func (p *GeminiProvider) Complete(ctx context.Context, systemPrompt string, turns []Turn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("gemini: empty conversation")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("gemini client failed: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	// Everything before the final user turn becomes chat history
	last := turns[len(turns)-1]
	session := model.StartChat()
	for _, turn := range turns[:len(turns)-1] {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
