package gemini

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"cvgen-backend/internal/llm"
	"cvgen-backend/internal/shared/telemetry"
)

const defaultModel = "gemini-2.5-flash"

// Config selects the Gemini model and credentials. BaseURL overrides the API
// endpoint and is empty in production.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client calls the Gemini API for JSON completions and audio transcription.
type Client struct {
	client *genai.Client
	model  string
}

// New builds a Gemini client for the Gemini API backend.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	return &Client{client: client, model: model}, nil
}

// Complete sends the prompt and asks for an application/json answer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	logUsage(c.model, "complete", result)

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return text, nil
}

const transcribeInstruction = "Transcris mot pour mot cet enregistrement audio en %s. " +
	"Réponds uniquement avec la transcription brute, sans correction, sans commentaire ni mise en forme."

// Transcribe sends the audio bytes inline and returns a verbatim transcript.
func (c *Client) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(fmt.Sprintf(transcribeInstruction, languageName(language))),
		genai.NewPartFromBytes(data, audioMimeType(audioPath)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("gemini transcription: %w", err)
	}
	logUsage(c.model, "transcribe", result)
	return strings.TrimSpace(result.Text()), nil
}

func audioMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "audio/wav"
}

func languageName(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "fr", "":
		return "français"
	case "en":
		return "anglais"
	default:
		return code
	}
}

func logUsage(model, call string, result *genai.GenerateContentResponse) {
	fields := map[string]any{
		"provider": "gemini",
		"model":    model,
		"call":     call,
	}
	if result != nil && result.UsageMetadata != nil {
		fields["promptTokens"] = result.UsageMetadata.PromptTokenCount
		fields["completionTokens"] = result.UsageMetadata.CandidatesTokenCount
		fields["totalTokens"] = result.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Completer = (*Client)(nil)
