package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cvgen-backend/internal/extract"
	"cvgen-backend/internal/extraction"
	"cvgen-backend/internal/llm"
	"cvgen-backend/internal/llm/gemini"
	openai "cvgen-backend/internal/llm/openai"
	"cvgen-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	inPath := flag.String("in", "", "Path to free text, PDF or DOCX input (defaults to stdin)")
	outPath := flag.String("out", "", "Path to write the structured JSON (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (gemini or openai)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	showPrompt := flag.Bool("show-prompt", false, "Print the rendered prompt and exit")
	timeout := flag.Duration("timeout", cfg.LLMTimeout, "Extraction timeout")
	flag.Parse()

	ctx := context.Background()

	freeText, err := readInput(ctx, *inPath)
	if err != nil {
		exitErr(err.Error())
	}
	if strings.TrimSpace(freeText) == "" {
		exitErr("input text is empty")
	}

	if *showPrompt {
		fmt.Println(llm.RenderExtractionPrompt(freeText))
		return
	}

	client, err := buildClient(ctx, cfg, *provider, *model, *timeout)
	if err != nil {
		exitErr(err.Error())
	}

	start := time.Now()
	cv, err := extraction.New(client, *timeout).Extract(ctx, freeText)
	if err != nil {
		exitErr(fmt.Sprintf("extract cv: %v", err))
	}

	pretty, err := json.MarshalIndent(cv, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	fmt.Fprintf(os.Stderr, "extracted in %s\n", time.Since(start).Round(time.Millisecond))
}

func readInput(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	text, err := extract.ExtractTextFromBytes(ctx, raw, mimeFromExt(path), filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("extract input text: %w", err)
	}
	return text, nil
}

func buildClient(ctx context.Context, cfg config.Config, provider, model string, timeout time.Duration) (llm.Completer, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "gemini":
		return gemini.New(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: model})
	case "openai":
		if strings.TrimSpace(model) == "" {
			model = "gpt-4o-mini"
		}
		return openai.NewPromptClient(cfg.OpenAIAPIKey, model, timeout)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extract.MimePDF
	case ".docx":
		return extract.MimeDOCX
	default:
		return extract.MimeText
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
