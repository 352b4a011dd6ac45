package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AudioClient posts audio files to a Whisper-compatible transcription
// endpoint: the OpenAI audio API or a local whisper.cpp server.
type AudioClient struct {
	name       string
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewTranscriber targets the OpenAI audio transcriptions API.
func NewTranscriber(apiKey, model string, timeout time.Duration) (*AudioClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "whisper-1"
	}
	return &AudioClient{
		name:       "openai",
		endpoint:   transcriptionsURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: orDefaultTimeout(timeout)},
	}, nil
}

// NewWhisperServerTranscriber targets a whisper.cpp server, which keeps its
// model loaded between requests.
func NewWhisperServerTranscriber(serverURL string, timeout time.Duration) (*AudioClient, error) {
	base := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if base == "" {
		return nil, fmt.Errorf("WHISPER_SERVER_URL is required")
	}
	return &AudioClient{
		name:       "whispercpp",
		endpoint:   base + "/inference",
		httpClient: &http.Client{Timeout: orDefaultTimeout(timeout)},
	}, nil
}

// Transcribe uploads the file at audioPath and returns the recognized text.
func (c *AudioClient) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	fields := map[string]string{
		"response_format": "json",
		"language":        language,
		"model":           c.model,
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("%s transcription timeout: %w", c.name, err)
		}
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%s http status %d: %s", c.name, resp.StatusCode, errorMessage(raw))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%s response parse: %w", c.name, err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

func orDefaultTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}
	return timeout
}
