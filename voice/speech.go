package voice

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
	"strings"
	"time"

	"github.com/SaiNageswarS/krishi-boot/llm"
)

const (
	groqAudioURL = "https://api.groq.com/openai/v1/audio"

	DefaultTranscriptionModel = "whisper-large-v3"
	DefaultSpeechModel        = "playai-tts"
	DefaultSpeechVoice        = "Fritz-PlayAI"
)

var ErrSpeechUnavailable = errors.New("voice: speech service is not configured")

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName, language string) (string, error)
}

// Synthesizer turns text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// GroqSpeechClient uses Groq's OpenAI-compatible audio endpoints for both
// speech-to-text and text-to-speech.
type GroqSpeechClient struct {
	apiKey             string
	baseURL            string
	httpClient         *http.Client
	transcriptionModel string
	speechModel        string
	voice              string
}

type SpeechOption func(*GroqSpeechClient)

func WithSpeechURL(baseURL string) SpeechOption {
	return func(c *GroqSpeechClient) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithSpeechHTTPClient(httpClient *http.Client) SpeechOption {
	return func(c *GroqSpeechClient) { c.httpClient = httpClient }
}

func WithTranscriptionModel(model string) SpeechOption {
	return func(c *GroqSpeechClient) {
		if model != "" {
			c.transcriptionModel = model
		}
	}
}

func WithSpeechVoice(model, voice string) SpeechOption {
	return func(c *GroqSpeechClient) {
		if model != "" {
			c.speechModel = model
		}
		if voice != "" {
			c.voice = voice
		}
	}
}

// NewGroqSpeechClient reads GROQ_API_KEY, reporting llm.ErrMissingAPIKey when unset.
func NewGroqSpeechClient(opts ...SpeechOption) (*GroqSpeechClient, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY: %w", llm.ErrMissingAPIKey)
	}

	c := &GroqSpeechClient{
		apiKey:             apiKey,
		baseURL:            groqAudioURL,
		httpClient:         &http.Client{Timeout: 60 * time.Second},
		transcriptionModel: DefaultTranscriptionModel,
		speechModel:        DefaultSpeechModel,
		voice:              DefaultSpeechVoice,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *GroqSpeechClient) Transcribe(ctx context.Context, audio []byte, fileName, language string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("error writing audio: %w", err)
	}
	_ = form.WriteField("model", c.transcriptionModel)
	_ = form.WriteField("response_format", "json")
	if language != "" {
		_ = form.WriteField("language", language)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("error closing form: %w", err)
	}

	respBody, err := c.do(ctx, c.baseURL+"/transcriptions", form.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}

	var out transcriptionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("error unmarshaling transcription: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize returns WAV audio. The language is not sent; the configured
// voice decides pronunciation.
func (c *GroqSpeechClient) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	payload, err := json.Marshal(speechRequest{
		Model:          c.speechModel,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: "wav",
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling speech request: %w", err)
	}

	return c.do(ctx, c.baseURL+"/speech", "application/json", bytes.NewReader(payload))
}

func (c *GroqSpeechClient) do(ctx context.Context, endpoint, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
