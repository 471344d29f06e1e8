package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultVoice is the neural voice used when a request names none
const DefaultVoice = "de-AT-IngridNeural"

// DefaultOutputFormat is the audio format requested from the synthesis endpoint
const DefaultOutputFormat = "audio-24khz-48kbitrate-mono-mp3"

const maxAudioBytes = 16 << 20

// Token is a short-lived authorization token for browser-side speech use
type Token struct {
	Token  string `json:"token"`
	Region string `json:"region"`
}

// Client calls the Azure Speech REST endpoints of one region
type Client struct {
	key          string
	region       string
	voice        string
	outputFormat string
	tokenURL     string
	synthesisURL string
	httpClient   *http.Client
	logger       *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithVoice sets the default synthesis voice
func WithVoice(voice string) Option {
	return func(c *Client) {
		if voice != "" {
			c.voice = voice
		}
	}
}

// WithOutputFormat sets the X-Microsoft-OutputFormat of synthesized audio
func WithOutputFormat(format string) Option {
	return func(c *Client) {
		if format != "" {
			c.outputFormat = format
		}
	}
}

// WithEndpoints overrides the token and synthesis URLs
func WithEndpoints(tokenURL, synthesisURL string) Option {
	return func(c *Client) {
		c.tokenURL = tokenURL
		c.synthesisURL = synthesisURL
	}
}

// WithHTTPClient replaces the HTTP client used for requests
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a speech client for the given subscription key and region
func NewClient(key, region string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		key:          key,
		region:       region,
		voice:        DefaultVoice,
		outputFormat: DefaultOutputFormat,
		tokenURL:     fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken", region),
		synthesisURL: fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		logger:       logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// IssueToken exchanges the subscription key for a temporary token
func (c *Client) IssueToken(ctx context.Context) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	data, err := c.do(req, 64<<10)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &Token{Token: string(data), Region: c.region}, nil
}

// Synthesize renders text as speech; an empty voice selects the default
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required")
	}
	if voice == "" {
		voice = c.voice
	}

	ssml, err := BuildSSML(text, voice)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.synthesisURL, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.outputFormat)
	req.Header.Set("User-Agent", "chat-gateway")

	audio, err := c.do(req, maxAudioBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	c.logger.Debug("speech synthesized",
		zap.String("voice", voice),
		zap.Int("text_length", len(text)),
		zap.Int("audio_bytes", len(audio)),
	)

	return audio, nil
}

func (c *Client) do(req *http.Request, limit int64) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call speech service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("speech service returned status %s", resp.Status)
	}

	return data, nil
}

// BuildSSML wraps text in a single-voice SSML document
func BuildSSML(text, voice string) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("failed to escape text: %w", err)
	}

	var escapedVoice bytes.Buffer
	if err := xml.EscapeText(&escapedVoice, []byte(voice)); err != nil {
		return "", fmt.Errorf("failed to escape voice: %w", err)
	}

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s">%s</voice></speak>`,
		voiceLocale(voice), escapedVoice.String(), escaped.String(),
	), nil
}

// voiceLocale extracts the locale prefix of a voice name such as de-AT-IngridNeural
func voiceLocale(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}
