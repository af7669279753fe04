// Package oracle wraps the external vision model that turns a scoreboard
// screenshot into structured player stats. The model is a fallible black
// box: it is expected, not guaranteed, to reuse known spellings from the
// identity context, so downstream dedup never assumes it resolved identity.
package oracle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"scorecard-tracker/internal/config"
	"scorecard-tracker/internal/domain"
)

const endpointFormat = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

var (
	// ErrNotConfigured means no extraction credentials are present. The
	// whole run aborts on this, unlike per-image failures.
	ErrNotConfigured = errors.New("oracle: extraction model not configured")

	// ErrUnparseable means the model answered but not with the scoreboard
	// JSON contract. The image is dropped; the run continues.
	ErrUnparseable = errors.New("oracle: unparseable extraction response")

	// ErrEmptyResponse means the model returned no candidates.
	ErrEmptyResponse = errors.New("oracle: empty extraction response")
)

type Client struct {
	apiKey string
	model  string
	client *fasthttp.Client
	logger zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		apiKey: cfg.GeminiAPIKey,
		model:  cfg.GeminiModel,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         90 * time.Second,
			WriteTimeout:        30 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generation_config,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Extract sends one screenshot plus the known-identity context to the vision
// model and returns the structured result. The match timestamp and source
// image fields are left for the caller to assign.
func (c *Client) Extract(ctx context.Context, image []byte, mimeType string, knownPlayers []string) (*domain.ImageResult, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: BuildPrompt(knownPlayers)},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: &generationConfig{Temperature: 0.1},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extraction request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf(endpointFormat, c.model))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.SetBody(body)

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("model", c.model).
			Msg("extraction service returned non-OK status")
		return nil, fmt.Errorf("extraction service error: %d", resp.StatusCode())
	}

	var gen generateResponse
	if err := json.Unmarshal(resp.Body(), &gen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if gen.Error != nil {
		return nil, fmt.Errorf("extraction service error %d: %s", gen.Error.Code, gen.Error.Message)
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	text := gen.Candidates[0].Content.Parts[0].Text
	result, err := parseScoreboard(text)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", c.model).Msg("failed to parse extraction output")
		return nil, err
	}

	return result, nil
}

// MimeTypeFor maps an image filename to the mime type sent with the inline
// payload. Unknown extensions default to PNG, the common screenshot format.
func MimeTypeFor(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "image/png"
	}
}
