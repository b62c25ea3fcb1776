package oracle

// groq.go — oráculo de resolución sobre un endpoint chat-completions
// compatible con Groq/OpenAI.
//
// El contrato con el orquestador es que Resolve nunca falla: cualquier
// problema (transporte, status != 2xx, JSON malformado) degrada a
// domain.FallbackResolution. La confianza upstream se clampa a [0,100].

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/predictor/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama3-8b-8192"
	defaultTimeout = 15 * time.Second

	// El endpoint de Groq admite ráfagas cortas; una resolución por evento
	// no necesita más que esto.
	oracleRatePerSec = 2
	oracleBurst      = 2
)

const systemPrompt = "You are an expert prediction analyst. Always provide factual, unbiased assessments based on available information."

const promptTemplate = `You are an AI judge for a prediction betting platform. You need to determine if the following prediction event should be answered YES or NO based on current real-world information and likelihood.

Event: %q
Description: %q

Respond with JSON in this exact format:
{"answer": "YES" or "NO", "confidence": number between 0 and 100, "reasoning": "brief explanation of your decision"}`

// Client implementa ports.Oracle contra un endpoint chat-completions.
type Client struct {
	http    *http.Client
	base    string
	model   string
	apiKey  string
	limiter *rate.Limiter
}

// NewClient crea un Client. base y model vacíos usan los valores de Groq.
func NewClient(base, model, apiKey string, timeout time.Duration) *Client {
	if base == "" {
		base = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		base:    base,
		model:   model,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(oracleRatePerSec, oracleBurst),
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type resolutionPayload struct {
	Answer     string `json:"answer"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// Resolve determina la respuesta del evento. Nunca devuelve error: degrada a
// la resolución fallback para que la liquidación siempre avance.
func (c *Client) Resolve(ctx context.Context, title, description string) domain.Resolution {
	res, err := c.resolve(ctx, title, description)
	if err != nil {
		slog.Warn("oracle: resolution degraded to fallback", "title", title, "err", err)
		return domain.FallbackResolution(err)
	}
	return res
}

func (c *Client) resolve(ctx context.Context, title, description string) (domain.Resolution, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Resolution{}, fmt.Errorf("oracle.resolve: rate limiter: %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(promptTemplate, title, description)},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("oracle.resolve: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("oracle.resolve: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("oracle.resolve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Resolution{}, fmt.Errorf("oracle.resolve: status %d: %s", resp.StatusCode, body)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return domain.Resolution{}, fmt.Errorf("oracle.resolve: decode: %w", err)
	}
	if len(chat.Choices) == 0 {
		return domain.Resolution{}, fmt.Errorf("oracle.resolve: empty choices")
	}

	var payload resolutionPayload
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &payload); err != nil {
		return domain.Resolution{}, fmt.Errorf("oracle.resolve: parse content: %w", err)
	}

	// Cualquier respuesta fuera de YES/NO se trata como NO, igual que el
	// contrato
	answer, ok := domain.ParseAnswer(payload.Answer)
	if !ok {
		answer = domain.AnswerNo
	}
	reasoning := payload.Reasoning
	if reasoning == "" {
		reasoning = "AI analysis completed"
	}

	return domain.Resolution{
		Answer:     answer,
		Confidence: domain.ClampConfidence(payload.Confidence),
		Reasoning:  reasoning,
	}, nil
}

// Static es un oráculo determinista para desarrollo y tests: devuelve siempre
// la misma resolución.
type Static struct {
	Resolution domain.Resolution
}

// NewStatic crea un oráculo fijo con la respuesta dada.
func NewStatic(answer domain.Answer, confidence int, reasoning string) *Static {
	return &Static{Resolution: domain.Resolution{
		Answer:     answer,
		Confidence: domain.ClampConfidence(confidence),
		Reasoning:  reasoning,
	}}
}

// Resolve devuelve la resolución configurada.
func (s *Static) Resolve(context.Context, string, string) domain.Resolution {
	return s.Resolution
}
