package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"mamacare/pkg/config"

	openai "github.com/sashabaranov/go-openai"
)

// Groq exposes an OpenAI-compatible API, so the same client covers both the
// chat reply and the structured symptom analysis.

var (
	ErrGroqDisabled = errors.New("groq is disabled via config")
	ErrEmptyReply   = errors.New("empty reply from model")
)

const chatSystemPrompt = "You are a helpful and empathetic AI assistant for an app called MamaCare, designed to support pregnant women in Nigeria. Provide concise, safe, and reassuring advice. If a question seems urgent or high-risk (e.g., mentions bleeding, severe pain, etc.), strongly advise the user to contact a healthcare professional or call 112 (emergency number) immediately. Do not provide medical diagnoses."

// SymptomAnalysis is the structured result of the analysis mode. Causes is
// only populated for premium callers.
type SymptomAnalysis struct {
	RiskLevel       string   `json:"riskLevel"`
	Causes          []string `json:"causes,omitempty"`
	Recommendations []string `json:"recommendations"`
}

// Responder is the AI bridge seen by the handlers; satisfied by GroqService
// and by fakes in tests.
type Responder interface {
	Reply(ctx context.Context, message string) (string, error)
	Analyze(ctx context.Context, message string, isPremium bool, week int) (*SymptomAnalysis, error)
}

type GroqService struct {
	client  *openai.Client
	model   string
	enabled bool
}

func NewGroqService() *GroqService {
	return NewGroqServiceWith(config.GroqAPIKey, config.GroqModel, config.GroqBaseURL, config.IsGroqEnabled)
}

func NewGroqServiceWith(apiKey, model, baseURL string, enabled bool) *GroqService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &GroqService{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		enabled: enabled,
	}
}

// Reply produces a single chat-mode completion. One call, no retry; failures
// are the caller's to surface.
func (s *GroqService) Reply(ctx context.Context, message string) (string, error) {
	if !s.enabled {
		log.Printf("[groq] disabled via config (IsGroqEnabled=false)")
		return "", ErrGroqDisabled
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: 0.7,
		MaxTokens:   250,
	})
	if err != nil {
		return "", fmt.Errorf("groq chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

func analysisSystemPrompt(isPremium bool, week int) string {
	weekDesc := "in an unknown week of"
	if week > 0 {
		weekDesc = fmt.Sprintf("in week %d of", week)
	}
	if isPremium {
		return fmt.Sprintf(`You are an AI medical assistant for MamaCare. A user, who is %s pregnancy, is reporting symptoms. Analyze these symptoms and provide a structured JSON response with three keys: "riskLevel" (string: "low", "medium", or "high"), "causes" (array of strings), and "recommendations" (array of strings with actionable advice). Prioritize safety; if symptoms suggest high risk, set riskLevel to "high" and advise immediate medical attention.`, weekDesc)
	}
	return fmt.Sprintf(`You are an AI medical assistant for MamaCare. A user, who is %s pregnancy, is reporting symptoms. Provide a limited analysis as a structured JSON response with two keys: "riskLevel" (string: "low", "medium", or "high") and "recommendations" (an array with a single, concise string of general advice). Recommend upgrading for details. If symptoms suggest high risk, set riskLevel to "high" and advise immediate medical attention.`, weekDesc)
}

// Analyze runs the symptom-checker mode and returns a validated structured
// result. The prompt itself is shortened for non-premium callers so richer
// content is never generated for them; the post-conditions are enforced here
// as well so premium-only fields cannot leak even off a misbehaving model.
func (s *GroqService) Analyze(ctx context.Context, message string, isPremium bool, week int) (*SymptomAnalysis, error) {
	if !s.enabled {
		log.Printf("[groq] disabled via config (IsGroqEnabled=false)")
		return nil, ErrGroqDisabled
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt(isPremium, week)},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: 0.7,
		MaxTokens:   400,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("groq analysis completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyReply
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if raw == "" {
		return nil, ErrEmptyReply
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		return nil, err
	}
	if !isPremium {
		analysis.Causes = nil
		if len(analysis.Recommendations) > 1 {
			analysis.Recommendations = analysis.Recommendations[:1]
		}
	}
	return analysis, nil
}

// ParseAnalysis decodes the model output, with one recovery pass for replies
// wrapped in prose or markdown fences before giving up.
func ParseAnalysis(raw string) (*SymptomAnalysis, error) {
	var a SymptomAnalysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		recovered, ok := extractJSONObject(raw)
		if !ok {
			return nil, fmt.Errorf("analysis is not valid JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(recovered), &a); err != nil {
			return nil, fmt.Errorf("analysis is not valid JSON after recovery: %w", err)
		}
	}
	a.RiskLevel = strings.ToLower(strings.TrimSpace(a.RiskLevel))
	switch a.RiskLevel {
	case "low", "medium", "high":
	default:
		return nil, fmt.Errorf("analysis riskLevel %q is not one of low/medium/high", a.RiskLevel)
	}
	if len(a.Recommendations) == 0 {
		return nil, errors.New("analysis has no recommendations")
	}
	return &a, nil
}

// extractJSONObject pulls the outermost {...} span out of raw, after
// stripping markdown code fences if present.
func extractJSONObject(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
