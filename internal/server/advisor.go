// internal/server/advisor.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"nutrilog/internal/estimate"
	"nutrilog/internal/models"
)

// Advisor asks an external model gateway for a second, independent calorie
// opinion on a meal description. It is optional: a nil *Advisor means
// estimates stay purely local, and a gateway failure degrades to the local
// estimate instead of failing the operation or inventing numbers.
type Advisor struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
}

// NewAdvisor returns nil when no gateway URL is configured.
func NewAdvisor(url, apiKey, model string) *Advisor {
	if url == "" {
		return nil
	}
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}
	return &Advisor{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		url:    url,
		apiKey: apiKey,
		model:  model,
	}
}

const advisorSystemPrompt = `You are a nutrition assistant. Estimate the total calories and macronutrients of the meal the user describes. The description may be in Chinese or English.

IMPORTANT: Always respond with valid JSON in this exact format:
{
  "kcal": [number],
  "protein_g": [number],
  "carbs_g": [number],
  "fat_g": [number],
  "confidence": "high|medium|low"
}

Use "high" only when the description states exact amounts, "low" when portion sizes are guesses.`

type advisorResponse struct {
	Kcal       float64 `json:"kcal"`
	ProteinG   float64 `json:"protein_g"`
	CarbsG     float64 `json:"carbs_g"`
	FatG       float64 `json:"fat_g"`
	Confidence string  `json:"confidence"` // "high", "medium", "low"
}

// EstimateMeal returns the advisor's opinion as a reconcilable estimate.
func (a *Advisor) EstimateMeal(ctx context.Context, description string) (estimate.Estimate, error) {
	userPrompt := fmt.Sprintf("Estimate the calories and macros for this meal: %q", description)

	completionRequest := map[string]interface{}{
		"model":         a.model,
		"system_prompt": advisorSystemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": userPrompt,
			},
		},
		"max_tokens":  500,
		"temperature": 0.1,
	}

	raw, err := a.callGateway(ctx, "create_completion", completionRequest)
	if err != nil {
		return estimate.Estimate{}, fmt.Errorf("failed to get advisor completion: %w", err)
	}

	return a.parseResponse(raw)
}

func (a *Advisor) callGateway(ctx context.Context, toolName string, args interface{}) (string, error) {
	requestData := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      toolName,
			"arguments": args,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("request failed with status %d and couldn't read body: %v", resp.StatusCode, err)
		}
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var mcpResponse map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&mcpResponse); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if result, ok := mcpResponse["result"].(map[string]interface{}); ok {
		if content, ok := result["content"].([]interface{}); ok && len(content) > 0 {
			if textContent, ok := content[0].(map[string]interface{}); ok {
				if text, ok := textContent["text"].(string); ok {
					return text, nil
				}
			}
		}
	}

	return "", fmt.Errorf("unexpected response format")
}

// parseResponse digs the JSON opinion out of whatever wrapping the gateway
// used: a completion envelope with a content field, or the bare object.
// Anything unusable is an error; the caller falls back to the local
// estimate rather than logging made-up data.
func (a *Advisor) parseResponse(raw string) (estimate.Estimate, error) {
	content := raw
	var completion struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(raw), &completion); err == nil && completion.Content != "" {
		content = completion.Content
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return estimate.Estimate{}, fmt.Errorf("no JSON object in advisor reply")
	}

	var resp advisorResponse
	if err := json.Unmarshal([]byte(content[start:end+1]), &resp); err != nil {
		return estimate.Estimate{}, fmt.Errorf("failed to parse advisor reply: %w", err)
	}
	if resp.Kcal <= 0 || math.IsNaN(resp.Kcal) || math.IsInf(resp.Kcal, 0) {
		return estimate.Estimate{}, fmt.Errorf("advisor returned no usable calorie value")
	}

	return estimate.Estimate{
		Kcal:        int(math.Round(resp.Kcal)),
		Uncertainty: confidenceUncertainty(resp.Confidence),
		Macros: models.Macros{
			ProteinG: resp.ProteinG,
			CarbsG:   resp.CarbsG,
			FatG:     resp.FatG,
		},
	}, nil
}

func confidenceUncertainty(confidence string) float64 {
	switch strings.ToLower(confidence) {
	case "high":
		return 0.10
	case "medium":
		return 0.20
	default:
		return 0.35
	}
}
