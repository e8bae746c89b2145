package screening

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jobboard-backend/internal/applications"
)

// DefaultReasoning fills in a reply that carries no reasoning.
const DefaultReasoning = "No reasoning provided by AI."

// Result is a decision constrained to the three application statuses.
type Result struct {
	Status    applications.Status
	Reasoning string
}

// ParseDecision interprets an untrusted model reply. Decisions outside the
// status set collapse to PENDING. Only a reply that is not a JSON object errors.
func ParseDecision(raw string) (Result, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return Result{}, fmt.Errorf("parse decision reply: %w", err)
	}
	if data == nil {
		return Result{}, errors.New("parse decision reply: not a json object")
	}

	result := Result{Status: applications.StatusPending, Reasoning: DefaultReasoning}
	if decision, ok := data["decision"].(string); ok {
		if status, valid := applications.ParseStatus(decision); valid {
			result.Status = status
		}
	}
	switch reasoning := data["reasoning"].(type) {
	case nil:
	case string:
		result.Reasoning = reasoning
	default:
		result.Reasoning = fmt.Sprint(reasoning)
	}
	return result, nil
}

// Fallback is the safe default recorded when no decision could be obtained.
func Fallback(cause error) Result {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return Result{Status: applications.StatusPending, Reasoning: "AI analysis failed: " + msg}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
