package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type malformedResponseError struct {
	Reason  string
	Snippet string
}

func (e *malformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %s (response_snippet=%s)", e.Reason, e.Snippet)
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when stream=false.
		Delta        chatCompletionMessage `json:"delta"`
		Text         string                `json:"text"`
		FinishReason string                `json:"finish_reason"`
	} `json:"choices"`
	Analysis *string `json:"analysis"`
}

type chatCompletionMessage struct {
	Content json.RawMessage `json:"content"`
	Refusal string          `json:"refusal"`
}

// decodeAnalysis accepts, in order: a chat completion envelope, an
// {"analysis": "..."} object, a bare JSON string, or a plain-text body.
func decodeAnalysis(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", &malformedResponseError{Reason: "empty body", Snippet: "<empty>"}
	}

	switch trimmed[0] {
	case '{':
		var completion chatCompletionResponse
		if err := json.Unmarshal(trimmed, &completion); err != nil {
			return "", &malformedResponseError{Reason: "invalid json", Snippet: summarizePayloadSnippet(string(trimmed))}
		}
		if len(completion.Choices) > 0 {
			if text := extractCompletionText(completion); text != "" {
				return text, nil
			}
			return "", &malformedResponseError{
				Reason:  fmt.Sprintf("empty content (finish_reason=%q)", completion.Choices[0].FinishReason),
				Snippet: summarizePayloadSnippet(string(trimmed)),
			}
		}
		if completion.Analysis != nil {
			if text := cleanRecipeText(*completion.Analysis); text != "" {
				return text, nil
			}
		}
		return "", &malformedResponseError{Reason: "no choices or analysis field", Snippet: summarizePayloadSnippet(string(trimmed))}
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return "", &malformedResponseError{Reason: "invalid json string", Snippet: summarizePayloadSnippet(string(trimmed))}
		}
		if text = cleanRecipeText(text); text != "" {
			return text, nil
		}
		return "", &malformedResponseError{Reason: "empty string", Snippet: "<empty>"}
	case '[':
		return "", &malformedResponseError{Reason: "unexpected array", Snippet: summarizePayloadSnippet(string(trimmed))}
	default:
		return cleanRecipeText(string(trimmed)), nil
	}
}

func extractCompletionText(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		for _, candidate := range []string{
			contentText(choice.Message.Content),
			contentText(choice.Delta.Content),
			choice.Text,
		} {
			if text := cleanRecipeText(candidate); text != "" {
				return text
			}
		}
	}
	return ""
}

// contentText handles both string content and the array-of-parts form.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, part := range parts {
		if part.Type != "" && part.Type != "text" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// extractErrorMessage pulls a human-readable message out of a non-2xx body:
// error.message, then a string error, then message, then the status text.
func extractErrorMessage(body []byte, status int) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &envelope); err == nil {
		if len(envelope.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(envelope.Error, &nested); err == nil && strings.TrimSpace(nested.Message) != "" {
				return strings.TrimSpace(nested.Message)
			}
			var flat string
			if err := json.Unmarshal(envelope.Error, &flat); err == nil && strings.TrimSpace(flat) != "" {
				return strings.TrimSpace(flat)
			}
		}
		if msg := strings.TrimSpace(envelope.Message); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("analysis service returned %d %s", status, text)
	}
	return fmt.Sprintf("analysis service returned %d", status)
}

// cleanRecipeText trims whitespace and strips a surrounding markdown fence.
func cleanRecipeText(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	if idx := strings.IndexByte(body, '\n'); idx >= 0 && !strings.ContainsAny(body[:idx], " \t") {
		body = body[idx+1:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
