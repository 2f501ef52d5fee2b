package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// snippetLimit bounds response excerpts quoted in errors.
const snippetLimit = 160

// decodeReply unmarshals the JSON object in content into target. Markdown
// fences and chatter around the object are tolerated.
func decodeReply(content string, target any) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("empty payload")
	}
	err := json.Unmarshal([]byte(content), target)
	if err == nil {
		return nil
	}
	object := extractObject(content)
	if object == "" || object == content {
		return fmt.Errorf("%w (payload snippet: %s)", err, summarizePayloadSnippet(content))
	}
	if err := json.Unmarshal([]byte(object), target); err != nil {
		return fmt.Errorf("%w (extracted object: %s)", err, summarizePayloadSnippet(object))
	}
	return nil
}

// parseCaption reads {"caption": ...} from content. Models that ignore the
// requested response format answer in prose, which is used as-is once any
// fence is removed.
func parseCaption(content string) string {
	var reply struct {
		Caption string `json:"caption"`
	}
	if err := decodeReply(content, &reply); err != nil {
		return unfence(content)
	}
	return strings.TrimSpace(reply.Caption)
}

// extractObject returns the outermost {...} span of content after unfencing.
func extractObject(content string) string {
	body := unfence(content)
	if body == "" || body[0] == '{' {
		return body
	}
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end <= start {
		return body
	}
	return strings.TrimSpace(body[start : end+1])
}

// unfence strips a surrounding ``` block, with or without a json tag.
func unfence(content string) string {
	body := strings.TrimSpace(content)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimLeft(body[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	body, _, _ = strings.Cut(body, "```")
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > snippetLimit {
		clean = string(runes[:snippetLimit]) + "..."
	}
	return clean
}
