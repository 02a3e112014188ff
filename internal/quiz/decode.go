package quiz

import (
	"encoding/json"
	"log"
	"strings"

	"studyguideai/internal/metrics"
)

// Decode turns raw model text into quiz items. The model is asked for a bare
// JSON array but frequently wraps it in a Markdown code fence, which is
// removed first. Anything that still fails to parse degrades to an empty,
// non-nil slice.
func Decode(raw string) []Item {
	body := stripFence(raw)
	if body == "" {
		log.Printf("WARN: Quiz response was empty")
		metrics.QuizDecodeFailures.Inc()
		return []Item{}
	}

	var items []Item
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		log.Printf("WARN: Failed to parse quiz JSON: %v", err)
		log.Printf("DEBUG: Raw quiz text before parse error: %s", preview(raw, 500))
		metrics.QuizDecodeFailures.Inc()
		return []Item{}
	}
	if items == nil {
		// a literal `null` decodes without error
		return []Item{}
	}

	if problems := Validate(items); len(problems) > 0 {
		log.Printf("WARN: Quiz has %d structural problems: %s", len(problems), strings.Join(problems, "; "))
	}
	return items
}

// stripFence removes a leading ``` or ~~~ fence, including any info string
// such as "json" on the opening line, and any trailing fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	for _, fence := range []string{"```", "~~~"} {
		if !strings.HasPrefix(s, fence) {
			continue
		}
		rest := s[len(fence):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		} else {
			// single-line form: ```json[...]```
			rest = strings.TrimLeft(rest, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		}
		s = strings.TrimSpace(rest)
		break
	}
	for _, fence := range []string{"```", "~~~"} {
		s = strings.TrimSpace(strings.TrimSuffix(s, fence))
	}
	return s
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
