package llm

import (
	"regexp"
	"strings"
)

// thinkTagPattern matches a <think>...</think> block at the start of a response.
var thinkTagPattern = regexp.MustCompile(`(?s)^\s*<think>(.*?)</think>\s*`)

// codeFencePattern matches a response wrapped in a single markdown code fence,
// with an optional language tag.
var codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\n?(.*?)\\s*```$")

// ExtractThinking returns the content of a leading <think> block, or "".
func ExtractThinking(response string) string {
	matches := thinkTagPattern.FindStringSubmatch(response)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// StripThinking removes a leading <think>...</think> block.
func StripThinking(response string) string {
	return thinkTagPattern.ReplaceAllString(response, "")
}

// StripCodeFence removes a markdown code fence surrounding the whole response.
// Text with content outside the fence is returned trimmed but otherwise unchanged.
func StripCodeFence(response string) string {
	trimmed := strings.TrimSpace(response)
	if m := codeFencePattern.FindStringSubmatch(trimmed); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// CleanResponse trims a model response and strips a leading think block and
// a surrounding code fence. It never inspects or repairs the payload itself.
func CleanResponse(response string) string {
	return StripCodeFence(StripThinking(strings.TrimSpace(response)))
}
