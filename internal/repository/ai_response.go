package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"apex-hub/internal/dto"
)

const codeFence = "```"

// StripCodeFence removes a surrounding markdown code fence, including an
// optional language tag right after the opening fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, codeFence) {
		s = strings.TrimPrefix(s, codeFence)
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
		})
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, codeFence)
	return strings.TrimSpace(s)
}

// parseAnalysis decodes a model reply. Fields with unexpected types are left
// empty; only text that is not a JSON object fails.
func parseAnalysis(text string) (dto.AnalysisResult, error) {
	var result dto.AnalysisResult

	body := []byte(StripCodeFence(text))
	if len(body) == 0 {
		return result, errors.New("empty response")
	}
	if !json.Valid(body) {
		return result, fmt.Errorf("invalid JSON: %s", snippet(body))
	}
	if body[0] != '{' {
		return result, fmt.Errorf("expected a JSON object: %s", snippet(body))
	}

	if err := json.Unmarshal(body, &result); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return dto.AnalysisResult{}, err
		}
	}

	// a reply that echoes the marker fields is still a successful parse
	result.Error = ""
	result.ErrorKind = ""
	return result, nil
}

func snippet(b []byte) string {
	const max = 120
	b = bytes.TrimSpace(b)
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
