package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/ekaya-inc/studysphere/pkg/apperrors"
	"github.com/ekaya-inc/studysphere/pkg/jsonutil"
	"github.com/ekaya-inc/studysphere/pkg/llm"
	"github.com/ekaya-inc/studysphere/pkg/models"
)

// rawPlanElement decodes one array element leniently: titles and priorities
// may arrive as any JSON scalar.
type rawPlanElement struct {
	Title    jsonutil.FlexibleString `json:"title"`
	Priority jsonutil.FlexibleString `json:"priority"`
}

// ParsePlanResponse extracts plan items from a model response. The response
// may be a bare JSON array or an object whose first array-valued member (in
// document order) holds the items, optionally after a leading <think> block
// and inside a markdown code fence. Anything else, including invalid JSON,
// is apperrors.ErrMalformedResponse. Elements that are not objects come back
// as empty items so ValidatePlanItems counts them as dropped.
func ParsePlanResponse(raw string) ([]models.RawPlanItem, error) {
	cleaned := llm.CleanResponse(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", apperrors.ErrMalformedResponse)
	}

	var top json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}

	elements, err := planArray(top)
	if err != nil {
		return nil, err
	}

	items := make([]models.RawPlanItem, 0, len(elements))
	for _, el := range elements {
		el = bytes.TrimSpace(el)
		if len(el) == 0 || el[0] != '{' {
			items = append(items, models.RawPlanItem{})
			continue
		}
		var e rawPlanElement
		if err := json.Unmarshal(el, &e); err != nil {
			items = append(items, models.RawPlanItem{})
			continue
		}
		items = append(items, models.RawPlanItem{
			Title:    e.Title.String(),
			Priority: e.Priority.String(),
		})
	}
	return items, nil
}

// planArray returns the elements of top if it is an array, or of the first
// array-valued member if it is an object.
func planArray(top json.RawMessage) ([]json.RawMessage, error) {
	top = bytes.TrimSpace(top)
	if len(top) == 0 {
		return nil, fmt.Errorf("%w: empty document", apperrors.ErrMalformedResponse)
	}

	switch top[0] {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(top, &elements); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
		}
		return elements, nil
	case '{':
		// Walk tokens instead of decoding into a map so member order is kept.
		dec := json.NewDecoder(bytes.NewReader(top))
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
		}
		for dec.More() {
			if _, err := dec.Token(); err != nil { // key
				return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
			}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
			}
			value = bytes.TrimSpace(value)
			if len(value) > 0 && value[0] == '[' {
				var elements []json.RawMessage
				if err := json.Unmarshal(value, &elements); err != nil {
					return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
				}
				return elements, nil
			}
		}
		return nil, fmt.Errorf("%w: object has no array member", apperrors.ErrMalformedResponse)
	default:
		return nil, fmt.Errorf("%w: expected array or object", apperrors.ErrMalformedResponse)
	}
}

// ValidatePlanItems turns raw items into task inputs. Control characters in
// titles become spaces and runs of whitespace collapse to one; items whose
// title is then empty are dropped. Unrecognized priorities become the default.
// It returns the valid inputs and the number dropped.
func ValidatePlanItems(items []models.RawPlanItem) ([]models.TaskInput, int) {
	valid := make([]models.TaskInput, 0, len(items))
	dropped := 0
	for _, item := range items {
		title := cleanPlanTitle(item.Title)
		if title == "" {
			dropped++
			continue
		}
		if len([]rune(title)) > maxPlanTitleChars {
			title = string([]rune(title)[:maxPlanTitleChars])
		}
		valid = append(valid, models.TaskInput{
			Title:    title,
			Priority: string(models.CoercePriority(item.Priority)),
		})
	}
	return valid, dropped
}

// maxPlanTitleChars matches the TaskInput title limit.
const maxPlanTitleChars = 500

func cleanPlanTitle(title string) string {
	title = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, title)
	return strings.Join(strings.Fields(title), " ")
}
