package coderule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"platform-service/internal/model"
	"platform-service/pkg/apperr"
)

// Component is one element of a code rule. Kind selects which parameters
// apply; the zero values of the others are ignored.
type Component struct {
	Kind string `json:"kind"`
	// fixed_text
	Text string `json:"text,omitempty"`
	// date
	Format string `json:"format,omitempty"`
	// auto_counter
	Digits       int   `json:"digits,omitempty"`
	FixedWidth   bool  `json:"fixed_width,omitempty"`
	InitialValue int64 `json:"initial_value,omitempty"`
	// field_ref
	Field string `json:"field,omitempty"`
}

// ParseComponents decodes and validates a rule's component list.
func ParseComponents(raw string) ([]Component, error) {
	var components []Component
	if err := json.Unmarshal([]byte(raw), &components); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid rule components", err)
	}
	if err := ValidateComponents(components); err != nil {
		return nil, err
	}
	return components, nil
}

// ValidateComponents checks that the components form a valid generator.
func ValidateComponents(components []Component) error {
	if len(components) == 0 {
		return apperr.New(apperr.KindValidation, "rule must have at least one component")
	}
	counters := 0
	for i, comp := range components {
		switch comp.Kind {
		case model.ComponentFixedText:
			if comp.Text == "" {
				return apperr.Newf(apperr.KindValidation, "component %d: fixed_text requires text", i)
			}
		case model.ComponentDate:
			if _, err := dateLayout(comp.Format); err != nil {
				return apperr.Newf(apperr.KindValidation, "component %d: %v", i, err)
			}
		case model.ComponentAutoCounter:
			counters++
			if comp.Digits < 1 || comp.Digits > 18 {
				return apperr.Newf(apperr.KindValidation, "component %d: digits must be in [1, 18]", i)
			}
			if comp.InitialValue < 0 {
				return apperr.Newf(apperr.KindValidation, "component %d: initial_value must not be negative", i)
			}
		case model.ComponentFieldRef:
			if comp.Field == "" {
				return apperr.Newf(apperr.KindValidation, "component %d: field_ref requires field", i)
			}
		default:
			return apperr.Newf(apperr.KindValidation, "component %d: unknown kind %q", i, comp.Kind)
		}
	}
	if counters > 1 {
		return apperr.New(apperr.KindValidation, "rule may have at most one auto_counter component")
	}
	return nil
}

// HasCounter reports whether the components include an auto_counter.
func HasCounter(components []Component) bool {
	for _, comp := range components {
		if comp.Kind == model.ComponentAutoCounter {
			return true
		}
	}
	return false
}

// dateLayout converts a rule date format (YYYY, MM, DD tokens) into a Go
// time layout.
func dateLayout(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("date requires format")
	}
	layout := format
	replacements := []struct{ token, layout string }{
		{"YYYY", "2006"},
		{"YY", "06"},
		{"MM", "01"},
		{"DD", "02"},
	}
	for _, r := range replacements {
		layout = strings.ReplaceAll(layout, r.token, r.layout)
	}
	// Anything left besides the substituted layout fragments and separators
	// would emit literally; reject alphabetic leftovers to catch typos.
	for _, ch := range layout {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			return "", fmt.Errorf("unsupported date format %q", format)
		}
	}
	return layout, nil
}

// CycleKey computes the counter cycle key for a reset cycle at a point in
// time. Rules that never reset share a single sentinel key.
func CycleKey(resetCycle string, now time.Time) (string, error) {
	switch resetCycle {
	case model.ResetCycleNever, "":
		return model.CycleKeyNever, nil
	case model.ResetCycleDaily:
		return now.Format("2006-01-02"), nil
	case model.ResetCycleMonthly:
		return now.Format("2006-01"), nil
	case model.ResetCycleYearly:
		return now.Format("2006"), nil
	default:
		return "", apperr.Newf(apperr.KindValidation, "unknown reset cycle %q", resetCycle)
	}
}

// Render concatenates the components into an identifier. counterValue is the
// already-claimed value for the auto_counter component; fields supplies
// field_ref values.
func Render(components []Component, now time.Time, fields map[string]string, counterValue int64) (string, error) {
	var sb strings.Builder
	for _, comp := range components {
		switch comp.Kind {
		case model.ComponentFixedText:
			sb.WriteString(comp.Text)
		case model.ComponentDate:
			layout, err := dateLayout(comp.Format)
			if err != nil {
				return "", apperr.Wrap(apperr.KindValidation, "invalid date component", err)
			}
			sb.WriteString(now.Format(layout))
		case model.ComponentAutoCounter:
			if comp.FixedWidth {
				if counterValue >= pow10(comp.Digits) {
					return "", apperr.Newf(apperr.KindValidation,
						"counter exhausted: value %d does not fit %d digits", counterValue, comp.Digits)
				}
				sb.WriteString(fmt.Sprintf("%0*d", comp.Digits, counterValue))
			} else {
				sb.WriteString(fmt.Sprintf("%d", counterValue))
			}
		case model.ComponentFieldRef:
			value, ok := fields[comp.Field]
			if !ok || value == "" {
				return "", apperr.Newf(apperr.KindValidation, "missing field %q", comp.Field)
			}
			sb.WriteString(value)
		}
	}
	return sb.String(), nil
}

func pow10(digits int) int64 {
	result := int64(1)
	for i := 0; i < digits; i++ {
		result *= 10
	}
	return result
}
