package coderule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-service/internal/model"
	"platform-service/pkg/apperr"
)

var feb1 = time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)

func TestRenderMaterialRule(t *testing.T) {
	components := []Component{
		{Kind: model.ComponentFixedText, Text: "M-"},
		{Kind: model.ComponentDate, Format: "YYYYMMDD"},
		{Kind: model.ComponentFixedText, Text: "-"},
		{Kind: model.ComponentAutoCounter, Digits: 4, FixedWidth: true, InitialValue: 1},
	}

	code, err := Render(components, feb1, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, "M-20260201-0007", code)
}

func TestRenderSingleFixedText(t *testing.T) {
	code, err := Render([]Component{{Kind: model.ComponentFixedText, Text: "DEFAULT"}}, feb1, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "DEFAULT", code)
}

func TestRenderFieldRef(t *testing.T) {
	components := []Component{
		{Kind: model.ComponentFieldRef, Field: "category"},
		{Kind: model.ComponentFixedText, Text: "-"},
		{Kind: model.ComponentAutoCounter, Digits: 3, FixedWidth: true},
	}

	code, err := Render(components, feb1, map[string]string{"category": "RAW"}, 12)
	require.NoError(t, err)
	assert.Equal(t, "RAW-012", code)

	_, err = Render(components, feb1, nil, 12)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err), "missing field must be a validation error")
}

func TestRenderCounterWidths(t *testing.T) {
	fixed := []Component{{Kind: model.ComponentAutoCounter, Digits: 4, FixedWidth: true}}
	code, err := Render(fixed, feb1, nil, 42)
	require.NoError(t, err)
	assert.Equal(t, "0042", code)

	free := []Component{{Kind: model.ComponentAutoCounter, Digits: 4}}
	code, err = Render(free, feb1, nil, 12345)
	require.NoError(t, err)
	assert.Equal(t, "12345", code, "non-fixed width counters grow past digits")
}

func TestRenderCounterExhaustion(t *testing.T) {
	components := []Component{{Kind: model.ComponentAutoCounter, Digits: 2, FixedWidth: true}}

	code, err := Render(components, feb1, nil, 99)
	require.NoError(t, err)
	assert.Equal(t, "99", code)

	_, err = Render(components, feb1, nil, 100)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestDateLayouts(t *testing.T) {
	cases := []struct {
		format string
		want   string
	}{
		{"YYYY", "2026"},
		{"YYYYMMDD", "20260201"},
		{"YYYY-MM", "2026-02"},
		{"YYMMDD", "260201"},
	}
	for _, tc := range cases {
		code, err := Render([]Component{{Kind: model.ComponentDate, Format: tc.format}}, feb1, nil, 0)
		require.NoError(t, err, tc.format)
		assert.Equal(t, tc.want, code, tc.format)
	}
}

func TestValidateComponents(t *testing.T) {
	err := ValidateComponents(nil)
	assert.True(t, apperr.IsValidation(err), "empty component list")

	err = ValidateComponents([]Component{{Kind: "banana"}})
	assert.True(t, apperr.IsValidation(err), "unknown kind")

	err = ValidateComponents([]Component{{Kind: model.ComponentDate, Format: "QQQQ"}})
	assert.True(t, apperr.IsValidation(err), "bad date format")

	err = ValidateComponents([]Component{
		{Kind: model.ComponentAutoCounter, Digits: 4},
		{Kind: model.ComponentAutoCounter, Digits: 2},
	})
	assert.True(t, apperr.IsValidation(err), "two counters")

	err = ValidateComponents([]Component{
		{Kind: model.ComponentFixedText, Text: "M-"},
		{Kind: model.ComponentAutoCounter, Digits: 4, FixedWidth: true, InitialValue: 1},
	})
	assert.NoError(t, err)
}

func TestParseComponents(t *testing.T) {
	raw := `[{"kind":"fixed_text","text":"M-"},{"kind":"date","format":"YYYYMMDD"},{"kind":"auto_counter","digits":4,"fixed_width":true,"initial_value":1}]`
	components, err := ParseComponents(raw)
	require.NoError(t, err)
	require.Len(t, components, 3)
	assert.Equal(t, model.ComponentAutoCounter, components[2].Kind)
	assert.True(t, components[2].FixedWidth)

	_, err = ParseComponents("{not json")
	assert.True(t, apperr.IsValidation(err))
}

func TestCycleKey(t *testing.T) {
	key, err := CycleKey(model.ResetCycleNever, feb1)
	require.NoError(t, err)
	assert.Equal(t, model.CycleKeyNever, key)

	key, err = CycleKey(model.ResetCycleDaily, feb1)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", key)

	key, err = CycleKey(model.ResetCycleMonthly, feb1)
	require.NoError(t, err)
	assert.Equal(t, "2026-02", key)

	key, err = CycleKey(model.ResetCycleYearly, feb1)
	require.NoError(t, err)
	assert.Equal(t, "2026", key)

	_, err = CycleKey("weekly", feb1)
	assert.True(t, apperr.IsValidation(err))
}
