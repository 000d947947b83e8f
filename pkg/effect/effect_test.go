package effect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOkMarshalsWithoutEffectKey(t *testing.T) {
	r := Ok("hello")
	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "hello", decoded["output"])
	assert.NotContains(t, decoded, "effect")
	assert.NotContains(t, decoded, "effects")
}

func TestSingleEffectUsesSingularKey(t *testing.T) {
	r := Ok("").WithEffect(New(KindChangeDirectory, map[string]any{"path": "/tmp"}))
	raw, _ := json.Marshal(r)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	eff, ok := decoded["effect"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "change_directory", eff["kind"])
	assert.Equal(t, "/tmp", eff["path"])
	assert.NotContains(t, decoded, "effects")
}

func TestMultipleEffectsUsePluralKey(t *testing.T) {
	r := Ok("").
		WithEffect(New(KindClearScreen, nil)).
		WithEffect(New(KindBeep, nil))
	raw, _ := json.Marshal(r)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	effects, ok := decoded["effects"].([]any)
	require.True(t, ok)
	assert.Len(t, effects, 2)
	assert.NotContains(t, decoded, "effect")
}

func TestFailWithSuggestionMarshalsObjectError(t *testing.T) {
	r := FailWithSuggestion("not found", "try ls")
	raw, _ := json.Marshal(r)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	errObj, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "not found", errObj["message"])
	assert.Equal(t, "try ls", errObj["suggestion"])
}

func TestFailWithoutSuggestionMarshalsBareString(t *testing.T) {
	r := Fail("boom")
	raw, _ := json.Marshal(r)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "boom", decoded["error"])
}
