package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordArraySchema(t *testing.T) {
	raw, err := recordArraySchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "array", schema["type"])

	items, ok := schema["items"].(map[string]any)
	require.True(t, ok)

	props, ok := items["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"time", "speaker", "role", "message"} {
		assert.Contains(t, props, key)
	}

	role, ok := props["role"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"Agent", "User", "Unknown"}, role["enum"])
}

func TestStringArraySchema(t *testing.T) {
	raw, err := stringArraySchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "array", schema["type"])
}
