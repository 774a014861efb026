package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Loose JSON Tests --------------------

func TestParseLooseJSON(t *testing.T) {
	out, err := ParseLooseJSON(`{"adverse": "1", "political": true}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"adverse": "1", "political": true}, out)
}

func TestParseLooseJSON_Fenced(t *testing.T) {
	out, err := ParseLooseJSON("```json\n{\"adverse\": \"1\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"adverse": "1"}, out)
}

func TestParseLooseJSON_Repaired(t *testing.T) {
	// Trailing comma and single quotes are typical model slips.
	out, err := ParseLooseJSON(`{'adverse': '1',}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"adverse": "1"}, out)
}

func TestParseLooseJSON_Hopeless(t *testing.T) {
	_, err := ParseLooseJSON("no json here at all")
	assert.Error(t, err)
}

// -------------------- Template Tests --------------------

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Review {{.name}} ({{upper .kind}})", map[string]any{
		"name": "adverse",
		"kind": "choice",
	})
	require.NoError(t, err)
	assert.Equal(t, "Review adverse (CHOICE)", out)
}

func TestRenderTemplate_FastPath(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestRenderTemplate_Invalid(t *testing.T) {
	_, err := RenderTemplate("{{.broken", nil)
	assert.Error(t, err)
}

// -------------------- ID Tests --------------------

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
