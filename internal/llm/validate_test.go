package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"valid", `{"score":90,"feedback":"Clear and specific."}`, true},
		{"score above range", `{"score":101,"feedback":"x"}`, false},
		{"missing feedback", `{"score":10}`, false},
		{"extra field", `{"score":10,"feedback":"x","mood":"grumpy"}`, false},
		{"not json", `Sure! Here is the score: 90`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(scoreSchema, json.RawMessage(tt.raw))
			if tt.ok {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, KindInvalidOutput, err.Kind)
			assert.Equal(t, tt.raw, string(err.Content))
		})
	}
}

func TestValidate_BrokenSchema(t *testing.T) {
	s := &Schema{Name: "test-broken", Definition: map[string]any{"type": 12}}
	err := validate(s, json.RawMessage(`{}`))
	require.NotNil(t, err)
	assert.Equal(t, KindRejected, err.Kind)
}

func TestComplete(t *testing.T) {
	req := Request{Schema: scoreSchema}

	resp, err := complete("test", req, json.RawMessage(`{"score":1,"feedback":"x"}`), Usage{InputTokens: 1}, "m", StopEnd)
	require.NoError(t, err)
	assert.Equal(t, "m", resp.Model)

	_, err = complete("test", req, json.RawMessage(`{"score":`), Usage{}, "m", StopMaxTokens)
	assert.True(t, IsKind(err, KindTruncated))

	_, err = complete("test", req, json.RawMessage(`{}`), Usage{}, "m", StopEnd)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "test", e.Provider)

	resp, err = complete("test", Request{}, json.RawMessage(`free text`), Usage{}, "m", StopMaxTokens)
	require.NoError(t, err)
	assert.Equal(t, StopMaxTokens, resp.StopReason)
}
