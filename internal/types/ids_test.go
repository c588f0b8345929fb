package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id1 := NewID()
	id2 := NewID()

	_, err := ParseID(id1.String())
	require.NoError(t, err)
	_, err = ParseID(id2.String())
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2, "generated IDs must be unique")
}

func TestDeterministicID(t *testing.T) {
	a := DeterministicID("route", "0", "template#0>target")
	b := DeterministicID("route", "0", "template#0>target")
	c := DeterministicID("route", "1", "template#0>target")

	assert.Equal(t, a, b, "identical parts yield identical IDs")
	assert.NotEqual(t, a, c, "different parts yield different IDs")

	_, err := ParseID(a.String())
	require.NoError(t, err, "deterministic IDs are still well-formed UUIDs")

	// Part boundaries matter: ("ab","c") and ("a","bc") are distinct inputs.
	assert.NotEqual(t, DeterministicID("ab", "c"), DeterministicID("a", "bc"))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid UUID",
			input:   "550e8400-e29b-41d4-a716-446655440000",
			wantErr: false,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "not a UUID",
			input:   "not-a-uuid",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestID_JSONRoundTrip(t *testing.T) {
	id := NewID()

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded ID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestID_MarshalZero(t *testing.T) {
	var id ID
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
