package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSixID_StringRoundTrip(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewSixID()
		s := id.String()
		require.Len(t, s, 10)

		parsed, err := ParseSixID(s)
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

func TestSixID_ParseLeniency(t *testing.T) {
	id := SixID{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB}
	s := id.String()

	// Lowercase parses to the same ID.
	lower, err := ParseSixID(stringToLower(s))
	require.NoError(t, err)
	assert.Equal(t, id, lower)

	// Hyphens are ignored.
	hyphenated, err := ParseSixID(s[:5] + "-" + s[5:])
	require.NoError(t, err)
	assert.Equal(t, id, hyphenated)
}

func stringToLower(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 32
		}
	}
	return string(b)
}

func TestSixID_ParseErrors(t *testing.T) {
	_, err := ParseSixID("short")
	assert.Error(t, err)

	_, err = ParseSixID("UUUUUUUUUU") // U is not in the Crockford alphabet
	assert.Error(t, err)
}

func TestSixID_JSONRoundTrip(t *testing.T) {
	id := NewSixID()
	data, err := id.MarshalJSON()
	require.NoError(t, err)

	var decoded SixID
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, id, decoded)
}

func TestSixID_BSONRoundTrip(t *testing.T) {
	id := NewSixID()
	typ, data, err := id.MarshalBSONValue()
	require.NoError(t, err)

	var decoded SixID
	require.NoError(t, decoded.UnmarshalBSONValue(typ, data))
	assert.Equal(t, id, decoded)
}
