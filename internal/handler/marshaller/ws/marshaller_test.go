package wsmarshaller

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSubscribe(t *testing.T) {
	data, err := MarshalSubscribe(DefaultChannel)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"subscribe","channel":"/notifications"}`, string(data))
}

func TestDecode_ValidEnvelope(t *testing.T) {
	ev, ok := Decode([]byte(`{"channel":"/notifications","message":{"member":"Ada","status":2,"balance":12.5}}`))
	require.True(t, ok)

	assert.Equal(t, "Ada", ev.String("member"))
	assert.Equal(t, int64(2), ev.Int("status", 1))
	assert.Equal(t, 12.5, ev.Float("balance", 0))
	assert.IsType(t, json.Number(""), ev["status"])
}

func TestDecode_EmptyMessageObject(t *testing.T) {
	ev, ok := Decode([]byte(`{"message":{}}`))
	require.True(t, ok)
	assert.Empty(t, ev)
}

func TestDecode_RejectsUnexpectedShapes(t *testing.T) {
	frames := map[string]string{
		"not json":         `hello`,
		"truncated":        `{"message":{"member":"Ada"`,
		"array envelope":   `[{"message":{}}]`,
		"missing message":  `{"channel":"/notifications"}`,
		"null message":     `{"message":null}`,
		"string message":   `{"message":"checked in"}`,
		"number message":   `{"message":42}`,
		"array message":    `{"message":[1,2]}`,
		"empty frame":      ``,
		"whitespace only":  "   \n",
		"scalar envelope":  `"message"`,
		"trailing garbage": `{"message":{}} {`,
	}

	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			ev, ok := Decode([]byte(frame))
			assert.False(t, ok)
			assert.Nil(t, ev)
		})
	}
}
