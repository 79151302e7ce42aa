package firestore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueWireEncoding(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"string", String("En cours"), `{"stringValue":"En cours"}`},
		{"integer", Integer(2), `{"integerValue":"2"}`},
		{"double", Double(250000), `{"doubleValue":250000}`},
		{"boolean", Boolean(false), `{"booleanValue":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestValueAsString(t *testing.T) {
	assert.Equal(t, "abc", String("abc").AsString())
	assert.Equal(t, "42", Integer(42).AsString())
	assert.Equal(t, "2.5", Double(2.5).AsString())
	assert.Equal(t, "true", Boolean(true).AsString())
	assert.Equal(t, "", Value{}.AsString())
}

func TestValueAsFloat64(t *testing.T) {
	assert.Equal(t, 2.5, Double(2.5).AsFloat64())
	assert.Equal(t, 42.0, Integer(42).AsFloat64())
	// numbers arriving as strings still parse
	assert.Equal(t, 250000.0, String("250000").AsFloat64())
	assert.Equal(t, 0.0, String("n/a").AsFloat64())
	assert.Equal(t, 0.0, Value{}.AsFloat64())
}

func TestValueAsTime(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	got, ok := Timestamp(ts).AsTime()
	require.True(t, ok)
	assert.Equal(t, ts, got)

	got, ok = String("2026-03-14T09:30:00Z").AsTime()
	require.True(t, ok)
	assert.True(t, ts.Equal(got))

	_, ok = String("yesterday").AsTime()
	assert.False(t, ok)

	_, ok = Value{}.AsTime()
	assert.False(t, ok)
}

func TestDocumentIDAndField(t *testing.T) {
	d := Document{
		Name: "projects/garage-c0a05/databases/(default)/documents/repairs/abc123",
		Fields: map[string]Value{
			"statut": String("Terminé"),
		},
	}

	assert.Equal(t, "abc123", d.ID())
	assert.Equal(t, "Terminé", d.Field("statut").AsString())
	assert.True(t, d.Field("missing").IsZero())
}
