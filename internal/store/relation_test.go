package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneAcceptsObjectArrayAndNull(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
		want  PersonName
	}{
		{"object", `{"first_name":"Ann","last_name":"Lee"}`, true, PersonName{"Ann", "Lee"}},
		{"single element array", `[{"first_name":"Ann","last_name":"Lee"}]`, true, PersonName{"Ann", "Lee"}},
		{"first element wins", `[{"first_name":"Ann","last_name":"Lee"},{"first_name":"Bob","last_name":"Ray"}]`, true, PersonName{"Ann", "Lee"}},
		{"empty array", `[]`, false, PersonName{}},
		{"null", `null`, false, PersonName{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o One[PersonName]
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &o))
			assert.Equal(t, tt.valid, o.Valid)
			assert.Equal(t, tt.want, o.Value)
		})
	}
}

func TestOneInsideStructMissingField(t *testing.T) {
	var ref DoctorRef
	require.NoError(t, json.Unmarshal([]byte(`{"specialization":"ENT"}`), &ref))
	assert.False(t, ref.Profiles.Valid)
	assert.Nil(t, ref.Profiles.Ptr())
}

func TestOneMarshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A One[PersonName] `json:"a"`
		B One[PersonName] `json:"b"`
	}{A: Some(PersonName{FirstName: "Ann"})})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"first_name":"Ann","last_name":""},"b":null}`, string(b))
}

func TestManyAcceptsLoneObject(t *testing.T) {
	var m Many[PersonName]
	require.NoError(t, json.Unmarshal([]byte(`{"first_name":"Ann","last_name":"Lee"}`), &m))
	require.Len(t, m, 1)
	assert.Equal(t, "Ann", m.First().Value.FirstName)

	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	assert.Empty(t, m)
	assert.False(t, m.First().Valid)
}

func TestSanitizeSearchStripsCommas(t *testing.T) {
	assert.Equal(t, "Warsaw Center", SanitizeSearch(" Warsaw, Center "))
	assert.Equal(t, "", SanitizeSearch(",,,"))
	assert.Equal(t, "ab", SanitizeSearch("a,b"))
}
