package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexNumberUnmarshal(t *testing.T) {
	var v struct {
		A FlexNumber `json:"a"`
		B FlexNumber `json:"b"`
		C FlexNumber `json:"c"`
		D FlexNumber `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":150000000,"b":" 2.5 ","c":null,"d":"abc"}`), &v))
	assert.Equal(t, FlexNumber("150000000"), v.A)
	assert.Equal(t, FlexNumber("2.5"), v.B)
	assert.Equal(t, FlexNumber(""), v.C)

	f, err := v.A.Float()
	require.NoError(t, err)
	assert.Equal(t, 150000000.0, f)

	_, err = v.B.Int()
	assert.Error(t, err)
	_, err = v.D.Float()
	assert.Error(t, err)
}

func TestFlexNumberWholeNumbers(t *testing.T) {
	for raw, want := range map[FlexNumber]int{"24": 24, "24.0": 24, "2.4e1": 24} {
		got, err := raw.Int()
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	for _, raw := range []FlexNumber{"12.5", "abc", "", "1e30"} {
		_, err := raw.Int()
		assert.Error(t, err, raw)
	}

	f, err := FlexNumber("1.5e+23").Float()
	require.NoError(t, err)
	assert.Equal(t, 1.5e23, f)
}

func TestFlexNumberRejectsObjects(t *testing.T) {
	var n FlexNumber
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &n))
	assert.Error(t, json.Unmarshal([]byte(`true`), &n))
}

func TestStatsAdd(t *testing.T) {
	var s Stats
	s.Add(StatusPending, 2)
	s.Add(StatusApproved, 1)
	s.Add("unknown", 4)
	assert.Equal(t, Stats{Total: 7, Pending: 2, Approved: 1}, s)
}
