package refresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	src := &fakeForms{forms: []map[string]string{
		{"email": "a@b.com", "": "unnamed"},
		{},
		{"schoolName": "X", "theme": "blue"},
	}}

	snap := CaptureSnapshot(src)
	assert.Equal(t, Snapshot{
		"form_0": {"email": "a@b.com"},
		"form_1": {},
		"form_2": {"schoolName": "X", "theme": "blue"},
	}, snap)

	assert.False(t, snap.Empty())
	assert.True(t, CaptureSnapshot(&fakeForms{forms: []map[string]string{{"": "x"}}}).Empty())

	raw, err := snap.Encode()
	require.NoError(t, err)
	got, err := DecodeSnapshot(raw)
	require.NoError(t, err)

	dst := &fakeForms{forms: []map[string]string{
		{"email": ""},
		{"other": ""},
		{"schoolName": "", "theme": ""},
	}}
	assert.Equal(t, 3, got.Apply(dst))
	assert.Equal(t, "a@b.com", dst.forms[0]["email"])
	assert.Equal(t, "", dst.forms[1]["other"])
	assert.Equal(t, "blue", dst.forms[2]["theme"])
}

func TestSnapshot_ApplySkipsUnknownKeys(t *testing.T) {
	snap := Snapshot{
		"form_x":  {"email": "1"},
		"form_-1": {"email": "2"},
		"other":   {"email": "3"},
		"form_0":  {"email": "4"},
	}
	dst := &fakeForms{forms: []map[string]string{{"email": ""}}}

	assert.Equal(t, 1, snap.Apply(dst))
	assert.Equal(t, "4", dst.forms[0]["email"])
}

func TestDecodeSnapshot_Invalid(t *testing.T) {
	for _, raw := range []string{"", "{", `["a"]`, `{"form_0":"x"}`} {
		_, err := DecodeSnapshot(raw)
		assert.Error(t, err, raw)
	}
}
