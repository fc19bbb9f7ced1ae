package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streaks/internal/streak"
)

func sampleState() *streak.State {
	return &streak.State{Streaks: map[streak.Key]*streak.Streak{
		{Start: 1, Item: "B"}: {Length: 1, Break: 2},
		{Start: 1, Item: "A"}: {Length: 3},
		{Start: 3, Item: "C"}: {Length: 1},
	}}
}

func TestEncode_Canonical(t *testing.T) {
	data, err := Encode(sampleState())
	require.NoError(t, err)

	want := `{"streaks":[` +
		`{"item":"A","length":3,"start":1},` +
		`{"break":2,"item":"B","length":1,"start":1},` +
		`{"item":"C","length":1,"start":3}` +
		`],"version":1}`
	assert.Equal(t, want, string(data))
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, `{"streaks":[],"version":1}`, string(data))
}

func TestDecode_RoundTrip(t *testing.T) {
	in := sampleState()
	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, in.LastPeriod(), out.LastPeriod())
}

func TestEncode_RejectsInvalidUTF8Items(t *testing.T) {
	// Both items would collapse to U+FFFD if replaced, losing identity.
	in := &streak.State{Streaks: map[streak.Key]*streak.Streak{
		{Start: 1, Item: "\xff"}: {Length: 1},
		{Start: 1, Item: "\xfe"}: {Length: 1},
	}}

	_, err := Encode(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid UTF-8")

	_, err = Hash(in)
	require.Error(t, err)
}

func TestDecode_ItemsWithSeparators(t *testing.T) {
	in := &streak.State{Streaks: map[streak.Key]*streak.Streak{
		{Start: 1, Item: "1.A"}:     {Length: 2},
		{Start: 1, Item: "A"}:       {Length: 1, Break: 2},
		{Start: 2, Item: "a\"b\\c"}: {Length: 1},
	}}
	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"malformed", `{"streaks":`, "decode snapshot"},
		{"unknown field", `{"version":1,"streaks":[],"extra":1}`, "unknown field"},
		{"missing version", `{"streaks":[]}`, "unsupported version 0"},
		{"future version", `{"version":2,"streaks":[]}`, "unsupported version 2"},
		{"zero start", `{"version":1,"streaks":[{"start":0,"item":"a","length":1}]}`, "start must be positive"},
		{"zero length", `{"version":1,"streaks":[{"start":1,"item":"a","length":0}]}`, "length must be positive"},
		{"break before start", `{"version":1,"streaks":[{"start":3,"item":"a","length":1,"break":2}]}`, "precedes start"},
		{"duplicate", `{"version":1,"streaks":[{"start":1,"item":"a","length":1},{"start":1,"item":"a","length":2}]}`, "duplicate streak"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestHash_StableAndSensitive(t *testing.T) {
	h1, err := Hash(sampleState())
	require.NoError(t, err)
	h2, err := Hash(sampleState())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	changed := sampleState()
	changed.Streaks[streak.Key{Start: 1, Item: "A"}].Length = 4
	h3, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestHashBytes_DomainSeparated(t *testing.T) {
	data := []byte(`{"streaks":[],"version":1}`)
	bare := sha256.Sum256(data)
	assert.NotEqual(t, hex.EncodeToString(bare[:]), HashBytes(data))

	prefixed := sha256.Sum256(append([]byte(DomainState+"\x00"), data...))
	assert.Equal(t, hex.EncodeToString(prefixed[:]), HashBytes(data))
}

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, WriteFile(path, sampleState()))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be renamed away")
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}
