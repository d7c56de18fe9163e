package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{
			name:  "ISO date",
			input: "2024-03-04",
			want:  time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "ISO datetime",
			input: "2024-03-04T10:30:00Z",
			want:  time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "slash separated is month first",
			input: "03/04/2024",
			want:  time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "dash separated is day first",
			input: "04-03-2024",
			want:  time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "month name format",
			input: "Mar 4, 2024",
			want:  time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			ok:    true,
		},
		{
			name:  "garbage",
			input: "not a date",
			ok:    false,
		},
		{
			name:  "empty string",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}
}

// An ambiguous string matching both ISO and a regional pattern must resolve
// as ISO, because ISO is always tried first.
func TestParseDate_ISOWinsOverRegional(t *testing.T) {
	got, ok := ParseDate("2024-05-06")
	require.True(t, ok)
	assert.Equal(t, time.May, got.Month())
	assert.Equal(t, 6, got.Day())
}

func TestParseDate_SpreadsheetSerials(t *testing.T) {
	// Serial 45292 is 2024-01-01 under the 1899-12-30 epoch convention.
	got, ok := ParseDate(45292.0)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)

	// All serials in the plausible range land between 1982 and 2036.
	for _, serial := range []float64{30000, 35000, 42000, 50000} {
		date, ok := ParseDate(serial)
		require.True(t, ok, "serial %v", serial)
		assert.GreaterOrEqual(t, date.Year(), 1982, "serial %v", serial)
		assert.LessOrEqual(t, date.Year(), 2036, "serial %v", serial)
	}
}

func TestParseDate_NativeAndNil(t *testing.T) {
	native := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, ok := ParseDate(native)
	require.True(t, ok)
	assert.Equal(t, native, got)

	_, ok = ParseDate(nil)
	assert.False(t, ok)

	_, ok = ParseDate(time.Time{})
	assert.False(t, ok)

	_, ok = ParseDate(true)
	assert.False(t, ok)
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
		ok    bool
	}{
		{name: "plain float", input: 12.5, want: 12.5, ok: true},
		{name: "int", input: 7, want: 7, ok: true},
		{name: "currency string", input: "$100", want: 100, ok: true},
		{name: "currency with thousands", input: "$3,000", want: 3000, ok: true},
		{name: "euro suffix", input: "250€", want: 250, ok: true},
		{name: "percent string", input: "12.5%", want: 12.5, ok: true},
		{name: "negative", input: "-42", want: -42, ok: true},
		{name: "plain string number", input: "19.99", want: 19.99, ok: true},
		{name: "text", input: "hello", ok: false},
		{name: "nil", input: nil, ok: false},
		{name: "bool", input: true, ok: false},
		{name: "empty string", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumeric(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}
