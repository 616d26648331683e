package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextNumber(t *testing.T) {
	js := Scheme{Prefix: "JS", Width: 5}

	tests := []struct {
		name     string
		scheme   Scheme
		existing []string
		want     string
	}{
		{
			name:     "empty namespace starts at one",
			scheme:   js,
			existing: nil,
			want:     "JS00001",
		},
		{
			name:     "increments the maximum, not the count",
			scheme:   js,
			existing: []string{"JS00001", "JS00042"},
			want:     "JS00043",
		},
		{
			name:     "legacy bare numbers share the integer space",
			scheme:   js,
			existing: []string{"JS00001", "JS00042", "42"},
			want:     "JS00043",
		},
		{
			name:     "legacy number dominates prefixed numbers",
			scheme:   js,
			existing: []string{"123", "JS00050"},
			want:     "JS00124",
		},
		{
			name:     "prefixed number dominates legacy",
			scheme:   js,
			existing: []string{"123", "JS00150"},
			want:     "JS00151",
		},
		{
			name:     "foreign prefixes and junk are ignored",
			scheme:   js,
			existing: []string{"INV900", "JS-77", "JSX99", "draft", ""},
			want:     "JS00001",
		},
		{
			name:     "width grows past the padding",
			scheme:   js,
			existing: []string{"JS99999"},
			want:     "JS100000",
		},
		{
			name:     "bare numeric scheme",
			scheme:   Scheme{Prefix: "", Width: 1},
			existing: []string{"7", "19", "3"},
			want:     "20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextNumber(tt.scheme, tt.existing))
		})
	}
}

// Once an allocated number is persisted, deleting documents must never move
// the sequence backwards: the issued number stays in the scanned set (or was
// itself the maximum), so max+1 over the remainder is always >= it.
func TestNextNumberDeletionMonotonic(t *testing.T) {
	js := Scheme{Prefix: "JS", Width: 5}
	existing := []string{"JS00010", "JS00011", "JS00012"}

	first := NextNumber(js, existing)
	assert.Equal(t, "JS00013", first)

	// The allocation is persisted, then the previous highest record is
	// deleted and the namespace re-queried.
	remaining := []string{"JS00010", "JS00011", "JS00013"}
	after := NextNumber(js, remaining)
	assert.Equal(t, "JS00014", after)

	// Even deleting the freshly issued number does not reuse anything
	// below it.
	after = NextNumber(js, []string{"JS00010", "JS00011", "JS00012"})
	firstVal, _ := SequenceValue("JS", first)
	afterVal, _ := SequenceValue("JS", after)
	assert.GreaterOrEqual(t, afterVal, firstVal)
}

func TestNextNumberNeverCollides(t *testing.T) {
	js := Scheme{Prefix: "JS", Width: 5}
	existing := []string{"JS00001", "JS00009", "17", "JS00017"}

	next := NextNumber(js, existing)
	assert.NotContains(t, existing, next)

	nextVal, ok := SequenceValue("JS", next)
	assert.True(t, ok)
	for _, e := range existing {
		if v, ok := SequenceValue("JS", e); ok {
			assert.Greater(t, nextVal, v)
		}
	}
}

func TestNextInNamespace(t *testing.T) {
	js := Scheme{Prefix: "JS", Width: 5}
	prefixes := []string{"JS", "ES", "SI"}

	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{
			name:     "sibling type holds the maximum",
			existing: []string{"JS00012", "SI00099", "ES00004"},
			want:     "JS00100",
		},
		{
			name:     "legacy bare number still participates",
			existing: []string{"SI00020", "150"},
			want:     "JS00151",
		},
		{
			name:     "empty namespace",
			existing: nil,
			want:     "JS00001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextInNamespace(js, prefixes, tt.existing))
		})
	}
}

func TestSequenceValue(t *testing.T) {
	tests := []struct {
		number string
		want   int64
		ok     bool
	}{
		{"JS00042", 42, true},
		{"42", 42, true},
		{"JS", 0, false},
		{"", 0, false},
		{"JS00a42", 0, false},
		{"INV42", 0, false},
		{"JS99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := SequenceValue("JS", tt.number)
		assert.Equal(t, tt.ok, ok, tt.number)
		assert.Equal(t, tt.want, got, tt.number)
	}
}

func TestSchemeFormat(t *testing.T) {
	assert.Equal(t, "JS00007", Scheme{Prefix: "JS", Width: 5}.Format(7))
	assert.Equal(t, "7", Scheme{Prefix: "", Width: 1}.Format(7))
}
