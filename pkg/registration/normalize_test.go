package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"LN64 XFG", "LN64XFG"},
		{"ln64xfg", "LN64XFG"},
		{"  ab12\tcde ", "AB12CDE"},
		{"AB12CDE", "AB12CDE"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"LN64 XFG", "ab 12 cde", "", "  x  "} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("AB12CDE"))
	assert.True(t, Valid("Q1"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("AB12-CDE"))
	assert.False(t, Valid("TOOLONGREGISTRATION"))
}
