package cogs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSnowflake(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"123456789012345678", "123456789012345678", true},
		{"<#123>", "123", true},
		{"<@&456>", "456", true},
		{"<@!789>", "789", true},
		{"<@789>", "789", true},
		{" none ", "", true},
		{"NONE", "", true},
		{"", "", false},
		{"<#>", "", false},
		{"general", "", false},
		{"12a", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSnowflake(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
