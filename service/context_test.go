package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{"", "en"},
		{"es", "es"},
		{"ES", "es"},
		{"en-US,en;q=0.9", "en-us"},
		{" fr ; q=0.8, en", "fr"},
		{"*", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLocale(tt.header))
		})
	}
}

func TestNewRequestContext(t *testing.T) {
	rc, err := NewRequestContext("", "")
	require.NoError(t, err)
	assert.Equal(t, "en", rc.Locale)
	assert.Equal(t, "UTC", rc.Timezone())

	rc, err = NewRequestContext("es", "America/Bogota")
	require.NoError(t, err)
	assert.Equal(t, "es", rc.Locale)
	assert.Equal(t, "America/Bogota", rc.Timezone())
}

func TestNewRequestContextInvalidTimezone(t *testing.T) {
	_, err := NewRequestContext("en", "Mars/Olympus_Mons")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "X-Timezone", validationErr.Field)
}
