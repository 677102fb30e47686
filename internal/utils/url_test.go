package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://api.totalapp.ro", false},
		{"http://127.0.0.1:8080", false},
		{"", true},
		{"ftp://files.example.com", true},
		{"not-a-url", true},
		{"https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	got, err := NormalizeURL("  https://api.totalapp.ro/api/  ")
	require.NoError(t, err)
	assert.Equal(t, "https://api.totalapp.ro/api", got)

	_, err = NormalizeURL("://bad")
	assert.Error(t, err)
}
