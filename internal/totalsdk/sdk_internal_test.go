package totalsdk

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, tokenExpired(signedToken(t, now.Add(time.Hour)), now, tokenLeeway))
	assert.True(t, tokenExpired(signedToken(t, now.Add(-time.Minute)), now, tokenLeeway))
	assert.True(t, tokenExpired(signedToken(t, now.Add(10*time.Second)), now, tokenLeeway), "inside leeway")

	assert.False(t, tokenExpired("opaque-token", now, tokenLeeway), "non-jwt tokens are never treated as expired")
	assert.False(t, tokenExpired("", now, tokenLeeway))
}

func TestParseOwnerType(t *testing.T) {
	tests := []struct {
		in      string
		want    OwnerType
		wantErr bool
	}{
		{"TENANT", OwnerTenant, false},
		{"tenant", OwnerTenant, false},
		{"rental-space", OwnerRentalSpace, false},
		{" building_location ", OwnerBuildingLocation, false},
		{"landlord", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOwnerType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOwnerType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Len(t, OwnerTypes(), 9)
}

func TestOwnerValidate(t *testing.T) {
	assert.NoError(t, Owner{Type: OwnerTenant, ID: 7}.Validate())
	assert.ErrorIs(t, Owner{Type: OwnerTenant}.Validate(), ErrInvalidOwnerID)
	assert.ErrorIs(t, Owner{Type: "X", ID: 1}.Validate(), ErrInvalidOwnerType)
	assert.Equal(t, "TENANT/7", Owner{Type: OwnerTenant, ID: 7}.String())
}

func TestUserMessage(t *testing.T) {
	withMessage := fmt.Errorf("sdk: commit files: %w", &APIError{StatusCode: 409, Message: "Fisier duplicat"})
	withErrorField := &APIError{StatusCode: 400, ErrorText: "bad owner"}
	empty := &APIError{StatusCode: 500}

	assert.Equal(t, "Fisier duplicat", UserMessage(withMessage, "error saving files"))
	assert.Equal(t, "bad owner", UserMessage(withErrorField, "error saving files"))
	assert.Equal(t, "error saving files", UserMessage(empty, "error saving files"))
	assert.Equal(t, "error staging files", UserMessage(errors.New("dial tcp: refused"), "error staging files"))
	assert.Equal(t, "fallback", UserMessage(nil, "fallback"))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 11, 5, 9, 30, 15, 123456789, time.FixedZone("EET", 2*3600))
	assert.Equal(t, "2024-11-05T07:30:15.123Z", FormatTimestamp(ts))
}

func TestConfigValidate(t *testing.T) {
	assert.ErrorIs(t, (&Config{}).Validate(), ErrNoServerURL)
	assert.ErrorIs(t, (&Config{BaseURL: "ftp://x"}).Validate(), ErrNoServerURL)
	assert.NoError(t, (&Config{BaseURL: "http://localhost:8080/api"}).Validate())
}
