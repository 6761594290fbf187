package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "Bare ten digits",
			input: "9876543210",
			want:  "+919876543210",
		},
		{
			name:  "With country code",
			input: "+91 98765 43210",
			want:  "+919876543210",
		},
		{
			name:  "With leading zero",
			input: "09876543210",
			want:  "+919876543210",
		},
		{
			name:  "With separators",
			input: "98765-43210",
			want:  "+919876543210",
		},
		{
			name:    "Too short",
			input:   "98765",
			wantErr: true,
		},
		{
			name:    "Invalid leading digit",
			input:   "1234567890",
			wantErr: true,
		},
		{
			name:    "Empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGenerateOTP(t *testing.T) {
	code, err := GenerateOTP()
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestHashAndVerifyOTP(t *testing.T) {
	code, err := GenerateOTP()
	require.NoError(t, err)

	hash, err := HashOTP(code)
	require.NoError(t, err)
	assert.NotEqual(t, code, hash)

	assert.True(t, VerifyOTP(code, hash))
	assert.False(t, VerifyOTP("000000", hash))
}
