package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestMeetsPasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"all classes at minimum length", "Abcdef1!", true},
		{"longer passphrase", "Tr0ub4dor&Three", true},
		{"seven characters", "Abcde1!", false},
		{"missing uppercase", "abcdef1!", false},
		{"missing lowercase", "ABCDEF1!", false},
		{"missing digit", "Abcdefg!", false},
		{"missing special", "Abcdefg1", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeetsPasswordPolicy(tt.password))
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r!secret", bcrypt.MinCost)
	assert.NoError(t, err)
	assert.NotEqual(t, "Sup3r!secret", hash)

	assert.True(t, CheckPassword("Sup3r!secret", hash))
	assert.False(t, CheckPassword("sup3r!secret", hash))
	assert.False(t, CheckPassword("", hash))
}

func TestHashPasswordClampsCost(t *testing.T) {
	// Out-of-range costs fall back to the default rather than failing.
	hash, err := HashPassword("Sup3r!secret", 99)
	assert.NoError(t, err)
	assert.True(t, CheckPassword("Sup3r!secret", hash))
}
