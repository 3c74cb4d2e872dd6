package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "ali***@example.com"},
		{"bob@example.com", "b***@example.com"},
		{"ab@x.ng", "a***@x.ng"},
		{"abcd@x.ng", "abc***@x.ng"},
		{"broken", "***"},
		{"@x.ng", "***"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmail(tt.email))
		})
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  bool
	}{
		{"eleven digits", "08012345678", true},
		{"too short", "0801234567", false},
		{"too long", "080123456789", false},
		{"letters", "0801234567a", false},
		{"plus prefix", "+2348012345", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPhone(tt.phone, 11))
		})
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("user@example.com"))
	assert.False(t, ValidEmail("User <user@example.com>"))
	assert.False(t, ValidEmail("not-an-email"))
	assert.False(t, ValidEmail(""))
}

func TestFormatNaira(t *testing.T) {
	assert.Equal(t, "₦600", FormatNaira(600))
	assert.Equal(t, "₦0", FormatNaira(0))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 deposit", CountNoun(1, "deposit", "deposits"))
	assert.Equal(t, "0 deposits", CountNoun(0, "deposit", "deposits"))
	assert.Equal(t, "5 withdrawals", CountNoun(5, "withdrawal", "withdrawals"))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"task full", ErrTaskFull, KindInvalidState},
		{"already reviewed", ErrAlreadyReviewed, KindInvalidState},
		{"wrapped not found", fmt.Errorf("load task: %w", ErrTaskNotFound), KindNotFound},
		{"insufficient", fmt.Errorf("%w: need 10, have 5", ErrInsufficientFunds), KindInsufficientFunds},
		{"banned", ErrUserBanned, KindUnauthorized},
		{"duplicate", ErrDuplicateSubmission, KindDuplicateSubmission},
		{"self", ErrSelfSubmission, KindSelfSubmission},
		{"validation", ErrInvalidPhone, KindValidation},
		{"foreign", errors.New("connection reset"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSpecificErrorsUnwrapToKind(t *testing.T) {
	assert.ErrorIs(t, ErrTaskInactive, ErrInvalidState)
	assert.ErrorIs(t, ErrNotAdmin, ErrUnauthorized)
	assert.NotErrorIs(t, ErrTaskFull, ErrTaskInactive)
}
