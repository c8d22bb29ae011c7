package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIs_MatchesCategoryThroughWrapping(t *testing.T) {
	inner := errors.New("ledger said no")
	err := ApprovalRejectedError(inner, "ledger said no")
	wrapped := fmt.Errorf("create box: %w", err)

	assert.True(t, Is(wrapped, CategoryApprovalRejected))
	assert.False(t, Is(wrapped, CategoryBackendAction))
	assert.True(t, errors.Is(wrapped, inner))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"service error", ValidationError(nil, "amount below minimum"), "amount below minimum"},
		{"plain error", errors.New("boom"), "boom"},
		{"wrapped service error", fmt.Errorf("stake: %w", BackendActionError(nil, "box is full")), "box is full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestConstructors_DefaultErr(t *testing.T) {
	err := SessionBusyError(nil, "another login is in progress")
	require.Error(t, err)
	assert.True(t, Is(err, CategorySessionBusy))
	assert.NotEmpty(t, err.Error())
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "CategoryBalanceQuery", CategoryBalanceQuery.String())
	assert.Equal(t, "CategoryGeneralError", Category(99).String())
}
