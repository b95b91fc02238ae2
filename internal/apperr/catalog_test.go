package apperr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByCode_KnownCodes(t *testing.T) {
	tests := []struct {
		code    string
		status  int
		message string
	}{
		{CodeUserNotFound, 400, "Either the username or the password is incorrect."},
		{CodePasswordMismatch, 400, "Either the username or the password is incorrect."},
		{CodeRefreshNotFound, 400, "Please authenticate again."},
		{CodeRevokeFailed, 400, "Could not log you out. Please try again."},
		{CodeEmailMismatch, 403, "You are not allowed to perform this action."},
		{CodeLogoutRequired, 409, "You are already logged in. Please log out first."},
		{CodeSamePassword, 400, "New password must be different from the current password."},
		{CodeRecoveryNotFound, 400, "Please request a new password reset."},
		{CodeTokenStoreFailed, 503, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := ByCode(tt.code)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.message, e.Message)
			assert.NotEmpty(t, e.Diagnostic)
		})
	}
}

func TestByCode_CredentialFailuresShareMessage(t *testing.T) {
	// Unknown-user and wrong-password must be indistinguishable by prose so
	// account existence does not leak.
	assert.Equal(t, ByCode(CodeUserNotFound).Message, ByCode(CodePasswordMismatch).Message)
	assert.NotEqual(t, ByCode(CodeUserNotFound).Code, ByCode(CodePasswordMismatch).Code)
}

func TestByCode_RegistrationNeededCarriesAction(t *testing.T) {
	e := ByCode(CodeRegistrationNeeded)
	require.Equal(t, "register", e.Action)
}

func TestByCode_UnknownCodePanics(t *testing.T) {
	assert.Panics(t, func() { ByCode("99-99") })
}

func TestError_StringContainsCodeAndDiagnostic(t *testing.T) {
	e := ByCode(CodeRevokeFailed)
	assert.Contains(t, e.Error(), CodeRevokeFailed)
	assert.Contains(t, e.Error(), e.Diagnostic)
}
