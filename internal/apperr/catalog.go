// Package apperr is the single source of truth for externally observable
// error codes. Every failure path in the session lifecycle surfaces one of
// these codes; the user-facing message and HTTP status live here and nowhere
// else, so tests can assert on stable codes rather than prose.
package apperr

import "fmt"

// Stable catalog codes.
const (
	CodeUserNotFound        = "10-01"
	CodePasswordMismatch    = "10-02"
	CodeTokenStoreFailed    = "10-03"
	CodeRefreshNotFound     = "10-04"
	CodeRevokeFailed        = "10-05"
	CodeRecoveryStoreFailed = "10-06"
	CodePasswordSaveFailed  = "10-07"
	CodeEmailMismatch       = "10-08"
	CodeLogoutRequired      = "10-09"
	CodeSamePassword        = "10-10"
	CodeRecoveryNotFound    = "10-11"
	CodeRecoveryMismatch    = "10-12"
	CodeIdentityRejected    = "10-13"
	CodeUserCreateFailed    = "10-14"
	CodeRegistrationNeeded  = "10-15"
)

// Error is a catalog-backed failure. Message is the user-facing text;
// Diagnostic is logged, never sent. Action is an optional hint for clients
// (e.g. redirect to sign-up).
type Error struct {
	Code       string
	Message    string
	Diagnostic string
	Status     int
	Action     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Diagnostic)
}

type entry struct {
	diagnostic string
	message    string
	status     int
	action     string
}

var catalog = map[string]entry{
	CodeUserNotFound: {
		diagnostic: "could not find user in the database",
		message:    "Either the username or the password is incorrect.",
		status:     400,
	},
	CodePasswordMismatch: {
		diagnostic: "passwords did not match",
		message:    "Either the username or the password is incorrect.",
		status:     400,
	},
	CodeTokenStoreFailed: {
		diagnostic: "refresh token record could not be written",
		message:    "Something went wrong. Please try again.",
		status:     503,
	},
	CodeRefreshNotFound: {
		diagnostic: "refresh token does not exist or was already used",
		message:    "Please authenticate again.",
		status:     400,
	},
	CodeRevokeFailed: {
		diagnostic: "token revocation transaction failed",
		message:    "Could not log you out. Please try again.",
		status:     400,
	},
	CodeRecoveryStoreFailed: {
		diagnostic: "forgot-password request could not be written",
		message:    "Something went wrong. Please try again.",
		status:     503,
	},
	CodePasswordSaveFailed: {
		diagnostic: "password update transaction failed",
		message:    "Something went wrong. Please try again.",
		status:     503,
	},
	CodeEmailMismatch: {
		diagnostic: "payload email does not belong to the authenticated user",
		message:    "You are not allowed to perform this action.",
		status:     403,
	},
	CodeLogoutRequired: {
		diagnostic: "password reset attempted while holding a valid session",
		message:    "You are already logged in. Please log out first.",
		status:     409,
	},
	CodeSamePassword: {
		diagnostic: "new password equals the current password",
		message:    "New password must be different from the current password.",
		status:     400,
	},
	CodeRecoveryNotFound: {
		diagnostic: "no outstanding forgot-password request for this email",
		message:    "Please request a new password reset.",
		status:     400,
	},
	CodeRecoveryMismatch: {
		diagnostic: "recovery token did not verify against the stored hash",
		message:    "Please request a new password reset.",
		status:     400,
	},
	CodeIdentityRejected: {
		diagnostic: "federated identity token failed verification",
		message:    "Could not verify your identity.",
		status:     400,
	},
	CodeUserCreateFailed: {
		diagnostic: "user record could not be created",
		message:    "Could not create the account.",
		status:     400,
	},
	CodeRegistrationNeeded: {
		diagnostic: "verified identity has no account",
		message:    "No account exists for this identity. Please register first.",
		status:     400,
		action:     "register",
	},
}

// ByCode returns the catalog error for a known code. An unknown code is a
// programmer error and panics; the HTTP recover middleware turns it into a
// 500.
func ByCode(code string) *Error {
	e, ok := catalog[code]
	if !ok {
		panic(fmt.Sprintf("apperr: unknown error code %q", code))
	}
	return &Error{
		Code:       code,
		Message:    e.message,
		Diagnostic: e.diagnostic,
		Status:     e.status,
		Action:     e.action,
	}
}
