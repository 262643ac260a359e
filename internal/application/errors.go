package application

import "errors"

// Closed error taxonomy for the session layer. Page controllers map these
// 1:1 to user-facing messages with errors.Is; raw provider or storage
// failures never cross this boundary.
var (
	ErrAccountExists       = errors.New("account already exists with this email")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrWrongAccountType    = errors.New("only patient accounts can sign in here")
	ErrProviderUnavailable = errors.New("auth provider unavailable")
	ErrValidation          = errors.New("validation failed")
	ErrNotAuthenticated    = errors.New("not authenticated")
)
