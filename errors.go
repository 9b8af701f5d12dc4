package dashauth

import (
	"errors"

	"github.com/MrEthical07/dashauth/session"
)

var (
	// ErrEngineNotReady is returned when a nil or unbuilt Engine is used.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrBuilderUsed is returned by a second call to Builder.Build.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrStorage matches credential write failures.
	ErrStorage = session.ErrStorage

	errTokenExpired = errors.New("token expired")
	errTokenInvalid = errors.New("token invalid")
)

// Error names carried by [AuthError].
const (
	ErrorNameNetwork        = "NetworkError"
	ErrorNameUnknown        = "UnknownError"
	ErrorNameAuthentication = "Authentication Error"
)

const (
	networkErrorMessage = "Unable to connect to the authentication server. Please check your internet connection."
	unknownErrorMessage = "An unexpected error occurred during login"
	loginFailedMessage  = "Login failed"
)

// AuthError is the typed failure returned by [Engine.Login].
type AuthError struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Name + ": " + e.Message
}

// IsNetwork reports whether the request never reached the server.
func (e *AuthError) IsNetwork() bool {
	return e != nil && e.Name == ErrorNameNetwork
}

func networkError() *AuthError {
	return &AuthError{Status: 0, Name: ErrorNameNetwork, Message: networkErrorMessage}
}

func unknownError() *AuthError {
	return &AuthError{Status: 500, Name: ErrorNameUnknown, Message: unknownErrorMessage}
}
