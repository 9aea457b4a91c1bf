package adminGate

import "errors"

var (
	// ErrUnauthenticated is returned by RequireAuth when the session carries no principal.
	ErrUnauthenticated = errors.New("Authentication required")
	// ErrSessionExpired is returned by RequireAuth after an idle session has been purged.
	ErrSessionExpired = errors.New("Session expired")
	// ErrCSRFMismatch is the rejection used by the HTTP layer when ValidateCSRF fails.
	ErrCSRFMismatch = errors.New("Invalid CSRF token")
	// ErrInvalidCredentials is returned by Login for an unknown admin or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAdminNotFound is returned by an AdminProvider for an unknown username.
	ErrAdminNotFound = errors.New("admin not found")
	// ErrLoginRateLimited is returned by Login while the username or client IP is cooling down.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrSessionCreationFailed wraps every failure inside CreateSession.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionInvalidationFailed wraps store failures inside DestroySession.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrStoreUnavailable wraps session store failures on the request path.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrEngineNotReady is returned when a Guard method is called on a nil or partially built Guard.
	ErrEngineNotReady = errors.New("guard not initialized")
)
