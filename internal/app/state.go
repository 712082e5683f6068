package app

import "solace/internal/endpoint"

// AuthState tracks the auth flow state machine.
type AuthState string

const (
	StateAnonymous      AuthState = "anonymous_unauthenticated"
	StateAuthenticating AuthState = "authenticating"
	StateAuthenticated  AuthState = "authenticated"
	StateConsentPending AuthState = "consent_pending"
	StateReady          AuthState = "ready"
	StateTerminated     AuthState = "terminated"
)

// Mode is the auth form mode toggle.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

// UserType selects the companion persona for chat.
type UserType string

const (
	UserTypePartner UserType = "Partner"
	UserTypeParent  UserType = "Parent"
	UserTypePet     UserType = "Pet"
)

// AppState is the explicit, controller-owned application state: resolved
// endpoints, auth progress, and UI mode toggles. Derived endpoint strings
// are recomputed from the base, never stored anywhere else.
type AppState struct {
	Endpoints         endpoint.Endpoints
	Auth              AuthState
	Mode              Mode
	UserType          UserType
	ConversationCount int
}

func newAppState(endpoints endpoint.Endpoints) AppState {
	return AppState{
		Endpoints: endpoints,
		Auth:      StateAnonymous,
		Mode:      ModeLogin,
		UserType:  UserTypePartner,
	}
}
