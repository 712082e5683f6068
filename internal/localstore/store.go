// Package localstore is the durable local cache behind the client: a typed
// key-value store holding the mirrored session, per-user consent decisions,
// the survey schedule state, and the user-chosen endpoint override.
//
// The cache is a non-authoritative mirror; backend-owned values (consent)
// overwrite it on reconciliation. Keys are schema-typed to rule out
// collisions between users.
package localstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key has no value in the cache.
var ErrNotFound = errors.New("localstore: key not found")

// Kind enumerates the durable key schema.
type Kind string

const (
	KindSessionToken     Kind = "session_token"
	KindSessionUserID    Kind = "session_user_id"
	KindSessionUserName  Kind = "session_user_name"
	KindConsent          Kind = "consent"
	KindConsentDate      Kind = "consent_date"
	KindLastSurvey       Kind = "last_survey"
	KindEndpointOverride Kind = "endpoint_override"
)

// Key identifies one durable cache entry. Consent entries are always scoped
// to a user id; switching users must never read a prior user's decision.
type Key struct {
	Kind   Kind
	UserID string
}

// String returns the storage encoding for the key. Session, schedule, and
// override entries keep the legacy flat names; consent entries embed the
// user id.
func (k Key) String() string {
	switch k.Kind {
	case KindSessionToken:
		return "token"
	case KindSessionUserID:
		return "userId"
	case KindSessionUserName:
		return "userName"
	case KindConsent:
		return fmt.Sprintf("consent_agreed_%s", k.UserID)
	case KindConsentDate:
		return fmt.Sprintf("consent_agreed_%s_date", k.UserID)
	case KindLastSurvey:
		return "last_survey_date"
	case KindEndpointOverride:
		return "customBackendUrl"
	default:
		return string(k.Kind)
	}
}

// SessionTokenKey returns the key holding the sealed credential token.
func SessionTokenKey() Key { return Key{Kind: KindSessionToken} }

// SessionUserIDKey returns the key holding the authenticated user id.
func SessionUserIDKey() Key { return Key{Kind: KindSessionUserID} }

// SessionUserNameKey returns the key holding the display name.
func SessionUserNameKey() Key { return Key{Kind: KindSessionUserName} }

// ConsentKey returns the per-user consent decision key.
func ConsentKey(userID string) Key { return Key{Kind: KindConsent, UserID: userID} }

// ConsentDateKey returns the per-user consent decision timestamp key.
func ConsentDateKey(userID string) Key { return Key{Kind: KindConsentDate, UserID: userID} }

// LastSurveyKey returns the key holding the last confirmed survey submission time.
func LastSurveyKey() Key { return Key{Kind: KindLastSurvey} }

// EndpointOverrideKey returns the key holding the user-chosen backend override.
func EndpointOverrideKey() Key { return Key{Kind: KindEndpointOverride} }

// Store is the durable cache contract.
// Error Contract:
// - Get returns ErrNotFound when no value exists for the key
// - Delete is idempotent and succeeds when the key is absent
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Put(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, key Key) error
}
