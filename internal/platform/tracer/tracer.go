// Package tracer provides a lightweight tracing abstraction for client
// operations.
//
// The client emits spans around its network-facing operations (auth, consent
// reconciliation, survey submission, chat) without depending directly on
// OpenTelemetry APIs outside this package.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashUserID returns a truncated SHA-256 hash of the user id for safe
// correlation in traces without exposing the identifier itself.
func HashUserID(userID string) string {
	if userID == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(hash[:8])
}

// Span names used by the client.
const (
	SpanAuthSubmit       = "auth.submit"
	SpanSessionRestore   = "session.restore"
	SpanConsentReconcile = "consent.reconcile"
	SpanConsentNotify    = "consent.notify"
	SpanSurveySubmit     = "survey.submit"
	SpanChatSend         = "chat.send"
	SpanInsightsLoad     = "insights.load"
)

// Attribute keys used by the client.
const (
	AttrUserID     = "user_id"
	AttrMode       = "mode"
	AttrEndpoint   = "endpoint"
	AttrGateOpen   = "consent.gate_open"
	AttrAttempt    = "attempt"
	AttrStatusCode = "http.status_code"
)
