// File: utils/constants.go
package utils

// ActorKey is the gin context key holding the authenticated models.Actor.
const ActorKey = "actor"

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// MaxEvidenceBytes bounds a single evidence upload.
const MaxEvidenceBytes = 20 << 20
