package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID       = "user_id"
	ContextKeyAuthMethod   = "auth_method"
	ContextKeyMembership   = "membership"
	ContextKeyOrganization = "organization"
	ContextKeyTraceID      = "trace_id"
	SessionCookieName      = "nexus_session"
)

// How a request was authenticated
const (
	AuthMethodSession = "session"
	AuthMethodBearer  = "bearer"
)

// AccessTokenTTL is the lifetime of bearer tokens issued at login.
const AccessTokenTTL = time.Hour

// Validation limits
const (
	MinPasswordLength = 8
	InviteTokenBytes  = 32
	MaxChatMessageLen = 4000
	MaxImagePromptLen = 2000
	MinImagePromptLen = 10
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Assistant context sizes
const (
	AssistantUpcomingEvents = 5
	AssistantRosterSize     = 10
)
