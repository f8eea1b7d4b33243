package constants

import "time"

// Session and context keys
const (
	SessionCookieName = "task_session"

	ContextKeyUserID      = "user_id"
	ContextKeySessionUser = "session_user"
	ContextKeyTask        = "task"

	SessionKeyUsername = "username"
	SessionKeyEmail    = "email"
	SessionKeyRole     = "role"
	SessionKeyToken    = "token"
	SessionKeyLoginAt  = "login_at"
)

// SessionMaxAge is the absolute lifetime of a login session.
const SessionMaxAge = 24 * time.Hour

// Credential rules
const (
	MinPasswordLength = 6
	DefaultRole       = "User"
)

// Object keys and signed URL lifetimes
const (
	TaskKeyPrefix    = "tasks"
	CommentKeyPrefix = "comments"

	// ListURLTTL applies to signed URLs embedded in list and detail pages.
	ListURLTTL     = 60 * time.Second
	PresignURLTTL  = 60 * time.Second
	DownloadURLTTL = 3600 * time.Second

	// MaxDeleteBatch is the per-request object ceiling of DeleteObjects.
	MaxDeleteBatch = 1000

	MaxCommentUploadSize = 32 << 20
)

// DefaultTaskName is used when a task is created without a name.
const DefaultTaskName = "Untitled"
