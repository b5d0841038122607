package llm

import "errors"

var (
	// ErrAuthTokenIsRequired is returned if client is initialized
	// without API key.
	ErrAuthTokenIsRequired = errors.New("auth token is required")

	// ErrEmptyReply is returned if upstream has responded without any
	// choice or candidate.
	ErrEmptyReply = errors.New("upstream has returned no reply")

	// ErrNoUsage is returned if upstream has not reported token usage
	// of a reply.
	ErrNoUsage = errors.New("upstream has returned no token usage")
)
