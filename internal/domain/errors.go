package domain

import "errors"

var (
	// ErrUnauthorized indicates a missing or mismatched shared secret
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingQuery indicates a search request without query text
	ErrMissingQuery = errors.New("missing query parameter")

	// ErrUnknownPlatform indicates a platform outside twitter/telegram
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrMissingHandle indicates a backfill request without a handle
	ErrMissingHandle = errors.New("missing handle")

	// ErrFeedUnavailable indicates a non-2xx response from a feed provider
	ErrFeedUnavailable = errors.New("feed provider unavailable")

	// ErrNotConnected indicates the Telegram client has no active session
	ErrNotConnected = errors.New("telegram client not connected")

	// ErrNotAuthorized indicates the stored Telegram session is not
	// authorized; run the login helper to create one
	ErrNotAuthorized = errors.New("telegram session not authorized")

	// ErrChannelNotFound indicates a handle that does not resolve to a channel
	ErrChannelNotFound = errors.New("channel not found")

	// ErrBatchWrite indicates a failed batch upsert transaction
	ErrBatchWrite = errors.New("batch write failed")
)
