package stream

import "strconv"

// sessionNotFoundError signals an unknown or expired session id.
type sessionNotFoundError struct{ id string }

func (e sessionNotFoundError) Error() string { return "session not found or expired: " + e.id }

// ErrSessionNotFound constructs a sessionNotFoundError.
func ErrSessionNotFound(id string) error { return sessionNotFoundError{id: id} }

// IsSessionNotFound reports whether err indicates a missing session.
func IsSessionNotFound(err error) bool {
	_, ok := err.(sessionNotFoundError)
	return ok
}

// conversationNotFoundError signals a request against a missing conversation.
type conversationNotFoundError struct{ id int64 }

func (e conversationNotFoundError) Error() string {
	return "conversation not found: " + strconv.FormatInt(e.id, 10)
}

// ErrConversationNotFound constructs a conversationNotFoundError.
func ErrConversationNotFound(id int64) error { return conversationNotFoundError{id: id} }

// IsConversationNotFound reports whether err indicates a missing conversation.
func IsConversationNotFound(err error) bool {
	_, ok := err.(conversationNotFoundError)
	return ok
}
