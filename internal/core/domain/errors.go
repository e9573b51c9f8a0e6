package domain

import "errors"

// Sentinel errors returned across the service boundary. The transport layer
// maps these to protocol status codes; core code wraps them with context via
// fmt.Errorf("%w: ...") and callers test with errors.Is.
var (
	// ErrValidation marks malformed or missing required input.
	ErrValidation = errors.New("validation failed")

	// ErrPromptNotFound is returned when no prompt has the requested id, and
	// when a private prompt is fetched by a viewer other than its author.
	ErrPromptNotFound = errors.New("prompt not found")

	// ErrNotAuthor is returned when an actor tries to mutate a prompt they
	// do not own.
	ErrNotAuthor = errors.New("only the author may modify this prompt")

	// ErrSelfRating is returned when an author rates their own prompt.
	ErrSelfRating = errors.New("authors cannot rate their own prompts")

	// ErrDuplicateRating is returned when a user rates the same prompt twice.
	ErrDuplicateRating = errors.New("prompt already rated by this user")

	// ErrConflict is returned when the rating engine's optimistic-concurrency
	// retries are exhausted.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrStoreUnavailable is returned once the store adapter's transient-failure
	// retries are exhausted.
	ErrStoreUnavailable = errors.New("persistent store unavailable")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
