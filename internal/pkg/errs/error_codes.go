/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request and Payload Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrValidation indicates that an action payload failed schema validation.
	// The message carries the first failing field's human-readable description.
	ErrValidation = 1002
)

// 2xxx: Room Business Logic Errors
const (
	// ErrUserInRoom indicates that a join was attempted while the user still
	// belonged to a room. The dispatcher performs an implicit leave before
	// joining, so hitting this is a registry precondition failure.
	ErrUserInRoom = 2101

	// ErrAlreadyInRoom indicates that the connection id is already a member of
	// the target room.
	ErrAlreadyInRoom = 2102

	// ErrNameTaken indicates that another member of the target room already
	// uses the same display name (unique-name policy only).
	ErrNameTaken = 2103

	// ErrNotInRoom indicates that a room-scoped action arrived from a user who
	// is not part of any room.
	ErrNotInRoom = 2104
)

// 3xxx: Session Errors
const (
	// ErrUnauthenticated indicates that an action other than authenticate
	// arrived before the connection declared an identity.
	ErrUnauthenticated = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
