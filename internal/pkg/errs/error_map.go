/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and the protocol's error events.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
// Messages here are client-safe; anything without an entry is reported as ErrUnknown.
var errorMap = map[int]CustomError{
	// 1xxx: General Request and Payload Errors
	ErrInvalidParams: {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrValidation:    {Code: ErrValidation, Message: "Invalid payload."},

	// 2xxx: Room Business Logic Errors
	ErrUserInRoom:    {Code: ErrUserInRoom, Message: "User is already part of room."},
	ErrAlreadyInRoom: {Code: ErrAlreadyInRoom, Message: "You are already in the room"},
	ErrNameTaken:     {Code: ErrNameTaken, Message: "That name is already taken in this room"},
	ErrNotInRoom:     {Code: ErrNotInRoom, Message: "You are not part of any room"},

	// 3xxx: Session Errors
	ErrUnauthenticated: {Code: ErrUnauthenticated, Message: "Please authenticate first"},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Server error", Status: http.StatusInternalServerError},
}
