/*
Package session contains the core logic of the presence server.

This file implements the action validation pipeline: it decodes a raw action
payload into its typed form and checks it against the payload's declared
constraints. Only the first violation is surfaced, as a recoverable protocol
error with a human-readable field message. Payloads that are not a single
JSON object (arrays in particular) are rejected as malformed input, which is
treated as protocol abuse rather than a user mistake.
*/
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pixly/internal/pkg/errs"
)

// validate holds the shared validator instance. Field names in violation
// messages come from the json tag, matching what the client actually sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// errMalformedPayload marks input that is not a single JSON object. It is not
// a CustomError: the dispatcher masks it as a server error and logs it loudly.
var errMalformedPayload = errors.New("payload is not a JSON object")

// decodeAction decodes and validates the payload for the named action,
// returning a pointer to the typed payload. Validation failures come back as
// *errs.CustomError; malformed input and unknown actions as plain errors.
func decodeAction(action string, raw json.RawMessage) (any, error) {
	var payload any

	switch action {
	case ActionAuthenticate:
		payload = &AuthenticatePayload{}
	case ActionJoinRoom:
		payload = &JoinRoomPayload{}
	case ActionSendMessage:
		payload = &SendMessagePayload{}
	case ActionUpdateStatus:
		payload = &UpdateStatusPayload{}
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	if err := decodePayload(raw, payload); err != nil {
		return nil, err
	}

	return payload, nil
}

// decodePayload unmarshals raw into dst and validates the result.
func decodePayload(raw json.RawMessage, dst any) error {
	if !isJSONObject(raw) {
		return errMalformedPayload
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return newValidationError(fmt.Sprintf("%s must be of type %s", typeErr.Field, expectedType(typeErr)))
		}
		return fmt.Errorf("%w: %v", errMalformedPayload, err)
	}

	if err := validate.Struct(dst); err != nil {
		var violations validator.ValidationErrors
		if errors.As(err, &violations) && len(violations) > 0 {
			// Only the first violation is surfaced.
			return newValidationError(violationMessage(violations[0]))
		}
		return err
	}

	return nil
}

// newValidationError wraps a field violation message as a recoverable
// protocol error.
func newValidationError(message string) *errs.CustomError {
	return errs.NewErrorWithMessage(errs.ErrValidation, message)
}

// isJSONObject reports whether raw starts with an object opener, skipping
// leading whitespace. Empty payloads are not objects.
func isJSONObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return b == '{'
		}
	}
	return false
}

// expectedType renders the type a mistyped field should have had, in protocol
// terms rather than Go terms.
func expectedType(typeErr *json.UnmarshalTypeError) string {
	switch typeErr.Type.Kind() {
	case reflect.Float64, reflect.Ptr:
		return "number"
	case reflect.String:
		return "string"
	default:
		return typeErr.Type.String()
	}
}

// violationMessage renders a single field violation as a human-readable
// description naming the field and the failed constraint.
func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be longer than or equal to %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", fe.Field(), strings.Join(strings.Fields(fe.Param()), ", "))
	case "required":
		return fmt.Sprintf("%s should not be null or undefined", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
