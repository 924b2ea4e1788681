package session

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixly/internal/pkg/errs"
)

func TestDecodeActionValidPayloads(t *testing.T) {
	tests := []struct {
		name   string
		action string
		raw    string
		check  func(t *testing.T, decoded any)
	}{
		{
			name:   "authenticate",
			action: ActionAuthenticate,
			raw:    `{"name":"alice","avatar":"bulbasaur"}`,
			check: func(t *testing.T, decoded any) {
				p := decoded.(*AuthenticatePayload)
				assert.Equal(t, "alice", p.Name)
				assert.Equal(t, "bulbasaur", p.Avatar)
			},
		},
		{
			name:   "join room",
			action: ActionJoinRoom,
			raw:    `{"name":"lobby"}`,
			check: func(t *testing.T, decoded any) {
				assert.Equal(t, "lobby", decoded.(*JoinRoomPayload).Name)
			},
		},
		{
			name:   "send message",
			action: ActionSendMessage,
			raw:    `{"text":"hi"}`,
			check: func(t *testing.T, decoded any) {
				assert.Equal(t, "hi", decoded.(*SendMessagePayload).Text)
			},
		},
		{
			name:   "update status accepts zero coordinates",
			action: ActionUpdateStatus,
			raw:    `{"x":0,"y":0}`,
			check: func(t *testing.T, decoded any) {
				p := decoded.(*UpdateStatusPayload)
				require.NotNil(t, p.X)
				require.NotNil(t, p.Y)
				assert.Zero(t, *p.X)
				assert.Zero(t, *p.Y)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := decodeAction(tt.action, json.RawMessage(tt.raw))
			require.NoError(t, err)
			tt.check(t, decoded)
		})
	}
}

func TestDecodeActionFieldViolations(t *testing.T) {
	tests := []struct {
		name        string
		action      string
		raw         string
		wantMessage string
	}{
		{
			name:        "empty message text cites length",
			action:      ActionSendMessage,
			raw:         `{"text":""}`,
			wantMessage: "text must be longer than or equal to 1 characters",
		},
		{
			name:        "overlong message text cites length",
			action:      ActionSendMessage,
			raw:         `{"text":"` + strings.Repeat("a", 125) + `"}`,
			wantMessage: "text must be shorter than or equal to 124 characters",
		},
		{
			name:        "empty display name cites length",
			action:      ActionAuthenticate,
			raw:         `{"name":"","avatar":"bulbasaur"}`,
			wantMessage: "name must be longer than or equal to 1 characters",
		},
		{
			name:        "unknown avatar cites the enumerated set",
			action:      ActionAuthenticate,
			raw:         `{"name":"bob","avatar":"pikachu"}`,
			wantMessage: "avatar must be one of the following values: bulbasaur, charmander, squirtle",
		},
		{
			name:        "mistyped coordinate cites the type",
			action:      ActionUpdateStatus,
			raw:         `{"x":"a","y":1}`,
			wantMessage: "x must be of type number",
		},
		{
			name:        "missing coordinate cites the field",
			action:      ActionUpdateStatus,
			raw:         `{"x":1}`,
			wantMessage: "y should not be null or undefined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeAction(tt.action, json.RawMessage(tt.raw))
			require.Error(t, err)

			var customErr *errs.CustomError
			require.ErrorAs(t, err, &customErr, "field violations must be recoverable protocol errors")
			assert.Equal(t, errs.ErrValidation, customErr.Code)
			assert.Equal(t, tt.wantMessage, customErr.Message)
		})
	}
}

func TestDecodeActionMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "array payload", raw: `["alice","bulbasaur"]`},
		{name: "bare string", raw: `"alice"`},
		{name: "bare number", raw: `42`},
		{name: "empty payload", raw: ``},
		{name: "whitespace only", raw: "  \n\t"},
		{name: "truncated object", raw: `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeAction(ActionAuthenticate, json.RawMessage(tt.raw))
			require.Error(t, err)

			// Malformed input is protocol abuse, not a user mistake: it must
			// not come back as a client-facing CustomError.
			var customErr *errs.CustomError
			assert.False(t, errors.As(err, &customErr))
		})
	}
}

func TestDecodeActionUnknownAction(t *testing.T) {
	_, err := decodeAction("teleport", json.RawMessage(`{}`))
	require.Error(t, err)

	var customErr *errs.CustomError
	assert.False(t, errors.As(err, &customErr))
	assert.Contains(t, err.Error(), "teleport")
}
