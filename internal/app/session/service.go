/*
Package session contains the core logic of the presence server.

This file defines the Service, the session orchestrator. A single dispatcher
goroutine owns the connection/user and room registries and processes inbound
commands (connect, action, disconnect) one at a time, so each action's
decode → validate → mutate → broadcast sequence runs to completion before the
next begins. That single-flight property is what keeps the registries
consistent without any locking of their own.

Per connection the state machine is Connected (no user) → Authenticated
(user, no room) → InRoom, with Closed reachable from anywhere on disconnect.
*/
package session

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"pixly/internal/app/user"
	"pixly/internal/configs"
	"pixly/internal/pkg/errs"
	"pixly/internal/pkg/logx"
)

const commandChannelBuffer = 1024

type commandKind int

const (
	connectCmd commandKind = iota
	actionCmd
	disconnectCmd
)

// command is one unit of dispatcher work. Commands from the same connection
// are enqueued by its read loop in order, and the channel preserves that
// order through dispatch.
type command struct {
	kind     commandKind
	socketID string
	action   string
	payload  json.RawMessage
}

// Service is the session orchestrator.
type Service struct {
	// conns tracks open connections, authenticated or not. Deleting the entry
	// is what makes disconnect cleanup at-most-once.
	conns map[string]struct{}

	// users maps connection id to its authenticated user.
	users map[string]*user.User

	// rooms owns the active rooms and their membership.
	rooms *roomRegistry

	broadcaster *Broadcaster

	commands chan command

	// closeMu fences command submission against Shutdown: websocket read
	// loops outlive the HTTP server drain, so a late command must not hit a
	// closed channel.
	closeMu sync.RWMutex
	closing bool

	// wg is used to wait for the dispatcher goroutine to finish during shutdown.
	wg sync.WaitGroup

	// structured logger with Session context.
	logger zerolog.Logger
}

// NewService constructs a Service and starts its dispatcher loop.
func NewService(notifier Notifier, cfg *configs.AppConfig) *Service {
	serviceLogger := logx.Logger().With().Str("component", "Session").Logger()

	s := &Service{
		conns:       make(map[string]struct{}),
		users:       make(map[string]*user.User),
		rooms:       newRoomRegistry(cfg.UniqueRoomNames),
		broadcaster: NewBroadcaster(notifier),
		commands:    make(chan command, commandChannelBuffer),
		logger:      serviceLogger,
	}

	s.wg.Add(1)

	go s.run()

	return s
}

// Connect registers a fresh connection that has no user yet.
func (s *Service) Connect(socketID string) {
	s.submit(command{kind: connectCmd, socketID: socketID})
}

// Action submits an inbound action for dispatch. The raw payload is decoded
// and validated on the dispatcher goroutine.
func (s *Service) Action(socketID, action string, payload json.RawMessage) {
	s.submit(command{kind: actionCmd, socketID: socketID, action: action, payload: payload})
}

// Disconnect submits the transport-level disconnect for the connection.
// Cleanup runs exactly once even if the signal races an in-flight action.
func (s *Service) Disconnect(socketID string) {
	s.submit(command{kind: disconnectCmd, socketID: socketID})
}

// submit enqueues a command unless the dispatcher is shutting down. The send
// may block when the queue is full; channel order is what preserves the
// per-connection FIFO guarantee.
func (s *Service) submit(cmd command) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()

	if s.closing {
		return
	}

	s.commands <- cmd
}

// Shutdown stops accepting commands, drains those already queued, and waits
// for the dispatcher goroutine to exit.
func (s *Service) Shutdown() {
	s.logger.Info().Msg("Shutting down session dispatcher...")

	s.closeMu.Lock()
	s.closing = true
	s.closeMu.Unlock()

	close(s.commands)
	s.wg.Wait()

	s.logger.Info().Msg("Session dispatcher stopped.")
}

// run is the dispatcher loop. It is the only goroutine that touches the
// registries.
func (s *Service) run() {
	defer s.wg.Done()

	s.logger.Info().Msg("Session dispatcher started.")

	for cmd := range s.commands {
		s.dispatch(cmd)
	}
}

func (s *Service) dispatch(cmd command) {
	switch cmd.kind {
	case connectCmd:
		s.handleConnect(cmd.socketID)

	case actionCmd:
		if err := s.handleAction(cmd.socketID, cmd.action, cmd.payload); err != nil {
			s.reportError(cmd.socketID, cmd.action, err)
		}

	case disconnectCmd:
		s.handleDisconnect(cmd.socketID)
	}
}

func (s *Service) handleConnect(socketID string) {
	s.conns[socketID] = struct{}{}

	s.logger.Debug().Str("socket_id", socketID).Msg("Connection registered")
}

// handleAction guards, validates, and executes one action. Returned errors are
// reported to the sender; *errs.CustomError values keep their message, anything
// else is masked.
func (s *Service) handleAction(socketID, action string, payload json.RawMessage) error {
	if _, open := s.conns[socketID]; !open {
		// The connection closed while this action sat in the queue.
		s.logger.Debug().Str("socket_id", socketID).Str("action", action).Msg("Dropping action for closed connection")
		return nil
	}

	if action == ActionAuthenticate {
		decoded, err := decodeAction(action, payload)
		if err != nil {
			return err
		}
		return s.authenticate(socketID, decoded.(*AuthenticatePayload))
	}

	// Every other action requires a resolved user before validation runs.
	u, ok := s.users[socketID]
	if !ok {
		return errs.NewError(errs.ErrUnauthenticated)
	}

	decoded, err := decodeAction(action, payload)
	if err != nil {
		return err
	}

	switch p := decoded.(type) {
	case *JoinRoomPayload:
		return s.joinRoom(u, p)
	case *SendMessagePayload:
		return s.sendMessage(u, p)
	case *UpdateStatusPayload:
		return s.updateStatus(u, p)
	default:
		return errs.NewError(errs.ErrUnknown)
	}
}

// authenticate creates the connection's user. Re-authentication is silently
// ignored: the first identity wins and no event is emitted.
func (s *Service) authenticate(socketID string, p *AuthenticatePayload) error {
	if existing, ok := s.users[socketID]; ok {
		s.logger.Info().
			Str("socket_id", socketID).
			Str("name", existing.Name).
			Str("ignored_name", p.Name).
			Msg("Re-authentication ignored, first identity wins")
		return nil
	}

	u := user.New(socketID, p.Name, p.Avatar)
	s.users[socketID] = u

	s.broadcaster.ToSender(socketID, EventAuthenticated, UserEventPayload{User: SerializeUser(u)})

	s.logger.Info().
		Str("socket_id", socketID).
		Str("name", u.Name).
		Str("avatar", u.Avatar).
		Msg("User authenticated")

	return nil
}

// joinRoom moves the user into the named room, leaving the current room first
// if there is one. The leave and join are both handled here, inside a single
// dispatch, so no other action can observe the user between rooms.
func (s *Service) joinRoom(u *user.User, p *JoinRoomPayload) error {
	if u.InRoom() {
		s.leaveCurrentRoom(u)
	}

	room := s.rooms.getOrCreate(p.Name)

	if err := s.rooms.join(room, u); err != nil {
		// The get-or-create above may have made a room the failed join never
		// populated; an empty room must not stay resident.
		if room.isEmpty() {
			s.rooms.delete(room.Name)
		}
		return err
	}

	s.broadcaster.Enter(u.SocketID, room.Name)

	s.broadcaster.ToSender(u.SocketID, EventJoinedRoom, RoomEventPayload{Room: SerializeRoom(room)})
	s.broadcaster.ToRoomExceptSender(room.Name, u.SocketID, EventUserJoinedRoom, UserEventPayload{User: SerializeUser(u)})

	s.logger.Info().
		Str("socket_id", u.SocketID).
		Str("name", u.Name).
		Str("room", room.Name).
		Int("total_users", room.Count()).
		Msg("User joined room")

	return nil
}

// leaveCurrentRoom removes the user from their room, notifying the remaining
// members. When the user was the last member the room is deleted instead and
// nothing is emitted, because no one is left to receive it.
func (s *Service) leaveCurrentRoom(u *user.User) {
	room := s.rooms.get(u.RoomName)
	if room == nil {
		u.RoomName = ""
		return
	}

	deleted := s.rooms.leave(room, u)
	s.broadcaster.Exit(u.SocketID, room.Name)

	if deleted {
		s.logger.Info().Str("room", room.Name).Msg("Room emptied and removed")
		return
	}

	s.broadcaster.ToRoomExceptSender(room.Name, u.SocketID, EventUserLeftRoom, UserEventPayload{User: SerializeUser(u)})

	s.logger.Info().
		Str("socket_id", u.SocketID).
		Str("name", u.Name).
		Str("room", room.Name).
		Int("total_users", room.Count()).
		Msg("User left room")
}

// sendMessage broadcasts a chat message to everyone else in the user's room.
// The message is transient: constructed, broadcast, discarded.
func (s *Service) sendMessage(u *user.User, p *SendMessagePayload) error {
	if !u.InRoom() {
		return errs.NewError(errs.ErrNotInRoom)
	}

	message := SerializeMessage(p.Text, u)
	s.broadcaster.ToRoomExceptSender(u.RoomName, u.SocketID, EventNewMessage, MessageEventPayload{Message: message})

	s.logger.Info().
		Str("room", u.RoomName).
		Str("name", u.Name).
		Int("text_len", len(p.Text)).
		Msg("Message broadcast")

	return nil
}

// updateStatus overwrites the user's 2-D status and broadcasts the new state
// to everyone else in the room.
func (s *Service) updateStatus(u *user.User, p *UpdateStatusPayload) error {
	if !u.InRoom() {
		return errs.NewError(errs.ErrNotInRoom)
	}

	u.UpdateStatus(*p.X, *p.Y)

	s.broadcaster.ToRoomExceptSender(u.RoomName, u.SocketID, EventUserStatusUpdate, UserEventPayload{User: SerializeUser(u)})

	s.logger.Debug().
		Str("room", u.RoomName).
		Str("name", u.Name).
		Float64("x", *p.X).
		Float64("y", *p.Y).
		Msg("Status updated")

	return nil
}

// handleDisconnect runs the leave-and-cleanup sequence for a closed
// connection. It is a no-op for connections already cleaned up, which makes
// the cleanup at-most-once even if the transport signals twice.
func (s *Service) handleDisconnect(socketID string) {
	if _, open := s.conns[socketID]; !open {
		return
	}
	delete(s.conns, socketID)

	u, ok := s.users[socketID]
	if ok {
		if u.InRoom() {
			s.leaveCurrentRoom(u)
		}
		delete(s.users, socketID)
	}

	s.logger.Info().
		Str("socket_id", socketID).
		Bool("was_authenticated", ok).
		Msg("Connection cleaned up")
}

// reportError sends exactly one error event for a failed action. Protocol
// errors keep their client-safe message; anything else indicates a bug or
// protocol abuse, so the sender gets a generic message and the fault is
// surfaced to the operator at error level.
func (s *Service) reportError(socketID, action string, err error) {
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		s.broadcaster.ToSender(socketID, EventError, ErrorEventPayload{Message: customErr.Message})

		s.logger.Warn().
			Str("socket_id", socketID).
			Str("action", action).
			Int("code", customErr.Code).
			Str("reason", customErr.Message).
			Msg("Action rejected")
		return
	}

	s.broadcaster.ToSender(socketID, EventError, ErrorEventPayload{Message: errs.NewError(errs.ErrUnknown).Message})

	s.logger.Error().
		Err(err).
		Str("socket_id", socketID).
		Str("action", action).
		Msg("Internal error while handling action")
}
