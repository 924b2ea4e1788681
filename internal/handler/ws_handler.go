/*
Package handler provides the HTTP handlers and routing setup for the Pixly server.

This file contains the HandleWebSocket function, which upgrades the HTTP
connection to WebSocket and hands it to the gateway. Everything that happens
after the upgrade (identity, rooms, events) is in-protocol.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"pixly/internal/pkg/logx"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		// Blocks until the connection closes.
		deps.Gateway.Accept(conn, deps.Session)
	}
}
