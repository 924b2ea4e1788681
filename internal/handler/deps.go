package handler

import (
	"pixly/internal/app/session"
	"pixly/internal/app/ws"
	"pixly/internal/configs"
)

type AppDeps struct {
	Session *session.Service
	Gateway *ws.Gateway
	Config  *configs.AppConfig
}
