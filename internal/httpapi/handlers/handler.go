// Package handlers holds the HTTP endpoints for the upload pipeline and
// health checks. Chat itself rides the websocket, not these routes.
package handlers

import (
	"github.com/rs/zerolog"

	"github.com/docuchat/gateway/internal/files"
)

type Handler struct {
	Files *files.Service
	Log   zerolog.Logger
}

func NewHandler(filesSvc *files.Service, log zerolog.Logger) *Handler {
	return &Handler{
		Files: filesSvc,
		Log:   log.With().Str("component", "httpapi").Logger(),
	}
}
