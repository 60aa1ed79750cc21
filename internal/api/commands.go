package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trustedge/trustedge-core/internal/command"
)

// sendCommandRequest is the request body for POST /commands.
type sendCommandRequest struct {
	CommandID      string `json:"command_id,omitempty"`
	Type           string `json:"type"`
	TargetDeviceID string `json:"target_device_id"`
}

// executeCommandRequest is the request body for POST /commands/execute.
// This is the registry-bound variant: the effect is applied through the
// device registry rather than delivered to the device agent.
type executeCommandRequest struct {
	Type              string `json:"type"`
	TargetDeviceID    string `json:"target_device_id"`
	InitiatorDeviceID string `json:"initiator_device_id"`
}

// handleSendCommand dispatches a remote command to a device.
//
// Online targets get immediate delivery; offline targets have the command
// queued and a push wake sent. The response carries the command with its
// current status either way.
func (s *Server) handleSendCommand(w http.ResponseWriter, r *http.Request) {
	var req sendCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd, err := s.dispatcher.SendCommand(r.Context(), req.CommandID, command.Type(req.Type), req.TargetDeviceID)
	if err != nil {
		switch {
		case errors.Is(err, command.ErrInvalidType):
			writeBadRequest(w, err.Error())
		case errors.Is(err, command.ErrTargetNotFound):
			writeNotFound(w, "target device not found")
		default:
			writeInternalError(w, "failed to send command")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, cmd)
}

// handleExecuteCommand runs a registry-bound remote command.
func (s *Server) handleExecuteCommand(w http.ResponseWriter, r *http.Request) {
	var req executeCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.dispatcher.ExecuteRemoteCommand(r.Context(), req.TargetDeviceID, command.Type(req.Type), req.InitiatorDeviceID)
	if err != nil {
		switch {
		case errors.Is(err, command.ErrInvalidType):
			writeBadRequest(w, err.Error())
		case errors.Is(err, command.ErrTargetNotFound):
			writeNotFound(w, "target device not found")
		case errors.Is(err, command.ErrInitiatorNotFound):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to execute command")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"executed": true})
}

// handleGetCommand returns a single command by ID.
func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cmd, ok := s.dispatcher.GetCommand(id)
	if !ok {
		writeNotFound(w, "command not found")
		return
	}

	writeJSON(w, http.StatusOK, cmd)
}

// handleDeviceCommands returns a device's command history in creation order.
func (s *Server) handleDeviceCommands(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	history := s.dispatcher.GetCommandHistory(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"commands": history,
		"count":    len(history),
		"queued":   s.dispatcher.QueuedCount(id),
	})
}

// handleClearHistory wipes the in-memory command history and offline queues.
// The durable audit trail is unaffected.
func (s *Server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	s.dispatcher.ClearHistory()
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}
