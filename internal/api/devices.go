package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trustedge/trustedge-core/internal/device"
)

// registerDeviceRequest is the request body for POST /devices.
type registerDeviceRequest struct {
	Platform string         `json:"platform"`
	Name     string         `json:"name"`
	Location string         `json:"location"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// updateDeviceRequest is the request body for PATCH /devices/{id}.
// Absent fields are left unchanged.
type updateDeviceRequest struct {
	Name     *string        `json:"name"`
	Location *string        `json:"location"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// lockDeviceRequest is the request body for POST /devices/{id}/lock and unlock.
type lockDeviceRequest struct {
	InitiatorDeviceID string `json:"initiator_device_id,omitempty"`
}

// presenceRequest is the request body for PUT /devices/{id}/presence.
type presenceRequest struct {
	Online bool `json:"online"`
}

// handleListDevices returns every registered trusted device.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.registry.GetDevices(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleRegisterDevice enrols a new trusted device.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev, err := s.registry.RegisterDevice(r.Context(), req.Platform, req.Name, req.Location, req.Metadata)
	if err != nil {
		if isValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to register device")
		return
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice partially updates a device's editable fields.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev, err := s.registry.UpdateDevice(r.Context(), id, device.Update{
		Name:          req.Name,
		Location:      req.Location,
		MetadataPatch: req.Metadata,
	})
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		if isValidationError(err) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to update device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleRemoveDevice deletes a device from the registry.
// Removing an unknown device is a no-op, mirroring the registry semantics.
func (s *Server) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := s.registry.RemoveDevice(r.Context(), id)
	if err != nil {
		writeInternalError(w, "failed to remove device")
		return
	}

	s.tracker.Forget(id)
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// handleLockDevice locks a device.
func (s *Server) handleLockDevice(w http.ResponseWriter, r *http.Request) {
	s.setDeviceLock(w, r, true)
}

// handleUnlockDevice unlocks a device.
func (s *Server) handleUnlockDevice(w http.ResponseWriter, r *http.Request) {
	s.setDeviceLock(w, r, false)
}

func (s *Server) setDeviceLock(w http.ResponseWriter, r *http.Request, lock bool) {
	id := chi.URLParam(r, "id")

	var req lockDeviceRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}

	dev, err := s.registry.LockDevice(r.Context(), id, lock, req.InitiatorDeviceID)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to change lock state")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleRecordActivity bumps a device's last-used timestamp.
func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.RecordActivity(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to record activity")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recorded": true})
}

// handleDevicePresence reports whether a device is currently online.
func (s *Server) handleDevicePresence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"online":    s.tracker.IsOnline(id),
	})
}

// handleSetDevicePresence manually flips a device's connectivity.
//
// The MQTT presence listener is the normal source of transitions; this
// endpoint covers deployments without a broker and operator intervention
// when an agent is stuck.
func (s *Server) handleSetDevicePresence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req presenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	s.dispatcher.SetDeviceConnectionStatus(r.Context(), id, req.Online)

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"online":    req.Online,
	})
}

// isValidationError reports whether err is a registry input rejection.
func isValidationError(err error) bool {
	return errors.Is(err, device.ErrInvalidName) ||
		errors.Is(err, device.ErrInvalidPlatform) ||
		errors.Is(err, device.ErrInvalidLocation) ||
		errors.Is(err, device.ErrInvalidMetadata)
}
