package api

import (
	"net/http"
	"strconv"

	"github.com/trustedge/trustedge-core/internal/audit"
)

// handleListAudit returns audit entries, most recent first.
//
// Query parameters:
//   - kind: filter by event kind (added, removed, locked, ...)
//   - device_id: filter by device
//   - limit: page size (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeUnavailable(w, "audit trail is not configured")
		return
	}

	filter := audit.Filter{
		Kind:     r.URL.Query().Get("kind"),
		DeviceID: r.URL.Query().Get("device_id"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "failed to list audit entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
