package handler

import (
	"net/http"

	"loyalty-wallet/internal/middleware"
	"loyalty-wallet/internal/service"
	"loyalty-wallet/pkg/apierror"
	"loyalty-wallet/pkg/response"
)

// SyncHandler triggers reconciliation with the remote store.
type SyncHandler struct {
	sync *service.SyncService
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(sync *service.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// SyncResponse carries the outcome of one run.
type SyncResponse struct {
	Message string              `json:"message"`
	Result  *service.SyncResult `json:"result,omitempty"`
}

// Run handles POST /api/v1/sync
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	res, err := h.sync.Sync(r.Context(), identity)
	if err != nil {
		apiErr := apierror.FromDomain(err)
		apiErr.Message = service.StatusMessage(err)
		response.Error(w, apiErr)
		return
	}

	response.OK(w, SyncResponse{Message: service.StatusMessage(nil), Result: res})
}

// Status handles GET /api/v1/sync/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	st, ok := h.sync.Status(identity.UserID)
	if !ok {
		response.OK(w, map[string]interface{}{
			"enabled": h.sync.Enabled(),
			"message": "",
		})
		return
	}
	response.OK(w, map[string]interface{}{
		"enabled": h.sync.Enabled(),
		"message": st.Message,
		"ok":      st.OK,
		"at":      st.At,
		"result":  st.Result,
	})
}
