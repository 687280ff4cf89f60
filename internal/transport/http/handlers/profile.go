package handlers

import (
	"net/http"

	"github.com/baechuer/blood-drive-service/internal/application/profile"
	"github.com/baechuer/blood-drive-service/internal/transport/http/middleware"
	"github.com/baechuer/blood-drive-service/internal/transport/http/response"
)

type ProfileHandler struct {
	svc *profile.Service
}

func NewProfileHandler(svc *profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// MyStats returns the caller's summary for the role in their token.
func (h *ProfileHandler) MyStats(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context(), middleware.Actor(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, sum)
}
