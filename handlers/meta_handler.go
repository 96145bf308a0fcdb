package handlers

import (
	"net/http"

	"github.com/Dosada05/scrim-system/middleware"
	"github.com/Dosada05/scrim-system/models"
	"github.com/Dosada05/scrim-system/services"
)

type MetaHandler struct {
	userService services.UserService
}

func NewMetaHandler(us services.UserService) *MetaHandler {
	return &MetaHandler{
		userService: us,
	}
}

func (h *MetaHandler) GetMaps(w http.ResponseWriter, r *http.Request) {
	response := jsonResponse{
		"maps": models.MapPool,
	}

	err := writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetRanks отдаёт набор рангов для тира текущего аккаунта.
func (h *MetaHandler) GetRanks(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	user, err := h.userService.GetByID(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tier":  user.Tier,
		"ranks": h.userService.RanksFor(user.Tier),
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MetaHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := jsonResponse{
		"status": "available",
	}

	err := writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
