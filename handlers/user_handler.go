package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/scrim-system/middleware"
	"github.com/Dosada05/scrim-system/models"
	"github.com/Dosada05/scrim-system/services"
)

type UserHandler struct {
	userService        services.UserService
	tierRequestService services.TierRequestService
}

func NewUserHandler(us services.UserService, trs services.TierRequestService) *UserHandler {
	return &UserHandler{
		userService:        us,
		tierRequestService: trs,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	user, err := h.userService.GetProfile(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"user": user,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *UserHandler) RequestTierUpgrade(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RequestedTier models.Tier `json:"requested_tier"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.RequestedTier == "" {
		badRequestResponse(w, r, errors.New("requested_tier is required"))
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	request, err := h.tierRequestService.RequestUpgrade(r.Context(), currentUserID, input.RequestedTier)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tier_request": request,
	}

	err = writeJSON(w, http.StatusCreated, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
