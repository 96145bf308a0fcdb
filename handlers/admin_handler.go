package handlers

import (
	"net/http"

	"github.com/Dosada05/scrim-system/middleware"
	"github.com/Dosada05/scrim-system/services"
)

type AdminHandler struct {
	tierRequestService services.TierRequestService
}

func NewAdminHandler(trs services.TierRequestService) *AdminHandler {
	return &AdminHandler{
		tierRequestService: trs,
	}
}

func (h *AdminHandler) ListPendingTierRequests(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requests, err := h.tierRequestService.ListPending(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tier_requests": requests,
		"count":         len(requests),
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ApproveTierRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	request, err := h.tierRequestService.Approve(r.Context(), requestID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tier_request": request,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) RejectTierRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	request, err := h.tierRequestService.Reject(r.Context(), requestID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tier_request": request,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
