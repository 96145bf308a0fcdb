package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/scrim-system/middleware"
	"github.com/Dosada05/scrim-system/models"
	"github.com/Dosada05/scrim-system/services"
)

const (
	defaultScrimPageLimit = 50
	maxScrimPageLimit     = 200
)

type ScrimHandler struct {
	scrimService       services.ScrimService
	applicationService services.ApplicationService
}

func NewScrimHandler(ss services.ScrimService, as services.ApplicationService) *ScrimHandler {
	return &ScrimHandler{
		scrimService:       ss,
		applicationService: as,
	}
}

func (h *ScrimHandler) CreateScrim(w http.ResponseWriter, r *http.Request) {
	var input services.CreateScrimInput
	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	input.CreatorID = currentUserID

	scrim, err := h.scrimService.CreateScrim(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"scrim": scrim,
	}

	err = writeJSON(w, http.StatusCreated, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func errInvalidQueryParam(name string) error {
	return fmt.Errorf("invalid query parameter %q", name)
}

// parseScrimFilter читает query-параметры доски: tier, status, max_rounds,
// from, to (RFC 3339), limit, offset. Невалидные значения - ошибка 400.
func parseScrimFilter(r *http.Request) (services.ScrimListFilter, error) {
	filter := services.ScrimListFilter{
		Limit: defaultScrimPageLimit,
	}
	q := r.URL.Query()

	if raw := q.Get("tier"); raw != "" {
		tier := models.Tier(raw)
		filter.Tier = &tier
	}
	if raw := q.Get("status"); raw != "" {
		status := models.ScrimStatus(raw)
		filter.Status = &status
	}
	if raw := q.Get("max_rounds"); raw != "" {
		rounds, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errInvalidQueryParam("max_rounds")
		}
		filter.MaxRounds = &rounds
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errInvalidQueryParam("from")
		}
		filter.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errInvalidQueryParam("to")
		}
		filter.To = &to
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, errInvalidQueryParam("limit")
		}
		if limit > maxScrimPageLimit {
			limit = maxScrimPageLimit
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, errInvalidQueryParam("offset")
		}
		filter.Offset = offset
	}

	return filter, nil
}

func (h *ScrimHandler) ListScrims(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	filter, err := parseScrimFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scrims, err := h.scrimService.ListVisible(r.Context(), currentUserID, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"scrims": scrims,
		"count":  len(scrims),
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScrimHandler) GetScrim(w http.ResponseWriter, r *http.Request) {
	scrimID, err := getIDFromURL(r, "scrimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	scrim, err := h.scrimService.GetScrim(r.Context(), currentUserID, scrimID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"scrim": scrim,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScrimHandler) Apply(w http.ResponseWriter, r *http.Request) {
	scrimID, err := getIDFromURL(r, "scrimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ApplyInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	application, err := h.applicationService.Apply(r.Context(), scrimID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"application": application,
	}

	err = writeJSON(w, http.StatusCreated, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScrimHandler) ResolveApplication(w http.ResponseWriter, r *http.Request) {
	scrimID, err := getIDFromURL(r, "scrimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ApplicationID int `json:"application_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ApplicationID <= 0 {
		badRequestResponse(w, r, errors.New("application_id is required"))
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	scrim, err := h.applicationService.Resolve(r.Context(), scrimID, input.ApplicationID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"scrim": scrim,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScrimHandler) CloseScrim(w http.ResponseWriter, r *http.Request) {
	scrimID, err := getIDFromURL(r, "scrimID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	scrim, err := h.scrimService.Close(r.Context(), scrimID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"scrim": scrim,
	}

	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
