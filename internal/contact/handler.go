package contact

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contactvault/contactvault/internal/auth"
	"github.com/contactvault/contactvault/internal/httputil"
	"github.com/contactvault/contactvault/internal/logging"
)

// Handler contains HTTP handlers for contact endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles contact creation
// @Summary      Create a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Input true "Contact data"
// @Success      200 {object} Contact
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /contacts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	identity, _ := auth.IdentityFromContext(r.Context())

	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.Warn("invalid contact request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), identity, in)
	if err != nil {
		respondContactError(w, r, err)
		return
	}

	httputil.RespondJSON(w, created, http.StatusOK)
}

// Get handles reading a single contact
// @Summary      Get a contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path int true "Contact ID"
// @Success      200 {object} Contact
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse "Owned by another user"
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /contacts/{contactID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	c, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		respondContactError(w, r, err)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Update handles full-replace contact updates
// @Summary      Update a contact
// @Description  Replaces the contact's fields and child collections with exactly what is submitted
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path int true "Contact ID"
// @Param        request body Input true "Replacement contact data"
// @Success      200 {object} Contact
// @Failure      400 {object} httputil.ErrorResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /contacts/{contactID} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := contactID(w, r)
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.Warn("invalid contact request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(r.Context(), identity, id, in)
	if err != nil {
		respondContactError(w, r, err)
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete handles contact deletion
// @Summary      Delete a contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path int true "Contact ID"
// @Success      200 {object} map[string]string
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /contacts/{contactID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(w, r)
	if !ok {
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		respondContactError(w, r, err)
		return
	}

	httputil.RespondJSON(w, map[string]string{"message": "contact deleted successfully"}, http.StatusOK)
}

// List returns every contact owned by the caller
// @Summary      List own contacts
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Contact
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /users/contacts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	list, err := h.service.List(r.Context(), identity)
	if err != nil {
		respondContactError(w, r, err)
		return
	}

	httputil.RespondJSON(w, list, http.StatusOK)
}

// contactID parses the path parameter, responding 400 on garbage input.
func contactID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid contact id", httputil.CodeValidation, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// respondContactError maps service failures to the error taxonomy:
// unauthenticated 401, forbidden 403, not found 404, anything else 500 with
// a generic message.
func respondContactError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.GetLoggerFromContext(r.Context())

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		httputil.RespondErrorWithCode(w, "you can only access your own contacts", httputil.CodeForbidden, http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "contact not found", httputil.CodeNotFound, http.StatusNotFound)
	default:
		logger.Error("contact operation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
