package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/paulexconde/together/internal/log"
	"github.com/paulexconde/together/pkg/fault"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code,omitempty"`
}

// writeError maps a service error onto a status code and JSON body.
// Internal errors are logged with code and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, code string, err error) {
	switch {
	case errors.Is(err, fault.ErrAlreadyCheckedIn):
		log.Debugf("%s: %s", code, err)
		respond(w, r, http.StatusConflict, ErrorResponse{Message: fault.MessageOf(err), Code: "ALREADY_CHECKED_IN"})
	case errors.Is(err, fault.ErrUnknownParticipant):
		log.Debugf("%s: %s", code, err)
		respond(w, r, http.StatusForbidden, ErrorResponse{Message: fault.MessageOf(err), Code: "UNKNOWN_PARTICIPANT"})
	case errors.Is(err, fault.ErrNotFound):
		log.Debugf("%s: not found", code)
		respond(w, r, http.StatusNotFound, ErrorResponse{Message: "not found"})
	case fault.FieldOf(err) != "":
		log.Debugf("%s: %s", code, err)
		respond(w, r, http.StatusBadRequest, ErrorResponse{Message: fault.MessageOf(err), Field: fault.FieldOf(err), Code: "VALIDATION_ERROR"})
	case fault.IsClientError(err):
		log.Debugf("%s: %s", code, err)
		respond(w, r, http.StatusBadRequest, ErrorResponse{Message: fault.MessageOf(err)})
	case errors.Is(err, fault.ErrNoQuestionsAvailable):
		log.Errorf("%s: %s", code, err)
		respond(w, r, http.StatusInternalServerError, ErrorResponse{Message: fault.MessageOf(err), Code: "NO_QUESTIONS"})
	default:
		log.Errorf("%s: %s", code, err)
		respond(w, r, http.StatusInternalServerError, ErrorResponse{Message: http.StatusText(http.StatusInternalServerError)})
	}
}

func badRequest(w http.ResponseWriter, r *http.Request, code, msg string) {
	log.Debugf("%s: %s", code, msg)
	respond(w, r, http.StatusBadRequest, ErrorResponse{Message: msg})
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
