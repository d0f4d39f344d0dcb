package httpx

import (
	"errors"
	"net/http"

	"github.com/ballotworks/roleboard/internal/shared"
)

// RespondError maps domain errors to HTTP responses. 4xx responses carry the
// error text as the envelope message; 5xx deliberately do not.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Fail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, shared.ErrConflict):
		Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, "")
	}
}
