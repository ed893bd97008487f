package handler

import (
	"errors"
	"net/http"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/service"
)

// statusFor maps service failures onto HTTP statuses. Anything outside the
// expected taxonomy is an internal error and carries no detail to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func actorID(c interface{ Get(string) (interface{}, bool) }) string {
	v, _ := c.Get("userID")
	id, _ := v.(string)
	return id
}
