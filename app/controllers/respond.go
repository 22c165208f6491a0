package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/betterdrive/betterdrive/app/services"
	"github.com/betterdrive/betterdrive/pkg/ctx"
)

// fail maps a service error onto the JSON error envelope. Unrecognised
// errors surface as 500 with a generic message — causes are logged at the
// service layer, never leaked to the client.
func fail(c *ctx.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.NotFound(err.Error())
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden(err.Error())
	case errors.Is(err, services.ErrConflict):
		c.Error(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrQuotaExceeded):
		c.Error(http.StatusPreconditionFailed, err.Error())
	default:
		c.Error(http.StatusInternalServerError, "Internal error")
	}
}

// paramID parses the {id} path parameter. Returns 0 and writes a 404 when
// the value is not a positive integer (an unparseable id can never exist).
func paramID(c *ctx.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.NotFound("Invalid id")
		return 0
	}
	return uint(id)
}
