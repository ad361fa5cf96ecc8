package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-style/internal/compositor"
	"github.com/joeblew999/plat-style/internal/export"
	"github.com/joeblew999/plat-style/internal/service"
	"github.com/joeblew999/plat-style/internal/style"
)

// apiError maps domain errors to Huma status errors.
func apiError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, style.ErrLayerNotFound), errors.Is(err, service.ErrSourceNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, style.ErrInvalidStyle):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, export.ErrNotReady), errors.Is(err, export.ErrSuperseded):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, export.ErrSourceNotReady), errors.Is(err, compositor.ErrRenderingUnavailable):
		return huma.Error503ServiceUnavailable(err.Error())
	case errors.Is(err, export.ErrDecode):
		return huma.Error500InternalServerError("export failed", err)
	}
	return huma.Error500InternalServerError(err.Error())
}
