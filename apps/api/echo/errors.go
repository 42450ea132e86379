package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/record"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	"github.com/tsedeniyafiseha/school-management-system/core/school"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case auth.RoleMismatchError:
			code = http.StatusForbidden
			message = origErr.Error()
		case *core.TransportError:
			code = http.StatusBadGateway
			message = "upstream service unavailable"
			logger.Error(origErr.Error(), err)
		default:
			code, message = mapSentinel(cause)
			if code == 0 { // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				args := []interface{}{errors.Wrap(err, msg)}
				if profile, ok := getContextProfile(ctx); ok {
					args = append(args, profile)
				}
				logger.Error(msg, args...)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// mapSentinel translates domain sentinel errors to HTTP codes;
// a zero code means no match.
func mapSentinel(cause error) (int, interface{}) {
	switch cause {
	case auth.ErrInvalidCredentials, auth.ErrStudentNotFound:
		return http.StatusBadRequest, cause.Error()
	case auth.ErrSessionExpired, auth.ErrProfileMissing:
		return http.StatusUnauthorized, cause.Error()
	case auth.ErrEmailTaken:
		return http.StatusConflict, cause.Error()
	case record.ErrSessionLimit:
		return http.StatusConflict, cause.Error()
	case school.ErrDeleteDisabled:
		return http.StatusForbidden, cause.Error()
	case record.ErrUnknownScope:
		return http.StatusBadRequest, cause.Error()
	case auth.ErrProfileNotFound, roster.ErrNotFound, school.ErrNotFound, record.ErrNotFound:
		return http.StatusNotFound, cause.Error()
	}
	return 0, nil
}
