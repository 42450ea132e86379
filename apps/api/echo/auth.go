package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
)

const (
	contextProfileKey = "profile"
	contextTokenKey   = "accessToken"
)

// bearerAuthMiddleware resolves the caller's profile from the bearer token and
// stores it on the request context. Requests without a live session are
// rejected before the handler runs.
func bearerAuthMiddleware(gate *auth.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := bearerToken(ctx)
			if token == "" {
				return errUnauthorized
			}

			profile, err := gate.InitSession(ctx.Request().Context(), token)
			if err != nil {
				cause := errors.Cause(err)
				if cause == auth.ErrSessionExpired || cause == auth.ErrProfileMissing {
					return cause
				}
				return errors.Wrap(err, "initializing session")
			}

			ctx.Set(contextProfileKey, profile)
			ctx.Set(contextTokenKey, token)
			return next(ctx)
		}
	}
}

// roleMiddleware restricts a route to the given profile kinds.
func roleMiddleware(roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			profile, ok := getContextProfile(ctx)
			if !ok {
				return errUnauthorized
			}
			for _, role := range roles {
				if profile.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc { return roleMiddleware(auth.RoleAdmin) }

func bearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func getContextProfile(ctx echo.Context) (auth.Profile, bool) {
	profile, ok := ctx.Get(contextProfileKey).(auth.Profile)
	return profile, ok
}

func getContextToken(ctx echo.Context) string {
	token, _ := ctx.Get(contextTokenKey).(string)
	return token
}

func validateStruct(v interface{}) error { return core.Validate.Struct(v) }

type authApi struct {
	gate      *auth.Gate
	rosterSvc roster.Service
}

func registerAuthAPI(g *echo.Group, authed echo.MiddlewareFunc, gate *auth.Gate, rosterSvc roster.Service) {
	api := authApi{gate: gate, rosterSvc: rosterSvc}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/register", api.registerAdmin)
	ag.POST("/admin/login", api.login(auth.RoleAdmin))
	ag.POST("/teacher/login", api.login(auth.RoleTeacher))
	ag.POST("/student/login", api.login(auth.RoleStudent))
	// logout never fails regardless of token state
	ag.POST("/logout", api.logout)

	// authed endpoints
	sg := ag.Group("", authed)
	sg.GET("/session", api.session)
	sg.PUT("/password", api.updatePassword)
}

// Handlers

type (
	LoginResponse struct {
		Token   string       `json:"token"`
		Role    auth.Role    `json:"role"`
		Profile auth.Profile `json:"profile"`
	}

	RegisterResponse struct {
		Token string       `json:"token"`
		Admin roster.Admin `json:"admin"`
	}

	UpdatePasswordRequest struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (api *authApi) registerAdmin(ctx echo.Context) error {
	var data roster.NewAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdmin")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	admin, sess, err := api.rosterSvc.RegisterAdmin(ctx.Request().Context(), data)
	if err != nil {
		cause := errors.Cause(err)
		if cause == auth.ErrEmailTaken {
			return core.NewValidationError(cause, core.FieldError{Field: "email", Error: cause.Error()})
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, RegisterResponse{Token: sess.AccessToken, Admin: admin})
}

func (api *authApi) login(role auth.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var creds auth.Credentials
		if err := ctx.Bind(&creds); err != nil {
			return errors.Wrap(err, "binding to Credentials")
		}
		if err := creds.Validate(); err != nil {
			return err
		}

		profile, sess, err := api.gate.Login(ctx.Request().Context(), creds, role)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, LoginResponse{
			Token:   sess.AccessToken,
			Role:    profile.Role,
			Profile: profile,
		})
	}
}

func (api *authApi) session(ctx echo.Context) error {
	profile, ok := getContextProfile(ctx)
	if !ok {
		return errUnauthorized
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *authApi) logout(ctx echo.Context) error {
	if token := bearerToken(ctx); token != "" {
		api.gate.Logout(ctx.Request().Context(), token)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) updatePassword(ctx echo.Context) error {
	var data UpdatePasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePasswordRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	if err := api.gate.UpdatePassword(ctx.Request().Context(), getContextToken(ctx), data.Password); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been updated."})
}
