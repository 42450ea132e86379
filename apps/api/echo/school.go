package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core/school"
)

type schoolApi struct {
	svc school.Service
}

func registerSchoolAPI(g *echo.Group, authed echo.MiddlewareFunc, svc school.Service) {
	api := schoolApi{svc: svc}

	sg := g.Group("", authed)

	sg.POST("/classes", api.createClass, adminMiddleware())
	sg.GET("/classes", api.queryClasses)
	sg.GET("/classes/:id", api.retrieveClass)
	sg.DELETE("/classes/:id", api.destroy, adminMiddleware())

	sg.POST("/subjects", api.createSubjects, adminMiddleware())
	sg.GET("/subjects", api.querySubjects)
	sg.GET("/subjects/:id", api.retrieveSubject)
	sg.GET("/classes/:id/subjects", api.queryClassSubjects)
	sg.GET("/classes/:id/free-subjects", api.queryFreeSubjects)
	sg.PUT("/subjects/:id/teacher", api.assignTeacher, adminMiddleware())
	sg.DELETE("/subjects/:id", api.destroy, adminMiddleware())

	sg.POST("/notices", api.createNotice, adminMiddleware())
	sg.GET("/notices", api.queryNotices)

	sg.POST("/complains", api.createComplain)
	sg.GET("/complains", api.queryComplains, adminMiddleware())
}

// Handlers

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}

	profile, _ := getContextProfile(ctx)
	data.SchoolID = profile.TenantID()

	if err := data.Validate(api.svc); err != nil {
		return err
	}

	class, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	profile, _ := getContextProfile(ctx)

	classes, err := api.svc.Classes(ctx.Request().Context(), profile.TenantID())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	class, err := api.svc.ClassDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !sameTenant(ctx, class.SchoolID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *schoolApi) createSubjects(ctx echo.Context) error {
	var data school.NewSubjects
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubjects")
	}

	profile, _ := getContextProfile(ctx)
	data.SchoolID = profile.TenantID()

	if err := data.Validate(api.svc); err != nil {
		return err
	}

	subjects, err := api.svc.CreateSubjects(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subjects")
	}
	return ctx.JSON(http.StatusCreated, subjects)
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	profile, _ := getContextProfile(ctx)

	subjects, err := api.svc.SchoolSubjects(ctx.Request().Context(), profile.TenantID())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) queryClassSubjects(ctx echo.Context) error {
	subjects, err := api.svc.ClassSubjects(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying class subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) queryFreeSubjects(ctx echo.Context) error {
	subjects, err := api.svc.FreeClassSubjects(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying free subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) retrieveSubject(ctx echo.Context) error {
	subject, err := api.svc.SubjectDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !sameTenant(ctx, subject.SchoolID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, subject)
}

type AssignTeacherRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
}

func (api *schoolApi) assignTeacher(ctx echo.Context) error {
	var data AssignTeacherRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacherRequest")
	}
	if err := validateStruct(&data); err != nil {
		return err
	}

	if err := api.svc.AssignTeacher(ctx.Request().Context(), data.TeacherID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Teacher assigned to subject."})
}

func (api *schoolApi) createNotice(ctx echo.Context) error {
	var data school.NewNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotice")
	}

	profile, _ := getContextProfile(ctx)
	data.SchoolID = profile.TenantID()

	if err := data.Validate(); err != nil {
		return err
	}

	notice, err := api.svc.CreateNotice(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return ctx.JSON(http.StatusCreated, notice)
}

func (api *schoolApi) queryNotices(ctx echo.Context) error {
	profile, _ := getContextProfile(ctx)

	notices, err := api.svc.Notices(ctx.Request().Context(), profile.TenantID())
	if err != nil {
		return errors.Wrap(err, "querying notices")
	}
	if notices == nil {
		notices = []school.Notice{}
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *schoolApi) createComplain(ctx echo.Context) error {
	var data school.NewComplain
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComplain")
	}

	profile, _ := getContextProfile(ctx)
	data.SchoolID = profile.TenantID()
	data.UserID = profile.ProfileID()

	if err := data.Validate(); err != nil {
		return err
	}

	complain, err := api.svc.CreateComplain(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating complain")
	}
	return ctx.JSON(http.StatusCreated, complain)
}

func (api *schoolApi) queryComplains(ctx echo.Context) error {
	profile, _ := getContextProfile(ctx)

	complains, err := api.svc.Complains(ctx.Request().Context(), profile.TenantID())
	if err != nil {
		return errors.Wrap(err, "querying complains")
	}
	if complains == nil {
		complains = []school.Complain{}
	}
	return ctx.JSON(http.StatusOK, complains)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	return api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
}
