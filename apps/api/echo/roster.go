package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	"github.com/tsedeniyafiseha/school-management-system/core/school"
)

type rosterApi struct {
	svc     roster.Service
	schools school.Service
}

func registerRosterAPI(g *echo.Group, authed echo.MiddlewareFunc, svc roster.Service, schoolSvc school.Service) {
	api := rosterApi{svc: svc, schools: schoolSvc}

	sg := g.Group("", authed)

	sg.POST("/teachers", api.createTeacher, adminMiddleware())
	sg.GET("/teachers", api.queryTeachers)
	sg.GET("/teachers/:id", api.retrieveTeacher)
	sg.PUT("/teachers/:id", api.updateTeacher)

	sg.POST("/students", api.createStudent, adminMiddleware())
	sg.GET("/students", api.queryStudents)
	sg.GET("/students/:id", api.retrieveStudent)
	sg.PUT("/students/:id", api.updateStudent)
	sg.GET("/classes/:id/students", api.queryClassStudents)

	sg.GET("/admin", api.retrieveAdmin)
	sg.PUT("/admin", api.updateAdmin, adminMiddleware())
}

// Handlers

func (api *rosterApi) createTeacher(ctx echo.Context) error {
	var data roster.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}

	// creation is always scoped to the caller's own school
	profile, _ := getContextProfile(ctx)
	data.SchoolID = profile.TenantID()

	if err := data.Validate(); err != nil {
		return err
	}

	created, err := api.svc.RegisterTeacher(ctx.Request().Context(), getContextToken(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (api *rosterApi) queryTeachers(ctx echo.Context) error {
	profile, _ := getContextProfile(ctx)

	teachers, err := api.svc.Teachers(ctx.Request().Context(), profile.TenantID())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []roster.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *rosterApi) retrieveTeacher(ctx echo.Context) error {
	teacher, err := api.svc.TeacherDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !sameTenant(ctx, teacher.SchoolID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, teacher)
}

func (api *rosterApi) updateTeacher(ctx echo.Context) error {
	// rows outside the caller's school stay hidden, even from admins
	target, err := api.svc.TeacherDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !sameTenant(ctx, target.SchoolID) {
		return errHttpNotFound
	}
	if !ownerOrAdmin(ctx, target.ID) {
		return errHttpForbidden
	}

	var data roster.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	teacher, err := api.svc.UpdateTeacher(ctx.Request().Context(), target.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, teacher)
}

func (api *rosterApi) createStudent(ctx echo.Context) error {
	var data roster.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	profile, _ := getContextProfile(ctx)
	data.SchoolID = profile.TenantID()

	if err := data.Validate(); err != nil {
		return err
	}

	created, err := api.svc.RegisterStudent(ctx.Request().Context(), getContextToken(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (api *rosterApi) queryStudents(ctx echo.Context) error {
	profile, _ := getContextProfile(ctx)

	students, err := api.svc.Students(ctx.Request().Context(), profile.TenantID())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []roster.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *rosterApi) queryClassStudents(ctx echo.Context) error {
	class, err := api.schools.ClassDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !sameTenant(ctx, class.SchoolID) {
		return errHttpNotFound
	}

	students, err := api.svc.ClassStudents(ctx.Request().Context(), class.ID)
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	if students == nil {
		students = []roster.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *rosterApi) retrieveStudent(ctx echo.Context) error {
	student, err := api.svc.StudentDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !sameTenant(ctx, student.SchoolID) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *rosterApi) updateStudent(ctx echo.Context) error {
	target, err := api.svc.StudentDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !sameTenant(ctx, target.SchoolID) {
		return errHttpNotFound
	}
	if !ownerOrAdmin(ctx, target.ID) {
		return errHttpForbidden
	}

	var data roster.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	student, err := api.svc.UpdateStudent(ctx.Request().Context(), target.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *rosterApi) retrieveAdmin(ctx echo.Context) error {
	profile, _ := getContextProfile(ctx)

	admin, err := api.svc.Admin(ctx.Request().Context(), profile.TenantID())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, admin)
}

func (api *rosterApi) updateAdmin(ctx echo.Context) error {
	profile, _ := getContextProfile(ctx)

	var data roster.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	admin, err := api.svc.UpdateAdmin(ctx.Request().Context(), profile.ProfileID(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, admin)
}

// ownerOrAdmin allows a profile owner to touch their own row, and an admin to
// touch any row in their school. Callers must have already established with
// sameTenant that the row belongs to the caller's school.
func ownerOrAdmin(ctx echo.Context, id string) bool {
	profile, ok := getContextProfile(ctx)
	if !ok {
		return false
	}
	return profile.Role == auth.RoleAdmin || profile.ProfileID() == id
}

func sameTenant(ctx echo.Context, schoolID string) bool {
	profile, ok := getContextProfile(ctx)
	if !ok {
		return false
	}
	return profile.TenantID() == schoolID
}
