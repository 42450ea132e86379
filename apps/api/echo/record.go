package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/record"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	"github.com/tsedeniyafiseha/school-management-system/core/school"
)

type recordApi struct {
	svc     record.Service
	roster  roster.Service
	schools school.Service
}

func registerRecordAPI(g *echo.Group, authed echo.MiddlewareFunc, svc record.Service, rosterSvc roster.Service, schoolSvc school.Service) {
	api := recordApi{svc: svc, roster: rosterSvc, schools: schoolSvc}

	sg := g.Group("", authed)
	staff := roleMiddleware(auth.RoleAdmin, auth.RoleTeacher)

	sg.POST("/records/student-attendance", api.saveStudentAttendance, staff)
	sg.POST("/records/teacher-attendance", api.saveTeacherAttendance, adminMiddleware())
	sg.POST("/records/exam-results", api.saveExamResult, staff)

	sg.GET("/students/:id/attendance", api.queryStudentAttendance)
	sg.GET("/students/:id/exam-results", api.queryExamResults)
	sg.GET("/teachers/:id/attendance", api.queryTeacherAttendance)

	sg.DELETE("/records/attendance", api.removeAttendance, adminMiddleware())
}

// Handlers

// guardStudent hides students outside the caller's school as not found.
func (api *recordApi) guardStudent(ctx echo.Context, id string) error {
	student, err := api.roster.StudentDetail(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if !sameTenant(ctx, student.SchoolID) {
		return errHttpNotFound
	}
	return nil
}

func (api *recordApi) guardTeacher(ctx echo.Context, id string) error {
	teacher, err := api.roster.TeacherDetail(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if !sameTenant(ctx, teacher.SchoolID) {
		return errHttpNotFound
	}
	return nil
}

func (api *recordApi) guardSubject(ctx echo.Context, id string) error {
	subject, err := api.schools.SubjectDetail(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if !sameTenant(ctx, subject.SchoolID) {
		return errHttpNotFound
	}
	return nil
}

func (api *recordApi) saveStudentAttendance(ctx echo.Context) error {
	var data record.StudentAttendanceEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentAttendanceEntry")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if err := api.guardStudent(ctx, data.StudentID); err != nil {
		return err
	}
	if err := api.guardSubject(ctx, data.SubjectID); err != nil {
		return err
	}

	if err := api.svc.SaveStudentAttendance(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Attendance recorded."})
}

func (api *recordApi) saveTeacherAttendance(ctx echo.Context) error {
	var data record.TeacherAttendanceEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherAttendanceEntry")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if err := api.guardTeacher(ctx, data.TeacherID); err != nil {
		return err
	}

	if err := api.svc.SaveTeacherAttendance(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Attendance recorded."})
}

func (api *recordApi) saveExamResult(ctx echo.Context) error {
	var data record.ExamResultEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExamResultEntry")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if err := api.guardStudent(ctx, data.StudentID); err != nil {
		return err
	}
	if err := api.guardSubject(ctx, data.SubjectID); err != nil {
		return err
	}

	if err := api.svc.SaveExamResult(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Marks recorded."})
}

func (api *recordApi) queryStudentAttendance(ctx echo.Context) error {
	if err := api.guardStudent(ctx, ctx.Param("id")); err != nil {
		return err
	}

	entries, err := api.svc.StudentAttendance(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if entries == nil {
		entries = []record.StudentAttendance{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *recordApi) queryExamResults(ctx echo.Context) error {
	if err := api.guardStudent(ctx, ctx.Param("id")); err != nil {
		return err
	}

	results, err := api.svc.ExamResults(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying exam results")
	}
	if results == nil {
		results = []record.ExamResult{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *recordApi) queryTeacherAttendance(ctx echo.Context) error {
	if err := api.guardTeacher(ctx, ctx.Param("id")); err != nil {
		return err
	}

	entries, err := api.svc.TeacherAttendance(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying teacher attendance")
	}
	if entries == nil {
		entries = []record.TeacherAttendance{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

type RemoveAttendanceRequest struct {
	Scope string `query:"scope" validate:"required"`
	ID    string `query:"id" validate:"required"`
}

func (api *recordApi) removeAttendance(ctx echo.Context) error {
	var query RemoveAttendanceRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to RemoveAttendanceRequest")
	}
	if err := validateStruct(&query); err != nil {
		return err
	}

	switch record.RemovalScope(query.Scope) {
	case record.RemoveByStudent:
		if err := api.guardStudent(ctx, query.ID); err != nil {
			return err
		}
	case record.RemoveBySubject:
		if err := api.guardSubject(ctx, query.ID); err != nil {
			return err
		}
	case record.RemoveByTenant:
		if !sameTenant(ctx, query.ID) {
			return errHttpNotFound
		}
	}

	if err := api.svc.RemoveAttendance(ctx.Request().Context(), record.RemovalScope(query.Scope), query.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
