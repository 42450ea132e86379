package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
)

func Test_rosterApi_teachers(t *testing.T) {
	env := setupServer(t)

	admin := env.registerSchool(t, "Springfield High", "admin@test.cd")
	class := env.createClass(t, admin.Token, "Grade 10")

	created := env.createTeacher(t, admin.Token, class.ID, "Jane Teacher", "jane@test.cd")
	assert.Equal(t, auth.RoleTeacher, created.Role)

	teacher := env.loginTeacher(t, "jane@test.cd", "t3ach!ngPwd#")

	t.Run("welcome mail sent", func(t *testing.T) {
		sent := env.mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "jane@test.cd", sent[0].To[0].Address)
	})

	t.Run("query", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/teachers", admin.Token)
		require.Equal(t, http.StatusOK, rec.Code)

		var teachers []roster.Teacher
		decodeBody(t, rec, &teachers)
		require.Len(t, teachers, 1)
		assert.Equal(t, "Jane Teacher", teachers[0].Name)
	})

	t.Run("retrieve", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/teachers/"+created.ID, teacher.Token)
		require.Equal(t, http.StatusOK, rec.Code)

		var got roster.Teacher
		decodeBody(t, rec, &got)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("only admins create", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/teachers", teacher.Token, marchallObj(t, map[string]string{
			"name":           "Rogue",
			"email":          "rogue@test.cd",
			"password":       "t3ach!ngPwd#",
			"teach_class_id": class.ID,
		}))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("owner updates own profile", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/teachers/"+created.ID, teacher.Token, marchallObj(t, map[string]string{"name": "Jane Renamed"}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got roster.Teacher
		decodeBody(t, rec, &got)
		assert.Equal(t, "Jane Renamed", got.Name)
	})

	t.Run("cross-tenant reads come back as not found", func(t *testing.T) {
		other := env.registerSchool(t, "Shelbyville High", "other@test.cd")

		rec := env.do(http.MethodGet, "/v1/teachers/"+created.ID, other.Token)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		}, rec)
	})

	t.Run("cross-tenant updates come back as not found", func(t *testing.T) {
		// another school's admin cannot even see the row, let alone rename it
		other := env.registerSchool(t, "Ogdenville High", "ogden@test.cd")

		rec := env.do(http.MethodPut, "/v1/teachers/"+created.ID, other.Token, marchallObj(t, map[string]string{"name": "Hijacked"}))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		}, rec)

		rec = env.do(http.MethodGet, "/v1/teachers/"+created.ID, admin.Token)
		require.Equal(t, http.StatusOK, rec.Code)

		var got roster.Teacher
		decodeBody(t, rec, &got)
		assert.Equal(t, "Jane Renamed", got.Name)
	})
}

func Test_rosterApi_students(t *testing.T) {
	env := setupServer(t)

	admin := env.registerSchool(t, "Springfield High", "admin@test.cd")
	class := env.createClass(t, admin.Token, "Grade 10")

	created := env.createStudent(t, admin.Token, class.ID, "Hero Kid", 12)
	// email is synthesized from the roll number and school name
	assert.Equal(t, "s12.springfiel@school.local", created.Email)

	sibling := env.createStudent(t, admin.Token, class.ID, "Side Kid", 13)
	student := env.loginStudent(t, 12, "Hero Kid", "st!d3ntPwd#1")

	t.Run("query", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/students", admin.Token)
		require.Equal(t, http.StatusOK, rec.Code)

		var students []roster.Student
		decodeBody(t, rec, &students)
		require.Len(t, students, 2)
		// ordered by roll number
		assert.Equal(t, 12, students[0].RollNum)
		assert.Equal(t, 13, students[1].RollNum)
	})

	t.Run("query by class", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/classes/"+class.ID+"/students", admin.Token)
		require.Equal(t, http.StatusOK, rec.Code)

		var students []roster.Student
		decodeBody(t, rec, &students)
		assert.Len(t, students, 2)
	})

	t.Run("only admins create", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/students", student.Token, marchallObj(t, map[string]interface{}{
			"name":     "Rogue",
			"password": "st!d3ntPwd#1",
			"roll_num": 14,
			"class_id": class.ID,
		}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner updates own profile", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/students/"+created.ID, student.Token, marchallObj(t, map[string]string{"name": "Hero Renamed"}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got roster.Student
		decodeBody(t, rec, &got)
		assert.Equal(t, "Hero Renamed", got.Name)
	})

	t.Run("owner cannot update someone else", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/students/"+sibling.ID, student.Token, marchallObj(t, map[string]string{"name": "Hijacked"}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin updates anyone in their school", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/students/"+sibling.ID, admin.Token, marchallObj(t, map[string]string{"name": "Side Renamed"}))
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("another school's admin gets not found", func(t *testing.T) {
		other := env.registerSchool(t, "Shelbyville High", "other@test.cd")

		rec := env.do(http.MethodPut, "/v1/students/"+created.ID, other.Token, marchallObj(t, map[string]string{"name": "Hijacked"}))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = env.do(http.MethodGet, "/v1/classes/"+class.ID+"/students", other.Token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_rosterApi_admin(t *testing.T) {
	env := setupServer(t)

	admin := env.registerSchool(t, "Springfield High", "admin@test.cd")
	class := env.createClass(t, admin.Token, "Grade 10")
	env.createStudent(t, admin.Token, class.ID, "Hero Kid", 12)
	student := env.loginStudent(t, 12, "Hero Kid", "st!d3ntPwd#1")

	t.Run("any member sees their school admin", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/admin", student.Token)
		require.Equal(t, http.StatusOK, rec.Code)

		var got roster.Admin
		decodeBody(t, rec, &got)
		assert.Equal(t, "Springfield High", got.SchoolName)
	})

	t.Run("only the admin updates the school", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/admin", student.Token, marchallObj(t, map[string]string{"school_name": "Hijacked High"}))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(http.MethodPut, "/v1/admin", admin.Token, marchallObj(t, map[string]string{"school_name": "Springfield Senior High"}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got roster.Admin
		decodeBody(t, rec, &got)
		assert.Equal(t, "Springfield Senior High", got.SchoolName)
	})
}
