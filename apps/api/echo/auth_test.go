package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
)

func Test_home(t *testing.T) {
	env := setupServer(t)

	rec := env.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Shule API!", rec.Body.String())
}

func Test_authApi_register(t *testing.T) {
	env := setupServer(t)

	reply := env.registerSchool(t, "Springfield High", "admin@test.cd")
	assert.NotEmpty(t, reply.Token)
	assert.Equal(t, "Springfield High", reply.Admin.SchoolName)

	newAdmin := func(email, pwd, schoolName string) []byte {
		return marchallObj(t, roster.NewAdmin{
			Name:       "Head Admin",
			Email:      email,
			Password:   pwd,
			SchoolName: schoolName,
		})
	}

	tests := []struct {
		name      string
		body      []byte
		wantField string
	}{
		{"duplicate school name", newAdmin("other@test.cd", "xk4!mQ2#vt9z", "Springfield High"), "school_name"},
		{"duplicate email", newAdmin("admin@test.cd", "xk4!mQ2#vt9z", "Shelbyville High"), "email"},
		{"weak password", newAdmin("other@test.cd", "1234", "Shelbyville High"), "password"},
		{"bad email", newAdmin("nope", "xk4!mQ2#vt9z", "Shelbyville High"), "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/v1/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var fields map[string]string
			decodeBody(t, rec, &fields)
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func Test_authApi_login(t *testing.T) {
	env := setupServer(t)

	admin := env.registerSchool(t, "Springfield High", "admin@test.cd")
	class := env.createClass(t, admin.Token, "Grade 10")
	env.createStudent(t, admin.Token, class.ID, "Hero Kid", 12)

	t.Run("admin ok", func(t *testing.T) {
		reply := env.login(t, "/v1/auth/admin/login", map[string]string{
			"email":    "admin@test.cd",
			"password": "xk4!mQ2#vt9z",
		})
		assert.NotEmpty(t, reply.Token)
		assert.Equal(t, auth.RoleAdmin, reply.Role)
		require.NotNil(t, reply.Profile.Admin)
		assert.Equal(t, "Springfield High", reply.Profile.Admin.SchoolName)
	})

	t.Run("student ok", func(t *testing.T) {
		reply := env.loginStudent(t, 12, "Hero Kid", "st!d3ntPwd#1")
		assert.Equal(t, auth.RoleStudent, reply.Role)
		require.NotNil(t, reply.Profile.Student)
		assert.Equal(t, 12, reply.Profile.Student.RollNum)
	})

	tests := []httpTest{
		{
			name:     "wrong password",
			path:     "/v1/auth/admin/login",
			body:     marchallObj(t, map[string]string{"email": "admin@test.cd", "password": "wrong-pass1!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid email or password"}),
		},
		{
			name:     "role mismatch",
			path:     "/v1/auth/teacher/login",
			body:     marchallObj(t, map[string]string{"email": "admin@test.cd", "password": "xk4!mQ2#vt9z"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "this account is registered as Admin, not Teacher"}),
		},
		{
			name:     "student not found",
			path:     "/v1/auth/student/login",
			body:     marchallObj(t, map[string]interface{}{"roll_num": 99, "student_name": "Hero Kid", "password": "st!d3ntPwd#1"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "student not found, check your roll number and name"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, tt.path, "", tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("missing credentials", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/admin/login", "", marchallObj(t, map[string]string{}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_authApi_session(t *testing.T) {
	env := setupServer(t)
	admin := env.registerSchool(t, "Springfield High", "admin@test.cd")

	t.Run("no token", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/auth/session", "")
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "not authenticated"}),
		}, rec)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/auth/session", "not-a-token")
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "session expired"}),
		}, rec)
	})

	t.Run("live token", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/auth/session", admin.Token)
		assert.Equal(t, http.StatusOK, rec.Code)

		var profile auth.Profile
		decodeBody(t, rec, &profile)
		assert.Equal(t, auth.RoleAdmin, profile.Role)
	})
}

func Test_authApi_logout(t *testing.T) {
	env := setupServer(t)
	admin := env.registerSchool(t, "Springfield High", "admin@test.cd")

	t.Run("without token", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/logout", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("invalidates the session", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/logout", admin.Token)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.do(http.MethodGet, "/v1/auth/session", admin.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("idempotent", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/logout", admin.Token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func Test_authApi_updatePassword(t *testing.T) {
	env := setupServer(t)
	admin := env.registerSchool(t, "Springfield High", "admin@test.cd")

	t.Run("too short", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/auth/password", admin.Token, marchallObj(t, map[string]string{"password": "short"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/auth/password", admin.Token, marchallObj(t, map[string]string{"password": "n3w!Passw0rd"}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var reply SuccessResponse
		decodeBody(t, rec, &reply)
		assert.Equal(t, "Password has been updated.", reply.Success)

		// old password rejected, new one accepted
		rec = env.do(http.MethodPost, "/v1/auth/admin/login", "", marchallObj(t, map[string]string{
			"email": "admin@test.cd", "password": "xk4!mQ2#vt9z",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		env.login(t, "/v1/auth/admin/login", map[string]string{
			"email": "admin@test.cd", "password": "n3w!Passw0rd",
		})
	})
}
