package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/record"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	"github.com/tsedeniyafiseha/school-management-system/core/school"
	authsvc "github.com/tsedeniyafiseha/school-management-system/services/auth"
	emailsvc "github.com/tsedeniyafiseha/school-management-system/services/email"
	logsvc "github.com/tsedeniyafiseha/school-management-system/services/logger"
	trustedsvc "github.com/tsedeniyafiseha/school-management-system/services/trusted"
	dummydb "github.com/tsedeniyafiseha/school-management-system/storage/database/dummy"
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testEnv struct {
	server   Server
	provider auth.Provider
	mailSvc  *emailsvc.DummyService
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:           true,
		AppName:            "Shule",
		SecretKey:          []byte("test-secret"),
		StudentEmailDomain: "school.local",
		Auth:               core.AuthConfig{JWTExpirationDelta: time.Hour},
	}
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))

	db, err := dummydb.Open()
	require.NoError(t, err)

	profileRepo := dummydb.NewProfileRepository(db)
	rosterRepo := dummydb.NewRosterRepository(db)
	schoolRepo := dummydb.NewSchoolRepository(db)
	recordRepo := dummydb.NewRecordRepository(db)

	provider := authsvc.NewLocalProvider(conf)
	creator := trustedsvc.NewLocalCreator(provider, rosterRepo, logger)
	mailSvc := emailsvc.NewDummyService()

	resolver := auth.NewResolver(profileRepo, nil)
	gate := auth.NewGate(provider, resolver, profileRepo, logger)
	rosterSvc := roster.NewService(rosterRepo, rosterRepo, provider, creator, schoolRepo, mailSvc, conf, logger)
	schoolSvc := school.NewService(schoolRepo)
	recordSvc := record.NewService(recordRepo, rosterRepo)

	server := NewServer(ServerDeps{
		Conf:      conf,
		Logger:    logger,
		Gate:      gate,
		RosterSvc: rosterSvc,
		SchoolSvc: schoolSvc,
		RecordSvc: recordSvc,
	})
	return &testEnv{server: server, provider: provider, mailSvc: mailSvc}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env *testEnv) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	env.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decodeBody() failed: %v; body = %s", err, rec.Body.String())
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// registerSchool registers a school and returns the admin's token and row.
func (env *testEnv) registerSchool(t *testing.T, schoolName, email string) RegisterResponse {
	t.Helper()
	rec := env.do(http.MethodPost, "/v1/auth/register", "", marchallObj(t, roster.NewAdmin{
		Name:       "Head Admin",
		Email:      email,
		Password:   "xk4!mQ2#vt9z",
		SchoolName: schoolName,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reply RegisterResponse
	decodeBody(t, rec, &reply)
	return reply
}

func (env *testEnv) createClass(t *testing.T, token, name string) school.Class {
	t.Helper()
	rec := env.do(http.MethodPost, "/v1/classes", token, marchallObj(t, map[string]string{"class_name": name}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var class school.Class
	decodeBody(t, rec, &class)
	return class
}

func (env *testEnv) createSubjects(t *testing.T, token, classID string, subjects ...school.NewSubject) []school.Subject {
	t.Helper()
	rec := env.do(http.MethodPost, "/v1/subjects", token, marchallObj(t, map[string]interface{}{
		"class_id": classID,
		"subjects": subjects,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created []school.Subject
	decodeBody(t, rec, &created)
	return created
}

func (env *testEnv) createTeacher(t *testing.T, token, classID, name, email string) roster.CreatedUser {
	t.Helper()
	rec := env.do(http.MethodPost, "/v1/teachers", token, marchallObj(t, map[string]interface{}{
		"name":           name,
		"email":          email,
		"password":       "t3ach!ngPwd#",
		"teach_class_id": classID,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created roster.CreatedUser
	decodeBody(t, rec, &created)
	return created
}

func (env *testEnv) createStudent(t *testing.T, token, classID, name string, rollNum int) roster.CreatedUser {
	t.Helper()
	rec := env.do(http.MethodPost, "/v1/students", token, marchallObj(t, map[string]interface{}{
		"name":     name,
		"password": "st!d3ntPwd#1",
		"roll_num": rollNum,
		"class_id": classID,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created roster.CreatedUser
	decodeBody(t, rec, &created)
	return created
}

func (env *testEnv) login(t *testing.T, path string, creds interface{}) LoginResponse {
	t.Helper()
	rec := env.do(http.MethodPost, path, "", marchallObj(t, creds))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply LoginResponse
	decodeBody(t, rec, &reply)
	return reply
}

func (env *testEnv) loginTeacher(t *testing.T, email, password string) LoginResponse {
	t.Helper()
	return env.login(t, "/v1/auth/teacher/login", map[string]string{"email": email, "password": password})
}

func (env *testEnv) loginStudent(t *testing.T, rollNum int, name, password string) LoginResponse {
	t.Helper()
	return env.login(t, "/v1/auth/student/login", map[string]interface{}{
		"roll_num":     rollNum,
		"student_name": name,
		"password":     password,
	})
}
