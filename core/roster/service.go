package roster

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
)

var (
	// errors
	ErrNotFound        = errors.New("not found")
	ErrDuplicateSchool = errors.New("school name already exists")

	schoolPrefixRegex = regexp.MustCompile("[^a-z0-9]")
)

type (
	Repository interface {
		CreateAdmin(ctx context.Context, admin Admin) (Admin, error)
		GetAdmin(ctx context.Context, id string) (Admin, error)
		UpdateAdmin(ctx context.Context, id string, patch UpdateProfile) (Admin, error)

		CreateTeacher(ctx context.Context, teacher Teacher) (Teacher, error)
		QueryTeachers(ctx context.Context, schoolID string) ([]Teacher, error)
		GetTeacher(ctx context.Context, id string) (Teacher, error)
		UpdateTeacher(ctx context.Context, id string, patch UpdateProfile) (Teacher, error)

		CreateStudent(ctx context.Context, student Student) (Student, error)
		QueryStudents(ctx context.Context, schoolID string) ([]Student, error)
		QueryClassStudents(ctx context.Context, classID string) ([]Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, id string, patch UpdateProfile) (Student, error)
		StudentIDsBySchool(ctx context.Context, schoolID string) ([]string, error)
	}

	// SchoolDirectory is the trusted lookup over tenant names.
	SchoolDirectory interface {
		SchoolExists(ctx context.Context, name string) (bool, error)
		SchoolName(ctx context.Context, adminID string) (string, error)
	}

	// CreateSchoolUser is the structured request forwarded to the privileged
	// creation function.
	CreateSchoolUser struct {
		Role     auth.Role `json:"role"`
		Name     string    `json:"name"`
		Email    string    `json:"email"`
		Password string    `json:"password"`
		RollNum  int       `json:"rollNum,omitempty"`
		ClassID  string    `json:"classId,omitempty"`
		SchoolID string    `json:"schoolId"`
		// teacher-specific
		SubjectID string `json:"teachSubjectId,omitempty"`
	}

	// CreatedUser is the privileged function's reply, relayed verbatim.
	CreatedUser struct {
		ID    string    `json:"id"`
		Role  auth.Role `json:"role"`
		Name  string    `json:"name"`
		Email string    `json:"email"`
	}

	// PrivilegedCreator forwards account creation to the trusted elevated
	// function, bearing the caller's session token.
	PrivilegedCreator interface {
		CreateSchoolUser(ctx context.Context, accessToken string, req CreateSchoolUser) (CreatedUser, error)
	}

	// SubjectAssigner patches a subject's teacher reference after creation.
	SubjectAssigner interface {
		SetSubjectTeacher(ctx context.Context, subjectID, teacherID string) error
	}

	Service interface {
		// RegisterAdmin creates the auth identity and the admin row directly;
		// the caller needs no prior session.
		RegisterAdmin(ctx context.Context, na NewAdmin) (Admin, auth.Session, error)
		// RegisterStudent synthesizes the login email and delegates creation
		// to the privileged function under the caller's session.
		RegisterStudent(ctx context.Context, accessToken string, ns NewStudent) (CreatedUser, error)
		// RegisterTeacher delegates creation, then patches the requested
		// subject's teacher reference as a follow-up (not transactional).
		RegisterTeacher(ctx context.Context, accessToken string, nt NewTeacher) (CreatedUser, error)

		Admin(ctx context.Context, id string) (Admin, error)
		Teachers(ctx context.Context, schoolID string) ([]Teacher, error)
		TeacherDetail(ctx context.Context, id string) (Teacher, error)
		Students(ctx context.Context, schoolID string) ([]Student, error)
		ClassStudents(ctx context.Context, classID string) ([]Student, error)
		StudentDetail(ctx context.Context, id string) (Student, error)

		UpdateAdmin(ctx context.Context, id string, patch UpdateProfile) (Admin, error)
		UpdateTeacher(ctx context.Context, id string, patch UpdateProfile) (Teacher, error)
		UpdateStudent(ctx context.Context, id string, patch UpdateProfile) (Student, error)

		StudentEmail(schoolName string, rollNum int) string
	}

	service struct {
		repo     Repository
		schools  SchoolDirectory
		provider auth.Provider
		creator  PrivilegedCreator
		subjects SubjectAssigner
		mailSvc  core.EmailService
		conf     *core.Config
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	schools SchoolDirectory,
	provider auth.Provider,
	creator PrivilegedCreator,
	subjects SubjectAssigner,
	mailSvc core.EmailService,
	conf *core.Config,
	logger core.Logger,
) Service {
	return &service{
		repo:     repo,
		schools:  schools,
		provider: provider,
		creator:  creator,
		subjects: subjects,
		mailSvc:  mailSvc,
		conf:     conf,
		logger:   logger,
	}
}

func (svc *service) RegisterAdmin(ctx context.Context, na NewAdmin) (Admin, auth.Session, error) {
	exists, err := svc.schools.SchoolExists(ctx, na.SchoolName)
	if err != nil {
		return Admin{}, auth.Session{}, pkgerrors.Wrap(err, "checking school name")
	}
	if exists {
		return Admin{}, auth.Session{}, core.NewValidationError(
			ErrDuplicateSchool, core.FieldError{Field: "school_name", Error: ErrDuplicateSchool.Error()})
	}

	sess, err := svc.provider.SignUp(ctx, na.Email, na.Password, map[string]interface{}{
		"role": string(auth.RoleAdmin),
		"name": na.Name,
	})
	if err != nil {
		return Admin{}, auth.Session{}, pkgerrors.Wrap(err, "signing up")
	}

	admin := Admin{
		ID:         uuid.New().String(),
		AuthID:     sess.Account.ID,
		Name:       na.Name,
		Email:      na.Email,
		SchoolName: na.SchoolName,
		CreatedAt:  time.Now().UTC(),
	}
	admin, err = svc.repo.CreateAdmin(ctx, admin)
	if err != nil {
		return Admin{}, auth.Session{}, pkgerrors.Wrap(err, "inserting admin")
	}
	return admin, sess, nil
}

func (svc *service) RegisterStudent(ctx context.Context, accessToken string, ns NewStudent) (CreatedUser, error) {
	schoolName, err := svc.schools.SchoolName(ctx, ns.SchoolID)
	if err != nil {
		return CreatedUser{}, pkgerrors.Wrap(err, "reading school name")
	}

	req := CreateSchoolUser{
		Role:     auth.RoleStudent,
		Name:     ns.Name,
		Email:    svc.StudentEmail(schoolName, ns.RollNum),
		Password: ns.Password,
		RollNum:  ns.RollNum,
		ClassID:  ns.ClassID,
		SchoolID: ns.SchoolID,
	}
	created, err := svc.creator.CreateSchoolUser(ctx, accessToken, req)
	if err != nil {
		return CreatedUser{}, err
	}
	return created, nil
}

func (svc *service) RegisterTeacher(ctx context.Context, accessToken string, nt NewTeacher) (CreatedUser, error) {
	req := CreateSchoolUser{
		Role:      auth.RoleTeacher,
		Name:      nt.Name,
		Email:     nt.Email,
		Password:  nt.Password,
		SchoolID:  nt.SchoolID,
		ClassID:   nt.ClassID,
		SubjectID: nt.SubjectID,
	}
	created, err := svc.creator.CreateSchoolUser(ctx, accessToken, req)
	if err != nil {
		return CreatedUser{}, err
	}

	// follow-up, not transactional with creation
	if nt.SubjectID != "" {
		if err := svc.subjects.SetSubjectTeacher(ctx, nt.SubjectID, created.ID); err != nil {
			svc.logger.Error("patching subject teacher after creation", err)
		}
	}

	svc.sendWelcomeMail(created)
	return created, nil
}

// StudentEmail derives the deterministic student login email from the roll
// number and a sanitized school-name prefix (lowercased, alphanumeric,
// at most 10 characters).
func (svc *service) StudentEmail(schoolName string, rollNum int) string {
	prefix := schoolPrefixRegex.ReplaceAllString(strings.ToLower(schoolName), "")
	if prefix == "" {
		prefix = "school"
	}
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("s%d.%s@%s", rollNum, prefix, svc.conf.StudentEmailDomain)
}

func (svc *service) Admin(ctx context.Context, id string) (Admin, error) {
	return svc.repo.GetAdmin(ctx, id)
}

func (svc *service) Teachers(ctx context.Context, schoolID string) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx, schoolID)
}

func (svc *service) TeacherDetail(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *service) Students(ctx context.Context, schoolID string) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, schoolID)
}

func (svc *service) ClassStudents(ctx context.Context, classID string) ([]Student, error) {
	return svc.repo.QueryClassStudents(ctx, classID)
}

func (svc *service) StudentDetail(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) UpdateAdmin(ctx context.Context, id string, patch UpdateProfile) (Admin, error) {
	return svc.repo.UpdateAdmin(ctx, id, patch)
}

func (svc *service) UpdateTeacher(ctx context.Context, id string, patch UpdateProfile) (Teacher, error) {
	return svc.repo.UpdateTeacher(ctx, id, patch)
}

func (svc *service) UpdateStudent(ctx context.Context, id string, patch UpdateProfile) (Student, error) {
	return svc.repo.UpdateStudent(ctx, id, patch)
}

func (svc *service) sendWelcomeMail(created CreatedUser) {
	if svc.mailSvc == nil || created.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: created.Name, Address: created.Email}},
		Subject: "Your account is ready",
		TextContent: fmt.Sprintf(
			"Hello %s,\n\nYour %s account on %s has been created. Log in with this email address and the password you were given.\n",
			created.Name, strings.ToLower(string(created.Role)), svc.conf.AppName),
	})
}
