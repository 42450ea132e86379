package school

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core"
)

var (
	// errors
	ErrNotFound       = errors.New("not found")
	ErrClassExists    = errors.New("sorry this class name already exists")
	ErrCodeExists     = errors.New("sorry this subcode must be unique as it already exists")
	ErrDeleteDisabled = errors.New("sorry the delete function has been disabled for now")
)

type (
	Repository interface {
		ClassNameExists(ctx context.Context, schoolID, name string) (bool, error)
		CreateClass(ctx context.Context, class Class) (Class, error)
		QueryClasses(ctx context.Context, schoolID string) ([]Class, error)
		// GetClass resolves the school reference in the same query.
		GetClass(ctx context.Context, id string) (Class, error)

		SubjectCodeExists(ctx context.Context, schoolID string, codes []string) (bool, error)
		CreateSubjects(ctx context.Context, subjects []Subject) ([]Subject, error)
		QuerySubjectsByClass(ctx context.Context, classID string) ([]Subject, error)
		QuerySubjectsBySchool(ctx context.Context, schoolID string) ([]Subject, error)
		// QueryFreeSubjects lists subjects of a class with no assigned teacher.
		QueryFreeSubjects(ctx context.Context, classID string) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		// SetSubjectTeacher patches subjects.teacher_id.
		SetSubjectTeacher(ctx context.Context, subjectID, teacherID string) error
		// SetTeacherSubject patches teachers.teach_subject_id.
		SetTeacherSubject(ctx context.Context, teacherID, subjectID string) error

		CreateNotice(ctx context.Context, notice Notice) (Notice, error)
		QueryNotices(ctx context.Context, schoolID string) ([]Notice, error)

		CreateComplain(ctx context.Context, complain Complain) (Complain, error)
		QueryComplains(ctx context.Context, schoolID string) ([]Complain, error)
	}

	Service interface {
		CheckClassName(schoolID, name string) error
		CheckSubjectCodes(schoolID string, codes []string) error

		CreateClass(ctx context.Context, nc NewClass) (Class, error)
		Classes(ctx context.Context, schoolID string) ([]Class, error)
		ClassDetail(ctx context.Context, id string) (Class, error)

		CreateSubjects(ctx context.Context, ns NewSubjects) ([]Subject, error)
		ClassSubjects(ctx context.Context, classID string) ([]Subject, error)
		SchoolSubjects(ctx context.Context, schoolID string) ([]Subject, error)
		FreeClassSubjects(ctx context.Context, classID string) ([]Subject, error)
		SubjectDetail(ctx context.Context, id string) (Subject, error)
		// AssignTeacher links a teacher and a subject both ways; the two
		// patches are separate round trips, not transactional.
		AssignTeacher(ctx context.Context, teacherID, subjectID string) error

		CreateNotice(ctx context.Context, nn NewNotice) (Notice, error)
		Notices(ctx context.Context, schoolID string) ([]Notice, error)

		CreateComplain(ctx context.Context, nc NewComplain) (Complain, error)
		Complains(ctx context.Context, schoolID string) ([]Complain, error)

		// Delete is deliberately disabled; it always fails.
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckClassName(schoolID, name string) error {
	exists, err := svc.repo.ClassNameExists(context.Background(), schoolID, name)
	if err != nil {
		return pkgerrors.Wrap(err, "checking class name uniqueness")
	}
	if exists {
		return core.NewValidationError(ErrClassExists, core.FieldError{Field: "class_name", Error: ErrClassExists.Error()})
	}
	return nil
}

func (svc *service) CheckSubjectCodes(schoolID string, codes []string) error {
	exists, err := svc.repo.SubjectCodeExists(context.Background(), schoolID, codes)
	if err != nil {
		return pkgerrors.Wrap(err, "checking subject code uniqueness")
	}
	if exists {
		return core.NewValidationError(ErrCodeExists, core.FieldError{Field: "sub_code", Error: ErrCodeExists.Error()})
	}
	return nil
}

func (svc *service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	class := Class{
		ID:        uuid.New().String(),
		SchoolID:  nc.SchoolID,
		Name:      nc.Name,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateClass(ctx, class)
}

func (svc *service) Classes(ctx context.Context, schoolID string) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, schoolID)
}

func (svc *service) ClassDetail(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) CreateSubjects(ctx context.Context, ns NewSubjects) ([]Subject, error) {
	now := time.Now().UTC()
	subjects := make([]Subject, 0, len(ns.Subjects))
	for _, s := range ns.Subjects {
		subjects = append(subjects, Subject{
			ID:        uuid.New().String(),
			SchoolID:  ns.SchoolID,
			ClassID:   ns.ClassID,
			Name:      s.Name,
			Code:      s.Code,
			Sessions:  s.Sessions,
			CreatedAt: now,
		})
	}
	return svc.repo.CreateSubjects(ctx, subjects)
}

func (svc *service) ClassSubjects(ctx context.Context, classID string) ([]Subject, error) {
	return svc.repo.QuerySubjectsByClass(ctx, classID)
}

func (svc *service) SchoolSubjects(ctx context.Context, schoolID string) ([]Subject, error) {
	return svc.repo.QuerySubjectsBySchool(ctx, schoolID)
}

func (svc *service) FreeClassSubjects(ctx context.Context, classID string) ([]Subject, error) {
	return svc.repo.QueryFreeSubjects(ctx, classID)
}

func (svc *service) SubjectDetail(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) AssignTeacher(ctx context.Context, teacherID, subjectID string) error {
	if err := svc.repo.SetTeacherSubject(ctx, teacherID, subjectID); err != nil {
		return pkgerrors.Wrap(err, "patching teacher subject")
	}
	if err := svc.repo.SetSubjectTeacher(ctx, subjectID, teacherID); err != nil {
		return pkgerrors.Wrap(err, "patching subject teacher")
	}
	return nil
}

func (svc *service) CreateNotice(ctx context.Context, nn NewNotice) (Notice, error) {
	notice := Notice{
		ID:        uuid.New().String(),
		SchoolID:  nn.SchoolID,
		Title:     nn.Title,
		Details:   nn.Details,
		Date:      nn.Date,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateNotice(ctx, notice)
}

func (svc *service) Notices(ctx context.Context, schoolID string) ([]Notice, error) {
	return svc.repo.QueryNotices(ctx, schoolID)
}

func (svc *service) CreateComplain(ctx context.Context, nc NewComplain) (Complain, error) {
	complain := Complain{
		ID:        uuid.New().String(),
		SchoolID:  nc.SchoolID,
		UserID:    nc.UserID,
		Date:      nc.Date,
		Complaint: nc.Complaint,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateComplain(ctx, complain)
}

func (svc *service) Complains(ctx context.Context, schoolID string) ([]Complain, error) {
	return svc.repo.QueryComplains(ctx, schoolID)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return ErrDeleteDisabled
}
