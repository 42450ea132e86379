package record

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound     = errors.New("record not found")
	ErrSessionLimit = errors.New("maximum attendance limit reached")
	ErrUnknownScope = errors.New("unknown removal scope")
)

type (
	Repository interface {
		GetExamResult(ctx context.Context, studentID, subjectID string) (ExamResult, error)
		CreateExamResult(ctx context.Context, res ExamResult) error
		SetExamResultMarks(ctx context.Context, id string, marks int) error
		QueryExamResults(ctx context.Context, studentID string) ([]ExamResult, error)

		GetStudentAttendance(ctx context.Context, studentID, subjectID, date string) (StudentAttendance, error)
		// CreateStudentAttendance inserts a new entry, enforcing the subject's
		// session cap server-side where the store allows it; returns
		// ErrSessionLimit when the (student, subject) pair is already at cap.
		CreateStudentAttendance(ctx context.Context, att StudentAttendance, cap int) error
		SetStudentAttendanceStatus(ctx context.Context, id, status string) error
		CountStudentAttendance(ctx context.Context, studentID, subjectID string) (int, error)
		QueryStudentAttendance(ctx context.Context, studentID string) ([]StudentAttendance, error)

		GetTeacherAttendance(ctx context.Context, teacherID, date string) (TeacherAttendance, error)
		CreateTeacherAttendance(ctx context.Context, att TeacherAttendance) error
		SetTeacherAttendanceCounts(ctx context.Context, id string, present, absent int) error
		QueryTeacherAttendance(ctx context.Context, teacherID string) ([]TeacherAttendance, error)

		SubjectSessions(ctx context.Context, subjectID string) (int, error)

		DeleteStudentAttendanceBySubject(ctx context.Context, subjectID string) error
		DeleteStudentAttendanceByStudent(ctx context.Context, studentID string) error
		DeleteStudentAttendanceByStudents(ctx context.Context, studentIDs []string) error
	}

	// StudentDirectory resolves all student IDs under a tenant; attendance rows
	// carry no tenant ID, so tenant-wide removal fans out through it.
	StudentDirectory interface {
		StudentIDsBySchool(ctx context.Context, schoolID string) ([]string, error)
	}

	Service interface {
		// SaveExamResult upserts the marks for (student, subject);
		// idempotent under retry.
		SaveExamResult(ctx context.Context, e ExamResultEntry) error
		// SaveStudentAttendance patches the status of an existing
		// (student, subject, date) entry, or inserts a new one subject to the
		// subject's session cap.
		SaveStudentAttendance(ctx context.Context, e StudentAttendanceEntry) error
		SaveTeacherAttendance(ctx context.Context, e TeacherAttendanceEntry) error

		StudentAttendance(ctx context.Context, studentID string) ([]StudentAttendance, error)
		TeacherAttendance(ctx context.Context, teacherID string) ([]TeacherAttendance, error)
		ExamResults(ctx context.Context, studentID string) ([]ExamResult, error)

		// RemoveAttendance deletes all student attendance rows matching the
		// scope; id is a subject, school or student ID accordingly.
		RemoveAttendance(ctx context.Context, scope RemovalScope, id string) error
	}

	service struct {
		repo     Repository
		students StudentDirectory
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students StudentDirectory) Service {
	return &service{repo: repo, students: students}
}

func (svc *service) SaveExamResult(ctx context.Context, e ExamResultEntry) error {
	existing, err := svc.repo.GetExamResult(ctx, e.StudentID, e.SubjectID)
	if err == nil {
		return pkgerrors.Wrap(svc.repo.SetExamResultMarks(ctx, existing.ID, e.Marks), "patching exam result")
	}
	if pkgerrors.Cause(err) != ErrNotFound {
		return pkgerrors.Wrap(err, "looking up exam result")
	}

	res := ExamResult{
		ID:        uuid.New().String(),
		StudentID: e.StudentID,
		SubjectID: e.SubjectID,
		Marks:     e.Marks,
		CreatedAt: time.Now().UTC(),
	}
	return pkgerrors.Wrap(svc.repo.CreateExamResult(ctx, res), "inserting exam result")
}

func (svc *service) SaveStudentAttendance(ctx context.Context, e StudentAttendanceEntry) error {
	// re-submitting the same date updates status and never counts against the cap
	existing, err := svc.repo.GetStudentAttendance(ctx, e.StudentID, e.SubjectID, e.Date)
	if err == nil {
		return pkgerrors.Wrap(svc.repo.SetStudentAttendanceStatus(ctx, existing.ID, e.Status), "patching attendance status")
	}
	if pkgerrors.Cause(err) != ErrNotFound {
		return pkgerrors.Wrap(err, "looking up attendance")
	}

	sessions, err := svc.repo.SubjectSessions(ctx, e.SubjectID)
	if err != nil {
		return pkgerrors.Wrap(err, "reading subject sessions")
	}
	count, err := svc.repo.CountStudentAttendance(ctx, e.StudentID, e.SubjectID)
	if err != nil {
		return pkgerrors.Wrap(err, "counting attendance")
	}
	if count >= sessions {
		return ErrSessionLimit
	}

	att := StudentAttendance{
		ID:        uuid.New().String(),
		StudentID: e.StudentID,
		SubjectID: e.SubjectID,
		Date:      e.Date,
		Status:    e.Status,
		CreatedAt: time.Now().UTC(),
	}
	// the repository re-checks the cap on insert; the count above is only a
	// fast path and cannot close the check-then-act window on its own
	return pkgerrors.Wrap(svc.repo.CreateStudentAttendance(ctx, att, sessions), "inserting attendance")
}

func (svc *service) SaveTeacherAttendance(ctx context.Context, e TeacherAttendanceEntry) error {
	existing, err := svc.repo.GetTeacherAttendance(ctx, e.TeacherID, e.Date)
	if err == nil {
		return pkgerrors.Wrap(
			svc.repo.SetTeacherAttendanceCounts(ctx, existing.ID, e.PresentCount, e.AbsentCount),
			"patching teacher attendance")
	}
	if pkgerrors.Cause(err) != ErrNotFound {
		return pkgerrors.Wrap(err, "looking up teacher attendance")
	}

	att := TeacherAttendance{
		ID:           uuid.New().String(),
		TeacherID:    e.TeacherID,
		Date:         e.Date,
		PresentCount: e.PresentCount,
		AbsentCount:  e.AbsentCount,
		CreatedAt:    time.Now().UTC(),
	}
	return pkgerrors.Wrap(svc.repo.CreateTeacherAttendance(ctx, att), "inserting teacher attendance")
}

func (svc *service) StudentAttendance(ctx context.Context, studentID string) ([]StudentAttendance, error) {
	return svc.repo.QueryStudentAttendance(ctx, studentID)
}

func (svc *service) TeacherAttendance(ctx context.Context, teacherID string) ([]TeacherAttendance, error) {
	return svc.repo.QueryTeacherAttendance(ctx, teacherID)
}

func (svc *service) ExamResults(ctx context.Context, studentID string) ([]ExamResult, error) {
	return svc.repo.QueryExamResults(ctx, studentID)
}

func (svc *service) RemoveAttendance(ctx context.Context, scope RemovalScope, id string) error {
	switch scope {
	case RemoveBySubject:
		return pkgerrors.Wrap(svc.repo.DeleteStudentAttendanceBySubject(ctx, id), "deleting attendance by subject")
	case RemoveByStudent:
		return pkgerrors.Wrap(svc.repo.DeleteStudentAttendanceByStudent(ctx, id), "deleting attendance by student")
	case RemoveByTenant:
		// attendance rows carry no school_id; fan out through the roster first
		ids, err := svc.students.StudentIDsBySchool(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(err, "resolving tenant students")
		}
		if len(ids) == 0 {
			return nil
		}
		return pkgerrors.Wrap(svc.repo.DeleteStudentAttendanceByStudents(ctx, ids), "deleting attendance by tenant")
	case RemoveByStudentSubject:
		// intentionally a no-op, matching upstream behavior
		return nil
	}
	return ErrUnknownScope
}
