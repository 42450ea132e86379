package record

import (
	"time"

	"github.com/tsedeniyafiseha/school-management-system/core"
)

// Attendance statuses
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

type (
	// StudentAttendance is one attendance entry, unique per
	// (student, subject, date).
	StudentAttendance struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		SubjectID string    `json:"subject_id"`
		Date      string    `json:"date"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"` // UTC

		// joined fields
		SubjectName     string `json:"sub_name,omitempty"`
		SubjectSessions int    `json:"sessions,omitempty"`
	}

	// TeacherAttendance is one head-count entry, unique per (teacher, date).
	TeacherAttendance struct {
		ID           string    `json:"id"`
		TeacherID    string    `json:"teacher_id"`
		Date         string    `json:"date"`
		PresentCount int       `json:"present_count"`
		AbsentCount  int       `json:"absent_count"`
		CreatedAt    time.Time `json:"created_at"` // UTC
	}

	// ExamResult holds a marks value, unique per (student, subject).
	ExamResult struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		SubjectID string    `json:"subject_id"`
		Marks     int       `json:"marks_obtained"`
		CreatedAt time.Time `json:"created_at"` // UTC

		// joined field
		SubjectName string `json:"sub_name,omitempty"`
	}
)

type StudentAttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=Present Absent"`
}

func (e *StudentAttendanceEntry) Validate() error {
	e.Status = core.CleanString(e.Status)
	return core.Validate.Struct(e)
}

type TeacherAttendanceEntry struct {
	TeacherID    string `json:"teacher_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	PresentCount int    `json:"present_count" validate:"min=0"`
	AbsentCount  int    `json:"absent_count" validate:"min=0"`
}

func (e *TeacherAttendanceEntry) Validate() error { return core.Validate.Struct(e) }

type ExamResultEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Marks     int    `json:"marks_obtained" validate:"min=0"`
}

func (e *ExamResultEntry) Validate() error { return core.Validate.Struct(e) }

// RemovalScope selects which attendance rows a bulk removal targets.
type RemovalScope string

const (
	// RemoveBySubject deletes all student attendance for one subject.
	RemoveBySubject RemovalScope = "subject"
	// RemoveByTenant deletes student attendance for every student of a school.
	RemoveByTenant RemovalScope = "school"
	// RemoveByStudent deletes all attendance of one student.
	RemoveByStudent RemovalScope = "student"
	// RemoveByStudentSubject is accepted but deliberately does nothing;
	// the intended behavior was never specified upstream.
	RemoveByStudentSubject RemovalScope = "student_subject"
)
