package dummydb

import (
	"sync"

	"github.com/tsedeniyafiseha/school-management-system/core/record"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	"github.com/tsedeniyafiseha/school-management-system/core/school"
)

type (
	DB struct {
		admin    *adminTable
		teacher  *teacherTable
		student  *studentTable
		class    *classTable
		subject  *subjectTable
		notice   *noticeTable
		complain *complainTable

		studentAttendance *studentAttendanceTable
		teacherAttendance *teacherAttendanceTable
		examResult        *examResultTable
	}

	adminTable struct {
		sync.RWMutex
		table map[string]*roster.Admin
	}
	teacherTable struct {
		sync.RWMutex
		table map[string]*roster.Teacher
	}
	studentTable struct {
		sync.RWMutex
		table map[string]*roster.Student
	}
	classTable struct {
		sync.RWMutex
		table map[string]*school.Class
	}
	subjectTable struct {
		sync.RWMutex
		table map[string]*school.Subject
	}
	noticeTable struct {
		sync.RWMutex
		table map[string]*school.Notice
	}
	complainTable struct {
		sync.RWMutex
		table map[string]*school.Complain
	}
	studentAttendanceTable struct {
		sync.RWMutex
		table map[string]*record.StudentAttendance
	}
	teacherAttendanceTable struct {
		sync.RWMutex
		table map[string]*record.TeacherAttendance
	}
	examResultTable struct {
		sync.RWMutex
		table map[string]*record.ExamResult
	}
)

func Open() (*DB, error) {
	db := &DB{
		admin:    &adminTable{table: make(map[string]*roster.Admin)},
		teacher:  &teacherTable{table: make(map[string]*roster.Teacher)},
		student:  &studentTable{table: make(map[string]*roster.Student)},
		class:    &classTable{table: make(map[string]*school.Class)},
		subject:  &subjectTable{table: make(map[string]*school.Subject)},
		notice:   &noticeTable{table: make(map[string]*school.Notice)},
		complain: &complainTable{table: make(map[string]*school.Complain)},

		studentAttendance: &studentAttendanceTable{table: make(map[string]*record.StudentAttendance)},
		teacherAttendance: &teacherAttendanceTable{table: make(map[string]*record.TeacherAttendance)},
		examResult:        &examResultTable{table: make(map[string]*record.ExamResult)},
	}
	return db, nil
}
