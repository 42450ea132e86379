package dummydb

import (
	"context"
	"sort"

	"github.com/tsedeniyafiseha/school-management-system/core/record"
)

type recordRepository struct {
	db *DB
}

var _ record.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) *recordRepository {
	return &recordRepository{db: db}
}

func (repo *recordRepository) GetExamResult(ctx context.Context, studentID, subjectID string) (record.ExamResult, error) {
	repo.db.examResult.RLock()
	defer repo.db.examResult.RUnlock()

	for _, r := range repo.db.examResult.table {
		if r.StudentID == studentID && r.SubjectID == subjectID {
			return *r, nil
		}
	}
	return record.ExamResult{}, record.ErrNotFound
}

func (repo *recordRepository) CreateExamResult(ctx context.Context, res record.ExamResult) error {
	repo.db.examResult.Lock()
	defer repo.db.examResult.Unlock()

	repo.db.examResult.table[res.ID] = &res
	return nil
}

func (repo *recordRepository) SetExamResultMarks(ctx context.Context, id string, marks int) error {
	repo.db.examResult.Lock()
	defer repo.db.examResult.Unlock()

	r, ok := repo.db.examResult.table[id]
	if !ok {
		return record.ErrNotFound
	}
	r.Marks = marks
	return nil
}

func (repo *recordRepository) QueryExamResults(ctx context.Context, studentID string) ([]record.ExamResult, error) {
	repo.db.examResult.RLock()
	results := make([]record.ExamResult, 0)
	for _, r := range repo.db.examResult.table {
		if r.StudentID == studentID {
			results = append(results, *r)
		}
	}
	repo.db.examResult.RUnlock()

	repo.db.subject.RLock()
	for i := range results {
		if s, ok := repo.db.subject.table[results[i].SubjectID]; ok {
			results[i].SubjectName = s.Name
		}
	}
	repo.db.subject.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].SubjectName < results[j].SubjectName })
	return results, nil
}

func (repo *recordRepository) GetStudentAttendance(ctx context.Context, studentID, subjectID, date string) (record.StudentAttendance, error) {
	repo.db.studentAttendance.RLock()
	defer repo.db.studentAttendance.RUnlock()

	for _, a := range repo.db.studentAttendance.table {
		if a.StudentID == studentID && a.SubjectID == subjectID && a.Date == date {
			return *a, nil
		}
	}
	return record.StudentAttendance{}, record.ErrNotFound
}

// CreateStudentAttendance re-counts the (student, subject) rows under the
// table write lock, so concurrent submissions cannot overshoot the cap.
func (repo *recordRepository) CreateStudentAttendance(ctx context.Context, att record.StudentAttendance, cap int) error {
	repo.db.studentAttendance.Lock()
	defer repo.db.studentAttendance.Unlock()

	count := 0
	for _, a := range repo.db.studentAttendance.table {
		if a.StudentID == att.StudentID && a.SubjectID == att.SubjectID {
			count++
		}
	}
	if count >= cap {
		return record.ErrSessionLimit
	}
	repo.db.studentAttendance.table[att.ID] = &att
	return nil
}

func (repo *recordRepository) SetStudentAttendanceStatus(ctx context.Context, id, status string) error {
	repo.db.studentAttendance.Lock()
	defer repo.db.studentAttendance.Unlock()

	a, ok := repo.db.studentAttendance.table[id]
	if !ok {
		return record.ErrNotFound
	}
	a.Status = status
	return nil
}

func (repo *recordRepository) CountStudentAttendance(ctx context.Context, studentID, subjectID string) (int, error) {
	repo.db.studentAttendance.RLock()
	defer repo.db.studentAttendance.RUnlock()

	count := 0
	for _, a := range repo.db.studentAttendance.table {
		if a.StudentID == studentID && a.SubjectID == subjectID {
			count++
		}
	}
	return count, nil
}

func (repo *recordRepository) QueryStudentAttendance(ctx context.Context, studentID string) ([]record.StudentAttendance, error) {
	repo.db.studentAttendance.RLock()
	entries := make([]record.StudentAttendance, 0)
	for _, a := range repo.db.studentAttendance.table {
		if a.StudentID == studentID {
			entries = append(entries, *a)
		}
	}
	repo.db.studentAttendance.RUnlock()

	repo.db.subject.RLock()
	for i := range entries {
		if s, ok := repo.db.subject.table[entries[i].SubjectID]; ok {
			entries[i].SubjectName = s.Name
			entries[i].SubjectSessions = s.Sessions
		}
	}
	repo.db.subject.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

func (repo *recordRepository) GetTeacherAttendance(ctx context.Context, teacherID, date string) (record.TeacherAttendance, error) {
	repo.db.teacherAttendance.RLock()
	defer repo.db.teacherAttendance.RUnlock()

	for _, a := range repo.db.teacherAttendance.table {
		if a.TeacherID == teacherID && a.Date == date {
			return *a, nil
		}
	}
	return record.TeacherAttendance{}, record.ErrNotFound
}

func (repo *recordRepository) CreateTeacherAttendance(ctx context.Context, att record.TeacherAttendance) error {
	repo.db.teacherAttendance.Lock()
	defer repo.db.teacherAttendance.Unlock()

	repo.db.teacherAttendance.table[att.ID] = &att
	return nil
}

func (repo *recordRepository) SetTeacherAttendanceCounts(ctx context.Context, id string, present, absent int) error {
	repo.db.teacherAttendance.Lock()
	defer repo.db.teacherAttendance.Unlock()

	a, ok := repo.db.teacherAttendance.table[id]
	if !ok {
		return record.ErrNotFound
	}
	a.PresentCount = present
	a.AbsentCount = absent
	return nil
}

func (repo *recordRepository) QueryTeacherAttendance(ctx context.Context, teacherID string) ([]record.TeacherAttendance, error) {
	repo.db.teacherAttendance.RLock()
	defer repo.db.teacherAttendance.RUnlock()

	entries := make([]record.TeacherAttendance, 0)
	for _, a := range repo.db.teacherAttendance.table {
		if a.TeacherID == teacherID {
			entries = append(entries, *a)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

func (repo *recordRepository) SubjectSessions(ctx context.Context, subjectID string) (int, error) {
	repo.db.subject.RLock()
	defer repo.db.subject.RUnlock()

	if s, ok := repo.db.subject.table[subjectID]; ok {
		return s.Sessions, nil
	}
	return 0, record.ErrNotFound
}

func (repo *recordRepository) DeleteStudentAttendanceBySubject(ctx context.Context, subjectID string) error {
	return repo.deleteAttendance(func(a *record.StudentAttendance) bool { return a.SubjectID == subjectID })
}

func (repo *recordRepository) DeleteStudentAttendanceByStudent(ctx context.Context, studentID string) error {
	return repo.deleteAttendance(func(a *record.StudentAttendance) bool { return a.StudentID == studentID })
}

func (repo *recordRepository) DeleteStudentAttendanceByStudents(ctx context.Context, studentIDs []string) error {
	wanted := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = struct{}{}
	}
	return repo.deleteAttendance(func(a *record.StudentAttendance) bool {
		_, ok := wanted[a.StudentID]
		return ok
	})
}

func (repo *recordRepository) deleteAttendance(match func(*record.StudentAttendance) bool) error {
	repo.db.studentAttendance.Lock()
	defer repo.db.studentAttendance.Unlock()

	for id, a := range repo.db.studentAttendance.table {
		if match(a) {
			delete(repo.db.studentAttendance.table, id)
		}
	}
	return nil
}
