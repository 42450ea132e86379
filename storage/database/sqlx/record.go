package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tsedeniyafiseha/school-management-system/core/record"
)

type recordRepository struct {
	db *sqlx.DB
}

var _ record.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *sqlx.DB) *recordRepository {
	return &recordRepository{db: db}
}

type (
	teacherAttendanceRow struct {
		ID           string    `db:"id"`
		TeacherID    string    `db:"teacher_id"`
		Date         string    `db:"date"`
		PresentCount int       `db:"present_count"`
		AbsentCount  int       `db:"absent_count"`
		CreatedAt    time.Time `db:"created_at"`
	}

	studentAttendanceRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		SubjectID string    `db:"subject_id"`
		Date      string    `db:"date"`
		Status    string    `db:"status"`
		CreatedAt time.Time `db:"created_at"`

		SubjectName     null.String `db:"subject_name"`
		SubjectSessions null.Int    `db:"subject_sessions"`
	}

	examResultRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		SubjectID string    `db:"subject_id"`
		Marks     int       `db:"marks"`
		CreatedAt time.Time `db:"created_at"`

		SubjectName null.String `db:"subject_name"`
	}
)

func (r studentAttendanceRow) model() record.StudentAttendance {
	return record.StudentAttendance{
		ID:              r.ID,
		StudentID:       r.StudentID,
		SubjectID:       r.SubjectID,
		Date:            r.Date,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
		SubjectName:     r.SubjectName.String,
		SubjectSessions: r.SubjectSessions.Int,
	}
}

func (r examResultRow) model() record.ExamResult {
	return record.ExamResult{
		ID:          r.ID,
		StudentID:   r.StudentID,
		SubjectID:   r.SubjectID,
		Marks:       r.Marks,
		CreatedAt:   r.CreatedAt,
		SubjectName: r.SubjectName.String,
	}
}

// trapNoRowsErr maps psql "no rows" err to record.ErrNotFound
func (repo recordRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return record.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo recordRepository) GetExamResult(ctx context.Context, studentID, subjectID string) (record.ExamResult, error) {
	const q = `
SELECT id, student_id, subject_id, marks, created_at
FROM exam_result
WHERE student_id = $1
  AND subject_id = $2`

	var row examResultRow
	if err := repo.db.GetContext(ctx, &row, q, studentID, subjectID); err != nil {
		return record.ExamResult{}, repo.trapNoRowsErr(err, "getting exam result")
	}
	return row.model(), nil
}

func (repo recordRepository) CreateExamResult(ctx context.Context, res record.ExamResult) error {
	const q = `
INSERT INTO exam_result (id, student_id, subject_id, marks, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := repo.db.ExecContext(ctx, q, res.ID, res.StudentID, res.SubjectID, res.Marks, res.CreatedAt)
	return errors.Wrap(err, "inserting exam result")
}

func (repo recordRepository) SetExamResultMarks(ctx context.Context, id string, marks int) error {
	const q = `UPDATE exam_result SET marks = $2 WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, q, id, marks)
	if err != nil {
		return errors.Wrap(err, "patching exam result")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return record.ErrNotFound
	}
	return nil
}

func (repo recordRepository) QueryExamResults(ctx context.Context, studentID string) ([]record.ExamResult, error) {
	const q = `
SELECT er.id, er.student_id, er.subject_id, er.marks, er.created_at,
       s.name AS subject_name
FROM exam_result er
         JOIN subject s ON s.id = er.subject_id
WHERE er.student_id = $1
ORDER BY s.name`

	var rows []examResultRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying exam results")
	}
	results := make([]record.ExamResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, r.model())
	}
	return results, nil
}

func (repo recordRepository) GetStudentAttendance(ctx context.Context, studentID, subjectID, date string) (record.StudentAttendance, error) {
	const q = `
SELECT id, student_id, subject_id, date, status, created_at
FROM student_attendance
WHERE student_id = $1
  AND subject_id = $2
  AND date = $3`

	var row studentAttendanceRow
	if err := repo.db.GetContext(ctx, &row, q, studentID, subjectID, date); err != nil {
		return record.StudentAttendance{}, repo.trapNoRowsErr(err, "getting attendance")
	}
	return row.model(), nil
}

// CreateStudentAttendance inserts the entry only while the (student, subject)
// pair holds fewer than cap rows; the count and the insert run as one
// statement so concurrent submissions cannot overshoot the cap.
func (repo recordRepository) CreateStudentAttendance(ctx context.Context, att record.StudentAttendance, cap int) error {
	const q = `
INSERT INTO student_attendance (id, student_id, subject_id, date, status, created_at)
SELECT $1, $2, $3, $4, $5, $6
WHERE (SELECT count(*)
       FROM student_attendance
       WHERE student_id = $2
         AND subject_id = $3) < $7`

	res, err := repo.db.ExecContext(ctx, q,
		att.ID, att.StudentID, att.SubjectID, att.Date, att.Status, att.CreatedAt, cap)
	if err != nil {
		return errors.Wrap(err, "inserting attendance")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return record.ErrSessionLimit
	}
	return nil
}

func (repo recordRepository) SetStudentAttendanceStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE student_attendance SET status = $2 WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return errors.Wrap(err, "patching attendance status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return record.ErrNotFound
	}
	return nil
}

func (repo recordRepository) CountStudentAttendance(ctx context.Context, studentID, subjectID string) (int, error) {
	const q = `
SELECT count(*)
FROM student_attendance
WHERE student_id = $1
  AND subject_id = $2`

	var count int
	if err := repo.db.GetContext(ctx, &count, q, studentID, subjectID); err != nil {
		return 0, errors.Wrap(err, "counting attendance")
	}
	return count, nil
}

func (repo recordRepository) QueryStudentAttendance(ctx context.Context, studentID string) ([]record.StudentAttendance, error) {
	const q = `
SELECT sa.id, sa.student_id, sa.subject_id, sa.date, sa.status, sa.created_at,
       s.name AS subject_name, s.sessions AS subject_sessions
FROM student_attendance sa
         JOIN subject s ON s.id = sa.subject_id
WHERE sa.student_id = $1
ORDER BY sa.date`

	var rows []studentAttendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	entries := make([]record.StudentAttendance, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.model())
	}
	return entries, nil
}

func (repo recordRepository) GetTeacherAttendance(ctx context.Context, teacherID, date string) (record.TeacherAttendance, error) {
	const q = `
SELECT id, teacher_id, date, present_count, absent_count, created_at
FROM teacher_attendance
WHERE teacher_id = $1
  AND date = $2`

	var row teacherAttendanceRow
	if err := repo.db.GetContext(ctx, &row, q, teacherID, date); err != nil {
		return record.TeacherAttendance{}, repo.trapNoRowsErr(err, "getting teacher attendance")
	}
	return record.TeacherAttendance(row), nil
}

func (repo recordRepository) CreateTeacherAttendance(ctx context.Context, att record.TeacherAttendance) error {
	const q = `
INSERT INTO teacher_attendance (id, teacher_id, date, present_count, absent_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repo.db.ExecContext(ctx, q,
		att.ID, att.TeacherID, att.Date, att.PresentCount, att.AbsentCount, att.CreatedAt)
	return errors.Wrap(err, "inserting teacher attendance")
}

func (repo recordRepository) SetTeacherAttendanceCounts(ctx context.Context, id string, present, absent int) error {
	const q = `UPDATE teacher_attendance SET present_count = $2, absent_count = $3 WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, q, id, present, absent)
	if err != nil {
		return errors.Wrap(err, "patching teacher attendance")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return record.ErrNotFound
	}
	return nil
}

func (repo recordRepository) QueryTeacherAttendance(ctx context.Context, teacherID string) ([]record.TeacherAttendance, error) {
	const q = `
SELECT id, teacher_id, date, present_count, absent_count, created_at
FROM teacher_attendance
WHERE teacher_id = $1
ORDER BY date`

	var rows []teacherAttendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying teacher attendance")
	}
	entries := make([]record.TeacherAttendance, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, record.TeacherAttendance(r))
	}
	return entries, nil
}

func (repo recordRepository) SubjectSessions(ctx context.Context, subjectID string) (int, error) {
	const q = `SELECT sessions FROM subject WHERE id = $1`

	var sessions int
	if err := repo.db.GetContext(ctx, &sessions, q, subjectID); err != nil {
		return 0, repo.trapNoRowsErr(err, "reading subject sessions")
	}
	return sessions, nil
}

func (repo recordRepository) DeleteStudentAttendanceBySubject(ctx context.Context, subjectID string) error {
	const q = `DELETE FROM student_attendance WHERE subject_id = $1`

	_, err := repo.db.ExecContext(ctx, q, subjectID)
	return errors.Wrap(err, "deleting attendance by subject")
}

func (repo recordRepository) DeleteStudentAttendanceByStudent(ctx context.Context, studentID string) error {
	const q = `DELETE FROM student_attendance WHERE student_id = $1`

	_, err := repo.db.ExecContext(ctx, q, studentID)
	return errors.Wrap(err, "deleting attendance by student")
}

func (repo recordRepository) DeleteStudentAttendanceByStudents(ctx context.Context, studentIDs []string) error {
	if len(studentIDs) == 0 {
		return nil
	}

	q, args, err := sqlx.In(`DELETE FROM student_attendance WHERE student_id IN (?)`, studentIDs)
	if err != nil {
		return errors.Wrap(err, "building attendance delete")
	}
	q = repo.db.Rebind(q)

	_, err = repo.db.ExecContext(ctx, q, args...)
	return errors.Wrap(err, "deleting attendance by students")
}
