package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tsedeniyafiseha/school-management-system/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

type (
	classRow struct {
		ID        string    `db:"id"`
		SchoolID  string    `db:"school_id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`

		SchoolName null.String `db:"school_name"`
	}

	subjectRow struct {
		ID        string      `db:"id"`
		SchoolID  string      `db:"school_id"`
		ClassID   string      `db:"class_id"`
		Name      string      `db:"name"`
		Code      string      `db:"code"`
		Sessions  int         `db:"sessions"`
		TeacherID null.String `db:"teacher_id"`
		CreatedAt time.Time   `db:"created_at"`

		ClassName   null.String `db:"class_name"`
		TeacherName null.String `db:"teacher_name"`
	}

	complainRow struct {
		ID        string    `db:"id"`
		SchoolID  string    `db:"school_id"`
		UserID    string    `db:"user_id"`
		Date      string    `db:"date"`
		Complaint string    `db:"complaint"`
		CreatedAt time.Time `db:"created_at"`

		UserName null.String `db:"user_name"`
	}
)

func (r classRow) model() school.Class {
	return school.Class{
		ID:         r.ID,
		SchoolID:   r.SchoolID,
		Name:       r.Name,
		CreatedAt:  r.CreatedAt,
		SchoolName: r.SchoolName.String,
	}
}

func (r subjectRow) model() school.Subject {
	return school.Subject{
		ID:          r.ID,
		SchoolID:    r.SchoolID,
		ClassID:     r.ClassID,
		Name:        r.Name,
		Code:        r.Code,
		Sessions:    r.Sessions,
		TeacherID:   r.TeacherID.Ptr(),
		CreatedAt:   r.CreatedAt,
		ClassName:   r.ClassName.String,
		TeacherName: r.TeacherName.Ptr(),
	}
}

// trapNoRowsErr maps psql "no rows" err to school.ErrNotFound
func (repo schoolRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo schoolRepository) ClassNameExists(ctx context.Context, schoolID, name string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM class WHERE school_id = $1 AND name = $2)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, schoolID, name); err != nil {
		return false, errors.Wrap(err, "checking class name")
	}
	return exists, nil
}

func (repo schoolRepository) CreateClass(ctx context.Context, class school.Class) (school.Class, error) {
	const q = `INSERT INTO class (id, school_id, name, created_at) VALUES ($1, $2, $3, $4)`

	_, err := repo.db.ExecContext(ctx, q, class.ID, class.SchoolID, class.Name, class.CreatedAt)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	return class, nil
}

func (repo schoolRepository) QueryClasses(ctx context.Context, schoolID string) ([]school.Class, error) {
	const q = `SELECT id, school_id, name, created_at FROM class WHERE school_id = $1 ORDER BY name`

	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, q, schoolID); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]school.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.model())
	}
	return classes, nil
}

func (repo schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	const q = `
SELECT c.id, c.school_id, c.name, c.created_at, a.school_name
FROM class c
         JOIN admin a ON a.id = c.school_id
WHERE c.id = $1`

	var row classRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return school.Class{}, repo.trapNoRowsErr(err, "getting class")
	}
	return row.model(), nil
}

func (repo schoolRepository) SubjectCodeExists(ctx context.Context, schoolID string, codes []string) (bool, error) {
	if len(codes) == 0 {
		return false, nil
	}

	q, args, err := sqlx.In(`SELECT EXISTS(SELECT 1 FROM subject WHERE school_id = ? AND code IN (?))`, schoolID, codes)
	if err != nil {
		return false, errors.Wrap(err, "building subject code query")
	}
	q = repo.db.Rebind(q)

	var exists bool
	if err = repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return false, errors.Wrap(err, "checking subject codes")
	}
	return exists, nil
}

func (repo schoolRepository) CreateSubjects(ctx context.Context, subjects []school.Subject) ([]school.Subject, error) {
	const q = `
INSERT INTO subject (id, school_id, class_id, name, code, sessions, teacher_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "starting transaction")
	}
	for _, s := range subjects {
		if _, err = tx.ExecContext(ctx, q,
			s.ID, s.SchoolID, s.ClassID, s.Name, s.Code, s.Sessions,
			null.StringFromPtr(s.TeacherID), s.CreatedAt); err != nil {
			_ = tx.Rollback()
			return nil, errors.Wrap(err, "inserting subject")
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing subjects")
	}
	return subjects, nil
}

func (repo schoolRepository) QuerySubjectsByClass(ctx context.Context, classID string) ([]school.Subject, error) {
	const q = `
SELECT s.id, s.school_id, s.class_id, s.name, s.code, s.sessions, s.teacher_id, s.created_at,
       c.name AS class_name, t.name AS teacher_name
FROM subject s
         JOIN class c ON c.id = s.class_id
         LEFT JOIN teacher t ON t.id = s.teacher_id
WHERE s.class_id = $1
ORDER BY s.name`

	return repo.selectSubjects(ctx, q, classID)
}

func (repo schoolRepository) QuerySubjectsBySchool(ctx context.Context, schoolID string) ([]school.Subject, error) {
	const q = `
SELECT s.id, s.school_id, s.class_id, s.name, s.code, s.sessions, s.teacher_id, s.created_at,
       c.name AS class_name, t.name AS teacher_name
FROM subject s
         JOIN class c ON c.id = s.class_id
         LEFT JOIN teacher t ON t.id = s.teacher_id
WHERE s.school_id = $1
ORDER BY s.name`

	return repo.selectSubjects(ctx, q, schoolID)
}

func (repo schoolRepository) QueryFreeSubjects(ctx context.Context, classID string) ([]school.Subject, error) {
	const q = `
SELECT s.id, s.school_id, s.class_id, s.name, s.code, s.sessions, s.teacher_id, s.created_at,
       c.name AS class_name
FROM subject s
         JOIN class c ON c.id = s.class_id
WHERE s.class_id = $1
  AND s.teacher_id IS NULL
ORDER BY s.name`

	return repo.selectSubjects(ctx, q, classID)
}

func (repo schoolRepository) selectSubjects(ctx context.Context, q string, arg interface{}) ([]school.Subject, error) {
	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, q, arg); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]school.Subject, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, r.model())
	}
	return subjects, nil
}

func (repo schoolRepository) GetSubject(ctx context.Context, id string) (school.Subject, error) {
	const q = `
SELECT s.id, s.school_id, s.class_id, s.name, s.code, s.sessions, s.teacher_id, s.created_at,
       c.name AS class_name, t.name AS teacher_name
FROM subject s
         JOIN class c ON c.id = s.class_id
         LEFT JOIN teacher t ON t.id = s.teacher_id
WHERE s.id = $1`

	var row subjectRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return school.Subject{}, repo.trapNoRowsErr(err, "getting subject")
	}
	return row.model(), nil
}

func (repo schoolRepository) SetSubjectTeacher(ctx context.Context, subjectID, teacherID string) error {
	const q = `UPDATE subject SET teacher_id = $2 WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, q, subjectID, teacherID)
	if err != nil {
		return errors.Wrap(err, "patching subject teacher")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrNotFound
	}
	return nil
}

func (repo schoolRepository) SetTeacherSubject(ctx context.Context, teacherID, subjectID string) error {
	const q = `UPDATE teacher SET teach_subject_id = $2 WHERE id = $1`

	res, err := repo.db.ExecContext(ctx, q, teacherID, subjectID)
	if err != nil {
		return errors.Wrap(err, "patching teacher subject")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrNotFound
	}
	return nil
}

func (repo schoolRepository) CreateNotice(ctx context.Context, notice school.Notice) (school.Notice, error) {
	const q = `
INSERT INTO notice (id, school_id, title, details, date, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repo.db.ExecContext(ctx, q,
		notice.ID, notice.SchoolID, notice.Title, notice.Details, notice.Date, notice.CreatedAt)
	if err != nil {
		return school.Notice{}, errors.Wrap(err, "inserting notice")
	}
	return notice, nil
}

func (repo schoolRepository) QueryNotices(ctx context.Context, schoolID string) ([]school.Notice, error) {
	const q = `
SELECT id, school_id, title, details, date, created_at
FROM notice
WHERE school_id = $1
ORDER BY date DESC`

	var notices []school.Notice
	var rows []struct {
		ID        string    `db:"id"`
		SchoolID  string    `db:"school_id"`
		Title     string    `db:"title"`
		Details   string    `db:"details"`
		Date      string    `db:"date"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := repo.db.SelectContext(ctx, &rows, q, schoolID); err != nil {
		return nil, errors.Wrap(err, "querying notices")
	}
	for _, r := range rows {
		notices = append(notices, school.Notice(r))
	}
	return notices, nil
}

func (repo schoolRepository) CreateComplain(ctx context.Context, complain school.Complain) (school.Complain, error) {
	const q = `
INSERT INTO complain (id, school_id, user_id, date, complaint, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repo.db.ExecContext(ctx, q,
		complain.ID, complain.SchoolID, complain.UserID, complain.Date, complain.Complaint, complain.CreatedAt)
	if err != nil {
		return school.Complain{}, errors.Wrap(err, "inserting complain")
	}
	return complain, nil
}

func (repo schoolRepository) QueryComplains(ctx context.Context, schoolID string) ([]school.Complain, error) {
	const q = `
SELECT cp.id, cp.school_id, cp.user_id, cp.date, cp.complaint, cp.created_at,
       st.name AS user_name
FROM complain cp
         LEFT JOIN student st ON st.id = cp.user_id
WHERE cp.school_id = $1
ORDER BY cp.date DESC`

	var rows []complainRow
	if err := repo.db.SelectContext(ctx, &rows, q, schoolID); err != nil {
		return nil, errors.Wrap(err, "querying complains")
	}
	complains := make([]school.Complain, 0, len(rows))
	for _, r := range rows {
		complains = append(complains, school.Complain{
			ID:        r.ID,
			SchoolID:  r.SchoolID,
			UserID:    r.UserID,
			Date:      r.Date,
			Complaint: r.Complaint,
			CreatedAt: r.CreatedAt,
			UserName:  r.UserName.String,
		})
	}
	return complains, nil
}
