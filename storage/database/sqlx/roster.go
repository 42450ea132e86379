package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tsedeniyafiseha/school-management-system/core/roster"
)

type rosterRepository struct {
	db *sqlx.DB
}

var (
	_ roster.Repository      = (*rosterRepository)(nil) // interface compliance check
	_ roster.SchoolDirectory = (*rosterRepository)(nil)
)

func NewRosterRepository(db *sqlx.DB) *rosterRepository {
	return &rosterRepository{db: db}
}

type (
	adminRow struct {
		ID         string    `db:"id"`
		AuthID     string    `db:"auth_id"`
		Name       string    `db:"name"`
		Email      string    `db:"email"`
		SchoolName string    `db:"school_name"`
		CreatedAt  time.Time `db:"created_at"`
	}

	teacherRow struct {
		ID        string      `db:"id"`
		AuthID    string      `db:"auth_id"`
		SchoolID  string      `db:"school_id"`
		ClassID   string      `db:"teach_class_id"`
		SubjectID null.String `db:"teach_subject_id"`
		Name      string      `db:"name"`
		Email     string      `db:"email"`
		CreatedAt time.Time   `db:"created_at"`

		ClassName   null.String `db:"class_name"`
		SubjectName null.String `db:"subject_name"`
		SchoolName  null.String `db:"school_name"`
	}

	studentRow struct {
		ID        string    `db:"id"`
		AuthID    string    `db:"auth_id"`
		SchoolID  string    `db:"school_id"`
		ClassID   string    `db:"class_id"`
		Name      string    `db:"name"`
		RollNum   int       `db:"roll_num"`
		Email     string    `db:"email"`
		CreatedAt time.Time `db:"created_at"`

		ClassName  null.String `db:"class_name"`
		SchoolName null.String `db:"school_name"`
	}
)

func (r teacherRow) model() roster.Teacher {
	return roster.Teacher{
		ID:          r.ID,
		AuthID:      r.AuthID,
		SchoolID:    r.SchoolID,
		ClassID:     r.ClassID,
		SubjectID:   r.SubjectID.Ptr(),
		Name:        r.Name,
		Email:       r.Email,
		CreatedAt:   r.CreatedAt,
		ClassName:   r.ClassName.String,
		SubjectName: r.SubjectName.String,
		SchoolName:  r.SchoolName.String,
	}
}

func (r studentRow) model() roster.Student {
	return roster.Student{
		ID:         r.ID,
		AuthID:     r.AuthID,
		SchoolID:   r.SchoolID,
		ClassID:    r.ClassID,
		Name:       r.Name,
		RollNum:    r.RollNum,
		Email:      r.Email,
		CreatedAt:  r.CreatedAt,
		ClassName:  r.ClassName.String,
		SchoolName: r.SchoolName.String,
	}
}

// trapNoRowsErr maps psql "no rows" err to roster.ErrNotFound
func (repo rosterRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return roster.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo rosterRepository) CreateAdmin(ctx context.Context, admin roster.Admin) (roster.Admin, error) {
	const q = `
INSERT INTO admin (id, auth_id, name, email, school_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repo.db.ExecContext(ctx, q,
		admin.ID, admin.AuthID, admin.Name, admin.Email, admin.SchoolName, admin.CreatedAt)
	if err != nil {
		return roster.Admin{}, errors.Wrap(err, "inserting admin")
	}
	return admin, nil
}

func (repo rosterRepository) GetAdmin(ctx context.Context, id string) (roster.Admin, error) {
	const q = `SELECT id, auth_id, name, email, school_name, created_at FROM admin WHERE id = $1`

	var row adminRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return roster.Admin{}, repo.trapNoRowsErr(err, "getting admin")
	}
	return roster.Admin(row), nil
}

func (repo rosterRepository) UpdateAdmin(ctx context.Context, id string, patch roster.UpdateProfile) (roster.Admin, error) {
	const q = `
UPDATE admin
SET name        = COALESCE(NULLIF($2, ''), name),
    email       = COALESCE(NULLIF($3, ''), email),
    school_name = COALESCE(NULLIF($4, ''), school_name)
WHERE id = $1
RETURNING id, auth_id, name, email, school_name, created_at`

	var row adminRow
	if err := repo.db.GetContext(ctx, &row, q, id, patch.Name, patch.Email, patch.SchoolName); err != nil {
		return roster.Admin{}, repo.trapNoRowsErr(err, "updating admin")
	}
	return roster.Admin(row), nil
}

func (repo rosterRepository) CreateTeacher(ctx context.Context, teacher roster.Teacher) (roster.Teacher, error) {
	const q = `
INSERT INTO teacher (id, auth_id, school_id, teach_class_id, teach_subject_id, name, email, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := repo.db.ExecContext(ctx, q,
		teacher.ID, teacher.AuthID, teacher.SchoolID, teacher.ClassID,
		null.StringFromPtr(teacher.SubjectID), teacher.Name, teacher.Email, teacher.CreatedAt)
	if err != nil {
		return roster.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return teacher, nil
}

func (repo rosterRepository) QueryTeachers(ctx context.Context, schoolID string) ([]roster.Teacher, error) {
	const q = `
SELECT t.id, t.auth_id, t.school_id, t.teach_class_id, t.teach_subject_id, t.name, t.email, t.created_at,
       c.name AS class_name, s.name AS subject_name
FROM teacher t
         JOIN class c ON c.id = t.teach_class_id
         LEFT JOIN subject s ON s.id = t.teach_subject_id
WHERE t.school_id = $1
ORDER BY t.name`

	var rows []teacherRow
	if err := repo.db.SelectContext(ctx, &rows, q, schoolID); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]roster.Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, r.model())
	}
	return teachers, nil
}

func (repo rosterRepository) GetTeacher(ctx context.Context, id string) (roster.Teacher, error) {
	const q = `
SELECT t.id, t.auth_id, t.school_id, t.teach_class_id, t.teach_subject_id, t.name, t.email, t.created_at,
       c.name AS class_name, s.name AS subject_name, a.school_name
FROM teacher t
         JOIN class c ON c.id = t.teach_class_id
         JOIN admin a ON a.id = t.school_id
         LEFT JOIN subject s ON s.id = t.teach_subject_id
WHERE t.id = $1`

	var row teacherRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return roster.Teacher{}, repo.trapNoRowsErr(err, "getting teacher")
	}
	return row.model(), nil
}

func (repo rosterRepository) UpdateTeacher(ctx context.Context, id string, patch roster.UpdateProfile) (roster.Teacher, error) {
	const q = `
UPDATE teacher
SET name  = COALESCE(NULLIF($2, ''), name),
    email = COALESCE(NULLIF($3, ''), email)
WHERE id = $1
RETURNING id, auth_id, school_id, teach_class_id, teach_subject_id, name, email, created_at`

	var row teacherRow
	if err := repo.db.GetContext(ctx, &row, q, id, patch.Name, patch.Email); err != nil {
		return roster.Teacher{}, repo.trapNoRowsErr(err, "updating teacher")
	}
	return row.model(), nil
}

func (repo rosterRepository) CreateStudent(ctx context.Context, student roster.Student) (roster.Student, error) {
	const q = `
INSERT INTO student (id, auth_id, school_id, class_id, name, roll_num, email, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := repo.db.ExecContext(ctx, q,
		student.ID, student.AuthID, student.SchoolID, student.ClassID,
		student.Name, student.RollNum, student.Email, student.CreatedAt)
	if err != nil {
		return roster.Student{}, errors.Wrap(err, "inserting student")
	}
	return student, nil
}

func (repo rosterRepository) QueryStudents(ctx context.Context, schoolID string) ([]roster.Student, error) {
	const q = `
SELECT st.id, st.auth_id, st.school_id, st.class_id, st.name, st.roll_num, st.email, st.created_at,
       c.name AS class_name
FROM student st
         JOIN class c ON c.id = st.class_id
WHERE st.school_id = $1
ORDER BY st.roll_num`

	return repo.selectStudents(ctx, q, schoolID)
}

func (repo rosterRepository) QueryClassStudents(ctx context.Context, classID string) ([]roster.Student, error) {
	const q = `
SELECT st.id, st.auth_id, st.school_id, st.class_id, st.name, st.roll_num, st.email, st.created_at,
       c.name AS class_name
FROM student st
         JOIN class c ON c.id = st.class_id
WHERE st.class_id = $1
ORDER BY st.roll_num`

	return repo.selectStudents(ctx, q, classID)
}

func (repo rosterRepository) selectStudents(ctx context.Context, q string, arg interface{}) ([]roster.Student, error) {
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, arg); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]roster.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.model())
	}
	return students, nil
}

func (repo rosterRepository) GetStudent(ctx context.Context, id string) (roster.Student, error) {
	const q = `
SELECT st.id, st.auth_id, st.school_id, st.class_id, st.name, st.roll_num, st.email, st.created_at,
       c.name AS class_name, a.school_name
FROM student st
         JOIN class c ON c.id = st.class_id
         JOIN admin a ON a.id = st.school_id
WHERE st.id = $1`

	var row studentRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return roster.Student{}, repo.trapNoRowsErr(err, "getting student")
	}
	return row.model(), nil
}

func (repo rosterRepository) UpdateStudent(ctx context.Context, id string, patch roster.UpdateProfile) (roster.Student, error) {
	const q = `
UPDATE student
SET name     = COALESCE(NULLIF($2, ''), name),
    email    = COALESCE(NULLIF($3, ''), email),
    roll_num = CASE WHEN $4 > 0 THEN $4 ELSE roll_num END
WHERE id = $1
RETURNING id, auth_id, school_id, class_id, name, roll_num, email, created_at`

	var row studentRow
	if err := repo.db.GetContext(ctx, &row, q, id, patch.Name, patch.Email, patch.RollNum); err != nil {
		return roster.Student{}, repo.trapNoRowsErr(err, "updating student")
	}
	return row.model(), nil
}

func (repo rosterRepository) StudentIDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	const q = `SELECT id FROM student WHERE school_id = $1`

	var ids []string
	if err := repo.db.SelectContext(ctx, &ids, q, schoolID); err != nil {
		return nil, errors.Wrap(err, "querying student IDs")
	}
	return ids, nil
}

func (repo rosterRepository) SchoolExists(ctx context.Context, name string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM admin WHERE school_name = $1)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, name); err != nil {
		return false, errors.Wrap(err, "checking school name")
	}
	return exists, nil
}

func (repo rosterRepository) SchoolName(ctx context.Context, adminID string) (string, error) {
	const q = `SELECT school_name FROM admin WHERE id = $1`

	var name string
	if err := repo.db.GetContext(ctx, &name, q, adminID); err != nil {
		return "", repo.trapNoRowsErr(err, "reading school name")
	}
	return name, nil
}
