package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tsedeniyafiseha/school-management-system/core/auth"
)

// profileRepository serves the sign-in path: role probes by auth account ID
// and the student login-email lookup.
type profileRepository struct {
	db *sqlx.DB
}

var (
	_ auth.ProfileRepository = (*profileRepository)(nil) // interface compliance check
	_ auth.StudentDirectory  = (*profileRepository)(nil)
)

func NewProfileRepository(db *sqlx.DB) *profileRepository {
	return &profileRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to auth.ErrProfileNotFound
func (repo profileRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return auth.ErrProfileNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo profileRepository) GetAdminByAuthID(ctx context.Context, authID string) (auth.AdminProfile, error) {
	const q = `
SELECT id, auth_id, name, email, school_name
FROM admin
WHERE auth_id = $1`

	var row struct {
		ID         string `db:"id"`
		AuthID     string `db:"auth_id"`
		Name       string `db:"name"`
		Email      string `db:"email"`
		SchoolName string `db:"school_name"`
	}
	if err := repo.db.GetContext(ctx, &row, q, authID); err != nil {
		return auth.AdminProfile{}, repo.trapNoRowsErr(err, "getting admin profile")
	}
	return auth.AdminProfile{
		ID:         row.ID,
		AuthID:     row.AuthID,
		Name:       row.Name,
		Email:      row.Email,
		SchoolName: row.SchoolName,
	}, nil
}

func (repo profileRepository) GetTeacherByAuthID(ctx context.Context, authID string) (auth.TeacherProfile, error) {
	const q = `
SELECT t.id, t.auth_id, t.name, t.email,
       a.id AS school_id, a.school_name,
       c.id AS class_id, c.name AS class_name,
       s.id AS subject_id, s.name AS subject_name, s.sessions AS subject_sessions
FROM teacher t
         JOIN admin a ON a.id = t.school_id
         JOIN class c ON c.id = t.teach_class_id
         LEFT JOIN subject s ON s.id = t.teach_subject_id
WHERE t.auth_id = $1`

	var row struct {
		ID              string      `db:"id"`
		AuthID          string      `db:"auth_id"`
		Name            string      `db:"name"`
		Email           string      `db:"email"`
		SchoolID        string      `db:"school_id"`
		SchoolName      string      `db:"school_name"`
		ClassID         string      `db:"class_id"`
		ClassName       string      `db:"class_name"`
		SubjectID       null.String `db:"subject_id"`
		SubjectName     null.String `db:"subject_name"`
		SubjectSessions null.Int    `db:"subject_sessions"`
	}
	if err := repo.db.GetContext(ctx, &row, q, authID); err != nil {
		return auth.TeacherProfile{}, repo.trapNoRowsErr(err, "getting teacher profile")
	}

	profile := auth.TeacherProfile{
		ID:     row.ID,
		AuthID: row.AuthID,
		Name:   row.Name,
		Email:  row.Email,
		School: auth.SchoolRef{ID: row.SchoolID, Name: row.SchoolName},
		Class:  auth.ClassRef{ID: row.ClassID, Name: row.ClassName},
	}
	if row.SubjectID.Valid {
		profile.Subject = &auth.SubjectRef{
			ID:       row.SubjectID.String,
			Name:     row.SubjectName.String,
			Sessions: row.SubjectSessions.Int,
		}
	}
	return profile, nil
}

func (repo profileRepository) GetStudentByAuthID(ctx context.Context, authID string) (auth.StudentProfile, error) {
	const q = `
SELECT st.id, st.auth_id, st.name, st.email, st.roll_num,
       a.id AS school_id, a.school_name,
       c.id AS class_id, c.name AS class_name
FROM student st
         JOIN admin a ON a.id = st.school_id
         JOIN class c ON c.id = st.class_id
WHERE st.auth_id = $1`

	var row struct {
		ID         string `db:"id"`
		AuthID     string `db:"auth_id"`
		Name       string `db:"name"`
		Email      string `db:"email"`
		RollNum    int    `db:"roll_num"`
		SchoolID   string `db:"school_id"`
		SchoolName string `db:"school_name"`
		ClassID    string `db:"class_id"`
		ClassName  string `db:"class_name"`
	}
	if err := repo.db.GetContext(ctx, &row, q, authID); err != nil {
		return auth.StudentProfile{}, repo.trapNoRowsErr(err, "getting student profile")
	}
	return auth.StudentProfile{
		ID:      row.ID,
		AuthID:  row.AuthID,
		Name:    row.Name,
		Email:   row.Email,
		RollNum: row.RollNum,
		School:  auth.SchoolRef{ID: row.SchoolID, Name: row.SchoolName},
		Class:   auth.ClassRef{ID: row.ClassID, Name: row.ClassName},
	}, nil
}

// StudentEmail resolves the synthesized login email of a student from the
// roll number and name supplied on the login form.
func (repo profileRepository) StudentEmail(ctx context.Context, rollNum int, name string) (string, error) {
	const q = `SELECT email FROM student WHERE roll_num = $1 AND name = $2 LIMIT 1`

	var email string
	if err := repo.db.GetContext(ctx, &email, q, rollNum, name); err != nil {
		if err == sql.ErrNoRows {
			return "", auth.ErrStudentNotFound
		}
		return "", errors.Wrap(err, "resolving student email")
	}
	return email, nil
}
