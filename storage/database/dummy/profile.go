package dummydb

import (
	"context"

	"github.com/tsedeniyafiseha/school-management-system/core/auth"
)

type profileRepository struct {
	db *DB
}

var (
	_ auth.ProfileRepository = (*profileRepository)(nil) // interface compliance check
	_ auth.StudentDirectory  = (*profileRepository)(nil)
)

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetAdminByAuthID(ctx context.Context, authID string) (auth.AdminProfile, error) {
	repo.db.admin.RLock()
	defer repo.db.admin.RUnlock()

	for _, a := range repo.db.admin.table {
		if a.AuthID == authID {
			return auth.AdminProfile{
				ID:         a.ID,
				AuthID:     a.AuthID,
				Name:       a.Name,
				Email:      a.Email,
				SchoolName: a.SchoolName,
			}, nil
		}
	}
	return auth.AdminProfile{}, auth.ErrProfileNotFound
}

func (repo *profileRepository) GetTeacherByAuthID(ctx context.Context, authID string) (auth.TeacherProfile, error) {
	repo.db.teacher.RLock()
	defer repo.db.teacher.RUnlock()

	for _, t := range repo.db.teacher.table {
		if t.AuthID != authID {
			continue
		}
		profile := auth.TeacherProfile{
			ID:     t.ID,
			AuthID: t.AuthID,
			Name:   t.Name,
			Email:  t.Email,
			School: repo.schoolRef(t.SchoolID),
			Class:  repo.classRef(t.ClassID),
		}
		if t.SubjectID != nil {
			if ref, ok := repo.subjectRef(*t.SubjectID); ok {
				profile.Subject = &ref
			}
		}
		return profile, nil
	}
	return auth.TeacherProfile{}, auth.ErrProfileNotFound
}

func (repo *profileRepository) GetStudentByAuthID(ctx context.Context, authID string) (auth.StudentProfile, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	for _, s := range repo.db.student.table {
		if s.AuthID != authID {
			continue
		}
		return auth.StudentProfile{
			ID:      s.ID,
			AuthID:  s.AuthID,
			Name:    s.Name,
			Email:   s.Email,
			RollNum: s.RollNum,
			School:  repo.schoolRef(s.SchoolID),
			Class:   repo.classRef(s.ClassID),
		}, nil
	}
	return auth.StudentProfile{}, auth.ErrProfileNotFound
}

func (repo *profileRepository) StudentEmail(ctx context.Context, rollNum int, name string) (string, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	for _, s := range repo.db.student.table {
		if s.RollNum == rollNum && s.Name == name {
			return s.Email, nil
		}
	}
	return "", auth.ErrStudentNotFound
}

func (repo *profileRepository) schoolRef(schoolID string) auth.SchoolRef {
	repo.db.admin.RLock()
	defer repo.db.admin.RUnlock()

	if a, ok := repo.db.admin.table[schoolID]; ok {
		return auth.SchoolRef{ID: a.ID, Name: a.SchoolName}
	}
	return auth.SchoolRef{ID: schoolID}
}

func (repo *profileRepository) classRef(classID string) auth.ClassRef {
	repo.db.class.RLock()
	defer repo.db.class.RUnlock()

	if c, ok := repo.db.class.table[classID]; ok {
		return auth.ClassRef{ID: c.ID, Name: c.Name}
	}
	return auth.ClassRef{ID: classID}
}

func (repo *profileRepository) subjectRef(subjectID string) (auth.SubjectRef, bool) {
	repo.db.subject.RLock()
	defer repo.db.subject.RUnlock()

	if s, ok := repo.db.subject.table[subjectID]; ok {
		return auth.SubjectRef{ID: s.ID, Name: s.Name, Sessions: s.Sessions}, true
	}
	return auth.SubjectRef{}, false
}
