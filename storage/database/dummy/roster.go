package dummydb

import (
	"context"
	"sort"

	"github.com/tsedeniyafiseha/school-management-system/core/roster"
)

type rosterRepository struct {
	db *DB
}

var (
	_ roster.Repository      = (*rosterRepository)(nil) // interface compliance check
	_ roster.SchoolDirectory = (*rosterRepository)(nil)
)

func NewRosterRepository(db *DB) *rosterRepository {
	return &rosterRepository{db: db}
}

func (repo *rosterRepository) CreateAdmin(ctx context.Context, admin roster.Admin) (roster.Admin, error) {
	repo.db.admin.Lock()
	defer repo.db.admin.Unlock()

	repo.db.admin.table[admin.ID] = &admin
	return admin, nil
}

func (repo *rosterRepository) GetAdmin(ctx context.Context, id string) (roster.Admin, error) {
	repo.db.admin.RLock()
	defer repo.db.admin.RUnlock()

	if a, ok := repo.db.admin.table[id]; ok {
		return *a, nil
	}
	return roster.Admin{}, roster.ErrNotFound
}

func (repo *rosterRepository) UpdateAdmin(ctx context.Context, id string, patch roster.UpdateProfile) (roster.Admin, error) {
	repo.db.admin.Lock()
	defer repo.db.admin.Unlock()

	a, ok := repo.db.admin.table[id]
	if !ok {
		return roster.Admin{}, roster.ErrNotFound
	}
	if patch.Name != "" {
		a.Name = patch.Name
	}
	if patch.Email != "" {
		a.Email = patch.Email
	}
	if patch.SchoolName != "" {
		a.SchoolName = patch.SchoolName
	}
	return *a, nil
}

func (repo *rosterRepository) CreateTeacher(ctx context.Context, teacher roster.Teacher) (roster.Teacher, error) {
	repo.db.teacher.Lock()
	defer repo.db.teacher.Unlock()

	repo.db.teacher.table[teacher.ID] = &teacher
	return teacher, nil
}

func (repo *rosterRepository) QueryTeachers(ctx context.Context, schoolID string) ([]roster.Teacher, error) {
	repo.db.teacher.RLock()
	defer repo.db.teacher.RUnlock()

	teachers := make([]roster.Teacher, 0)
	for _, t := range repo.db.teacher.table {
		if t.SchoolID == schoolID {
			teachers = append(teachers, *t)
		}
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].Name < teachers[j].Name })
	return teachers, nil
}

func (repo *rosterRepository) GetTeacher(ctx context.Context, id string) (roster.Teacher, error) {
	repo.db.teacher.RLock()
	defer repo.db.teacher.RUnlock()

	if t, ok := repo.db.teacher.table[id]; ok {
		return *t, nil
	}
	return roster.Teacher{}, roster.ErrNotFound
}

func (repo *rosterRepository) UpdateTeacher(ctx context.Context, id string, patch roster.UpdateProfile) (roster.Teacher, error) {
	repo.db.teacher.Lock()
	defer repo.db.teacher.Unlock()

	t, ok := repo.db.teacher.table[id]
	if !ok {
		return roster.Teacher{}, roster.ErrNotFound
	}
	if patch.Name != "" {
		t.Name = patch.Name
	}
	if patch.Email != "" {
		t.Email = patch.Email
	}
	return *t, nil
}

func (repo *rosterRepository) CreateStudent(ctx context.Context, student roster.Student) (roster.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	repo.db.student.table[student.ID] = &student
	return student, nil
}

func (repo *rosterRepository) QueryStudents(ctx context.Context, schoolID string) ([]roster.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	students := make([]roster.Student, 0)
	for _, s := range repo.db.student.table {
		if s.SchoolID == schoolID {
			students = append(students, *s)
		}
	}
	sortStudents(students)
	return students, nil
}

func (repo *rosterRepository) QueryClassStudents(ctx context.Context, classID string) ([]roster.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	students := make([]roster.Student, 0)
	for _, s := range repo.db.student.table {
		if s.ClassID == classID {
			students = append(students, *s)
		}
	}
	sortStudents(students)
	return students, nil
}

func (repo *rosterRepository) GetStudent(ctx context.Context, id string) (roster.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	if s, ok := repo.db.student.table[id]; ok {
		return *s, nil
	}
	return roster.Student{}, roster.ErrNotFound
}

func (repo *rosterRepository) UpdateStudent(ctx context.Context, id string, patch roster.UpdateProfile) (roster.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	s, ok := repo.db.student.table[id]
	if !ok {
		return roster.Student{}, roster.ErrNotFound
	}
	if patch.Name != "" {
		s.Name = patch.Name
	}
	if patch.Email != "" {
		s.Email = patch.Email
	}
	if patch.RollNum > 0 {
		s.RollNum = patch.RollNum
	}
	return *s, nil
}

func (repo *rosterRepository) StudentIDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	ids := make([]string, 0)
	for _, s := range repo.db.student.table {
		if s.SchoolID == schoolID {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (repo *rosterRepository) SchoolExists(ctx context.Context, name string) (bool, error) {
	repo.db.admin.RLock()
	defer repo.db.admin.RUnlock()

	for _, a := range repo.db.admin.table {
		if a.SchoolName == name {
			return true, nil
		}
	}
	return false, nil
}

func (repo *rosterRepository) SchoolName(ctx context.Context, adminID string) (string, error) {
	repo.db.admin.RLock()
	defer repo.db.admin.RUnlock()

	if a, ok := repo.db.admin.table[adminID]; ok {
		return a.SchoolName, nil
	}
	return "", roster.ErrNotFound
}

func sortStudents(students []roster.Student) {
	sort.Slice(students, func(i, j int) bool { return students[i].RollNum < students[j].RollNum })
}
