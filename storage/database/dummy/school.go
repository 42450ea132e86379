package dummydb

import (
	"context"
	"sort"

	"github.com/tsedeniyafiseha/school-management-system/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) ClassNameExists(ctx context.Context, schoolID, name string) (bool, error) {
	repo.db.class.RLock()
	defer repo.db.class.RUnlock()

	for _, c := range repo.db.class.table {
		if c.SchoolID == schoolID && c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (repo *schoolRepository) CreateClass(ctx context.Context, class school.Class) (school.Class, error) {
	repo.db.class.Lock()
	defer repo.db.class.Unlock()

	repo.db.class.table[class.ID] = &class
	return class, nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, schoolID string) ([]school.Class, error) {
	repo.db.class.RLock()
	defer repo.db.class.RUnlock()

	classes := make([]school.Class, 0)
	for _, c := range repo.db.class.table {
		if c.SchoolID == schoolID {
			classes = append(classes, *c)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	repo.db.class.RLock()
	c, ok := repo.db.class.table[id]
	if !ok {
		repo.db.class.RUnlock()
		return school.Class{}, school.ErrNotFound
	}
	class := *c
	repo.db.class.RUnlock()

	repo.db.admin.RLock()
	if a, found := repo.db.admin.table[class.SchoolID]; found {
		class.SchoolName = a.SchoolName
	}
	repo.db.admin.RUnlock()
	return class, nil
}

func (repo *schoolRepository) SubjectCodeExists(ctx context.Context, schoolID string, codes []string) (bool, error) {
	repo.db.subject.RLock()
	defer repo.db.subject.RUnlock()

	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		wanted[code] = struct{}{}
	}
	for _, s := range repo.db.subject.table {
		if s.SchoolID != schoolID {
			continue
		}
		if _, ok := wanted[s.Code]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (repo *schoolRepository) CreateSubjects(ctx context.Context, subjects []school.Subject) ([]school.Subject, error) {
	repo.db.subject.Lock()
	defer repo.db.subject.Unlock()

	for i := range subjects {
		s := subjects[i]
		repo.db.subject.table[s.ID] = &s
	}
	return subjects, nil
}

func (repo *schoolRepository) QuerySubjectsByClass(ctx context.Context, classID string) ([]school.Subject, error) {
	return repo.querySubjects(func(s *school.Subject) bool { return s.ClassID == classID })
}

func (repo *schoolRepository) QuerySubjectsBySchool(ctx context.Context, schoolID string) ([]school.Subject, error) {
	return repo.querySubjects(func(s *school.Subject) bool { return s.SchoolID == schoolID })
}

func (repo *schoolRepository) QueryFreeSubjects(ctx context.Context, classID string) ([]school.Subject, error) {
	return repo.querySubjects(func(s *school.Subject) bool { return s.ClassID == classID && s.TeacherID == nil })
}

func (repo *schoolRepository) querySubjects(match func(*school.Subject) bool) ([]school.Subject, error) {
	repo.db.subject.RLock()
	defer repo.db.subject.RUnlock()

	subjects := make([]school.Subject, 0)
	for _, s := range repo.db.subject.table {
		if match(s) {
			subjects = append(subjects, *s)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *schoolRepository) GetSubject(ctx context.Context, id string) (school.Subject, error) {
	repo.db.subject.RLock()
	defer repo.db.subject.RUnlock()

	if s, ok := repo.db.subject.table[id]; ok {
		return *s, nil
	}
	return school.Subject{}, school.ErrNotFound
}

func (repo *schoolRepository) SetSubjectTeacher(ctx context.Context, subjectID, teacherID string) error {
	repo.db.subject.Lock()
	defer repo.db.subject.Unlock()

	s, ok := repo.db.subject.table[subjectID]
	if !ok {
		return school.ErrNotFound
	}
	s.TeacherID = &teacherID
	return nil
}

func (repo *schoolRepository) SetTeacherSubject(ctx context.Context, teacherID, subjectID string) error {
	repo.db.teacher.Lock()
	defer repo.db.teacher.Unlock()

	t, ok := repo.db.teacher.table[teacherID]
	if !ok {
		return school.ErrNotFound
	}
	t.SubjectID = &subjectID
	return nil
}

func (repo *schoolRepository) CreateNotice(ctx context.Context, notice school.Notice) (school.Notice, error) {
	repo.db.notice.Lock()
	defer repo.db.notice.Unlock()

	repo.db.notice.table[notice.ID] = &notice
	return notice, nil
}

func (repo *schoolRepository) QueryNotices(ctx context.Context, schoolID string) ([]school.Notice, error) {
	repo.db.notice.RLock()
	defer repo.db.notice.RUnlock()

	notices := make([]school.Notice, 0)
	for _, n := range repo.db.notice.table {
		if n.SchoolID == schoolID {
			notices = append(notices, *n)
		}
	}
	sort.Slice(notices, func(i, j int) bool { return notices[i].Date > notices[j].Date })
	return notices, nil
}

func (repo *schoolRepository) CreateComplain(ctx context.Context, complain school.Complain) (school.Complain, error) {
	repo.db.complain.Lock()
	defer repo.db.complain.Unlock()

	repo.db.complain.table[complain.ID] = &complain
	return complain, nil
}

func (repo *schoolRepository) QueryComplains(ctx context.Context, schoolID string) ([]school.Complain, error) {
	repo.db.complain.RLock()
	complains := make([]school.Complain, 0)
	for _, c := range repo.db.complain.table {
		if c.SchoolID == schoolID {
			complains = append(complains, *c)
		}
	}
	repo.db.complain.RUnlock()

	repo.db.student.RLock()
	for i := range complains {
		if s, ok := repo.db.student.table[complains[i].UserID]; ok {
			complains[i].UserName = s.Name
		}
	}
	repo.db.student.RUnlock()

	sort.Slice(complains, func(i, j int) bool { return complains[i].Date > complains[j].Date })
	return complains, nil
}
