package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
	"github.com/tsedeniyafiseha/school-management-system/core/school"
	dummydb "github.com/tsedeniyafiseha/school-management-system/storage/database/dummy"
)

type testEnv struct {
	svc        school.Service
	rosterRepo roster.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return &testEnv{
		svc:        school.NewService(dummydb.NewSchoolRepository(db)),
		rosterRepo: dummydb.NewRosterRepository(db),
	}
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "expected *core.ValidationError, got %T: %v", err, err)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, field, vErr.Fields[0].Field)
}

func Test_service_classes(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	nc := school.NewClass{SchoolID: "school1", Name: "Grade 10"}
	require.NoError(t, nc.Validate(env.svc))

	class, err := env.svc.CreateClass(ctx, nc)
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)

	t.Run("name unique per school", func(t *testing.T) {
		dup := school.NewClass{SchoolID: "school1", Name: "Grade 10"}
		assertFieldError(t, dup.Validate(env.svc), "class_name")

		// same name under another school is fine
		other := school.NewClass{SchoolID: "school2", Name: "Grade 10"}
		assert.NoError(t, other.Validate(env.svc))
	})

	t.Run("query and detail", func(t *testing.T) {
		classes, err := env.svc.Classes(ctx, "school1")
		require.NoError(t, err)
		require.Len(t, classes, 1)

		detail, err := env.svc.ClassDetail(ctx, class.ID)
		require.NoError(t, err)
		assert.Equal(t, class.Name, detail.Name)

		_, err = env.svc.ClassDetail(ctx, "nope")
		assert.Equal(t, school.ErrNotFound, err)
	})
}

func Test_service_subjects(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	class, err := env.svc.CreateClass(ctx, school.NewClass{SchoolID: "school1", Name: "Grade 10"})
	require.NoError(t, err)

	ns := school.NewSubjects{
		SchoolID: "school1",
		ClassID:  class.ID,
		Subjects: []school.NewSubject{
			{Name: "Maths", Code: "mat101", Sessions: 10},
			{Name: "English", Code: "eng101", Sessions: 8},
		},
	}
	require.NoError(t, ns.Validate(env.svc))

	subjects, err := env.svc.CreateSubjects(ctx, ns)
	require.NoError(t, err)
	require.Len(t, subjects, 2)

	t.Run("code unique per school", func(t *testing.T) {
		dup := school.NewSubjects{
			SchoolID: "school1",
			ClassID:  class.ID,
			Subjects: []school.NewSubject{{Name: "Mathematics II", Code: "MAT101", Sessions: 10}},
		}
		// codes are lowercased before the check
		assertFieldError(t, dup.Validate(env.svc), "sub_code")
	})

	t.Run("queries", func(t *testing.T) {
		bySchool, err := env.svc.SchoolSubjects(ctx, "school1")
		require.NoError(t, err)
		assert.Len(t, bySchool, 2)

		byClass, err := env.svc.ClassSubjects(ctx, class.ID)
		require.NoError(t, err)
		assert.Len(t, byClass, 2)
	})

	t.Run("assign teacher", func(t *testing.T) {
		teacher, err := env.rosterRepo.CreateTeacher(ctx, roster.Teacher{
			ID:       uuid.New().String(),
			AuthID:   uuid.New().String(),
			SchoolID: "school1",
			ClassID:  class.ID,
			Name:     "Teacher",
			Email:    "teacher@test.cd",
		})
		require.NoError(t, err)

		maths := subjects[0]
		require.NoError(t, env.svc.AssignTeacher(ctx, teacher.ID, maths.ID))

		subject, err := env.svc.SubjectDetail(ctx, maths.ID)
		require.NoError(t, err)
		require.NotNil(t, subject.TeacherID)
		assert.Equal(t, teacher.ID, *subject.TeacherID)

		refreshed, err := env.rosterRepo.GetTeacher(ctx, teacher.ID)
		require.NoError(t, err)
		require.NotNil(t, refreshed.SubjectID)
		assert.Equal(t, maths.ID, *refreshed.SubjectID)

		// the assigned subject drops off the free list
		free, err := env.svc.FreeClassSubjects(ctx, class.ID)
		require.NoError(t, err)
		require.Len(t, free, 1)
		assert.Equal(t, "English", free[0].Name)

		t.Run("unknown teacher", func(t *testing.T) {
			err := env.svc.AssignTeacher(ctx, "nope", maths.ID)
			assert.Error(t, err)
		})
	})
}

func Test_service_notices(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	for _, nn := range []school.NewNotice{
		{SchoolID: "school1", Title: "Sports day", Details: "On the field.", Date: "2024-09-10"},
		{SchoolID: "school1", Title: "Exam week", Details: "Starts Monday.", Date: "2024-09-20"},
		{SchoolID: "school2", Title: "Other school", Details: "Not ours.", Date: "2024-09-15"},
	} {
		nn := nn
		require.NoError(t, nn.Validate())
		_, err := env.svc.CreateNotice(ctx, nn)
		require.NoError(t, err)
	}

	notices, err := env.svc.Notices(ctx, "school1")
	require.NoError(t, err)
	require.Len(t, notices, 2)
	// newest first
	assert.Equal(t, "Exam week", notices[0].Title)
	assert.Equal(t, "Sports day", notices[1].Title)
}

func Test_service_complains(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	student, err := env.rosterRepo.CreateStudent(ctx, roster.Student{
		ID:        uuid.New().String(),
		AuthID:    uuid.New().String(),
		SchoolID:  "school1",
		ClassID:   "class1",
		Name:      "Hero",
		RollNum:   1,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	nc := school.NewComplain{
		SchoolID:  "school1",
		UserID:    student.ID,
		Date:      "2024-09-02",
		Complaint: "The library closes too early.",
	}
	require.NoError(t, nc.Validate())
	_, err = env.svc.CreateComplain(ctx, nc)
	require.NoError(t, err)

	complains, err := env.svc.Complains(ctx, "school1")
	require.NoError(t, err)
	require.Len(t, complains, 1)
	assert.Equal(t, "Hero", complains[0].UserName)
}

func Test_service_Delete(t *testing.T) {
	env := setup(t)
	assert.Equal(t, school.ErrDeleteDisabled, env.svc.Delete(context.Background(), "anything"))
}
