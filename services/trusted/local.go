package trustedsvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
)

// localCreator performs privileged creation in-process. It backs DEV/TEST
// runs where no elevated functions endpoint is available: the auth account
// and the profile row are created directly against the local stack.
type localCreator struct {
	provider auth.Provider
	repo     roster.Repository
	logger   core.Logger
}

var _ roster.PrivilegedCreator = (*localCreator)(nil)

func NewLocalCreator(provider auth.Provider, repo roster.Repository, logger core.Logger) *localCreator {
	return &localCreator{provider: provider, repo: repo, logger: logger}
}

func (c *localCreator) CreateSchoolUser(ctx context.Context, accessToken string, req roster.CreateSchoolUser) (roster.CreatedUser, error) {
	// the caller must hold a live session, same as the hosted function requires
	if _, err := c.provider.Account(ctx, accessToken); err != nil {
		return roster.CreatedUser{}, err
	}

	sess, err := c.provider.SignUp(ctx, req.Email, req.Password, map[string]interface{}{
		"role": string(req.Role),
		"name": req.Name,
	})
	if err != nil {
		return roster.CreatedUser{}, err
	}

	now := time.Now().UTC()
	var profileID string
	switch req.Role {
	case auth.RoleTeacher:
		var subjectID *string
		if req.SubjectID != "" {
			subjectID = &req.SubjectID
		}
		teacher, err := c.repo.CreateTeacher(ctx, roster.Teacher{
			ID:        uuid.New().String(),
			AuthID:    sess.Account.ID,
			SchoolID:  req.SchoolID,
			ClassID:   req.ClassID,
			SubjectID: subjectID,
			Name:      req.Name,
			Email:     req.Email,
			CreatedAt: now,
		})
		if err != nil {
			return roster.CreatedUser{}, errors.Wrap(err, "inserting teacher")
		}
		profileID = teacher.ID
	case auth.RoleStudent:
		student, err := c.repo.CreateStudent(ctx, roster.Student{
			ID:        uuid.New().String(),
			AuthID:    sess.Account.ID,
			SchoolID:  req.SchoolID,
			ClassID:   req.ClassID,
			Name:      req.Name,
			RollNum:   req.RollNum,
			Email:     req.Email,
			CreatedAt: now,
		})
		if err != nil {
			return roster.CreatedUser{}, errors.Wrap(err, "inserting student")
		}
		profileID = student.ID
	default:
		return roster.CreatedUser{}, errors.Errorf("unsupported role %q", req.Role)
	}

	return roster.CreatedUser{
		ID:    profileID,
		Role:  req.Role,
		Name:  req.Name,
		Email: req.Email,
	}, nil
}
