package auth

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrProfileNotFound is returned by repositories when a probe misses,
	// and by Resolve when no profile kind matches the account.
	ErrProfileNotFound = errors.New("profile not found")
)

type (
	// ProfileRepository probes the three role tables by auth account ID.
	// Each getter returns ErrProfileNotFound (possibly wrapped) on a miss and
	// resolves the denormalized school/class/subject references in a single
	// joined query.
	ProfileRepository interface {
		GetAdminByAuthID(ctx context.Context, authID string) (AdminProfile, error)
		GetTeacherByAuthID(ctx context.Context, authID string) (TeacherProfile, error)
		GetStudentByAuthID(ctx context.Context, authID string) (StudentProfile, error)
	}

	// ProfileCache is an optional read-through cache keyed by auth account ID.
	ProfileCache interface {
		Get(ctx context.Context, authID string) (Profile, bool)
		Set(ctx context.Context, authID string, p Profile)
		Delete(ctx context.Context, authID string)
	}

	// Resolver maps an authenticated account to the single profile owning it.
	Resolver struct {
		repo  ProfileRepository
		cache ProfileCache // may be nil
	}
)

func NewResolver(repo ProfileRepository, cache ProfileCache) *Resolver {
	return &Resolver{repo: repo, cache: cache}
}

// Resolve probes the admin, teacher and student stores in that fixed order and
// returns the first match. A miss in one store never fails the others; only a
// non-miss error aborts the probe. Read-only.
func (r *Resolver) Resolve(ctx context.Context, authID string) (Profile, error) {
	if r.cache != nil {
		if p, ok := r.cache.Get(ctx, authID); ok {
			return p, nil
		}
	}

	p, err := r.resolve(ctx, authID)
	if err != nil {
		return Profile{}, err
	}

	if r.cache != nil {
		r.cache.Set(ctx, authID, p)
	}
	return p, nil
}

func (r *Resolver) resolve(ctx context.Context, authID string) (Profile, error) {
	admin, err := r.repo.GetAdminByAuthID(ctx, authID)
	if err == nil {
		return NewAdminProfile(admin), nil
	}
	if !isMiss(err) {
		return Profile{}, pkgerrors.Wrap(err, "probing admins")
	}

	teacher, err := r.repo.GetTeacherByAuthID(ctx, authID)
	if err == nil {
		return NewTeacherProfile(teacher), nil
	}
	if !isMiss(err) {
		return Profile{}, pkgerrors.Wrap(err, "probing teachers")
	}

	student, err := r.repo.GetStudentByAuthID(ctx, authID)
	if err == nil {
		return NewStudentProfile(student), nil
	}
	if !isMiss(err) {
		return Profile{}, pkgerrors.Wrap(err, "probing students")
	}

	return Profile{}, ErrProfileNotFound
}

// Invalidate drops any cached profile for the account.
func (r *Resolver) Invalidate(ctx context.Context, authID string) {
	if r.cache != nil {
		r.cache.Delete(ctx, authID)
	}
}

func isMiss(err error) bool {
	return errors.Is(err, ErrProfileNotFound) || pkgerrors.Cause(err) == ErrProfileNotFound
}
