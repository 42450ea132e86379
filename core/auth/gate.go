package auth

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core"
)

var (
	// ErrStudentNotFound is returned when a (roll number, name) pair resolves
	// to no student, before any auth call is attempted.
	ErrStudentNotFound = errors.New("student not found, check your roll number and name")

	// ErrProfileMissing is returned when an account authenticates but no
	// profile row references it.
	ErrProfileMissing = errors.New("user profile not found, contact your administrator")
)

// RoleMismatchError is returned when an account authenticates under a portal
// that does not match its resolved profile kind.
type RoleMismatchError struct {
	Requested Role
	Actual    Role
}

func (e RoleMismatchError) Error() string {
	return fmt.Sprintf("this account is registered as %s, not %s", e.Actual, e.Requested)
}

type (
	// Credentials carries role-specific login input. Students log in with
	// (roll number, name); the other roles with email.
	Credentials struct {
		Email    string `json:"email" validate:"required_without=RollNum,omitempty,email"`
		Password string `json:"password" validate:"required"`

		// student login
		RollNum int    `json:"roll_num" validate:"required_without=Email"`
		Name    string `json:"student_name" validate:"required_with=RollNum"`
	}

	// StudentDirectory is the trusted lookup resolving student identity to a
	// login email. Backed by a privileged store function; callers never see
	// other students' emails beyond an exact (roll number, name) match.
	StudentDirectory interface {
		StudentEmail(ctx context.Context, rollNum int, name string) (string, error)
	}

	// Gate authenticates role-scoped logins and yields the enriched profile.
	Gate struct {
		provider Provider
		resolver *Resolver
		students StudentDirectory
		logger   core.Logger
	}
)

func (c *Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	c.Name = core.CleanString(c.Name)
	return core.Validate.Struct(c)
}

func NewGate(provider Provider, resolver *Resolver, students StudentDirectory, logger core.Logger) *Gate {
	return &Gate{
		provider: provider,
		resolver: resolver,
		students: students,
		logger:   logger,
	}
}

// Login authenticates creds against the provider and enforces that the
// resolved profile matches the requested role. On any post-authentication
// failure the fresh session is torn down before returning.
func (g *Gate) Login(ctx context.Context, creds Credentials, requested Role) (Profile, Session, error) {
	email := creds.Email
	if requested == RoleStudent {
		resolved, err := g.students.StudentEmail(ctx, creds.RollNum, creds.Name)
		if err != nil {
			if pkgerrors.Cause(err) == ErrStudentNotFound {
				return Profile{}, Session{}, ErrStudentNotFound
			}
			return Profile{}, Session{}, pkgerrors.Wrap(err, "resolving student email")
		}
		email = resolved
	}

	sess, err := g.provider.SignInWithPassword(ctx, email, creds.Password)
	if err != nil {
		if pkgerrors.Cause(err) == ErrInvalidCredentials {
			return Profile{}, Session{}, ErrInvalidCredentials
		}
		return Profile{}, Session{}, pkgerrors.Wrap(err, "signing in")
	}

	profile, err := g.resolver.Resolve(ctx, sess.Account.ID)
	if err != nil {
		if pkgerrors.Cause(err) == ErrProfileNotFound {
			g.signOutQuietly(ctx, sess)
			return Profile{}, Session{}, ErrProfileMissing
		}
		return Profile{}, Session{}, pkgerrors.Wrap(err, "resolving profile")
	}

	if profile.Role != requested {
		g.signOutQuietly(ctx, sess)
		return Profile{}, Session{}, RoleMismatchError{Requested: requested, Actual: profile.Role}
	}

	return profile, sess, nil
}

// InitSession resolves the profile behind an existing access token, e.g. on
// application mount. Returns ErrSessionExpired for a dead token.
func (g *Gate) InitSession(ctx context.Context, accessToken string) (Profile, error) {
	acct, err := g.provider.Account(ctx, accessToken)
	if err != nil {
		if pkgerrors.Cause(err) == ErrSessionExpired {
			return Profile{}, ErrSessionExpired
		}
		return Profile{}, pkgerrors.Wrap(err, "retrieving session account")
	}

	profile, err := g.resolver.Resolve(ctx, acct.ID)
	if err != nil {
		if pkgerrors.Cause(err) == ErrProfileNotFound {
			return Profile{}, ErrProfileMissing
		}
		return Profile{}, pkgerrors.Wrap(err, "resolving profile")
	}
	return profile, nil
}

// Logout invalidates the session. Provider failures are logged and swallowed:
// the caller always ends up logged out.
func (g *Gate) Logout(ctx context.Context, accessToken string) {
	if acct, err := g.provider.Account(ctx, accessToken); err == nil {
		g.resolver.Invalidate(ctx, acct.ID)
	}
	if err := g.provider.SignOut(ctx, accessToken); err != nil {
		g.logger.Warn("signing out", err)
	}
}

// UpdatePassword changes the authenticated account's password.
func (g *Gate) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	return pkgerrors.Wrap(g.provider.UpdatePassword(ctx, accessToken, newPassword), "updating password")
}

func (g *Gate) signOutQuietly(ctx context.Context, sess Session) {
	if err := g.provider.SignOut(ctx, sess.AccessToken); err != nil {
		g.logger.Warn("tearing down session", err)
	}
}
