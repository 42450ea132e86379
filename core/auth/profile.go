package auth

import "fmt"

// Role tags the kind of profile an authenticated account owns.
// An account maps to at most one profile across all three kinds.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

type (
	// SchoolRef is a denormalized reference to the owning tenant.
	SchoolRef struct {
		ID   string `json:"id"`
		Name string `json:"school_name"`
	}

	ClassRef struct {
		ID   string `json:"id"`
		Name string `json:"class_name"`
	}

	SubjectRef struct {
		ID       string `json:"id"`
		Name     string `json:"sub_name"`
		Sessions int    `json:"sessions"`
	}

	AdminProfile struct {
		ID         string `json:"id"`
		AuthID     string `json:"auth_id"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		SchoolName string `json:"school_name"`
	}

	TeacherProfile struct {
		ID      string      `json:"id"`
		AuthID  string      `json:"auth_id"`
		Name    string      `json:"name"`
		Email   string      `json:"email"`
		School  SchoolRef   `json:"school"`
		Class   ClassRef    `json:"teach_sclass"`
		Subject *SubjectRef `json:"teach_subject,omitempty"`
	}

	StudentProfile struct {
		ID      string    `json:"id"`
		AuthID  string    `json:"auth_id"`
		Name    string    `json:"name"`
		Email   string    `json:"email"`
		RollNum int       `json:"roll_num"`
		School  SchoolRef `json:"school"`
		Class   ClassRef  `json:"sclass_name"`
	}

	// Profile is the tagged union of the three profile kinds; exactly one of
	// Admin, Teacher or Student is set, matching Role.
	Profile struct {
		Role    Role            `json:"role"`
		Admin   *AdminProfile   `json:"admin,omitempty"`
		Teacher *TeacherProfile `json:"teacher,omitempty"`
		Student *StudentProfile `json:"student,omitempty"`
	}
)

func NewAdminProfile(a AdminProfile) Profile { return Profile{Role: RoleAdmin, Admin: &a} }
func NewTeacherProfile(t TeacherProfile) Profile { return Profile{Role: RoleTeacher, Teacher: &t} }
func NewStudentProfile(s StudentProfile) Profile { return Profile{Role: RoleStudent, Student: &s} }

func (p Profile) IsZero() bool { return p.Role == "" }

// AuthID returns the auth account ID owning this profile.
func (p Profile) AuthID() string {
	switch p.Role {
	case RoleAdmin:
		return p.Admin.AuthID
	case RoleTeacher:
		return p.Teacher.AuthID
	case RoleStudent:
		return p.Student.AuthID
	}
	return ""
}

// ProfileID returns the role row ID (not the auth account ID).
func (p Profile) ProfileID() string {
	switch p.Role {
	case RoleAdmin:
		return p.Admin.ID
	case RoleTeacher:
		return p.Teacher.ID
	case RoleStudent:
		return p.Student.ID
	}
	return ""
}

// TenantID returns the owning school's admin ID; for an admin that is
// the profile itself.
func (p Profile) TenantID() string {
	switch p.Role {
	case RoleAdmin:
		return p.Admin.ID
	case RoleTeacher:
		return p.Teacher.School.ID
	case RoleStudent:
		return p.Student.School.ID
	}
	return ""
}

func (p Profile) Name() string {
	switch p.Role {
	case RoleAdmin:
		return p.Admin.Name
	case RoleTeacher:
		return p.Teacher.Name
	case RoleStudent:
		return p.Student.Name
	}
	return ""
}

func (p Profile) String() string {
	return fmt.Sprintf("%s(%s)", p.Role, p.ProfileID())
}
