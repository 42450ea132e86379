package roster

import (
	"time"

	"github.com/tsedeniyafiseha/school-management-system/core"
)

type (
	// Admin owns a tenant; its ID doubles as the school (tenant) ID.
	Admin struct {
		ID         string    `json:"id"`
		AuthID     string    `json:"auth_id"`
		Name       string    `json:"name"`
		Email      string    `json:"email"`
		SchoolName string    `json:"school_name"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	Teacher struct {
		ID        string    `json:"id"`
		AuthID    string    `json:"auth_id"`
		SchoolID  string    `json:"school_id"`
		ClassID   string    `json:"teach_class_id"`
		SubjectID *string   `json:"teach_subject_id,omitempty"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"` // UTC

		// joined fields
		ClassName   string `json:"class_name,omitempty"`
		SubjectName string `json:"sub_name,omitempty"`
		SchoolName  string `json:"school_name,omitempty"`
	}

	Student struct {
		ID        string    `json:"id"`
		AuthID    string    `json:"auth_id"`
		SchoolID  string    `json:"school_id"`
		ClassID   string    `json:"class_id"`
		Name      string    `json:"name"`
		RollNum   int       `json:"roll_num"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"` // UTC

		// joined fields
		ClassName  string `json:"class_name,omitempty"`
		SchoolName string `json:"school_name,omitempty"`
	}
)

// NewAdmin registers a school along with its owning admin account.
type NewAdmin struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	SchoolName string `json:"school_name" validate:"required"`
}

func (na *NewAdmin) Validate() error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.SchoolName = core.CleanString(na.SchoolName)
	return core.Validate.Struct(na)
}

// NewStudent is forwarded to the privileged creation function; the login email
// is synthesized, never supplied.
type NewStudent struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
	RollNum  int    `json:"roll_num" validate:"required,min=1"`
	ClassID  string `json:"class_id" validate:"required"`
	SchoolID string `json:"school_id" validate:"required"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	return core.Validate.Struct(ns)
}

type NewTeacher struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	SchoolID string `json:"school_id" validate:"required"`
	ClassID  string `json:"teach_class_id" validate:"required"`
	// optional subject assignment, patched as a follow-up after creation
	SubjectID string `json:"teach_subject_id" validate:"omitempty"`
}

func (nt *NewTeacher) Validate() error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	return core.Validate.Struct(nt)
}

// UpdateProfile defines the field patches a profile owner (or their admin) may
// apply. Zero-valued fields are left untouched.
type UpdateProfile struct {
	Name       string `json:"name"`
	Email      string `json:"email" validate:"omitempty,email"`
	RollNum    int    `json:"roll_num" validate:"omitempty,min=1"`
	SchoolName string `json:"school_name"`
}

func (up *UpdateProfile) Validate() error {
	up.Name = core.CleanString(up.Name)
	up.Email = core.CleanString(up.Email, true /* lower */)
	up.SchoolName = core.CleanString(up.SchoolName)
	return core.Validate.Struct(up)
}
