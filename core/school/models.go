package school

import (
	"time"

	"github.com/tsedeniyafiseha/school-management-system/core"
)

type (
	// Class is a school class owned by one tenant; name is unique per tenant.
	Class struct {
		ID        string    `json:"id"`
		SchoolID  string    `json:"school_id"`
		Name      string    `json:"class_name"`
		CreatedAt time.Time `json:"created_at"` // UTC

		// joined fields, set on detail queries only
		SchoolName string `json:"school_name,omitempty"`
	}

	// Subject belongs to one class and one tenant; code is unique per tenant.
	// Sessions caps attendance entries per enrolled student.
	Subject struct {
		ID        string    `json:"id"`
		SchoolID  string    `json:"school_id"`
		ClassID   string    `json:"class_id"`
		Name      string    `json:"sub_name"`
		Code      string    `json:"sub_code"`
		Sessions  int       `json:"sessions"`
		TeacherID *string   `json:"teacher_id,omitempty"`
		CreatedAt time.Time `json:"created_at"` // UTC

		// joined fields
		ClassName   string  `json:"class_name,omitempty"`
		TeacherName *string `json:"teacher_name,omitempty"`
	}

	Notice struct {
		ID        string    `json:"id"`
		SchoolID  string    `json:"school_id"`
		Title     string    `json:"title"`
		Details   string    `json:"details"`
		Date      string    `json:"date"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	Complain struct {
		ID        string    `json:"id"`
		SchoolID  string    `json:"school_id"`
		UserID    string    `json:"user_id"`
		Date      string    `json:"date"`
		Complaint string    `json:"complaint"`
		CreatedAt time.Time `json:"created_at"` // UTC

		// joined field
		UserName string `json:"user_name,omitempty"`
	}
)

// NewClass contains information needed to create a new Class.
type NewClass struct {
	SchoolID string `json:"school_id" validate:"required"`
	Name     string `json:"class_name" validate:"required"`
}

func (nc *NewClass) Validate(svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckClassName(nc.SchoolID, nc.Name)
}

// NewSubject is one entry of a batch subject creation.
type NewSubject struct {
	Name     string `json:"sub_name" validate:"required"`
	Code     string `json:"sub_code" validate:"required"`
	Sessions int    `json:"sessions" validate:"required,min=1"`
}

// NewSubjects creates a batch of subjects under one class.
type NewSubjects struct {
	SchoolID string       `json:"school_id" validate:"required"`
	ClassID  string       `json:"class_id" validate:"required"`
	Subjects []NewSubject `json:"subjects" validate:"required,min=1,dive"`
}

func (ns *NewSubjects) Validate(svc Service) error {
	for i := range ns.Subjects {
		ns.Subjects[i].Name = core.CleanString(ns.Subjects[i].Name)
		ns.Subjects[i].Code = core.CleanString(ns.Subjects[i].Code, true /* lower */)
	}
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckSubjectCodes(ns.SchoolID, ns.Codes())
}

func (ns *NewSubjects) Codes() []string {
	codes := make([]string, 0, len(ns.Subjects))
	for _, s := range ns.Subjects {
		codes = append(codes, s.Code)
	}
	return codes
}

type NewNotice struct {
	SchoolID string `json:"school_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Details  string `json:"details" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
}

func (nn *NewNotice) Validate() error {
	nn.Title = core.CleanString(nn.Title)
	nn.Details = core.CleanString(nn.Details)
	return core.Validate.Struct(nn)
}

type NewComplain struct {
	SchoolID  string `json:"school_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Complaint string `json:"complaint" validate:"required"`
}

func (nc *NewComplain) Validate() error {
	nc.Complaint = core.CleanString(nc.Complaint)
	return core.Validate.Struct(nc)
}
