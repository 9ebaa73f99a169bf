package types

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStruct runs struct-tag validation and reports the first failing field.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: fe.Tag()}
	}
	return &ValidationError{Message: "invalid request"}
}

// CreateOfferRequest opens a new Offer.
type CreateOfferRequest struct {
	JobTitle          string     `json:"jobTitle" validate:"required,min=1"`
	Priority          Priority   `json:"priority" validate:"omitempty,oneof=Low Medium High Critical"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	AssignedTo        string     `json:"assignedTo" validate:"required,uuid"`
	Description       string     `json:"description,omitempty"`
	Skills            []string   `json:"skills,omitempty" validate:"dive,required"`
	PreferredSkills   []string   `json:"preferredSkills,omitempty" validate:"dive,required"`
	Experience        string     `json:"experience,omitempty"`
	PositionAvailable int        `json:"positionAvailable" validate:"gte=0"`
	Location          string     `json:"location,omitempty"`
	City              string     `json:"city,omitempty"`
	State             string     `json:"state,omitempty"`
	Country           string     `json:"country,omitempty"`
	EmploymentType    string     `json:"employmentType,omitempty" validate:"omitempty,oneof=Full-Time Part-Time Contract Internship Remote"`
	Salary            int64      `json:"salary,omitempty" validate:"gte=0"`
	Currency          string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	CompanyName       string     `json:"companyName,omitempty"`
}

// Validate validates the CreateOfferRequest.
func (r *CreateOfferRequest) Validate() error {
	return validateStruct(r)
}

// AssignOfferRequest re-assigns an Offer to a recruiter.
type AssignOfferRequest struct {
	AssignedTo string `json:"assignedTo" validate:"required,uuid"`
}

// Validate validates the AssignOfferRequest.
func (r *AssignOfferRequest) Validate() error {
	return validateStruct(r)
}

// UpdateOfferStatusRequest moves an Offer to a later lifecycle stage.
type UpdateOfferStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Validate validates the UpdateOfferStatusRequest.
func (r *UpdateOfferStatusRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	_, err := ParseOfferStatus(r.Status)
	return err
}

// UpdateOfferRequest edits an Offer. Nil fields are left unchanged; a status
// change is subject to the same forward-only rules as UpdateOfferStatusRequest.
type UpdateOfferRequest struct {
	JobTitle          *string    `json:"jobTitle,omitempty" validate:"omitempty,min=1"`
	Priority          *Priority  `json:"priority,omitempty" validate:"omitempty,oneof=Low Medium High Critical"`
	Status            *string    `json:"status,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty"`
	Description       *string    `json:"description,omitempty"`
	Skills            []string   `json:"skills,omitempty" validate:"omitempty,dive,required"`
	PreferredSkills   []string   `json:"preferredSkills,omitempty" validate:"omitempty,dive,required"`
	Experience        *string    `json:"experience,omitempty"`
	PositionAvailable *int       `json:"positionAvailable,omitempty"`
	Location          *string    `json:"location,omitempty"`
	City              *string    `json:"city,omitempty"`
	State             *string    `json:"state,omitempty"`
	Country           *string    `json:"country,omitempty"`
	EmploymentType    *string    `json:"employmentType,omitempty" validate:"omitempty,oneof=Full-Time Part-Time Contract Internship Remote"`
	Salary            *int64     `json:"salary,omitempty" validate:"omitempty,gte=0"`
	Currency          *string    `json:"currency,omitempty" validate:"omitempty,len=3"`
	CompanyName       *string    `json:"companyName,omitempty"`
}

// Validate validates the UpdateOfferRequest.
func (r *UpdateOfferRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.JobTitle != nil && strings.TrimSpace(*r.JobTitle) == "" {
		return &ValidationError{Field: "jobTitle", Message: "must not be empty"}
	}
	if r.PositionAvailable != nil && *r.PositionAvailable < 1 {
		return &ValidationError{Field: "positionAvailable", Message: "must be at least 1"}
	}
	if r.Status != nil {
		if _, err := ParseOfferStatus(*r.Status); err != nil {
			return err
		}
	}
	return nil
}

// CreateJDRequest is the body of a manual JD creation.
type CreateJDRequest struct {
	JobSummary       string   `json:"jobSummary" validate:"required"`
	Responsibilities []string `json:"responsibilities" validate:"dive,required"`
	Requirements     []string `json:"requirements" validate:"dive,required"`
	Benefits         []string `json:"benefits" validate:"dive,required"`
	AdditionalNotes  string   `json:"additionalNotes,omitempty"`
	CompanyName      string   `json:"companyName,omitempty"`
}

// Validate validates the CreateJDRequest.
func (r *CreateJDRequest) Validate() error {
	return validateStruct(r)
}

// GenerateJDRequest carries the company context for AI-assisted JD creation.
type GenerateJDRequest struct {
	CompanyName         string `json:"companyName" validate:"required"`
	Department          string `json:"department,omitempty"`
	ReportingManager    string `json:"reportingManager,omitempty"`
	KeyResponsibilities string `json:"keyResponsibilities,omitempty"`
	Qualifications      string `json:"qualifications,omitempty"`
	Benefits            string `json:"benefits,omitempty"`
	AdditionalNotes     string `json:"additionalNotes,omitempty"`
}

// Validate validates the GenerateJDRequest.
func (r *GenerateJDRequest) Validate() error {
	return validateStruct(r)
}

// ApplicationRequest is used both by candidates applying and by recruiters
// adding a resume on a candidate's behalf.
type ApplicationRequest struct {
	Resume     string `json:"resume" validate:"required,url"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty"`
	Reallocate bool   `json:"reallocate"`
}

// Validate validates the ApplicationRequest.
func (r *ApplicationRequest) Validate() error {
	return validateStruct(r)
}

// InviteRequest lists candidates to invite to apply for a JD.
type InviteRequest struct {
	CandidateIDs []string `json:"candidateIds" validate:"required,min=1,dive,uuid"`
}

// Validate validates the InviteRequest.
func (r *InviteRequest) Validate() error {
	return validateStruct(r)
}
