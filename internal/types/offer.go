// Package types provides the data model shared by the recruiting workflow: offers, job descriptions,
// candidates and the request payloads that mutate them.
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OfferStatus is the ordered lifecycle stage of an Offer.
type OfferStatus string

// Offer statuses in lifecycle order.
const (
	OfferStatusOpen       OfferStatus = "Open"
	OfferStatusJDPending  OfferStatus = "JD pending"
	OfferStatusJDCreated  OfferStatus = "JD created"
	OfferStatusInProgress OfferStatus = "In progress"
	OfferStatusClosed     OfferStatus = "Closed"
)

var offerStatusRank = map[OfferStatus]int{
	OfferStatusOpen:       0,
	OfferStatusJDPending:  1,
	OfferStatusJDCreated:  2,
	OfferStatusInProgress: 3,
	OfferStatusClosed:     4,
}

// Rank returns the position of the status in the lifecycle, or -1 for unknown values.
func (s OfferStatus) Rank() int {
	if r, ok := offerStatusRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the known statuses.
func (s OfferStatus) Valid() bool {
	return s.Rank() >= 0
}

// ParseOfferStatus converts a wire value into an OfferStatus.
func ParseOfferStatus(raw string) (OfferStatus, error) {
	s := OfferStatus(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown offer status %q", raw)}
	}
	return s, nil
}

// Priority of an Offer.
type Priority string

// Priority values.
const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// EmploymentType of an Offer.
type EmploymentType string

// Employment types.
const (
	EmploymentFullTime   EmploymentType = "Full-Time"
	EmploymentPartTime   EmploymentType = "Part-Time"
	EmploymentContract   EmploymentType = "Contract"
	EmploymentInternship EmploymentType = "Internship"
	EmploymentRemote     EmploymentType = "Remote"
)

// Offer is a staffing requisition opened by a requester and assigned to a recruiter.
type Offer struct {
	ID                uuid.UUID      `json:"id"`
	JobTitle          string         `json:"jobTitle"`
	Priority          Priority       `json:"priority"`
	Status            OfferStatus    `json:"status"`
	DueDate           *time.Time     `json:"dueDate,omitempty"`
	CreatedBy         uuid.UUID      `json:"createdBy"`
	AssignedTo        uuid.UUID      `json:"assignedTo"`
	Description       string         `json:"description,omitempty"`
	Skills            []string       `json:"skills"`
	PreferredSkills   []string       `json:"preferredSkills"`
	Experience        string         `json:"experience,omitempty"`
	PositionAvailable int            `json:"positionAvailable"`
	Location          string         `json:"location,omitempty"`
	City              string         `json:"city,omitempty"`
	State             string         `json:"state,omitempty"`
	Country           string         `json:"country,omitempty"`
	EmploymentType    EmploymentType `json:"employmentType,omitempty"`
	Salary            int64          `json:"salary,omitempty"`
	Currency          string         `json:"currency"`
	CompanyName       string         `json:"companyName,omitempty"`
	IsJDCreated       bool           `json:"isJDCreated"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// DefaultCurrency is applied when an Offer is created without a currency.
const DefaultCurrency = "INR"
