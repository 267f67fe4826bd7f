package model

import "time"

type OrganizationStatus string

const (
	OrganizationPending   OrganizationStatus = "pending"
	OrganizationActive    OrganizationStatus = "active"
	OrganizationSuspended OrganizationStatus = "suspended"
)

var OrganizationStatuses = []string{string(OrganizationPending), string(OrganizationActive), string(OrganizationSuspended)}

type Enterprise struct {
	ID        string             `json:"id,omitempty"`
	Name      string             `json:"name" validate:"required"`
	Sector    string             `json:"sector,omitempty"`
	Email     string             `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string             `json:"phone,omitempty"`
	Website   string             `json:"website,omitempty" validate:"omitempty,url"`
	Address   string             `json:"address,omitempty"`
	Size      string             `json:"size,omitempty"`
	Status    OrganizationStatus `json:"status,omitempty"`
	CreatedAt time.Time          `json:"createdAt,omitzero"`
	UpdatedAt time.Time          `json:"updatedAt,omitzero"`
}

func (e Enterprise) EntityID() string { return e.ID }

func (e Enterprise) Timestamps() (time.Time, time.Time) { return e.CreatedAt, e.UpdatedAt }

// Center is a training center hosting formations.
type Center struct {
	ID            string             `json:"id,omitempty"`
	Name          string             `json:"name" validate:"required"`
	City          string             `json:"city,omitempty"`
	Address       string             `json:"address,omitempty"`
	Email         string             `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string             `json:"phone,omitempty"`
	Accreditation string             `json:"accreditation,omitempty"`
	Status        OrganizationStatus `json:"status,omitempty"`
	CreatedAt     time.Time          `json:"createdAt,omitzero"`
	UpdatedAt     time.Time          `json:"updatedAt,omitzero"`
}

func (c Center) EntityID() string { return c.ID }

func (c Center) Timestamps() (time.Time, time.Time) { return c.CreatedAt, c.UpdatedAt }

type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
	JobFilled JobStatus = "filled"
)

var JobStatuses = []string{string(JobOpen), string(JobClosed), string(JobFilled)}

// Job is an offer published on the job board by an enterprise.
type Job struct {
	ID           string     `json:"id,omitempty"`
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description,omitempty"`
	EnterpriseID string     `json:"enterpriseId,omitempty"`
	Location     string     `json:"location,omitempty"`
	ContractType string     `json:"contractType,omitempty" validate:"omitempty,oneof=cdi cdd internship freelance apprenticeship"`
	SalaryMin    int        `json:"salaryMin,omitempty" validate:"gte=0"`
	SalaryMax    int        `json:"salaryMax,omitempty" validate:"omitempty,gtefield=SalaryMin"`
	Skills       []string   `json:"skills,omitempty"`
	Status       JobStatus  `json:"status,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CreatedAt    time.Time  `json:"createdAt,omitzero"`
	UpdatedAt    time.Time  `json:"updatedAt,omitzero"`
}

func (j Job) EntityID() string { return j.ID }

func (j Job) Timestamps() (time.Time, time.Time) { return j.CreatedAt, j.UpdatedAt }
