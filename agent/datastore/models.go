package datastore

import (
	"time"

	"github.com/uptrace/bun"
)

type School struct {
	bun.BaseModel `bun:"table:schools,alias:s"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name" json:"name"`
	Email     string    `bun:"email" json:"email,omitempty"`
	City      string    `bun:"city" json:"city"`
	State     string    `bun:"state" json:"state"`
	Status    string    `bun:"status" json:"status"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}

type Company struct {
	bun.BaseModel `bun:"table:companies,alias:co"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name" json:"name"`
	CNPJ      string    `bun:"cnpj" json:"cnpj,omitempty"`
	Industry  string    `bun:"industry" json:"industry,omitempty"`
	Email     string    `bun:"email" json:"email,omitempty"`
	City      string    `bun:"city" json:"city"`
	State     string    `bun:"state" json:"state"`
	Status    string    `bun:"status" json:"status"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}

type Candidate struct {
	bun.BaseModel `bun:"table:candidates,alias:ca"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	FullName  string    `bun:"full_name" json:"full_name"`
	Email     string    `bun:"email" json:"email,omitempty"`
	Phone     string    `bun:"phone" json:"phone,omitempty"`
	City      string    `bun:"city" json:"city"`
	State     string    `bun:"state" json:"state"`
	SchoolID  *string   `bun:"school_id,type:uuid" json:"school_id,omitempty"`
	Course    string    `bun:"course" json:"course,omitempty"`
	Status    string    `bun:"status" json:"status"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}

type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID          string    `bun:"id,pk,type:uuid" json:"id"`
	CompanyID   string    `bun:"company_id,type:uuid" json:"company_id"`
	Title       string    `bun:"title" json:"title"`
	Description string    `bun:"description" json:"description,omitempty"`
	City        string    `bun:"city" json:"city"`
	WorkMode    string    `bun:"work_mode" json:"work_mode,omitempty"`
	Salary      float64   `bun:"salary" json:"salary"`
	Vacancies   int       `bun:"vacancies" json:"vacancies"`
	Status      string    `bun:"status" json:"status"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at" json:"updated_at"`
}

type Application struct {
	bun.BaseModel `bun:"table:applications,alias:a"`

	ID          string    `bun:"id,pk,type:uuid" json:"id"`
	JobID       string    `bun:"job_id,type:uuid" json:"job_id"`
	CandidateID string    `bun:"candidate_id,type:uuid" json:"candidate_id"`
	Status      string    `bun:"status" json:"status"`
	Notes       string    `bun:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at" json:"updated_at"`
}

type Contract struct {
	bun.BaseModel `bun:"table:contracts,alias:ct"`

	ID            string     `bun:"id,pk,type:uuid" json:"id"`
	ApplicationID *string    `bun:"application_id,type:uuid" json:"application_id,omitempty"`
	CandidateID   string     `bun:"candidate_id,type:uuid" json:"candidate_id"`
	CompanyID     string     `bun:"company_id,type:uuid" json:"company_id"`
	StartDate     time.Time  `bun:"start_date" json:"start_date"`
	EndDate       *time.Time `bun:"end_date" json:"end_date,omitempty"`
	MonthlyValue  float64    `bun:"monthly_value" json:"monthly_value"`
	Status        string     `bun:"status" json:"status"`
	CreatedAt     time.Time  `bun:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at" json:"updated_at"`
}

type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:p"`

	ID         string     `bun:"id,pk,type:uuid" json:"id"`
	ContractID string     `bun:"contract_id,type:uuid" json:"contract_id"`
	CompanyID  string     `bun:"company_id,type:uuid" json:"company_id"`
	Amount     float64    `bun:"amount" json:"amount"`
	DueDate    time.Time  `bun:"due_date" json:"due_date"`
	PaidAt     *time.Time `bun:"paid_at" json:"paid_at,omitempty"`
	Status     string     `bun:"status" json:"status"`
	CreatedAt  time.Time  `bun:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bun:"updated_at" json:"updated_at"`
}

type Feedback struct {
	bun.BaseModel `bun:"table:feedback,alias:f"`

	ID          string    `bun:"id,pk,type:uuid" json:"id"`
	ContractID  *string   `bun:"contract_id,type:uuid" json:"contract_id,omitempty"`
	CandidateID string    `bun:"candidate_id,type:uuid" json:"candidate_id"`
	CompanyID   string    `bun:"company_id,type:uuid" json:"company_id"`
	AuthorType  string    `bun:"author_type" json:"author_type"`
	Rating      int       `bun:"rating" json:"rating"`
	Comment     string    `bun:"comment" json:"comment,omitempty"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
}
