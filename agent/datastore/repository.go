package datastore

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrStatusConflict = errors.New("status transition not allowed")
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type SchoolFilter struct {
	Query  string
	City   string
	State  string
	Status string
	Limit  int
}

type CompanyFilter struct {
	Query    string
	City     string
	Industry string
	Status   string
	Limit    int
}

type JobFilter struct {
	Query     string
	CompanyID string
	City      string
	Status    string
	Limit     int
}

type CandidateFilter struct {
	Query    string
	City     string
	Status   string
	SchoolID string
	Limit    int
}

type ApplicationFilter struct {
	JobID       string
	CandidateID string
	Status      string
	Limit       int
}

type ContractFilter struct {
	CompanyID   string
	CandidateID string
	Status      string
	Limit       int
}

type PaymentFilter struct {
	CompanyID  string
	ContractID string
	Status     string
	Limit      int
}

type FeedbackFilter struct {
	CompanyID   string
	CandidateID string
	AuthorType  string
	MinRating   int
	Limit       int
}

// StatusChange reports the outcome of a conditional status update.
// Changed is false when the record already had the target status.
type StatusChange struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Changed bool   `json:"changed"`
}

type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

type PaymentStats struct {
	Stats
	TotalAmount   float64 `json:"total_amount"`
	PaidAmount    float64 `json:"paid_amount"`
	PendingAmount float64 `json:"pending_amount"`
	OverdueAmount float64 `json:"overdue_amount"`
}

type FeedbackStats struct {
	Total         int            `json:"total"`
	AverageRating float64        `json:"average_rating"`
	ByRating      map[string]int `json:"by_rating"`
	ByAuthorType  map[string]int `json:"by_author_type"`
}

// Repository is the narrow data-store boundary consumed by the tool handlers.
// Each method is one logical domain operation.
type Repository interface {
	SearchSchools(ctx context.Context, f SchoolFilter) ([]School, error)
	GetSchool(ctx context.Context, id string) (*School, error)
	SetSchoolStatus(ctx context.Context, id, status string) (StatusChange, error)
	SchoolStats(ctx context.Context) (Stats, error)

	SearchCompanies(ctx context.Context, f CompanyFilter) ([]Company, error)
	GetCompany(ctx context.Context, id string) (*Company, error)
	SetCompanyStatus(ctx context.Context, id, status string) (StatusChange, error)
	CompanyStats(ctx context.Context) (Stats, error)

	SearchJobs(ctx context.Context, f JobFilter) ([]Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	SetJobStatus(ctx context.Context, id, status string) (StatusChange, error)
	JobStats(ctx context.Context) (Stats, error)

	SearchCandidates(ctx context.Context, f CandidateFilter) ([]Candidate, error)
	GetCandidate(ctx context.Context, id string) (*Candidate, error)
	CandidateStats(ctx context.Context) (Stats, error)

	SearchApplications(ctx context.Context, f ApplicationFilter) ([]Application, error)
	GetApplication(ctx context.Context, id string) (*Application, error)
	SetApplicationStatus(ctx context.Context, id, status string) (StatusChange, error)
	ApplicationStats(ctx context.Context) (Stats, error)

	SearchContracts(ctx context.Context, f ContractFilter) ([]Contract, error)
	GetContract(ctx context.Context, id string) (*Contract, error)
	ExpiringContracts(ctx context.Context, withinDays int) ([]Contract, error)
	ContractStats(ctx context.Context) (Stats, error)

	SearchPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
	OverduePayments(ctx context.Context, limit int) ([]Payment, error)
	PaymentStats(ctx context.Context) (PaymentStats, error)

	SearchFeedback(ctx context.Context, f FeedbackFilter) ([]Feedback, error)
	GetFeedback(ctx context.Context, id string) (*Feedback, error)
	FeedbackStats(ctx context.Context) (FeedbackStats, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
