package tool

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/agent/datastore"
)

type SearchContractsArgs struct {
	CompanyID   string `json:"company_id,omitempty" desc:"Only contracts of this company (UUID)"`
	CandidateID string `json:"candidate_id,omitempty" desc:"Only contracts of this candidate (UUID)"`
	Status      string `json:"status,omitempty" enum:"draft,active,completed,terminated" desc:"Contract status"`
	Limit       int    `json:"limit,omitempty" desc:"Maximum number of results (default 20, max 100)"`
}

func (a SearchContractsArgs) Validate() error {
	if err := checkOptionalUUID("company_id", a.CompanyID); err != nil {
		return err
	}
	return checkOptionalUUID("candidate_id", a.CandidateID)
}

type ContractIDArgs struct {
	ContractID string `json:"contract_id" desc:"Contract UUID"`
}

func (a ContractIDArgs) Validate() error { return checkUUID("contract_id", a.ContractID) }

type ExpiringContractsArgs struct {
	Days int `json:"days,omitempty" desc:"Look-ahead window in days (default 30, max 365)"`
}

func (a ExpiringContractsArgs) Validate() error {
	if a.Days < 0 || a.Days > maxExpiringDays {
		return fmt.Errorf("days must be between 0 and %d", maxExpiringDays)
	}
	return nil
}

type SearchPaymentsArgs struct {
	CompanyID  string `json:"company_id,omitempty" desc:"Only payments of this company (UUID)"`
	ContractID string `json:"contract_id,omitempty" desc:"Only payments of this contract (UUID)"`
	Status     string `json:"status,omitempty" enum:"pending,paid,overdue,cancelled" desc:"Payment status"`
	Limit      int    `json:"limit,omitempty" desc:"Maximum number of results (default 20, max 100)"`
}

func (a SearchPaymentsArgs) Validate() error {
	if err := checkOptionalUUID("company_id", a.CompanyID); err != nil {
		return err
	}
	return checkOptionalUUID("contract_id", a.ContractID)
}

type PaymentIDArgs struct {
	PaymentID string `json:"payment_id" desc:"Payment UUID"`
}

func (a PaymentIDArgs) Validate() error { return checkUUID("payment_id", a.PaymentID) }

type OverduePaymentsArgs struct {
	Limit int `json:"limit,omitempty" desc:"Maximum number of results (default 20, max 100)"`
}

type SearchFeedbackArgs struct {
	CompanyID   string `json:"company_id,omitempty" desc:"Only feedback about this company (UUID)"`
	CandidateID string `json:"candidate_id,omitempty" desc:"Only feedback about this candidate (UUID)"`
	AuthorType  string `json:"author_type,omitempty" enum:"company,candidate,school" desc:"Who wrote the feedback"`
	MinRating   int    `json:"min_rating,omitempty" desc:"Minimum rating from 1 to 5"`
	Limit       int    `json:"limit,omitempty" desc:"Maximum number of results (default 20, max 100)"`
}

func (a SearchFeedbackArgs) Validate() error {
	if err := checkOptionalUUID("company_id", a.CompanyID); err != nil {
		return err
	}
	return checkOptionalUUID("candidate_id", a.CandidateID)
}

type FeedbackIDArgs struct {
	FeedbackID string `json:"feedback_id" desc:"Feedback UUID"`
}

func (a FeedbackIDArgs) Validate() error { return checkUUID("feedback_id", a.FeedbackID) }

const (
	defaultExpiringDays = 30
	maxExpiringDays     = 365
)

func (b *builder) registerContracts() {
	add(b, "search_contracts", "Search placement contracts by company, candidate or status.", false, b.h.searchContracts)
	add(b, "get_contract_details", "Get the full record of one contract.", false, b.h.getContract)
	add(b, "get_expiring_contracts", "List active contracts ending within the next days.", false, b.h.expiringContracts)
	add(b, "get_contract_stats", "Count contracts by status.", false, b.h.contractStats)
}

func (b *builder) registerPayments() {
	add(b, "search_payments", "Search payments by company, contract or status.", false, b.h.searchPayments)
	add(b, "get_payment_details", "Get the full record of one payment.", false, b.h.getPayment)
	add(b, "get_overdue_payments", "List payments that are past their due date.", false, b.h.overduePayments)
	add(b, "get_payment_stats", "Count payments by status and sum their amounts.", false, b.h.paymentStats)
}

func (b *builder) registerFeedback() {
	add(b, "search_feedback", "Search feedback by company, candidate, author or minimum rating.", false, b.h.searchFeedback)
	add(b, "get_feedback_details", "Get the full record of one feedback entry.", false, b.h.getFeedback)
	add(b, "get_feedback_stats", "Average rating and rating distribution.", false, b.h.feedbackStats)
}

func (h handlers) searchContracts(ctx context.Context, a SearchContractsArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SearchContracts(ctx, datastore.ContractFilter{
		CompanyID:   a.CompanyID,
		CandidateID: a.CandidateID,
		Status:      a.Status,
		Limit:       a.Limit,
	})
}

func (h handlers) getContract(ctx context.Context, a ContractIDArgs, _ *contractx.Caller) (any, error) {
	contract, err := h.repo.GetContract(ctx, a.ContractID)
	return detail(a.ContractID, contract, err)
}

func (h handlers) expiringContracts(ctx context.Context, a ExpiringContractsArgs, _ *contractx.Caller) (any, error) {
	days := a.Days
	if days <= 0 {
		days = defaultExpiringDays
	}
	return h.repo.ExpiringContracts(ctx, days)
}

func (h handlers) contractStats(ctx context.Context, _ NoArgs, _ *contractx.Caller) (any, error) {
	return h.repo.ContractStats(ctx)
}

func (h handlers) searchPayments(ctx context.Context, a SearchPaymentsArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SearchPayments(ctx, datastore.PaymentFilter{
		CompanyID:  a.CompanyID,
		ContractID: a.ContractID,
		Status:     a.Status,
		Limit:      a.Limit,
	})
}

func (h handlers) getPayment(ctx context.Context, a PaymentIDArgs, _ *contractx.Caller) (any, error) {
	payment, err := h.repo.GetPayment(ctx, a.PaymentID)
	return detail(a.PaymentID, payment, err)
}

func (h handlers) overduePayments(ctx context.Context, a OverduePaymentsArgs, _ *contractx.Caller) (any, error) {
	return h.repo.OverduePayments(ctx, a.Limit)
}

func (h handlers) paymentStats(ctx context.Context, _ NoArgs, _ *contractx.Caller) (any, error) {
	return h.repo.PaymentStats(ctx)
}

func (h handlers) searchFeedback(ctx context.Context, a SearchFeedbackArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SearchFeedback(ctx, datastore.FeedbackFilter{
		CompanyID:   a.CompanyID,
		CandidateID: a.CandidateID,
		AuthorType:  a.AuthorType,
		MinRating:   a.MinRating,
		Limit:       a.Limit,
	})
}

func (h handlers) getFeedback(ctx context.Context, a FeedbackIDArgs, _ *contractx.Caller) (any, error) {
	feedback, err := h.repo.GetFeedback(ctx, a.FeedbackID)
	return detail(a.FeedbackID, feedback, err)
}

func (h handlers) feedbackStats(ctx context.Context, _ NoArgs, _ *contractx.Caller) (any, error) {
	return h.repo.FeedbackStats(ctx)
}
