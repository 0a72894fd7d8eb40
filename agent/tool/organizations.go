package tool

import (
	"context"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/agent/datastore"
)

type SearchSchoolsArgs struct {
	Query  string `json:"query,omitempty" desc:"Part of the school name or e-mail"`
	City   string `json:"city,omitempty" desc:"City name, e.g. Campinas"`
	State  string `json:"state,omitempty" desc:"Two-letter state code, e.g. SP"`
	Status string `json:"status,omitempty" enum:"pending,active,suspended" desc:"Onboarding status"`
	Limit  int    `json:"limit,omitempty" desc:"Maximum number of results (default 20, max 100)"`
}

type SchoolIDArgs struct {
	SchoolID string `json:"school_id" desc:"School UUID"`
}

func (a SchoolIDArgs) Validate() error { return checkUUID("school_id", a.SchoolID) }

type SearchCompaniesArgs struct {
	Query    string `json:"query,omitempty" desc:"Part of the company name or CNPJ"`
	City     string `json:"city,omitempty" desc:"City name, e.g. São Paulo"`
	Industry string `json:"industry,omitempty" desc:"Industry or sector"`
	Status   string `json:"status,omitempty" enum:"pending,active,suspended" desc:"Onboarding status"`
	Limit    int    `json:"limit,omitempty" desc:"Maximum number of results (default 20, max 100)"`
}

type CompanyIDArgs struct {
	CompanyID string `json:"company_id" desc:"Company UUID"`
}

func (a CompanyIDArgs) Validate() error { return checkUUID("company_id", a.CompanyID) }

func (b *builder) registerSchools() {
	add(b, "search_schools", "Search partner schools by name, city, state or status.", false, b.h.searchSchools)
	add(b, "get_school_details", "Get the full record of one school.", false, b.h.getSchool)
	add(b, "approve_school", "Approve a pending or suspended school, making it active.", true, b.h.approveSchool)
	add(b, "suspend_school", "Suspend a school.", true, b.h.suspendSchool)
	add(b, "get_school_stats", "Count schools by status.", false, b.h.schoolStats)
}

func (b *builder) registerCompanies() {
	add(b, "search_companies", "Search client companies by name, CNPJ, city, industry or status.", false, b.h.searchCompanies)
	add(b, "get_company_details", "Get the full record of one company.", false, b.h.getCompany)
	add(b, "approve_company", "Approve a pending or suspended company, making it active.", true, b.h.approveCompany)
	add(b, "suspend_company", "Suspend a company.", true, b.h.suspendCompany)
	add(b, "get_company_stats", "Count companies by status.", false, b.h.companyStats)
}

func (h handlers) searchSchools(ctx context.Context, a SearchSchoolsArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SearchSchools(ctx, datastore.SchoolFilter{
		Query:  a.Query,
		City:   a.City,
		State:  a.State,
		Status: a.Status,
		Limit:  a.Limit,
	})
}

func (h handlers) getSchool(ctx context.Context, a SchoolIDArgs, _ *contractx.Caller) (any, error) {
	school, err := h.repo.GetSchool(ctx, a.SchoolID)
	return detail(a.SchoolID, school, err)
}

func (h handlers) approveSchool(ctx context.Context, a SchoolIDArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SetSchoolStatus(ctx, a.SchoolID, datastore.StatusActive)
}

func (h handlers) suspendSchool(ctx context.Context, a SchoolIDArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SetSchoolStatus(ctx, a.SchoolID, datastore.StatusSuspended)
}

func (h handlers) schoolStats(ctx context.Context, _ NoArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SchoolStats(ctx)
}

func (h handlers) searchCompanies(ctx context.Context, a SearchCompaniesArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SearchCompanies(ctx, datastore.CompanyFilter{
		Query:    a.Query,
		City:     a.City,
		Industry: a.Industry,
		Status:   a.Status,
		Limit:    a.Limit,
	})
}

func (h handlers) getCompany(ctx context.Context, a CompanyIDArgs, _ *contractx.Caller) (any, error) {
	company, err := h.repo.GetCompany(ctx, a.CompanyID)
	return detail(a.CompanyID, company, err)
}

func (h handlers) approveCompany(ctx context.Context, a CompanyIDArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SetCompanyStatus(ctx, a.CompanyID, datastore.StatusActive)
}

func (h handlers) suspendCompany(ctx context.Context, a CompanyIDArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SetCompanyStatus(ctx, a.CompanyID, datastore.StatusSuspended)
}

func (h handlers) companyStats(ctx context.Context, _ NoArgs, _ *contractx.Caller) (any, error) {
	return h.repo.CompanyStats(ctx)
}
