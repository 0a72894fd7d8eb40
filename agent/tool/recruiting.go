package tool

import (
	"context"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/agent/datastore"
)

type SearchJobsArgs struct {
	Query     string `json:"query,omitempty" desc:"Words from the job title or description"`
	CompanyID string `json:"company_id,omitempty" desc:"Only jobs of this company (UUID)"`
	City      string `json:"city,omitempty" desc:"City name, e.g. São Paulo"`
	Status    string `json:"status,omitempty" enum:"draft,open,paused,closed,filled" desc:"Job status"`
	Limit     int    `json:"limit,omitempty" desc:"Maximum number of results (default 20, max 100)"`
}

func (a SearchJobsArgs) Validate() error { return checkOptionalUUID("company_id", a.CompanyID) }

type JobIDArgs struct {
	JobID string `json:"job_id" desc:"Job UUID"`
}

func (a JobIDArgs) Validate() error { return checkUUID("job_id", a.JobID) }

type UpdateJobStatusArgs struct {
	JobID  string `json:"job_id" desc:"Job UUID"`
	Status string `json:"status" enum:"open,paused,closed,filled" desc:"New job status"`
}

func (a UpdateJobStatusArgs) Validate() error { return checkUUID("job_id", a.JobID) }

type SearchCandidatesArgs struct {
	City     string `json:"city,omitempty" desc:"City where the candidate lives, e.g. São Paulo"`
	Query    string `json:"query,omitempty" desc:"Part of the name, e-mail or course"`
	Status   string `json:"status,omitempty" enum:"active,inactive,placed" desc:"Candidate status"`
	SchoolID string `json:"school_id,omitempty" desc:"Only candidates of this school (UUID)"`
	Limit    int    `json:"limit,omitempty" desc:"Maximum number of results (default 20, max 100)"`
}

func (a SearchCandidatesArgs) Validate() error { return checkOptionalUUID("school_id", a.SchoolID) }

type CandidateIDArgs struct {
	CandidateID string `json:"candidate_id" desc:"Candidate UUID"`
}

func (a CandidateIDArgs) Validate() error { return checkUUID("candidate_id", a.CandidateID) }

type SearchApplicationsArgs struct {
	JobID       string `json:"job_id,omitempty" desc:"Only applications to this job (UUID)"`
	CandidateID string `json:"candidate_id,omitempty" desc:"Only applications of this candidate (UUID)"`
	Status      string `json:"status,omitempty" enum:"pending,reviewing,interview,approved,rejected,withdrawn" desc:"Application status"`
	Limit       int    `json:"limit,omitempty" desc:"Maximum number of results (default 20, max 100)"`
}

func (a SearchApplicationsArgs) Validate() error {
	if err := checkOptionalUUID("job_id", a.JobID); err != nil {
		return err
	}
	return checkOptionalUUID("candidate_id", a.CandidateID)
}

type ApplicationIDArgs struct {
	ApplicationID string `json:"application_id" desc:"Application UUID"`
}

func (a ApplicationIDArgs) Validate() error { return checkUUID("application_id", a.ApplicationID) }

type UpdateApplicationStatusArgs struct {
	ApplicationID string `json:"application_id" desc:"Application UUID"`
	Status        string `json:"status" enum:"reviewing,interview,approved,rejected,withdrawn" desc:"New application status"`
}

func (a UpdateApplicationStatusArgs) Validate() error {
	return checkUUID("application_id", a.ApplicationID)
}

func (b *builder) registerJobs() {
	add(b, "search_jobs", "Search job openings by text, company, city or status.", false, b.h.searchJobs)
	add(b, "get_job_details", "Get the full record of one job opening.", false, b.h.getJob)
	add(b, "update_job_status", "Change the status of a job opening.", true, b.h.updateJobStatus)
	add(b, "get_job_stats", "Count job openings by status.", false, b.h.jobStats)
}

func (b *builder) registerCandidates() {
	add(b, "search_candidates", "Search candidates by city, text, status or school.", false, b.h.searchCandidates)
	add(b, "get_candidate_details", "Get the full record of one candidate.", false, b.h.getCandidate)
	add(b, "get_candidate_stats", "Count candidates by status.", false, b.h.candidateStats)
}

func (b *builder) registerApplications() {
	add(b, "search_applications", "Search applications by job, candidate or status.", false, b.h.searchApplications)
	add(b, "get_application_details", "Get the full record of one application.", false, b.h.getApplication)
	add(b, "update_application_status", "Move an application forward in the selection process.", true, b.h.updateApplicationStatus)
	add(b, "get_application_stats", "Count applications by status.", false, b.h.applicationStats)
}

func (h handlers) searchJobs(ctx context.Context, a SearchJobsArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SearchJobs(ctx, datastore.JobFilter{
		Query:     a.Query,
		CompanyID: a.CompanyID,
		City:      a.City,
		Status:    a.Status,
		Limit:     a.Limit,
	})
}

func (h handlers) getJob(ctx context.Context, a JobIDArgs, _ *contractx.Caller) (any, error) {
	job, err := h.repo.GetJob(ctx, a.JobID)
	return detail(a.JobID, job, err)
}

func (h handlers) updateJobStatus(ctx context.Context, a UpdateJobStatusArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SetJobStatus(ctx, a.JobID, a.Status)
}

func (h handlers) jobStats(ctx context.Context, _ NoArgs, _ *contractx.Caller) (any, error) {
	return h.repo.JobStats(ctx)
}

func (h handlers) searchCandidates(ctx context.Context, a SearchCandidatesArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SearchCandidates(ctx, datastore.CandidateFilter{
		Query:    a.Query,
		City:     a.City,
		Status:   a.Status,
		SchoolID: a.SchoolID,
		Limit:    a.Limit,
	})
}

func (h handlers) getCandidate(ctx context.Context, a CandidateIDArgs, _ *contractx.Caller) (any, error) {
	candidate, err := h.repo.GetCandidate(ctx, a.CandidateID)
	return detail(a.CandidateID, candidate, err)
}

func (h handlers) candidateStats(ctx context.Context, _ NoArgs, _ *contractx.Caller) (any, error) {
	return h.repo.CandidateStats(ctx)
}

func (h handlers) searchApplications(ctx context.Context, a SearchApplicationsArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SearchApplications(ctx, datastore.ApplicationFilter{
		JobID:       a.JobID,
		CandidateID: a.CandidateID,
		Status:      a.Status,
		Limit:       a.Limit,
	})
}

func (h handlers) getApplication(ctx context.Context, a ApplicationIDArgs, _ *contractx.Caller) (any, error) {
	application, err := h.repo.GetApplication(ctx, a.ApplicationID)
	return detail(a.ApplicationID, application, err)
}

func (h handlers) updateApplicationStatus(ctx context.Context, a UpdateApplicationStatusArgs, _ *contractx.Caller) (any, error) {
	return h.repo.SetApplicationStatus(ctx, a.ApplicationID, a.Status)
}

func (h handlers) applicationStats(ctx context.Context, _ NoArgs, _ *contractx.Caller) (any, error) {
	return h.repo.ApplicationStats(ctx)
}
