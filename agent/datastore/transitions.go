package datastore

import "sort"

// Status values persisted in the status column of each table.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusInactive  = "inactive"
	StatusPlaced    = "placed"

	JobDraft  = "draft"
	JobOpen   = "open"
	JobPaused = "paused"
	JobClosed = "closed"
	JobFilled = "filled"

	ApplicationPending   = "pending"
	ApplicationReviewing = "reviewing"
	ApplicationInterview = "interview"
	ApplicationApproved  = "approved"
	ApplicationRejected  = "rejected"
	ApplicationWithdrawn = "withdrawn"

	ContractDraft      = "draft"
	ContractActive     = "active"
	ContractCompleted  = "completed"
	ContractTerminated = "terminated"

	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentOverdue   = "overdue"
	PaymentCancelled = "cancelled"
)

// Transitions maps a current status to the statuses it may move to.
type Transitions map[string][]string

var (
	// Schools and companies share the onboarding lifecycle.
	OrganizationTransitions = Transitions{
		StatusPending:   {StatusActive, StatusSuspended},
		StatusActive:    {StatusSuspended},
		StatusSuspended: {StatusActive},
	}

	JobTransitions = Transitions{
		JobDraft:  {JobOpen, JobClosed},
		JobOpen:   {JobPaused, JobClosed, JobFilled},
		JobPaused: {JobOpen, JobClosed},
	}

	ApplicationTransitions = Transitions{
		ApplicationPending:   {ApplicationReviewing, ApplicationRejected, ApplicationWithdrawn},
		ApplicationReviewing: {ApplicationInterview, ApplicationApproved, ApplicationRejected, ApplicationWithdrawn},
		ApplicationInterview: {ApplicationApproved, ApplicationRejected, ApplicationWithdrawn},
	}
)

// Predecessors returns the statuses from which target is reachable, sorted.
func (t Transitions) Predecessors(target string) []string {
	var out []string
	for from, tos := range t {
		for _, to := range tos {
			if to == target {
				out = append(out, from)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Targets lists every status reachable from some other status, sorted.
func (t Transitions) Targets() []string {
	seen := map[string]struct{}{}
	for _, tos := range t {
		for _, to := range tos {
			seen[to] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
