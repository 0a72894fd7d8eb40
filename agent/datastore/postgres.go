package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository implements Repository on the Supabase Postgres database.
type PostgresRepository struct {
	db  bun.IDB
	now func() time.Time
}

type RepositoryOption func(*PostgresRepository)

func WithClock(now func() time.Time) RepositoryOption {
	return func(r *PostgresRepository) {
		if now != nil {
			r.now = now
		}
	}
}

func NewPostgresRepository(db bun.IDB, opts ...RepositoryOption) (*PostgresRepository, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	r := &PostgresRepository{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contains(v string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(v)) + "%"
}

// ---- schools

func (r *PostgresRepository) schoolSearchQuery(f SchoolFilter, dest *[]School) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest).OrderExpr("s.name ASC").Limit(clampLimit(f.Limit))
	if v := strings.TrimSpace(f.Query); v != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("s.name ILIKE ?", contains(v)).WhereOr("s.email ILIKE ?", contains(v))
		})
	}
	if v := strings.TrimSpace(f.City); v != "" {
		q = q.Where("s.city ILIKE ?", contains(v))
	}
	if v := strings.TrimSpace(f.State); v != "" {
		q = q.Where("s.state = ?", strings.ToUpper(v))
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("s.status = ?", v)
	}
	return q
}

func (r *PostgresRepository) SearchSchools(ctx context.Context, f SchoolFilter) ([]School, error) {
	rows := []School{}
	if err := r.schoolSearchQuery(f, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search schools: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) GetSchool(ctx context.Context, id string) (*School, error) {
	return getByID[School](ctx, r.db, id)
}

func (r *PostgresRepository) SetSchoolStatus(ctx context.Context, id, status string) (StatusChange, error) {
	return r.setStatus(ctx, new(School), id, status, OrganizationTransitions)
}

func (r *PostgresRepository) SchoolStats(ctx context.Context) (Stats, error) {
	return r.countByStatus(ctx, (*School)(nil))
}

// ---- companies

func (r *PostgresRepository) companySearchQuery(f CompanyFilter, dest *[]Company) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest).OrderExpr("co.name ASC").Limit(clampLimit(f.Limit))
	if v := strings.TrimSpace(f.Query); v != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("co.name ILIKE ?", contains(v)).WhereOr("co.cnpj ILIKE ?", contains(v))
		})
	}
	if v := strings.TrimSpace(f.City); v != "" {
		q = q.Where("co.city ILIKE ?", contains(v))
	}
	if v := strings.TrimSpace(f.Industry); v != "" {
		q = q.Where("co.industry ILIKE ?", contains(v))
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("co.status = ?", v)
	}
	return q
}

func (r *PostgresRepository) SearchCompanies(ctx context.Context, f CompanyFilter) ([]Company, error) {
	rows := []Company{}
	if err := r.companySearchQuery(f, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) GetCompany(ctx context.Context, id string) (*Company, error) {
	return getByID[Company](ctx, r.db, id)
}

func (r *PostgresRepository) SetCompanyStatus(ctx context.Context, id, status string) (StatusChange, error) {
	return r.setStatus(ctx, new(Company), id, status, OrganizationTransitions)
}

func (r *PostgresRepository) CompanyStats(ctx context.Context) (Stats, error) {
	return r.countByStatus(ctx, (*Company)(nil))
}

// ---- jobs

func (r *PostgresRepository) jobSearchQuery(f JobFilter, dest *[]Job) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest).OrderExpr("j.created_at DESC").Limit(clampLimit(f.Limit))
	if v := strings.TrimSpace(f.Query); v != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("j.title ILIKE ?", contains(v)).WhereOr("j.description ILIKE ?", contains(v))
		})
	}
	if v := strings.TrimSpace(f.CompanyID); v != "" {
		q = q.Where("j.company_id = ?", v)
	}
	if v := strings.TrimSpace(f.City); v != "" {
		q = q.Where("j.city ILIKE ?", contains(v))
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("j.status = ?", v)
	}
	return q
}

func (r *PostgresRepository) SearchJobs(ctx context.Context, f JobFilter) ([]Job, error) {
	rows := []Job{}
	if err := r.jobSearchQuery(f, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	return getByID[Job](ctx, r.db, id)
}

func (r *PostgresRepository) SetJobStatus(ctx context.Context, id, status string) (StatusChange, error) {
	return r.setStatus(ctx, new(Job), id, status, JobTransitions)
}

func (r *PostgresRepository) JobStats(ctx context.Context) (Stats, error) {
	return r.countByStatus(ctx, (*Job)(nil))
}

// ---- candidates

func (r *PostgresRepository) candidateSearchQuery(f CandidateFilter, dest *[]Candidate) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest).OrderExpr("ca.full_name ASC").Limit(clampLimit(f.Limit))
	if v := strings.TrimSpace(f.Query); v != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("ca.full_name ILIKE ?", contains(v)).
				WhereOr("ca.email ILIKE ?", contains(v)).
				WhereOr("ca.course ILIKE ?", contains(v))
		})
	}
	if v := strings.TrimSpace(f.City); v != "" {
		q = q.Where("ca.city ILIKE ?", contains(v))
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("ca.status = ?", v)
	}
	if v := strings.TrimSpace(f.SchoolID); v != "" {
		q = q.Where("ca.school_id = ?", v)
	}
	return q
}

func (r *PostgresRepository) SearchCandidates(ctx context.Context, f CandidateFilter) ([]Candidate, error) {
	rows := []Candidate{}
	if err := r.candidateSearchQuery(f, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	return getByID[Candidate](ctx, r.db, id)
}

func (r *PostgresRepository) CandidateStats(ctx context.Context) (Stats, error) {
	return r.countByStatus(ctx, (*Candidate)(nil))
}

// ---- applications

func (r *PostgresRepository) applicationSearchQuery(f ApplicationFilter, dest *[]Application) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest).OrderExpr("a.created_at DESC").Limit(clampLimit(f.Limit))
	if v := strings.TrimSpace(f.JobID); v != "" {
		q = q.Where("a.job_id = ?", v)
	}
	if v := strings.TrimSpace(f.CandidateID); v != "" {
		q = q.Where("a.candidate_id = ?", v)
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("a.status = ?", v)
	}
	return q
}

func (r *PostgresRepository) SearchApplications(ctx context.Context, f ApplicationFilter) ([]Application, error) {
	rows := []Application{}
	if err := r.applicationSearchQuery(f, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search applications: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) GetApplication(ctx context.Context, id string) (*Application, error) {
	return getByID[Application](ctx, r.db, id)
}

func (r *PostgresRepository) SetApplicationStatus(ctx context.Context, id, status string) (StatusChange, error) {
	return r.setStatus(ctx, new(Application), id, status, ApplicationTransitions)
}

func (r *PostgresRepository) ApplicationStats(ctx context.Context) (Stats, error) {
	return r.countByStatus(ctx, (*Application)(nil))
}

// ---- contracts

func (r *PostgresRepository) contractSearchQuery(f ContractFilter, dest *[]Contract) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest).OrderExpr("ct.start_date DESC").Limit(clampLimit(f.Limit))
	if v := strings.TrimSpace(f.CompanyID); v != "" {
		q = q.Where("ct.company_id = ?", v)
	}
	if v := strings.TrimSpace(f.CandidateID); v != "" {
		q = q.Where("ct.candidate_id = ?", v)
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("ct.status = ?", v)
	}
	return q
}

func (r *PostgresRepository) SearchContracts(ctx context.Context, f ContractFilter) ([]Contract, error) {
	rows := []Contract{}
	if err := r.contractSearchQuery(f, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search contracts: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) GetContract(ctx context.Context, id string) (*Contract, error) {
	return getByID[Contract](ctx, r.db, id)
}

func (r *PostgresRepository) expiringContractsQuery(withinDays int, dest *[]Contract) *bun.SelectQuery {
	now := r.now().UTC()
	return r.db.NewSelect().
		Model(dest).
		Where("ct.status = ?", ContractActive).
		Where("ct.end_date IS NOT NULL").
		Where("ct.end_date BETWEEN ? AND ?", now, now.AddDate(0, 0, withinDays)).
		OrderExpr("ct.end_date ASC").
		Limit(maxLimit)
}

func (r *PostgresRepository) ExpiringContracts(ctx context.Context, withinDays int) ([]Contract, error) {
	if withinDays <= 0 {
		return nil, fmt.Errorf("expiring contracts: days must be positive, got %d", withinDays)
	}
	rows := []Contract{}
	if err := r.expiringContractsQuery(withinDays, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("expiring contracts: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) ContractStats(ctx context.Context) (Stats, error) {
	return r.countByStatus(ctx, (*Contract)(nil))
}

// ---- payments

func (r *PostgresRepository) paymentSearchQuery(f PaymentFilter, dest *[]Payment) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest).OrderExpr("p.due_date DESC").Limit(clampLimit(f.Limit))
	if v := strings.TrimSpace(f.CompanyID); v != "" {
		q = q.Where("p.company_id = ?", v)
	}
	if v := strings.TrimSpace(f.ContractID); v != "" {
		q = q.Where("p.contract_id = ?", v)
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("p.status = ?", v)
	}
	return q
}

func (r *PostgresRepository) SearchPayments(ctx context.Context, f PaymentFilter) ([]Payment, error) {
	rows := []Payment{}
	if err := r.paymentSearchQuery(f, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search payments: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) GetPayment(ctx context.Context, id string) (*Payment, error) {
	return getByID[Payment](ctx, r.db, id)
}

// overduePaymentsQuery matches rows already flagged overdue and pending rows past their due date.
func (r *PostgresRepository) overduePaymentsQuery(limit int, dest *[]Payment) *bun.SelectQuery {
	now := r.now().UTC()
	return r.db.NewSelect().
		Model(dest).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("p.status = ?", PaymentOverdue).
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("p.status = ?", PaymentPending).Where("p.due_date < ?", now)
				})
		}).
		OrderExpr("p.due_date ASC").
		Limit(clampLimit(limit))
}

func (r *PostgresRepository) OverduePayments(ctx context.Context, limit int) ([]Payment, error) {
	rows := []Payment{}
	if err := r.overduePaymentsQuery(limit, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("overdue payments: %w", err)
	}
	return rows, nil
}

type paymentStatusRow struct {
	Status string  `bun:"status"`
	Count  int     `bun:"count"`
	Amount float64 `bun:"amount"`
}

func (r *PostgresRepository) PaymentStats(ctx context.Context) (PaymentStats, error) {
	var rows []paymentStatusRow
	err := r.db.NewSelect().
		Model((*Payment)(nil)).
		Column("status").
		ColumnExpr("count(*) AS count").
		ColumnExpr("coalesce(sum(p.amount), 0) AS amount").
		Group("status").
		Order("status").
		Scan(ctx, &rows)
	if err != nil {
		return PaymentStats{}, fmt.Errorf("payment stats: %w", err)
	}

	out := PaymentStats{Stats: Stats{ByStatus: map[string]int{}}}
	for _, row := range rows {
		out.Total += row.Count
		out.ByStatus[row.Status] = row.Count
		out.TotalAmount += row.Amount
		switch row.Status {
		case PaymentPaid:
			out.PaidAmount += row.Amount
		case PaymentPending:
			out.PendingAmount += row.Amount
		case PaymentOverdue:
			out.OverdueAmount += row.Amount
		}
	}
	return out, nil
}

// ---- feedback

func (r *PostgresRepository) feedbackSearchQuery(f FeedbackFilter, dest *[]Feedback) *bun.SelectQuery {
	q := r.db.NewSelect().Model(dest).OrderExpr("f.created_at DESC").Limit(clampLimit(f.Limit))
	if v := strings.TrimSpace(f.CompanyID); v != "" {
		q = q.Where("f.company_id = ?", v)
	}
	if v := strings.TrimSpace(f.CandidateID); v != "" {
		q = q.Where("f.candidate_id = ?", v)
	}
	if v := strings.TrimSpace(f.AuthorType); v != "" {
		q = q.Where("f.author_type = ?", v)
	}
	if f.MinRating > 0 {
		q = q.Where("f.rating >= ?", f.MinRating)
	}
	return q
}

func (r *PostgresRepository) SearchFeedback(ctx context.Context, f FeedbackFilter) ([]Feedback, error) {
	rows := []Feedback{}
	if err := r.feedbackSearchQuery(f, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("search feedback: %w", err)
	}
	return rows, nil
}

func (r *PostgresRepository) GetFeedback(ctx context.Context, id string) (*Feedback, error) {
	return getByID[Feedback](ctx, r.db, id)
}

type feedbackRatingRow struct {
	Rating     int    `bun:"rating"`
	AuthorType string `bun:"author_type"`
	Count      int    `bun:"count"`
}

func (r *PostgresRepository) FeedbackStats(ctx context.Context) (FeedbackStats, error) {
	var rows []feedbackRatingRow
	err := r.db.NewSelect().
		Model((*Feedback)(nil)).
		Column("rating", "author_type").
		ColumnExpr("count(*) AS count").
		Group("rating", "author_type").
		Scan(ctx, &rows)
	if err != nil {
		return FeedbackStats{}, fmt.Errorf("feedback stats: %w", err)
	}
	return summarizeFeedback(rows), nil
}

func summarizeFeedback(rows []feedbackRatingRow) FeedbackStats {
	out := FeedbackStats{
		ByRating:     map[string]int{},
		ByAuthorType: map[string]int{},
	}
	sum := 0
	for _, row := range rows {
		out.Total += row.Count
		sum += row.Rating * row.Count
		out.ByRating[strconv.Itoa(row.Rating)] += row.Count
		out.ByAuthorType[row.AuthorType] += row.Count
	}
	if out.Total > 0 {
		out.AverageRating = float64(sum) / float64(out.Total)
	}
	return out
}

// ---- shared helpers

func getByID[T any](ctx context.Context, db bun.IDB, id string) (*T, error) {
	row := new(T)
	err := db.NewSelect().Model(row).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %T: %w", row, err)
	}
	return row, nil
}

func (r *PostgresRepository) statusUpdateQuery(model any, id, target string, from []string) *bun.UpdateQuery {
	return r.db.NewUpdate().
		Model(model).
		Set("status = ?", target).
		Set("updated_at = ?", r.now().UTC()).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status IN (?)", bun.In(from)).
		Returning("status")
}

// setStatus moves a row to target in one conditional UPDATE. When no row is
// updated the current status decides between not found, idempotent no-op and
// conflict.
func (r *PostgresRepository) setStatus(ctx context.Context, model any, id, target string, rules Transitions) (StatusChange, error) {
	from := rules.Predecessors(target)
	if len(from) == 0 {
		return StatusChange{}, fmt.Errorf("%w: %q is not a reachable status", ErrStatusConflict, target)
	}

	var updated string
	err := r.statusUpdateQuery(model, id, target, from).Scan(ctx, &updated)
	if err == nil {
		return StatusChange{ID: id, Status: updated, Changed: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return StatusChange{}, fmt.Errorf("update status: %w", err)
	}

	var current string
	err = r.db.NewSelect().Model(model).Column("status").Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx, &current)
	return unchangedStatus(id, target, current, err)
}

// unchangedStatus explains an UPDATE that matched no row, given the row's
// current status and the error from reading it.
func unchangedStatus(id, target, current string, readErr error) (StatusChange, error) {
	if errors.Is(readErr, sql.ErrNoRows) {
		return StatusChange{}, fmt.Errorf("%w: id=%s", ErrNotFound, id)
	}
	if readErr != nil {
		return StatusChange{}, fmt.Errorf("read status: %w", readErr)
	}
	if current == target {
		return StatusChange{ID: id, Status: current, Changed: false}, nil
	}
	return StatusChange{}, fmt.Errorf("%w: %s -> %s", ErrStatusConflict, current, target)
}

type statusCountRow struct {
	Status string `bun:"status"`
	Count  int    `bun:"count"`
}

func (r *PostgresRepository) statusCountQuery(model any) *bun.SelectQuery {
	return r.db.NewSelect().
		Model(model).
		Column("status").
		ColumnExpr("count(*) AS count").
		Group("status").
		Order("status")
}

func (r *PostgresRepository) countByStatus(ctx context.Context, model any) (Stats, error) {
	var rows []statusCountRow
	if err := r.statusCountQuery(model).Scan(ctx, &rows); err != nil {
		return Stats{}, fmt.Errorf("count by status: %w", err)
	}
	out := Stats{ByStatus: make(map[string]int, len(rows))}
	for _, row := range rows {
		out.Total += row.Count
		out.ByStatus[row.Status] = row.Count
	}
	return out, nil
}
