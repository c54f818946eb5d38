package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"captzio/internal/domain"
	"captzio/internal/providers/image"
	"captzio/internal/providers/payment"
	"captzio/internal/providers/text"
	"captzio/internal/queue"
)

// memStore is an in-memory stand-in for the postgres repositories. Its
// transaction support snapshots state and restores it when fn fails.
type memStore struct {
	mu           sync.Mutex
	accounts     map[string]domain.Account
	jobs         map[string]domain.GenerationJob
	captions     []domain.CaptionRecord
	transactions map[string]domain.Transaction
	usage        []domain.UsageLogEntry

	failCaptionCreate bool
	failJobFail       int
	failCredit        int
	failDebit         error
	clock             time.Time
}

func newMemStore() *memStore {
	return &memStore{
		accounts:     map[string]domain.Account{},
		jobs:         map[string]domain.GenerationJob{},
		transactions: map[string]domain.Transaction{},
		clock:        time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) repos() domain.Repositories {
	return domain.Repositories{
		Accounts:     memAccounts{m},
		Jobs:         memJobs{m},
		Captions:     memCaptions{m},
		Transactions: memTransactions{m},
		Usage:        memUsage{m},
		Stats:        memStats{m},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	m.mu.Lock()
	accounts := cloneMap(m.accounts)
	jobs := cloneMap(m.jobs)
	transactions := cloneMap(m.transactions)
	captions := append([]domain.CaptionRecord(nil), m.captions...)
	m.mu.Unlock()

	if err := fn(m.repos()); err != nil {
		m.mu.Lock()
		m.accounts, m.jobs, m.transactions, m.captions = accounts, jobs, transactions, captions
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) balance(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Credits
}

func (m *memStore) job(id string) domain.GenerationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

func (m *memStore) addAccount(a domain.Account) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Role == "" {
		a.Role = domain.RoleUser
	}
	m.accounts[a.ID] = a
	return &a
}

type memAccounts struct{ m *memStore }

func (r memAccounts) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if existing, ok := r.m.accounts[a.ID]; ok {
		return &existing, nil
	}
	stored := *a
	stored.CreatedAt, stored.UpdatedAt = r.m.clock, r.m.clock
	r.m.accounts[a.ID] = stored
	return &stored, nil
}

func (r memAccounts) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r memAccounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memAccounts) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.Account
	for _, a := range r.m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAccounts) SetRole(ctx context.Context, id string, role domain.Role) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Role = role
	r.m.accounts[id] = a
	return nil
}

func (r memAccounts) Debit(ctx context.Context, id string, n int) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failDebit != nil {
		return 0, r.m.failDebit
	}
	a, ok := r.m.accounts[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if a.Credits < n {
		return a.Credits, &domain.InsufficientCreditsError{Required: n, Available: a.Credits}
	}
	a.Credits -= n
	r.m.accounts[id] = a
	return a.Credits, nil
}

func (r memAccounts) Credit(ctx context.Context, id string, n int) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failCredit > 0 {
		r.m.failCredit--
		return 0, errors.New("connection reset")
	}
	a, ok := r.m.accounts[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	a.Credits += n
	r.m.accounts[id] = a
	return a.Credits, nil
}

func (r memAccounts) DebitClamped(ctx context.Context, id string, n int) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	a.Credits -= n
	if a.Credits < 0 {
		a.Credits = 0
	}
	r.m.accounts[id] = a
	return a.Credits, nil
}

type memJobs struct{ m *memStore }

func (r memJobs) Create(ctx context.Context, job *domain.GenerationJob) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	job.Status = domain.JobStatusPending
	job.CreatedAt, job.UpdatedAt = r.m.clock, r.m.clock
	r.m.jobs[job.ID] = *job
	return nil
}

func (r memJobs) GetForOwner(ctx context.Context, id, ownerID string) (*domain.GenerationJob, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	j, ok := r.m.jobs[id]
	if !ok || j.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &j, nil
}

func (r memJobs) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.GenerationJob, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.GenerationJob
	for _, j := range r.m.jobs {
		if j.OwnerID == ownerID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r memJobs) transition(id string, from []domain.JobStatus, to domain.JobStatus, mutate func(*domain.GenerationJob)) (*domain.GenerationJob, bool) {
	j, ok := r.m.jobs[id]
	if !ok {
		return nil, false
	}
	for _, s := range from {
		if j.Status == s {
			j.Status = to
			j.UpdatedAt = r.m.clock
			if mutate != nil {
				mutate(&j)
			}
			r.m.jobs[id] = j
			return &j, true
		}
	}
	return nil, false
}

func (r memJobs) MarkProcessing(ctx context.Context, id string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.transition(id, []domain.JobStatus{domain.JobStatusPending}, domain.JobStatusProcessing, nil)
	return ok, nil
}

func (r memJobs) Complete(ctx context.Context, id, resultURL string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.transition(id, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusProcessing}, domain.JobStatusCompleted,
		func(j *domain.GenerationJob) { j.ResultURL = resultURL })
	return ok, nil
}

func (r memJobs) Fail(ctx context.Context, id, message string) (*domain.GenerationJob, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failJobFail > 0 {
		r.m.failJobFail--
		return nil, errors.New("connection reset")
	}
	j, _ := r.transition(id, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusProcessing}, domain.JobStatusFailed,
		func(j *domain.GenerationJob) { j.ErrorMessage = message })
	return j, nil
}

func (r memJobs) ListStale(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.GenerationJob, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.GenerationJob
	for _, j := range r.m.jobs {
		if !j.Status.Terminal() && j.UpdatedAt.Before(updatedBefore) {
			out = append(out, j)
		}
	}
	return out, nil
}

type memCaptions struct{ m *memStore }

func (r memCaptions) Create(ctx context.Context, rec *domain.CaptionRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failCaptionCreate {
		return errors.New("disk full")
	}
	rec.CreatedAt = r.m.clock
	r.m.captions = append(r.m.captions, *rec)
	return nil
}

func (r memCaptions) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.CaptionRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.CaptionRecord
	for _, c := range r.m.captions {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memTransactions struct{ m *memStore }

func (r memTransactions) Create(ctx context.Context, txn *domain.Transaction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	txn.Status = domain.TransactionPending
	r.m.transactions[txn.ID] = *txn
	return nil
}

func (r memTransactions) SetPreference(ctx context.Context, id, preferenceID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t := r.m.transactions[id]
	t.PreferenceID = preferenceID
	r.m.transactions[id] = t
	return nil
}

func (r memTransactions) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r memTransactions) Transition(ctx context.Context, id string, from, to domain.TransactionStatus, externalRef, method string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.transactions[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	if externalRef != "" {
		t.ExternalReference = externalRef
	}
	if method != "" {
		t.Method = method
	}
	r.m.transactions[id] = t
	return true, nil
}

func (r memTransactions) List(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range r.m.transactions {
		out = append(out, t)
	}
	return out, nil
}

type memUsage struct{ m *memStore }

func (r memUsage) Append(ctx context.Context, entry *domain.UsageLogEntry) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.usage = append(r.m.usage, *entry)
	return nil
}

type memStats struct{ m *memStore }

func (r memStats) Summary(ctx context.Context) (*domain.Stats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s := &domain.Stats{Accounts: int64(len(r.m.accounts)), Captions: int64(len(r.m.captions))}
	for _, j := range r.m.jobs {
		switch j.Status {
		case domain.JobStatusCompleted:
			s.ImagesCompleted++
		case domain.JobStatusFailed:
			s.ImagesFailed++
		default:
			s.ImagesInFlight++
		}
	}
	return s, nil
}

type stubImageGenerator struct {
	asset *image.Asset
	err   error
	calls int
}

func (g *stubImageGenerator) Generate(ctx context.Context, req image.GenerateRequest) (*image.Asset, error) {
	g.calls++
	return g.asset, g.err
}

type stubCaptionGenerator struct {
	result *text.CaptionResult
	err    error
	calls  int
	last   text.CaptionRequest
}

func (g *stubCaptionGenerator) GenerateCaptions(ctx context.Context, req text.CaptionRequest) (*text.CaptionResult, error) {
	g.calls++
	g.last = req
	return g.result, g.err
}

// captureDispatcher records tasks instead of running them.
type captureDispatcher struct {
	tasks []queue.ImageTask
	err   error
}

func (d *captureDispatcher) Dispatch(ctx context.Context, task queue.ImageTask) error {
	if d.err != nil {
		return d.err
	}
	d.tasks = append(d.tasks, task)
	return nil
}

type memObjectStore struct {
	objects map[string][]byte
}

func (s *memObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return "https://cdn.test/" + key, nil
}

type stubGateway struct {
	pref     *payment.Preference
	prefErr  error
	payments map[string]*payment.Payment
	lastPref payment.PreferenceRequest
	fetchErr error
}

func (g *stubGateway) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	g.lastPref = req
	return g.pref, g.prefErr
}

func (g *stubGateway) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	p, ok := g.payments[id]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return p, nil
}
