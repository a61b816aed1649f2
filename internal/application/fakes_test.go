package application

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/promptguard/promptguard/internal/domain/entity"
	"github.com/promptguard/promptguard/internal/domain/repository"
)

// In-memory store doubles. They honor the same contracts as the Postgres
// implementations: case-insensitive email uniqueness, cascading deletes, and
// single-winner token redemption under a lock.

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*entity.User // by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) findByEmailLocked(email string) *entity.User {
	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findByEmailLocked(u.Email) != nil {
		return repository.ErrDuplicate
	}
	r.seq++
	u.ID = strconv.Itoa(r.seq)
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.findByEmailLocked(email)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if other := r.findByEmailLocked(u.Email); other != nil && other.ID != u.ID {
		return repository.ErrDuplicate
	}
	cur.Name = u.Name
	cur.Email = strings.ToLower(u.Email)
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]*entity.PasswordResetToken // by token
	users  *fakeUserRepo
}

func newFakeTokenRepo(users *fakeUserRepo) *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*entity.PasswordResetToken), users: users}
}

func (r *fakeTokenRepo) Insert(_ context.Context, t *entity.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = strconv.Itoa(r.seq)
	t.CreatedAt = time.Now()
	cp := *t
	r.tokens[t.Token] = &cp
	return nil
}

func (r *fakeTokenRepo) GetByToken(_ context.Context, token string) (*entity.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTokenRepo) Redeem(_ context.Context, token, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || !t.Redeemable(time.Now()) {
		return repository.ErrNotFound
	}

	r.users.mu.Lock()
	u, exists := r.users.users[t.UserID]
	if !exists {
		r.users.mu.Unlock()
		return repository.ErrNotFound
	}
	t.Used = true
	u.Password = passwordHash
	u.UpdatedAt = time.Now()
	r.users.mu.Unlock()
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		if !t.ExpiresAt.After(olderThan) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *fakeTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type fakeAnalysisRepo struct {
	mu    sync.Mutex
	seq   int
	items []entity.PromptAnalysis
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{}
}

func (r *fakeAnalysisRepo) Insert(_ context.Context, a *entity.PromptAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a.ID = strconv.Itoa(r.seq)
	a.CreatedAt = time.Now()
	r.items = append(r.items, *a)
	return nil
}

func (r *fakeAnalysisRepo) ListByUser(_ context.Context, userID string, limit int) ([]entity.PromptAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.PromptAnalysis, 0)
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID != userID {
			continue
		}
		out = append(out, r.items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeAnalysisRepo) StatsByUser(_ context.Context, userID string) (repository.AnalysisStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var st repository.AnalysisStats
	var sum float64
	for _, a := range r.items {
		if a.UserID != userID {
			continue
		}
		st.Total++
		if a.IsSafe {
			st.Safe++
		} else {
			st.Unsafe++
		}
		sum += a.JailbreakRate
	}
	if st.Total > 0 {
		st.AvgJailbreakRate = sum / float64(st.Total)
	}
	return st, nil
}

// recordingNotifier captures reset notifications; fail makes every send error.
type recordingNotifier struct {
	mu    sync.Mutex
	sent  []string // links
	fail  bool
	calls int
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, email, name, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.fail {
		return errAlwaysFails
	}
	n.sent = append(n.sent, link)
	return nil
}

var errAlwaysFails = &notifierError{}

type notifierError struct{}

func (*notifierError) Error() string { return "smtp down" }
