package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/domain"
)

// fakeUserRepo is an in-memory UserRepository. Reads return copies so
// service mutations only land through Update, like a real row scan.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	order []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	r.users[user.ID] = &clone
	r.order = append(r.order, user.ID)
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdateFields(_ context.Context, id string, fields map[string]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	for k, v := range fields {
		switch k {
		case "user_name":
			user.UserName = v.(string)
		case "first_name":
			user.FirstName = v.(string)
		case "last_name":
			user.LastName = v.(string)
		case "mobile_no":
			user.MobileNo = v.(string)
		case "role":
			user.Role = v.(domain.UserRole)
		}
	}
	user.UpdatedAt = time.Now()
	return 1, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (r *fakeUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	var result []domain.User
	for i := offset; i < len(r.order) && len(result) < limit; i++ {
		result = append(result, *r.users[r.order[i]])
	}
	return result, nil
}

func (r *fakeUserRepo) ClearExpiredOtps(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for _, user := range r.users {
		if user.OtpExpiration != nil && user.OtpExpiration.Before(before) {
			user.ClearOtp()
			cleared++
		}
	}
	return cleared, nil
}

// mutate edits the stored record in place, bypassing the repository
// contract. Used to age OTPs in tests.
func (r *fakeUserRepo) mutate(id string, fn func(*domain.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		fn(user)
	}
}

// captureEmailNotifier records sent codes instead of delivering them.
type captureEmailNotifier struct {
	mu   sync.Mutex
	sent []capturedEmail
	fail error
}

type capturedEmail struct {
	email, code, name string
}

func (n *captureEmailNotifier) SendOtpEmail(_ context.Context, email, code, displayName string) error {
	if n.fail != nil {
		return n.fail
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, capturedEmail{email: email, code: code, name: displayName})
	return nil
}

func (n *captureEmailNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return ""
	}
	return n.sent[len(n.sent)-1].code
}

// captureSmsNotifier records SMS sends and can be told to fail.
type captureSmsNotifier struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (n *captureSmsNotifier) SendOtpSms(_ context.Context, phoneNumber, _ string) error {
	if n.fail != nil {
		return n.fail
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, phoneNumber)
	return nil
}

// memoryLimiter is an in-process OtpAttemptLimiter with a fixed cap.
type memoryLimiter struct {
	mu       sync.Mutex
	failures map[string]int
	max      int
}

func newMemoryLimiter(max int) *memoryLimiter {
	return &memoryLimiter{failures: map[string]int{}, max: max}
}

func (l *memoryLimiter) TooManyAttempts(_ context.Context, email string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[email] >= l.max, nil
}

func (l *memoryLimiter) RecordFailure(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[email]++
	return nil
}

func (l *memoryLimiter) Reset(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, email)
	return nil
}
