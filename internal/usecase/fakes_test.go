package usecase_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/repository"
)

// memUsers is an in-memory UserRepository keyed by email.
type memUsers struct {
	mu     sync.Mutex
	byMail map[string]*domain.User
	nextID int

	// Optional overrides.
	findByEmailErr error
	createErr      error
}

func newMemUsers(users ...*domain.User) *memUsers {
	m := &memUsers{byMail: make(map[string]*domain.User)}
	for _, u := range users {
		m.byMail[u.Email] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, in repository.CreateUserInput) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.byMail[in.Email]; ok {
		return nil, domain.ErrEmailTaken
	}
	m.nextID++
	hash := in.PasswordHash
	u := &domain.User{
		ID:           fmt.Sprintf("user-%d", m.nextID),
		Email:        in.Email,
		PasswordHash: &hash,
		Name:         in.Name,
		Role:         in.Role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.byMail[u.Email] = u
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	u, ok := m.byMail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byMail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) Update(_ context.Context, id string, patch repository.UserPatch) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byMail {
		if u.ID != id {
			continue
		}
		if patch.Name != nil {
			u.Name = patch.Name
		}
		if patch.EmailVerified != nil {
			u.EmailVerified = patch.EmailVerified
		}
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) remove(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byMail, email)
}

func (m *memUsers) get(email string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byMail[email]
}

// memTokens is an in-memory VerificationTokenRepository that marks users
// verified through the linked memUsers, mirroring the transactional store.
type memTokens struct {
	mu     sync.Mutex
	byHash map[string]domain.VerificationToken
	users  *memUsers

	findErr error
	// beforeConsume runs at the start of ConsumeAndVerify.
	beforeConsume func()
}

func newMemTokens(users *memUsers) *memTokens {
	return &memTokens{byHash: make(map[string]domain.VerificationToken), users: users}
}

func (m *memTokens) Replace(_ context.Context, t domain.VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, existing := range m.byHash {
		if existing.Identifier == t.Identifier {
			delete(m.byHash, h)
		}
	}
	m.byHash[t.TokenHash] = t
	return nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (*domain.VerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	t, ok := m.byHash[hash]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return &t, nil
}

func (m *memTokens) DeleteByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byHash, hash)
	return nil
}

func (m *memTokens) ConsumeAndVerify(_ context.Context, hash, userID string, at time.Time) error {
	if m.beforeConsume != nil {
		m.beforeConsume()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHash[hash]; !ok {
		return domain.ErrTokenNotFound
	}

	m.users.mu.Lock()
	defer m.users.mu.Unlock()
	var user *domain.User
	for _, u := range m.users.byMail {
		if u.ID == userID {
			user = u
		}
	}
	if user == nil || user.IsVerified() {
		return domain.ErrUserNotVerifiable
	}

	delete(m.byHash, hash)
	user.EmailVerified = &at
	return nil
}

func (m *memTokens) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for h, t := range m.byHash {
		if t.Expires.Before(before) {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) identifiers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, t := range m.byHash {
		ids = append(ids, t.Identifier)
	}
	slices.Sort(ids)
	return ids
}

func (m *memTokens) put(t domain.VerificationToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash[t.TokenHash] = t
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to, subject, body string
}

func (s *fakeEmailSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentEmail{to, subject, body})
	return s.err
}

type fakePromptRepo struct {
	list       func(ctx context.Context, in repository.ListPromptsInput) ([]*domain.Prompt, error)
	getByID    func(ctx context.Context, id string) (*domain.Prompt, error)
	recordView func(ctx context.Context, v domain.ViewLog) error
	countViews func(ctx context.Context, ids []string) (map[string]int, error)
	listTags   func(ctx context.Context) ([]domain.TagUsage, error)
}

func (r *fakePromptRepo) List(ctx context.Context, in repository.ListPromptsInput) ([]*domain.Prompt, error) {
	return r.list(ctx, in)
}

func (r *fakePromptRepo) GetByID(ctx context.Context, id string) (*domain.Prompt, error) {
	return r.getByID(ctx, id)
}

func (r *fakePromptRepo) RecordView(ctx context.Context, v domain.ViewLog) error {
	return r.recordView(ctx, v)
}

func (r *fakePromptRepo) CountViews(ctx context.Context, ids []string) (map[string]int, error) {
	return r.countViews(ctx, ids)
}

func (r *fakePromptRepo) ListTagsWithUsage(ctx context.Context) ([]domain.TagUsage, error) {
	return r.listTags(ctx)
}
