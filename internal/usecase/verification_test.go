package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/repository"
	"github.com/ErlanBelekov/prompt-studio/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newVerification(users *memUsers, tokens *memTokens) *usecase.VerificationUsecase {
	return usecase.NewVerificationUsecase(tokens, users, slog.Default()).
		WithClock(func() time.Time { return testNow })
}

func unverifiedUser(email string) *domain.User {
	return &domain.User{ID: "u-" + email, Email: email, Role: domain.RoleUser}
}

func TestCreateToken_StoresHashAndExpiry(t *testing.T) {
	users := newMemUsers()
	tokens := newMemTokens(users)
	uc := newVerification(users, tokens)

	issued, err := uc.CreateToken(context.Background(), "a@example.com")
	require.NoError(t, err)

	assert.Len(t, issued.Token, 64)
	assert.Equal(t, testNow.Add(24*time.Hour), issued.Expires)

	stored, err := tokens.FindByHash(context.Background(), usecase.HashToken(issued.Token))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", stored.Identifier)
	assert.NotEqual(t, issued.Token, stored.TokenHash)
}

func TestCreateToken_ReplacesPreviousToken(t *testing.T) {
	users := newMemUsers(unverifiedUser("a@example.com"))
	tokens := newMemTokens(users)
	uc := newVerification(users, tokens)
	ctx := context.Background()

	first, err := uc.CreateToken(ctx, "a@example.com")
	require.NoError(t, err)
	second, err := uc.CreateToken(ctx, "a@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, []string{"a@example.com"}, tokens.identifiers())

	res, err := uc.Verify(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeNotFound, res.Outcome)
	assert.Equal(t, "invalid or expired verification token", res.Message)
	assert.Nil(t, users.get("a@example.com").EmailVerified)

	res, err = uc.Verify(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeVerified, res.Outcome)
}

func TestVerify_Success(t *testing.T) {
	users := newMemUsers(unverifiedUser("a@example.com"))
	tokens := newMemTokens(users)
	uc := newVerification(users, tokens)
	ctx := context.Background()

	issued, err := uc.CreateToken(ctx, "a@example.com")
	require.NoError(t, err)

	res, err := uc.Verify(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeVerified, res.Outcome)
	assert.True(t, res.Success)
	assert.Equal(t, "email verified successfully, you can sign in now", res.Message)

	u := users.get("a@example.com")
	require.NotNil(t, u.EmailVerified)
	assert.Equal(t, testNow, *u.EmailVerified)
	assert.Empty(t, tokens.identifiers())

	// Single use.
	again, err := uc.Verify(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeNotFound, again.Outcome)
	assert.False(t, again.Success)
}

func TestVerify_Outcomes(t *testing.T) {
	verifiedAt := testNow.Add(-time.Hour)

	tests := []struct {
		name        string
		users       []*domain.User
		token       *domain.VerificationToken
		want        usecase.Outcome
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "unknown token",
			want:        usecase.OutcomeNotFound,
			wantMessage: "invalid or expired verification token",
		},
		{
			name:        "expired",
			users:       []*domain.User{unverifiedUser("a@example.com")},
			token:       &domain.VerificationToken{Identifier: "a@example.com", Expires: testNow.Add(-time.Second)},
			want:        usecase.OutcomeExpired,
			wantMessage: "this verification link has expired, please request a new one",
		},
		{
			name:        "expiring exactly now is still valid",
			users:       []*domain.User{unverifiedUser("a@example.com")},
			token:       &domain.VerificationToken{Identifier: "a@example.com", Expires: testNow},
			want:        usecase.OutcomeVerified,
			wantSuccess: true,
			wantMessage: "email verified successfully, you can sign in now",
		},
		{
			name:        "no user for identifier",
			token:       &domain.VerificationToken{Identifier: "ghost@example.com", Expires: testNow.Add(time.Hour)},
			want:        usecase.OutcomeNoUser,
			wantMessage: "no account is associated with this verification link",
		},
		{
			name:        "already verified",
			users:       []*domain.User{{ID: "u1", Email: "a@example.com", EmailVerified: &verifiedAt}},
			token:       &domain.VerificationToken{Identifier: "a@example.com", Expires: testNow.Add(time.Hour)},
			want:        usecase.OutcomeAlreadyVerified,
			wantSuccess: true,
			wantMessage: "your email is already verified, you can sign in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMemUsers(tt.users...)
			tokens := newMemTokens(users)
			const raw = "raw-token"
			if tt.token != nil {
				vt := *tt.token
				vt.TokenHash = usecase.HashToken(raw)
				tokens.put(vt)
			}
			uc := newVerification(users, tokens)

			res, err := uc.Verify(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantMessage, res.Message)

			// Every outcome leaves no token behind, so a retry is "not found".
			assert.Empty(t, tokens.identifiers())
			again, err := uc.Verify(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, usecase.OutcomeNotFound, again.Outcome)
		})
	}
}

func TestVerify_InfrastructureErrorIsReturned(t *testing.T) {
	users := newMemUsers()
	tokens := newMemTokens(users)
	tokens.findErr = errors.New("connection reset")

	_, err := newVerification(users, tokens).Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestVerify_ConcurrentAttemptsVerifyOnce(t *testing.T) {
	users := newMemUsers(unverifiedUser("a@example.com"))
	tokens := newMemTokens(users)
	uc := newVerification(users, tokens)

	issued, err := uc.CreateToken(context.Background(), "a@example.com")
	require.NoError(t, err)

	var verified atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.Verify(context.Background(), issued.Token)
			if err == nil && res.Outcome == usecase.OutcomeVerified {
				verified.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), verified.Load())
}

func TestVerify_UserChangedBeforeConsume(t *testing.T) {
	verifiedAt := testNow.Add(-time.Minute)

	tests := []struct {
		name   string
		change func(users *memUsers)
		want   usecase.Outcome
	}{
		{
			name:   "user deleted",
			change: func(users *memUsers) { users.remove("a@example.com") },
			want:   usecase.OutcomeNoUser,
		},
		{
			name: "user verified elsewhere",
			change: func(users *memUsers) {
				_, _ = users.Update(context.Background(), "u-a@example.com", repository.UserPatch{EmailVerified: &verifiedAt})
			},
			want: usecase.OutcomeAlreadyVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMemUsers(unverifiedUser("a@example.com"))
			tokens := newMemTokens(users)
			uc := newVerification(users, tokens)
			ctx := context.Background()

			issued, err := uc.CreateToken(ctx, "a@example.com")
			require.NoError(t, err)
			tokens.beforeConsume = func() { tt.change(users) }

			res, err := uc.Verify(ctx, issued.Token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Empty(t, tokens.identifiers())

			if u := users.get("a@example.com"); u != nil {
				require.NotNil(t, u.EmailVerified)
				assert.Equal(t, verifiedAt, *u.EmailVerified)
			}
		})
	}
}

func TestOutcome_Success(t *testing.T) {
	assert.False(t, usecase.OutcomeNotFound.Success())
	assert.False(t, usecase.OutcomeExpired.Success())
	assert.False(t, usecase.OutcomeNoUser.Success())
	assert.True(t, usecase.OutcomeAlreadyVerified.Success())
	assert.True(t, usecase.OutcomeVerified.Success())
}
