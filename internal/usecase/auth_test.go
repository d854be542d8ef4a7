package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/usecase"
	"golang.org/x/crypto/bcrypt"
)

const testAppBaseURL = "http://localhost:3000"

type authFixture struct {
	users  *memUsers
	tokens *memTokens
	sender *fakeEmailSender
	uc     *usecase.AuthUsecase
}

func newAuthFixture(users ...*domain.User) *authFixture {
	f := &authFixture{users: newMemUsers(users...), sender: &fakeEmailSender{}}
	f.tokens = newMemTokens(f.users)
	verification := usecase.NewVerificationUsecase(f.tokens, f.users, slog.Default())
	f.uc = usecase.NewAuthUsecaseWithCost(f.users, verification, f.sender, testAppBaseURL, slog.Default(), bcrypt.MinCost)
	return f
}

func hashed(t *testing.T, password string) *string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	s := string(h)
	return &s
}

// ---- Signup ----

func TestSignup_NewUser(t *testing.T) {
	f := newAuthFixture()

	res, err := f.uc.Signup(context.Background(), usecase.SignupInput{Email: "new@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Created {
		t.Error("expected Created = true")
	}
	if res.Token == "" {
		t.Fatal("expected a token")
	}

	u := f.users.get("new@example.com")
	if u == nil {
		t.Fatal("user not stored")
	}
	if u.Role != domain.RoleUser {
		t.Errorf("role = %q, want USER", u.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte("password123")) != nil {
		t.Error("stored hash does not match password")
	}
	if u.IsVerified() {
		t.Error("new user should not be verified")
	}
}

func TestSignup_SendsVerificationLink(t *testing.T) {
	f := newAuthFixture()

	res, err := f.uc.Signup(context.Background(), usecase.SignupInput{Email: "new@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(f.sender.sent))
	}
	sent := f.sender.sent[0]
	if sent.to != "new@example.com" {
		t.Errorf("to = %q", sent.to)
	}
	if !strings.Contains(sent.body, testAppBaseURL+"/verify-email?token="+res.Token) {
		t.Errorf("body does not contain link with issued token: %s", sent.body)
	}
}

func TestSignup_EmailFailureDoesNotFailSignup(t *testing.T) {
	f := newAuthFixture()
	f.sender.err = errors.New("resend down")

	res, err := f.uc.Signup(context.Background(), usecase.SignupInput{Email: "new@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Created || res.Token == "" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestSignup_UnverifiedExistingReissuesToken(t *testing.T) {
	f := newAuthFixture(&domain.User{ID: "u1", Email: "a@example.com", PasswordHash: hashed(t, "password123")})
	ctx := context.Background()

	first, err := f.uc.Signup(ctx, usecase.SignupInput{Email: "a@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Created {
		t.Error("expected Created = false for existing user")
	}

	second, err := f.uc.Signup(ctx, usecase.SignupInput{Email: "a@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only the latest token is live.
	if _, err := f.tokens.FindByHash(ctx, usecase.HashToken(first.Token)); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("first token should be invalidated, got err=%v", err)
	}
	if _, err := f.tokens.FindByHash(ctx, usecase.HashToken(second.Token)); err != nil {
		t.Errorf("second token should be live, got err=%v", err)
	}
}

func TestSignup_VerifiedExistingReturnsEmailTaken(t *testing.T) {
	now := time.Now()
	f := newAuthFixture(&domain.User{ID: "u1", Email: "a@example.com", EmailVerified: &now})

	_, err := f.uc.Signup(context.Background(), usecase.SignupInput{Email: "a@example.com", Password: "password123"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
	if len(f.tokens.identifiers()) != 0 {
		t.Error("no token should be issued")
	}
}

func TestSignup_CreateRaceReturnsEmailTaken(t *testing.T) {
	f := newAuthFixture()
	f.users.createErr = domain.ErrEmailTaken

	_, err := f.uc.Signup(context.Background(), usecase.SignupInput{Email: "a@example.com", Password: "password123"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestSignup_RepoErrorIsWrapped(t *testing.T) {
	f := newAuthFixture()
	f.users.findByEmailErr = errors.New("db down")

	_, err := f.uc.Signup(context.Background(), usecase.SignupInput{Email: "a@example.com", Password: "password123"})
	if err == nil || errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

// ---- Login ----

func TestLogin(t *testing.T) {
	now := time.Now()
	f := newAuthFixture(
		&domain.User{ID: "v", Email: "verified@example.com", PasswordHash: hashed(t, "password123"), EmailVerified: &now},
		&domain.User{ID: "p", Email: "pending@example.com", PasswordHash: hashed(t, "password123")},
		&domain.User{ID: "n", Email: "nopass@example.com", EmailVerified: &now},
	)

	tests := []struct {
		name     string
		email    string
		password string
		want     usecase.LoginStatus
	}{
		{"ok", "verified@example.com", "password123", usecase.LoginOK},
		{"wrong password", "verified@example.com", "wrong-password", usecase.LoginInvalidCredentials},
		{"unknown email", "ghost@example.com", "password123", usecase.LoginInvalidCredentials},
		{"no password hash", "nopass@example.com", "password123", usecase.LoginInvalidCredentials},
		{"unverified", "pending@example.com", "password123", usecase.LoginEmailUnverified},
		{"unverified with wrong password", "pending@example.com", "nope-nope", usecase.LoginInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.uc.Login(context.Background(), tt.email, tt.password)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Status != tt.want {
				t.Errorf("status = %v, want %v", res.Status, tt.want)
			}
			if (res.User != nil) != (tt.want == usecase.LoginOK) {
				t.Errorf("user set = %v for status %v", res.User != nil, res.Status)
			}
		})
	}
}

func TestLogin_RepoError(t *testing.T) {
	f := newAuthFixture()
	f.users.findByEmailErr = errors.New("db down")

	if _, err := f.uc.Login(context.Background(), "a@example.com", "password123"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSignupVerifyLogin_EndToEnd(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	signup, err := f.uc.Signup(ctx, usecase.SignupInput{Email: "flow@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	res, _ := f.uc.Login(ctx, "flow@example.com", "password123")
	if res.Status != usecase.LoginEmailUnverified {
		t.Fatalf("login before verify = %v", res.Status)
	}

	verification := usecase.NewVerificationUsecase(f.tokens, f.users, slog.Default())
	vr, err := verification.Verify(ctx, signup.Token)
	if err != nil || vr.Outcome != usecase.OutcomeVerified {
		t.Fatalf("verify = %+v, %v", vr, err)
	}

	res, _ = f.uc.Login(ctx, "flow@example.com", "password123")
	if res.Status != usecase.LoginOK {
		t.Fatalf("login after verify = %v", res.Status)
	}
}

// ---- Account ----

func TestUpdateAccount_SetsName(t *testing.T) {
	f := newAuthFixture(&domain.User{ID: "u1", Email: "a@example.com"})
	name := "Ada"

	u, err := f.uc.UpdateAccount(context.Background(), "u1", usecase.UpdateAccountInput{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Name == nil || *u.Name != "Ada" {
		t.Errorf("name = %v, want Ada", u.Name)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	f := newAuthFixture()

	_, err := f.uc.GetAccount(context.Background(), "missing")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
