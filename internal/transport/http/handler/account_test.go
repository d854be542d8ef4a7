package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ErlanBelekov/prompt-studio/internal/domain"
	"github.com/ErlanBelekov/prompt-studio/internal/transport/http/handler"
	"github.com/ErlanBelekov/prompt-studio/internal/usecase"
	"github.com/gin-gonic/gin"
)

type fakeAccountUsecase struct {
	getAccount    func(ctx context.Context, userID string) (*domain.User, error)
	updateAccount func(ctx context.Context, userID string, input usecase.UpdateAccountInput) (*domain.User, error)
}

func (f *fakeAccountUsecase) GetAccount(ctx context.Context, userID string) (*domain.User, error) {
	return f.getAccount(ctx, userID)
}

func (f *fakeAccountUsecase) UpdateAccount(ctx context.Context, userID string, input usecase.UpdateAccountInput) (*domain.User, error) {
	return f.updateAccount(ctx, userID, input)
}

func newAccountEngine(uc *fakeAccountUsecase) *gin.Engine {
	h := handler.NewAccountHandler(uc, slog.Default())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", "u1"); c.Next() })
	r.GET("/account", h.Get)
	r.PATCH("/account", h.Update)
	return r
}

func TestGetAccount_ReturnsCurrentUser(t *testing.T) {
	uc := &fakeAccountUsecase{
		getAccount: func(_ context.Context, id string) (*domain.User, error) {
			if id != "u1" {
				t.Errorf("userID = %q, want u1", id)
			}
			return &domain.User{ID: id, Email: "a@example.com", Role: domain.RoleUser}, nil
		},
	}

	w := httptest.NewRecorder()
	newAccountEngine(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["email"] != "a@example.com" || body["role"] != "USER" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["password_hash"]; ok {
		t.Error("password hash must not be exposed")
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	uc := &fakeAccountUsecase{
		getAccount: func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}

	w := httptest.NewRecorder()
	newAccountEngine(uc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateAccount_TrimsName(t *testing.T) {
	var got usecase.UpdateAccountInput
	uc := &fakeAccountUsecase{
		updateAccount: func(_ context.Context, id string, in usecase.UpdateAccountInput) (*domain.User, error) {
			got = in
			return &domain.User{ID: id, Email: "a@example.com", Name: in.Name}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/account", strings.NewReader(`{"name":"  Grace Hopper "}`))
	newAccountEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body)
	}
	if got.Name == nil || *got.Name != "Grace Hopper" {
		t.Errorf("name = %v", got.Name)
	}
}

func TestUpdateAccount_InvalidName(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/account", strings.NewReader(`{"name":"`+strings.Repeat("n", 81)+`"}`))
	newAccountEngine(&fakeAccountUsecase{}).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decode(t, w)["error"]; got != "Name must be 80 characters or fewer." {
		t.Errorf("error = %q", got)
	}
}
