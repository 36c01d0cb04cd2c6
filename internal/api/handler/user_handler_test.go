package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lims-qc/identity-service/internal/api/middleware"
	"github.com/lims-qc/identity-service/internal/core/domain"
	"github.com/lims-qc/identity-service/internal/core/ports"
)

func sampleUser() *domain.User {
	return &domain.User{
		ID:             "user-1",
		Email:          "maria@example.com",
		Username:       "maria",
		FullName:       "Maria Lopez",
		Role:           domain.RoleViewer,
		HashedPassword: "$2a$10$secret",
		IsActive:       true,
		CreatedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func setClaims(c echo.Context, userID string, role domain.Role) {
	c.Set(middleware.CtxUserID, userID)
	c.Set(middleware.CtxRole, role)
}

func TestUserHandler_Create_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Email != "maria@example.com" || in.Username != "maria" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return sampleUser(), nil
		},
	}
	handler := NewUserHandler(stub)

	body := `{"email":"maria@example.com","username":"maria","full_name":"Maria Lopez","password":"s3cret-password"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users", body), rec)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "user-1" || resp["username"] != "maria" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("response leaks the password hash: %s", rec.Body.String())
	}
	if _, present := resp["password"]; present {
		t.Fatalf("response carries a password field")
	}
}

func TestUserHandler_Create_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"not-an-email","username":"maria","full_name":"Maria Lopez","password":"s3cret-password"}`},
		{"short username", `{"email":"maria@example.com","username":"ab","full_name":"Maria Lopez","password":"s3cret-password"}`},
		{"short password", `{"email":"maria@example.com","username":"maria","full_name":"Maria Lopez","password":"short"}`},
		{"confirm mismatch", `{"email":"maria@example.com","username":"maria","full_name":"Maria Lopez","password":"s3cret-password","password_confirm":"different-pass"}`},
		{"unknown role", `{"email":"maria@example.com","username":"maria","full_name":"Maria Lopez","password":"s3cret-password","role":"root"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubUserService{
				registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
					t.Fatalf("should not be called")
					return nil, nil
				},
			}
			handler := NewUserHandler(stub)

			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, "/users", tc.body), rec)

			err := handler.Create(c)
			var httpErr *echo.HTTPError
			if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422 error, got %v", err)
			}
		})
	}
}

func TestUserHandler_Create_PasswordLengthBounds(t *testing.T) {
	// bcrypt reads at most 72 bytes of input, so 72 is the longest password
	// that must be accepted and 73 the shortest that must be rejected.
	body := func(password string) string {
		return `{"email":"maria@example.com","username":"maria","full_name":"Maria Lopez","password":"` + password + `"}`
	}

	t.Run("72 chars accepted", func(t *testing.T) {
		e := newTestEcho()
		stub := &stubUserService{
			registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
				if len(in.Password) != 72 {
					t.Fatalf("password length = %d, want 72", len(in.Password))
				}
				return sampleUser(), nil
			},
		}
		handler := NewUserHandler(stub)

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/users", body(strings.Repeat("a", 72))), rec)

		if err := handler.Create(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	})

	t.Run("73 chars rejected", func(t *testing.T) {
		e := newTestEcho()
		stub := &stubUserService{
			registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
				t.Fatalf("should not be called")
				return nil, nil
			},
		}
		handler := NewUserHandler(stub)

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPost, "/users", body(strings.Repeat("a", 73))), rec)

		err := handler.Create(c)
		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 error, got %v", err)
		}
	})

	t.Run("73 chars rejected on update", func(t *testing.T) {
		e := newTestEcho()
		stub := &stubUserService{
			updateFn: func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
				t.Fatalf("should not be called")
				return nil, nil
			},
		}
		handler := NewUserHandler(stub)

		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPatch, "/users/user-1", `{"password":"`+strings.Repeat("a", 73)+`"}`), rec)
		c.SetParamNames("id")
		c.SetParamValues("user-1")
		setClaims(c, "user-1", domain.RoleViewer)

		err := handler.Update(c)
		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 error, got %v", err)
		}
	})
}

func TestUserHandler_Create_Conflict(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrEmailTaken
		},
	}
	handler := NewUserHandler(stub)

	body := `{"email":"maria@example.com","username":"maria","full_name":"Maria Lopez","password":"s3cret-password"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users", body), rec)

	if err := handler.Create(c); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		listFn: func(ctx context.Context, skip, limit int) ([]*domain.User, error) {
			if skip != 5 || limit != 10 {
				t.Fatalf("pagination not forwarded: skip=%d limit=%d", skip, limit)
			}
			return []*domain.User{sampleUser()}, nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/users?skip=5&limit=10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setClaims(c, "user-1", domain.RoleViewer)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0]["username"] != "maria" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_List_Unauthenticated(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		listFn: func(ctx context.Context, skip, limit int) ([]*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.List(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestUserHandler_Me(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			if id != "user-1" {
				t.Fatalf("expected own id, got %q", id)
			}
			return sampleUser(), nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setClaims(c, "user-1", domain.RoleViewer)

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/users/ghost", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	setClaims(c, "user-1", domain.RoleViewer)

	if err := handler.Get(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_Update_Self(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
			if id != "user-1" {
				t.Fatalf("unexpected target id %q", id)
			}
			if in.FullName == nil || *in.FullName != "Maria L. Garcia" {
				t.Fatalf("full name not forwarded: %+v", in)
			}
			u := sampleUser()
			u.FullName = *in.FullName
			return u, nil
		},
	}
	handler := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, "/users/user-1", `{"full_name":"Maria L. Garcia"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("user-1")
	setClaims(c, "user-1", domain.RoleViewer)

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Update_OtherUserForbidden(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, "/users/user-2", `{"full_name":"New Name"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("user-2")
	setClaims(c, "user-1", domain.RoleViewer)

	if err := handler.Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserHandler_Update_RoleChangeRequiresAdmin(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewUserHandler(stub)

	// A non-admin editing their own record still cannot touch role or
	// is_active.
	for _, body := range []string{`{"role":"admin"}`, `{"is_active":false}`} {
		rec := httptest.NewRecorder()
		c := e.NewContext(jsonRequest(http.MethodPatch, "/users/user-1", body), rec)
		c.SetParamNames("id")
		c.SetParamValues("user-1")
		setClaims(c, "user-1", domain.RoleViewer)

		if err := handler.Update(c); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("body %s: expected ErrForbidden, got %v", body, err)
		}
	}
}

func TestUserHandler_Update_AdminSetsRole(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		updateFn: func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
			if in.Role == nil || *in.Role != domain.RoleQuality {
				t.Fatalf("role not forwarded: %+v", in)
			}
			if in.IsActive == nil || *in.IsActive {
				t.Fatalf("is_active not forwarded: %+v", in)
			}
			u := sampleUser()
			u.Role = *in.Role
			u.IsActive = false
			return u, nil
		},
	}
	handler := NewUserHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, "/users/user-1", `{"role":"quality","is_active":false}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("user-1")
	setClaims(c, "admin-1", domain.RoleAdmin)

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Delete_Success(t *testing.T) {
	e := newTestEcho()
	deleted := ""
	stub := &stubUserService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodDelete, "/users/user-2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("user-2")
	setClaims(c, "admin-1", domain.RoleAdmin)

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if deleted != "user-2" {
		t.Fatalf("deleted %q, want user-2", deleted)
	}
}

func TestUserHandler_Delete_OwnAccountForbidden(t *testing.T) {
	e := newTestEcho()
	stub := &stubUserService{
		deleteFn: func(ctx context.Context, id string) error {
			t.Fatalf("should not be called")
			return nil
		},
	}
	handler := NewUserHandler(stub)

	req := httptest.NewRequest(http.MethodDelete, "/users/admin-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("admin-1")
	setClaims(c, "admin-1", domain.RoleAdmin)

	err := handler.Delete(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
