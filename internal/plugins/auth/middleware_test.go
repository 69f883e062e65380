package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/petfolio/petfolio/internal/apperror"
)

// guardTest runs a request with the given header through middleware and
// reports the resulting status code. The inner handler answers 200.
func guardTest(t *testing.T, mw []echo.MiddlewareFunc, setHeader func(*http.Request)) int {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if setHeader != nil {
		setHeader(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}

	err := handler(c)
	if err == nil {
		return rec.Code
	}
	if appErr, ok := err.(*apperror.AppError); ok {
		return appErr.Code
	}
	t.Fatalf("unexpected error type %T: %v", err, err)
	return 0
}

// issueToken mints a valid token through the real token service.
func issueToken(t *testing.T, svc *TokenService, email, profile string) string {
	t.Helper()
	token, err := svc.Issue(context.Background(), email, profile)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestRequireAuth_BothHeaderConventions(t *testing.T) {
	tokens := NewTokenService(tokenTestProps())
	token := issueToken(t, tokens, "a@b.com", "user")

	cases := []struct {
		name      string
		scheme    HeaderScheme
		setHeader func(*http.Request)
		want      int
	}{
		{
			"bearer scheme, Authorization header",
			SchemeBearer,
			func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			http.StatusOK,
		},
		{
			"api-token scheme, X-API-TOKEN header",
			SchemeAPIToken,
			func(r *http.Request) { r.Header.Set(HeaderAPIToken, token) },
			http.StatusOK,
		},
		{
			"any scheme accepts Authorization",
			SchemeAny,
			func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			http.StatusOK,
		},
		{
			"any scheme accepts X-API-TOKEN",
			SchemeAny,
			func(r *http.Request) { r.Header.Set(HeaderAPIToken, token) },
			http.StatusOK,
		},
		{
			"bearer scheme rejects bare token without prefix",
			SchemeBearer,
			func(r *http.Request) { r.Header.Set("Authorization", token) },
			http.StatusUnauthorized,
		},
		{
			"api-token scheme ignores Authorization header",
			SchemeAPIToken,
			func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			http.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := guardTest(t, []echo.MiddlewareFunc{RequireAuth(tokens, tc.scheme)}, tc.setHeader)
			if got != tc.want {
				t.Errorf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	tokens := NewTokenService(tokenTestProps())

	got := guardTest(t, []echo.MiddlewareFunc{RequireAuth(tokens, SchemeAny)}, nil)
	if got != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", got)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	tokens := NewTokenService(tokenTestProps())

	got := guardTest(t, []echo.MiddlewareFunc{RequireAuth(tokens, SchemeAny)},
		func(r *http.Request) { r.Header.Set(HeaderAPIToken, "garbage") })
	if got != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", got)
	}
}

func TestRequireRole_ProfileClaimShape(t *testing.T) {
	tokens := NewTokenService(tokenTestProps())
	chain := func(token string) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{
			RequireAuth(tokens, SchemeAny),
			RequireRole("admin", nil),
		}
	}

	adminToken := issueToken(t, tokens, "root@b.com", "admin")
	got := guardTest(t, chain(adminToken),
		func(r *http.Request) { r.Header.Set(HeaderAPIToken, adminToken) })
	if got != http.StatusOK {
		t.Errorf("admin profile: status = %d, want 200", got)
	}

	userToken := issueToken(t, tokens, "a@b.com", "user")
	got = guardTest(t, chain(userToken),
		func(r *http.Request) { r.Header.Set(HeaderAPIToken, userToken) })
	if got != http.StatusForbidden {
		t.Errorf("user profile: status = %d, want 403", got)
	}
}

func TestRequireRole_RoleListShape(t *testing.T) {
	tokens := NewTokenService(tokenTestProps())

	source := &mockUserSource{
		rolesFn: func(ctx context.Context, email string) ([]string, error) {
			if email == "multi@b.com" {
				return []string{"editor", "admin"}, nil
			}
			return nil, nil
		},
	}

	// Token carries no profile claim; roles come from the re-fetched list.
	token := issueToken(t, tokens, "multi@b.com", "")
	got := guardTest(t,
		[]echo.MiddlewareFunc{RequireAuth(tokens, SchemeAny), RequireRole("admin", source)},
		func(r *http.Request) { r.Header.Set(HeaderAPIToken, token) })
	if got != http.StatusOK {
		t.Errorf("role list containing admin: status = %d, want 200", got)
	}
}

func TestRequireRole_EmptyRoleSetDenies(t *testing.T) {
	tokens := NewTokenService(tokenTestProps())

	source := &mockUserSource{
		rolesFn: func(ctx context.Context, email string) ([]string, error) {
			return nil, nil
		},
	}

	token := issueToken(t, tokens, "norole@b.com", "")
	got := guardTest(t,
		[]echo.MiddlewareFunc{RequireAuth(tokens, SchemeAny), RequireRole("admin", source)},
		func(r *http.Request) { r.Header.Set(HeaderAPIToken, token) })
	if got != http.StatusForbidden {
		t.Errorf("empty role set: status = %d, want 403 (never implicit allow)", got)
	}
}

func TestRequireRole_WithoutAuthDenies(t *testing.T) {
	// RequireRole without a preceding RequireAuth must deny, not panic.
	got := guardTest(t, []echo.MiddlewareFunc{RequireRole("admin", nil)}, nil)
	if got != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", got)
	}
}
