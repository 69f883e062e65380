package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/plugins/properties"
)

// mockProps implements PropertySource over a plain map. Missing keys return
// the same not-found error the real property store produces.
type mockProps struct {
	values map[string]string
}

func (m *mockProps) Value(ctx context.Context, key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", apperror.NewNotFound("property " + key + " not found")
}

// tokenTestProps returns a property source with a full token configuration.
func tokenTestProps() *mockProps {
	return &mockProps{values: map[string]string{
		properties.KeyJWTSecret:     "jwt-signing-secret",
		properties.KeyJWTExpireTime: "4",
	}}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	svc := NewTokenService(tokenTestProps())
	ctx := context.Background()

	token, err := svc.Issue(ctx, "a@b.com", "user")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify immediately after issue: %v", err)
	}
	if claims.Email != "a@b.com" {
		t.Errorf("email claim = %q, want a@b.com", claims.Email)
	}
	if claims.Profile != "user" {
		t.Errorf("profile claim = %q, want user", claims.Profile)
	}
}

func TestIssue_MissingConfig(t *testing.T) {
	cases := []struct {
		name  string
		props map[string]string
	}{
		{"missing secret", map[string]string{properties.KeyJWTExpireTime: "4"}},
		{"missing expire time", map[string]string{properties.KeyJWTSecret: "s"}},
		{"non-integer expire time", map[string]string{
			properties.KeyJWTSecret:     "s",
			properties.KeyJWTExpireTime: "four",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewTokenService(&mockProps{values: tc.props})
			_, err := svc.Issue(context.Background(), "a@b.com", "user")
			if !errors.Is(err, ErrConfigMissing) {
				t.Errorf("got %v, want ErrConfigMissing", err)
			}
		})
	}
}

func TestVerify_Expired(t *testing.T) {
	props := tokenTestProps()
	svc := NewTokenService(props)

	// Craft a token signed with the right secret but already expired.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	tokenString, err := expired.SignedString([]byte(props.values[properties.KeyJWTSecret]))
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}

	_, err = svc.Verify(context.Background(), tokenString)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("got %v, want ErrTokenExpired (not ErrTokenInvalid)", err)
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Error("expired token must not also report ErrTokenInvalid")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	svc := NewTokenService(tokenTestProps())

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := forged.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("signing forged token: %v", err)
	}

	if _, err := svc.Verify(context.Background(), tokenString); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_MissingEmailClaim(t *testing.T) {
	props := tokenTestProps()
	svc := NewTokenService(props)

	// Valid signature and expiry but no email claim.
	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tokenString, err := anonymous.SignedString([]byte(props.values[properties.KeyJWTSecret]))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := svc.Verify(context.Background(), tokenString); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_GarbageToken(t *testing.T) {
	svc := NewTokenService(tokenTestProps())

	if _, err := svc.Verify(context.Background(), "not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyLenient(t *testing.T) {
	svc := NewTokenService(tokenTestProps())
	ctx := context.Background()

	token, err := svc.Issue(ctx, "a@b.com", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !svc.VerifyLenient(ctx, token) {
		t.Error("lenient verify of a fresh token = false, want true")
	}
	if svc.VerifyLenient(ctx, "garbage") {
		t.Error("lenient verify of garbage = true, want false")
	}
}
