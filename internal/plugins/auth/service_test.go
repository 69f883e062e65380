package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/cipher"
	"github.com/petfolio/petfolio/internal/plugins/properties"
)

// --- Mock User Source ---

// mockUserSource implements UserSource for testing.
type mockUserSource struct {
	encryptedPasswordFn func(ctx context.Context, email string) (string, error)
	rolesFn             func(ctx context.Context, email string) ([]string, error)
	profileFn           func(ctx context.Context, email string) (string, error)
}

func (m *mockUserSource) EncryptedPasswordByEmail(ctx context.Context, email string) (string, error) {
	if m.encryptedPasswordFn != nil {
		return m.encryptedPasswordFn(ctx, email)
	}
	return "", apperror.NewNotFound("user not found")
}

func (m *mockUserSource) RolesByEmail(ctx context.Context, email string) ([]string, error) {
	if m.rolesFn != nil {
		return m.rolesFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserSource) ProfileByEmail(ctx context.Context, email string) (string, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, email)
	}
	return "", nil
}

// --- Test Helpers ---

const (
	testCryptoSecret = "crypto-secret"
	testCryptoSalt   = "crypto-salt"
	testPassword     = "hunter2"
)

// cipherProps returns a property source with the cipher secrets set.
func cipherProps() *mockProps {
	return &mockProps{values: map[string]string{
		properties.KeyCryptoSecret: testCryptoSecret,
		properties.KeyCryptoSalt:   testCryptoSalt,
	}}
}

// storedPassword encrypts the test password the way user creation does.
func storedPassword(t *testing.T) string {
	t.Helper()
	payload, err := cipher.Encrypt(testPassword, testCryptoSecret, testCryptoSalt, cipher.ModeGCM)
	if err != nil {
		t.Fatalf("encrypting fixture password: %v", err)
	}
	return payload
}

// userWithPassword returns a user source holding one encrypted credential.
func userWithPassword(t *testing.T) *mockUserSource {
	t.Helper()
	encrypted := storedPassword(t)
	return &mockUserSource{
		encryptedPasswordFn: func(ctx context.Context, email string) (string, error) {
			if email == "a@b.com" {
				return encrypted, nil
			}
			return "", apperror.NewNotFound("user not found")
		},
	}
}

// --- Tests ---

func TestVerifyLogin_Match(t *testing.T) {
	for _, policy := range []FailurePolicy{PolicyBoolean, PolicyError} {
		svc := NewAuthService(userWithPassword(t), cipherProps(), policy)

		ok, err := svc.VerifyLogin(context.Background(), "a@b.com", testPassword)
		if err != nil {
			t.Fatalf("policy=%s: VerifyLogin: %v", policy, err)
		}
		if !ok {
			t.Errorf("policy=%s: correct password rejected", policy)
		}
	}
}

func TestVerifyLogin_Mismatch_BooleanPolicy(t *testing.T) {
	svc := NewAuthService(userWithPassword(t), cipherProps(), PolicyBoolean)

	ok, err := svc.VerifyLogin(context.Background(), "a@b.com", "wrong-password")
	if err != nil {
		t.Fatalf("boolean policy must not error on mismatch: %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestVerifyLogin_Mismatch_ErrorPolicy(t *testing.T) {
	svc := NewAuthService(userWithPassword(t), cipherProps(), PolicyError)

	ok, err := svc.VerifyLogin(context.Background(), "a@b.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestVerifyLogin_UnknownUser(t *testing.T) {
	svc := NewAuthService(userWithPassword(t), cipherProps(), PolicyBoolean)

	_, err := svc.VerifyLogin(context.Background(), "nobody@b.com", testPassword)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		t.Errorf("got %v, want not-found apperror", err)
	}
}

func TestVerifyLogin_MissingCipherConfig(t *testing.T) {
	props := &mockProps{values: map[string]string{
		// CRYPTO_SECRET present, CRYPTO_SALT absent.
		properties.KeyCryptoSecret: testCryptoSecret,
	}}
	svc := NewAuthService(userWithPassword(t), props, PolicyBoolean)

	_, err := svc.VerifyLogin(context.Background(), "a@b.com", testPassword)
	if !errors.Is(err, ErrConfigMissing) {
		t.Errorf("got %v, want ErrConfigMissing", err)
	}
}

func TestVerifyLogin_LegacyCBCStoredPassword(t *testing.T) {
	// Accounts created before the switch to GCM hold two-field CBC payloads.
	// They must keep verifying without any per-account layout bookkeeping.
	encrypted, err := cipher.Encrypt(testPassword, testCryptoSecret, testCryptoSalt, cipher.ModeCBC)
	if err != nil {
		t.Fatalf("encrypting legacy fixture password: %v", err)
	}
	users := &mockUserSource{
		encryptedPasswordFn: func(ctx context.Context, email string) (string, error) {
			return encrypted, nil
		},
	}
	svc := NewAuthService(users, cipherProps(), PolicyError)

	ok, err := svc.VerifyLogin(context.Background(), "a@b.com", testPassword)
	if err != nil {
		t.Fatalf("VerifyLogin with legacy payload: %v", err)
	}
	if !ok {
		t.Error("correct password rejected for legacy payload")
	}

	if _, err := svc.VerifyLogin(context.Background(), "a@b.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("legacy payload mismatch: got %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyLogin_CorruptStoredPassword(t *testing.T) {
	users := &mockUserSource{
		encryptedPasswordFn: func(ctx context.Context, email string) (string, error) {
			return "not-a-valid-payload", nil
		},
	}
	svc := NewAuthService(users, cipherProps(), PolicyBoolean)

	_, err := svc.VerifyLogin(context.Background(), "a@b.com", testPassword)
	if !errors.Is(err, cipher.ErrMalformedPayload) {
		t.Errorf("got %v, want cipher.ErrMalformedPayload", err)
	}
}
