package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/petfolio/petfolio/internal/cipher"
	"github.com/petfolio/petfolio/internal/plugins/properties"
)

// AuthService verifies login credentials. The stored password is reversibly
// encrypted (not hashed) because other parts of the system need it back in
// plaintext; verification decrypts it with the cipher secrets from the
// property store and compares in constant time.
type AuthService struct {
	creds  CredentialSource
	props  PropertySource
	policy FailurePolicy
}

// NewAuthService creates a credential verifier. policy selects the mismatch
// behavior (see FailurePolicy). The stored payload's cipher layout is
// recognized by Decrypt itself, so passwords written under either layout
// verify here.
func NewAuthService(creds CredentialSource, props PropertySource, policy FailurePolicy) *AuthService {
	return &AuthService{
		creds:  creds,
		props:  props,
		policy: policy,
	}
}

// VerifyLogin checks a candidate password against the stored encrypted
// password for the identity.
//
// Failure surfaces per the configured policy: under PolicyBoolean a mismatch
// is (false, nil); under PolicyError it is ErrInvalidCredentials. Lookup
// misses and cipher failures always return an error regardless of policy --
// only the mismatch outcome is policy-dependent.
func (s *AuthService) VerifyLogin(ctx context.Context, email, candidate string) (bool, error) {
	slog.Info("processing login", slog.String("email", email))

	encrypted, err := s.creds.EncryptedPasswordByEmail(ctx, email)
	if err != nil {
		// Not-found propagates as-is; the handler decides whether to hide
		// it behind a generic invalid-credentials response.
		return false, err
	}

	secret, err := s.props.Value(ctx, properties.KeyCryptoSecret)
	if err != nil {
		return false, configError(properties.KeyCryptoSecret, err)
	}
	salt, err := s.props.Value(ctx, properties.KeyCryptoSalt)
	if err != nil {
		return false, configError(properties.KeyCryptoSalt, err)
	}

	stored, err := cipher.Decrypt(encrypted, secret, salt)
	if err != nil {
		return false, fmt.Errorf("decrypting stored password: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
		slog.Warn("login rejected: password mismatch", slog.String("email", email))
		if s.policy == PolicyError {
			return false, ErrInvalidCredentials
		}
		return false, nil
	}

	slog.Info("login credentials verified", slog.String("email", email))
	return true, nil
}
