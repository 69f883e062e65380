package users

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/cipher"
	"github.com/petfolio/petfolio/internal/plugins/properties"
	"github.com/petfolio/petfolio/internal/sanitize"
)

// Mailer sends plain-text mail. Satisfied by the notifications plugin; a nil
// Mailer disables the welcome message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
	IsConfigured(ctx context.Context) bool
}

// PropertySource provides the cipher secrets used when storing passwords.
// Satisfied by properties.PropertyService.
type PropertySource interface {
	Value(ctx context.Context, key string) (string, error)
}

// UserService defines business logic for user management. It also serves as
// the credential and role source for the auth plugin.
type UserService interface {
	List(ctx context.Context) ([]User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	Update(ctx context.Context, email string, req UpdateUserRequest) (*User, error)
	AssignRole(ctx context.Context, email, role string) error
	RemoveRole(ctx context.Context, email, role string) error

	EncryptedPasswordByEmail(ctx context.Context, email string) (string, error)
	RolesByEmail(ctx context.Context, email string) ([]string, error)
	ProfileByEmail(ctx context.Context, email string) (string, error)
}

type userService struct {
	repo       UserRepository
	props      PropertySource
	mail       Mailer
	cipherMode cipher.Mode
}

// NewUserService creates a user service. mail may be nil.
func NewUserService(repo UserRepository, props PropertySource, mail Mailer, mode cipher.Mode) UserService {
	return &userService{repo: repo, props: props, mail: mail, cipherMode: mode}
}

func (s *userService) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *userService) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, apperror.NewValidation("a valid email is required")
	}
	if req.Password == "" {
		return nil, apperror.NewValidation("password is required")
	}
	req.Name = sanitize.Text(req.Name)
	req.Lastname = sanitize.Text(req.Lastname)
	if req.Name == "" {
		return nil, apperror.NewValidation("name is required")
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewConflict("a user with that email already exists")
	}

	encrypted, err := s.encryptPassword(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = DefaultRole
	}

	user := &User{
		ID:                generateUUID(),
		Name:              req.Name,
		Lastname:          req.Lastname,
		Email:             req.Email,
		Rut:               strings.TrimSpace(req.Rut),
		Role:              role,
		Roles:             []string{role},
		Active:            true,
		PasswordEncrypted: encrypted,
		CreatedAt:         time.Now(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("User created", "email", user.Email, "role", user.Role)

	s.sendWelcome(user)
	return user, nil
}

func (s *userService) Update(ctx context.Context, email string, req UpdateUserRequest) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = sanitize.Text(*req.Name)
	}
	if req.Lastname != nil {
		user.Lastname = sanitize.Text(*req.Lastname)
	}
	if req.Rut != nil {
		user.Rut = strings.TrimSpace(*req.Rut)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if user.Name == "" {
		return nil, apperror.NewValidation("name cannot be empty")
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.repo.FindByEmail(ctx, email)
}

func (s *userService) AssignRole(ctx context.Context, email, role string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return apperror.NewValidation("role is required")
	}

	has, err := s.repo.HasRole(ctx, email, role)
	if err != nil {
		return err
	}
	if has {
		return apperror.NewConflict("user already has that role")
	}

	if err := s.repo.AssignRole(ctx, email, role); err != nil {
		return err
	}
	slog.Info("Role assigned", "email", email, "role", role)
	return nil
}

func (s *userService) RemoveRole(ctx context.Context, email, role string) error {
	has, err := s.repo.HasRole(ctx, email, role)
	if err != nil {
		return err
	}
	if !has {
		return apperror.NewNotFound("user does not have that role")
	}

	if err := s.repo.RemoveRole(ctx, email, role); err != nil {
		return err
	}
	slog.Info("Role removed", "email", email, "role", role)
	return nil
}

func (s *userService) EncryptedPasswordByEmail(ctx context.Context, email string) (string, error) {
	return s.repo.EncryptedPasswordByEmail(ctx, email)
}

func (s *userService) RolesByEmail(ctx context.Context, email string) ([]string, error) {
	return s.repo.RolesByEmail(ctx, email)
}

func (s *userService) ProfileByEmail(ctx context.Context, email string) (string, error) {
	roles, err := s.repo.RolesByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if len(roles) == 0 {
		return "", nil
	}
	return roles[0], nil
}

// encryptPassword stores the password through the reversible cipher using the
// secrets from the property store.
func (s *userService) encryptPassword(ctx context.Context, password string) (string, error) {
	secret, err := s.props.Value(ctx, properties.KeyCryptoSecret)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", properties.KeyCryptoSecret, err)
	}
	salt, err := s.props.Value(ctx, properties.KeyCryptoSalt)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", properties.KeyCryptoSalt, err)
	}
	return cipher.Encrypt(password, secret, salt, s.cipherMode)
}

// sendWelcome emails the new user if mail is configured. Failures are logged
// and never block creation.
func (s *userService) sendWelcome(user *User) {
	if s.mail == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if !s.mail.IsConfigured(ctx) {
			return
		}
		body := fmt.Sprintf("Hi %s,\n\nYour Petfolio account is ready. You can sign in with this email address.\n", user.Name)
		if err := s.mail.Send(ctx, user.Email, "Welcome to Petfolio", body); err != nil {
			slog.Warn("Failed to send welcome email", "email", user.Email, "error", err)
		}
	}()
}

// generateUUID returns a random v4 UUID string.
func generateUUID() string {
	b := make([]byte, 16)
	rand.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
