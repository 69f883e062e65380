package users

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/cipher"
	"github.com/petfolio/petfolio/internal/plugins/properties"
)

// --- Mock Repository ---

type mockUserRepo struct {
	createFn      func(ctx context.Context, user *User) error
	findFn        func(ctx context.Context, email string) (*User, error)
	emailExistsFn func(ctx context.Context, email string) (bool, error)
	hasRoleFn     func(ctx context.Context, email, role string) (bool, error)
	assignRoleFn  func(ctx context.Context, email, role string) error
	removeRoleFn  func(ctx context.Context, email, role string) error
	rolesFn       func(ctx context.Context, email string) ([]string, error)

	created *User
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	m.created = user
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findFn != nil {
		return m.findFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) List(ctx context.Context) ([]User, error) { return nil, nil }

func (m *mockUserRepo) Update(ctx context.Context, user *User) error { return nil }

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepo) EncryptedPasswordByEmail(ctx context.Context, email string) (string, error) {
	return "", apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) RolesByEmail(ctx context.Context, email string) ([]string, error) {
	if m.rolesFn != nil {
		return m.rolesFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) HasRole(ctx context.Context, email, role string) (bool, error) {
	if m.hasRoleFn != nil {
		return m.hasRoleFn(ctx, email, role)
	}
	return false, nil
}

func (m *mockUserRepo) AssignRole(ctx context.Context, email, role string) error {
	if m.assignRoleFn != nil {
		return m.assignRoleFn(ctx, email, role)
	}
	return nil
}

func (m *mockUserRepo) RemoveRole(ctx context.Context, email, role string) error {
	if m.removeRoleFn != nil {
		return m.removeRoleFn(ctx, email, role)
	}
	return nil
}

// --- Test Helpers ---

type mapProps map[string]string

func (m mapProps) Value(ctx context.Context, key string) (string, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return "", apperror.NewNotFound("property " + key + " not found")
}

const (
	testSecret = "service-secret"
	testSalt   = "service-salt"
)

func cipherProps() mapProps {
	return mapProps{
		properties.KeyCryptoSecret: testSecret,
		properties.KeyCryptoSalt:   testSalt,
	}
}

func newTestService(repo *mockUserRepo) UserService {
	return NewUserService(repo, cipherProps(), nil, cipher.ModeGCM)
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("got %v, want apperror with status %d", err, want)
	}
	if appErr.Code != want {
		t.Errorf("status = %d, want %d", appErr.Code, want)
	}
}

// --- Tests ---

func TestCreate_EncryptsPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Name:     "Ada",
		Lastname: "Lovelace",
		Email:    "Ada@Example.com",
		Password: "hunter2",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.Role != DefaultRole {
		t.Errorf("role = %q, want %q", user.Role, DefaultRole)
	}
	if repo.created == nil {
		t.Fatal("repository Create was not called")
	}
	if repo.created.PasswordEncrypted == "hunter2" || repo.created.PasswordEncrypted == "" {
		t.Fatal("password stored without encryption")
	}

	plain, err := cipher.Decrypt(repo.created.PasswordEncrypted, testSecret, testSalt)
	if err != nil {
		t.Fatalf("decrypting stored password: %v", err)
	}
	if plain != "hunter2" {
		t.Errorf("decrypted password = %q, want hunter2", plain)
	}
}

func TestCreate_SanitizesNames(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Name:     "  <script>alert(1)</script>Ada ",
		Email:    "ada@example.com",
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.Name != "Ada" {
		t.Errorf("name = %q, want markup stripped and trimmed", user.Name)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) { return true, nil },
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Ada", Email: "ada@example.com", Password: "pw",
	})
	assertStatus(t, err, 409)
}

func TestCreate_InvalidInput(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	cases := []struct {
		name string
		req  CreateUserRequest
	}{
		{"missing email", CreateUserRequest{Name: "Ada", Password: "pw"}},
		{"malformed email", CreateUserRequest{Name: "Ada", Email: "not-an-email", Password: "pw"}},
		{"missing password", CreateUserRequest{Name: "Ada", Email: "a@b.com"}},
		{"missing name", CreateUserRequest{Email: "a@b.com", Password: "pw"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			assertStatus(t, err, 422)
		})
	}
}

func TestCreate_MissingCipherConfig(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, mapProps{}, nil, cipher.ModeGCM)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Ada", Email: "ada@example.com", Password: "pw",
	})
	assertStatus(t, err, 404)
}

func TestAssignRole_AlreadyHeld(t *testing.T) {
	repo := &mockUserRepo{
		hasRoleFn: func(ctx context.Context, email, role string) (bool, error) { return true, nil },
	}
	svc := newTestService(repo)

	err := svc.AssignRole(context.Background(), "a@b.com", "editor")
	assertStatus(t, err, 409)
}

func TestRemoveRole_NotHeld(t *testing.T) {
	repo := &mockUserRepo{
		hasRoleFn: func(ctx context.Context, email, role string) (bool, error) { return false, nil },
	}
	svc := newTestService(repo)

	err := svc.RemoveRole(context.Background(), "a@b.com", "editor")
	assertStatus(t, err, 404)
}

func TestProfileByEmail(t *testing.T) {
	repo := &mockUserRepo{
		rolesFn: func(ctx context.Context, email string) ([]string, error) {
			return []string{"admin", "editor"}, nil
		},
	}
	svc := newTestService(repo)

	profile, err := svc.ProfileByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("ProfileByEmail: %v", err)
	}
	if profile != "admin" {
		t.Errorf("profile = %q, want admin (primary role first)", profile)
	}
}

func TestMergeRoles(t *testing.T) {
	cases := []struct {
		name    string
		primary string
		extra   []string
		want    []string
	}{
		{"primary only", "user", nil, []string{"user"}},
		{"union with extras", "user", []string{"admin"}, []string{"user", "admin"}},
		{"duplicate dropped", "admin", []string{"admin", "editor"}, []string{"admin", "editor"}},
		{"empty primary", "", []string{"editor"}, []string{"editor"}},
		{"all empty", "", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mergeRoles(tc.primary, tc.extra)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("mergeRoles(%q, %v) = %v, want %v", tc.primary, tc.extra, got, tc.want)
			}
		})
	}
}
