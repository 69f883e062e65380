package properties

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/petfolio/petfolio/internal/apperror"
)

// --- Mock Repository ---

// mockPropertyRepo implements PropertyRepository for testing.
type mockPropertyRepo struct {
	getFn    func(ctx context.Context, key string) (*Property, error)
	setFn    func(ctx context.Context, key, value string) error
	getAllFn func(ctx context.Context) ([]Property, error)
	getCalls int
}

func (m *mockPropertyRepo) Get(ctx context.Context, key string) (*Property, error) {
	m.getCalls++
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, apperror.NewNotFound("property not found")
}

func (m *mockPropertyRepo) Set(ctx context.Context, key, value string) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockPropertyRepo) GetAll(ctx context.Context) ([]Property, error) {
	if m.getAllFn != nil {
		return m.getAllFn(ctx)
	}
	return nil, nil
}

// --- Test Helpers ---

// newTestService creates a property service backed by a miniredis instance.
func newTestService(t *testing.T, repo PropertyRepository) (PropertyService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewPropertyService(repo, rdb, 30*time.Second), mr
}

// --- Tests ---

func TestValue_CacheMissThenHit(t *testing.T) {
	repo := &mockPropertyRepo{
		getFn: func(ctx context.Context, key string) (*Property, error) {
			return &Property{Key: key, Value: "hs256-signing-secret"}, nil
		},
	}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	// First read misses the cache and hits the repository.
	got, err := svc.Value(ctx, KeyJWTSecret)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if got != "hs256-signing-secret" {
		t.Errorf("got %q", got)
	}
	if repo.getCalls != 1 {
		t.Errorf("repo calls after first read = %d, want 1", repo.getCalls)
	}

	// Second read is served from cache.
	if _, err := svc.Value(ctx, KeyJWTSecret); err != nil {
		t.Fatalf("cached Value: %v", err)
	}
	if repo.getCalls != 1 {
		t.Errorf("repo calls after cached read = %d, want 1", repo.getCalls)
	}
}

func TestValue_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &mockPropertyRepo{})

	_, err := svc.Value(context.Background(), "NO_SUCH_KEY")
	if err == nil {
		t.Fatal("expected not-found error, got nil")
	}
	appErr, ok := err.(*apperror.AppError)
	if !ok || appErr.Code != 404 {
		t.Errorf("got %v, want apperror with code 404", err)
	}
}

func TestSet_InvalidatesCache(t *testing.T) {
	value := "v1"
	repo := &mockPropertyRepo{
		getFn: func(ctx context.Context, key string) (*Property, error) {
			return &Property{Key: key, Value: value}, nil
		},
	}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	if got, _ := svc.Value(ctx, KeyCryptoSalt); got != "v1" {
		t.Fatalf("initial value = %q", got)
	}

	value = "v2"
	if err := svc.Set(ctx, KeyCryptoSalt, "v2"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// The stale cache entry must be gone: next read returns the new value.
	if got, _ := svc.Value(ctx, KeyCryptoSalt); got != "v2" {
		t.Errorf("value after rotation = %q, want v2", got)
	}
}

func TestSet_EmptyKeyRejected(t *testing.T) {
	svc, _ := newTestService(t, &mockPropertyRepo{})

	err := svc.Set(context.Background(), "", "value")
	appErr, ok := err.(*apperror.AppError)
	if !ok || appErr.Code != 422 {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestValue_CacheExpiryFallsThrough(t *testing.T) {
	repo := &mockPropertyRepo{
		getFn: func(ctx context.Context, key string) (*Property, error) {
			return &Property{Key: key, Value: "secret"}, nil
		},
	}
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.Value(ctx, KeyCryptoSecret); err != nil {
		t.Fatalf("Value: %v", err)
	}

	// After the TTL elapses the next read goes back to the repository.
	mr.FastForward(time.Minute)

	if _, err := svc.Value(ctx, KeyCryptoSecret); err != nil {
		t.Fatalf("Value after expiry: %v", err)
	}
	if repo.getCalls != 2 {
		t.Errorf("repo calls = %d, want 2 (cache expired)", repo.getCalls)
	}
}
