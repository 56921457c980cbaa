package user

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(store *memoryStore) *Service {
	return NewService(store, bcrypt.MinCost)
}

func TestCreateIssuesHashedPIN(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)

	first := "Ana"
	cred, err := service.Create(context.Background(), CreateInput{
		UserID:    " u42 ",
		Email:     "Ana@Example.com",
		FirstName: &first,
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), cred.Password)
	assert.Equal(t, "u42", cred.User.UserID)
	assert.Equal(t, "ana@example.com", cred.User.Email)
	assert.NotEqual(t, cred.Password, cred.User.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.byID["u42"].PasswordHash), []byte(cred.Password)))
}

func TestCreateRejectsDuplicates(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)
	ctx := context.Background()

	_, err := service.Create(ctx, CreateInput{UserID: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = service.Create(ctx, CreateInput{UserID: "u2", Email: "A@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = service.Create(ctx, CreateInput{UserID: "u1", Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrUserIDTaken)
}

func TestCreateValidatesInput(t *testing.T) {
	service := newTestService(newMemoryStore())
	ctx := context.Background()

	for _, id := range []string{"", "  ", "a/b", "..", `a\b`} {
		_, err := service.Create(ctx, CreateInput{UserID: id, Email: "a@example.com"})
		assert.ErrorIs(t, err, ErrInvalidUserID, id)
	}

	for _, email := range []string{"", "not-an-email", "Ana <ana@example.com>"} {
		_, err := service.Create(ctx, CreateInput{UserID: "u1", Email: email})
		assert.ErrorIs(t, err, ErrInvalidEmail, email)
	}
}

func TestConcurrentRegistrationWithSameEmail(t *testing.T) {
	store := newMemoryStore()
	store.getDelay = 10 * time.Millisecond
	service := newTestService(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Create(context.Background(), CreateInput{
				UserID: []string{"u1", "u2"}[i],
				Email:  "same@example.com",
			})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrEmailTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, store.byID, 1)
}

func TestListClampsPagination(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)
	ctx := context.Background()
	for _, id := range []string{"u1", "u2", "u3"} {
		_, err := service.Create(ctx, CreateInput{UserID: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}

	page, err := service.List(ctx, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Len(t, page.Users, 3)
	assert.False(t, page.HasMore())

	page, err = service.List(ctx, 500, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)

	page, err = service.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.True(t, page.HasMore())
}

func TestUpdate(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)
	ctx := context.Background()
	_, err := service.Create(ctx, CreateInput{UserID: "u1", Email: "one@example.com"})
	require.NoError(t, err)
	_, err = service.Create(ctx, CreateInput{UserID: "u2", Email: "two@example.com"})
	require.NoError(t, err)

	_, err = service.Update(ctx, "u1", Patch{})
	assert.ErrorIs(t, err, ErrNoFields)

	taken := "two@example.com"
	_, err = service.Update(ctx, "u1", Patch{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)

	same := "ONE@example.com"
	last := " Diaz "
	updated, err := service.Update(ctx, "u1", Patch{Email: &same, LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "one@example.com", updated.Email)
	require.NotNil(t, updated.LastName)
	assert.Equal(t, "Diaz", *updated.LastName)

	name := "x"
	_, err = service.Update(ctx, "missing", Patch{FirstName: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRotatePINKeepsCurrentHash(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)
	ctx := context.Background()

	created, err := service.Create(ctx, CreateInput{UserID: "u1", Email: "one@example.com"})
	require.NoError(t, err)

	rotated, err := service.RotatePIN(ctx, "one@example.com")
	require.NoError(t, err)

	stored := store.byID["u1"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(created.Password)),
		"current PIN must survive a rotation")
	require.NotNil(t, stored.PendingPasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.PendingPasswordHash), []byte(rotated.Password)))

	again, err := service.RotatePIN(ctx, "one@example.com")
	require.NoError(t, err)
	pending := []byte(*store.byID["u1"].PendingPasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(pending, []byte(again.Password)))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.byID["u1"].PasswordHash), []byte(created.Password)))

	_, err = service.RotatePIN(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteAndExists(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)
	ctx := context.Background()
	_, err := service.Create(ctx, CreateInput{UserID: "u1", Email: "one@example.com"})
	require.NoError(t, err)

	ok, err := service.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = service.Delete(ctx, "u1")
	require.NoError(t, err)

	ok, err = service.Exists(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = service.Delete(ctx, "u1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// memoryStore implements store for tests. Like the unique indexes in the
// schema, Create enforces uniqueness atomically.
type memoryStore struct {
	mu       sync.Mutex
	byID     map[string]User
	getDelay time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byID: make(map[string]User)}
}

func (m *memoryStore) Create(ctx context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return User{}, ErrEmailTaken
		}
	}
	if _, ok := m.byID[u.UserID]; ok {
		return User{}, ErrUserIDTaken
	}
	u.CreatedAt = time.Now().Add(time.Duration(len(m.byID)) * time.Millisecond)
	u.UpdatedAt = u.CreatedAt
	m.byID[u.UserID] = u
	return u, nil
}

func (m *memoryStore) GetByUserID(ctx context.Context, userID string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memoryStore) GetByEmail(ctx context.Context, email string) (User, error) {
	if m.getDelay > 0 {
		time.Sleep(m.getDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]User, 0, len(m.byID))
	for _, u := range m.byID {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *memoryStore) Update(ctx context.Context, userID string, patch Patch) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.FirstName != nil {
		u.FirstName = patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = patch.LastName
	}
	u.UpdatedAt = time.Now()
	m.byID[userID] = u
	return u, nil
}

func (m *memoryStore) SetPendingPasswordHash(ctx context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PendingPasswordHash = &hash
	m.byID[userID] = u
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, userID string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	delete(m.byID, userID)
	return u, nil
}
