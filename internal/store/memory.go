package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nanosoft-labs/auth-backend/internal/models"
)

// Memory is an in-process Store with the same conflict semantics as the
// database-backed adapter: duplicate keys reject, compound operations apply
// all writes or none. Used by tests and local development.
type Memory struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	byEmail  map[string]uuid.UUID
	refresh  map[uuid.UUID]models.RefreshToken
	revoked  map[string]models.RevokedToken
	recovery map[string]models.PasswordRecovery
	devices  map[string]models.DeviceToken
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]models.User),
		byEmail:  make(map[string]uuid.UUID),
		refresh:  make(map[uuid.UUID]models.RefreshToken),
		revoked:  make(map[string]models.RevokedToken),
		recovery: make(map[string]models.PasswordRecovery),
		devices:  make(map[string]models.DeviceToken),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	user := m.users[id]
	return &user, nil
}

func (m *Memory) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return ErrConflict
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *Memory) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.refresh {
		if rt.Token == token {
			found := rt
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) IsTokenRevoked(ctx context.Context, accessToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[accessToken]
	return ok, nil
}

func (m *Memory) FindPasswordRecovery(ctx context.Context, email string) (*models.PasswordRecovery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recovery[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) UpsertPasswordRecovery(ctx context.Context, rec *models.PasswordRecovery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.UpdatedAt = time.Now()
	m.recovery[rec.Email] = *rec
	return nil
}

func (m *Memory) InsertTokenPair(ctx context.Context, rt *models.RefreshToken, device *models.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.refresh {
		if existing.Token == rt.Token {
			return ErrConflict
		}
	}
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	rt.CreatedAt = time.Now()
	m.refresh[rt.ID] = *rt
	if device != nil {
		if device.ID == uuid.Nil {
			device.ID = uuid.New()
		}
		device.LoggedIn = true
		m.devices[device.UserID.String()+"/"+device.Token] = *device
	}
	return nil
}

func (m *Memory) RotateRefreshToken(ctx context.Context, oldID uuid.UUID, next *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.refresh[oldID]; !ok {
		return ErrConflict
	}
	delete(m.refresh, oldID)
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	next.CreatedAt = time.Now()
	m.refresh[next.ID] = *next
	return nil
}

func (m *Memory) RevokeTokenPair(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.revoked[accessToken]; ok {
		return ErrConflict
	}
	m.revoked[accessToken] = models.RevokedToken{Token: accessToken, RevokedAt: time.Now()}
	for id, rt := range m.refresh {
		if rt.AccessToken == accessToken {
			delete(m.refresh, id)
		}
	}
	return nil
}

func (m *Memory) UpdatePassword(ctx context.Context, userID uuid.UUID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Password = newHash
	m.users[userID] = user
	m.dropSessions(userID)
	return nil
}

func (m *Memory) CompleteRecovery(ctx context.Context, userID uuid.UUID, email string, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.recovery[email]; !ok {
		return ErrConflict
	}
	user.Password = newHash
	m.users[userID] = user
	delete(m.recovery, email)
	m.dropSessions(userID)
	return nil
}

// SessionCount reports live refresh-token records for a user.
func (m *Memory) SessionCount(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rt := range m.refresh {
		if rt.UserID == userID {
			n++
		}
	}
	return n
}

func (m *Memory) dropSessions(userID uuid.UUID) {
	for id, rt := range m.refresh {
		if rt.UserID == userID {
			delete(m.refresh, id)
		}
	}
}
