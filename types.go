package adminGate

import (
	"context"
	"strings"
	"sync"
)

// Principal is the authenticated administrator bound to a session.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AdminRecord is the credential record returned by an [AdminProvider].
type AdminRecord struct {
	ID           string
	Username     string
	PasswordHash string
}

// AdminProvider looks up administrators for [Guard.Login]. Implementations must
// return [ErrAdminNotFound] for unknown usernames.
type AdminProvider interface {
	GetAdminByUsername(ctx context.Context, username string) (AdminRecord, error)
}

// PasswordHashUpdater is implemented by providers that can persist a rehashed
// password. Login calls it when Password.UpgradeOnLogin is set and the stored hash
// uses weaker parameters than the configured ones.
type PasswordHashUpdater interface {
	UpdatePasswordHash(ctx context.Context, adminID, newHash string) error
}

// StaticAdmins is an in-memory [AdminProvider] populated from configuration.
// Usernames are matched case-insensitively.
type StaticAdmins struct {
	mu     sync.RWMutex
	admins map[string]AdminRecord
}

// NewStaticAdmins indexes records by lower-cased username. Later duplicates win.
func NewStaticAdmins(records ...AdminRecord) *StaticAdmins {
	s := &StaticAdmins{admins: make(map[string]AdminRecord, len(records))}
	for _, r := range records {
		s.admins[strings.ToLower(r.Username)] = r
	}
	return s
}

func (s *StaticAdmins) GetAdminByUsername(_ context.Context, username string) (AdminRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.admins[strings.ToLower(username)]
	if !ok {
		return AdminRecord{}, ErrAdminNotFound
	}
	return r, nil
}

func (s *StaticAdmins) UpdatePasswordHash(_ context.Context, adminID, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, r := range s.admins {
		if r.ID == adminID {
			r.PasswordHash = newHash
			s.admins[key] = r
			return nil
		}
	}
	return ErrAdminNotFound
}
