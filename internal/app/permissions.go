package app

import (
	"maps"
	"sync"

	"github.com/dkeye/cowork/internal/domain"
	"github.com/rs/zerolog/log"
)

// PermissionStore keeps resource ownership and the per-user permission
// matrix. Ownership is written once and never transferred.
type PermissionStore struct {
	mu     sync.RWMutex
	owners map[string]string
	perms  map[string]map[string]domain.Permission
}

func NewPermissionStore() *PermissionStore {
	return &PermissionStore{
		owners: make(map[string]string),
		perms:  make(map[string]map[string]domain.Permission),
	}
}

// RegisterOwnership records username as owner of resourceID and grants it
// full rights. It returns false when the resource already has an owner.
func (s *PermissionStore) RegisterOwnership(resourceID, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[resourceID]; ok {
		return false
	}
	s.owners[resourceID] = username
	s.perms[resourceID] = map[string]domain.Permission{username: domain.FullPermission}
	log.Debug().Str("module", "app.permissions").Str("resource", resourceID).Str("owner", username).Msg("ownership registered")
	return true
}

func (s *PermissionStore) Owner(resourceID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[resourceID]
	return o, ok
}

func (s *PermissionStore) CanEdit(username, resourceID string) bool {
	return s.check(username, resourceID).CanEdit
}

func (s *PermissionStore) CanDelete(username, resourceID string) bool {
	return s.check(username, resourceID).CanDelete
}

func (s *PermissionStore) check(username, resourceID string) domain.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[resourceID]
	if !ok {
		return domain.Permission{}
	}
	if owner == username {
		return domain.FullPermission
	}
	return s.perms[resourceID][username]
}

// Grant replaces target's entry on resourceID. Only the owner may grant.
func (s *PermissionStore) Grant(granter, resourceID, target string, p domain.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.owners[resourceID]; !ok || owner != granter {
		return domain.ErrNotOwner
	}
	if target == granter {
		// the owner's rights are implicit and cannot be narrowed
		return nil
	}
	s.perms[resourceID][target] = p
	log.Debug().Str("module", "app.permissions").Str("resource", resourceID).Str("target", target).
		Bool("can_edit", p.CanEdit).Bool("can_delete", p.CanDelete).Msg("permission granted")
	return nil
}

// Revoke removes target's entry if present. Only the owner may revoke.
func (s *PermissionStore) Revoke(revoker, resourceID, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.owners[resourceID]; !ok || owner != revoker {
		return domain.ErrNotOwner
	}
	if target == revoker {
		return nil
	}
	delete(s.perms[resourceID], target)
	log.Debug().Str("module", "app.permissions").Str("resource", resourceID).Str("target", target).Msg("permission revoked")
	return nil
}

// Entry returns the explicit entry for username, not counting ownership.
func (s *PermissionStore) Entry(resourceID, username string) (domain.Permission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.perms[resourceID][username]
	return p, ok
}

// Entries returns a copy of the whole matrix row for resourceID.
func (s *PermissionStore) Entries(resourceID string) map[string]domain.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Permission, len(s.perms[resourceID]))
	maps.Copy(out, s.perms[resourceID])
	return out
}

// Forget drops ownership and every entry of resourceID. Used on delete.
func (s *PermissionStore) Forget(resourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owners, resourceID)
	delete(s.perms, resourceID)
}
