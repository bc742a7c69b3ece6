package whatsapp

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned by operations that require an existing
// session row.
var ErrSessionNotFound = errors.New("whatsapp session not found")

// SessionID returns the provider session identifier for a tenant.
func SessionID(tenantID int64) string {
	return fmt.Sprintf("tenant-%d", tenantID)
}

// TenantFromSessionID reverses SessionID. Returns 0 when the id does not
// follow the tenant-<id> form.
func TenantFromSessionID(sessionID string) int64 {
	raw, ok := strings.CutPrefix(sessionID, "tenant-")
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// sessionPatch carries partial updates. Nil pointer means leave the column
// unchanged, pointer to empty string clears it.
type sessionPatch struct {
	Status       *string
	PhoneNumber  *string
	DisplayName  *string
	ErrorMessage *string
	Heartbeat    bool
}

func strptr(s string) *string { return &s }

// sessionStore keeps whatsapp session rows with a read-through cache in
// front. The database row is the source of truth, the cache is refreshed
// on every write. QR codes never reach the database, they live only in
// the in-process qr map.
type sessionStore struct {
	db *gorm.DB

	mu    sync.RWMutex
	cache map[int64]domain.WhatsappSession
	qr    map[int64]string
}

func newSessionStore(db *gorm.DB) *sessionStore {
	return &sessionStore{
		db:    db,
		cache: make(map[int64]domain.WhatsappSession),
		qr:    make(map[int64]string),
	}
}

// Get returns the session row for a tenant, loading it from the database
// on cache miss. Returns gorm.ErrRecordNotFound when no row exists.
func (s *sessionStore) Get(tenantID int64) (domain.WhatsappSession, error) {
	s.mu.RLock()
	sess, ok := s.cache[tenantID]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	var row domain.WhatsappSession
	err := s.db.Where("tenant_id = ?", tenantID).First(&row).Error
	if err != nil {
		return domain.WhatsappSession{}, err
	}
	s.mu.Lock()
	s.cache[tenantID] = row
	s.mu.Unlock()
	return row, nil
}

// Ensure returns the tenant's session row, creating a disconnected one
// when none exists yet.
func (s *sessionStore) Ensure(tenantID int64) (domain.WhatsappSession, error) {
	sess, err := s.Get(tenantID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.WhatsappSession{}, err
	}
	row := domain.WhatsappSession{
		TenantId:     tenantID,
		SessionId:    SessionID(tenantID),
		Status:       StatusDisconnected,
		LastUpdateAt: time.Now(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		// lost a create race, reload the winner's row
		var existing domain.WhatsappSession
		if lerr := s.db.Where("tenant_id = ?", tenantID).First(&existing).Error; lerr == nil {
			row = existing
		} else {
			return domain.WhatsappSession{}, err
		}
	}
	s.mu.Lock()
	s.cache[tenantID] = row
	s.mu.Unlock()
	return row, nil
}

// Patch applies a partial update to the tenant's row and refreshes the
// cache with the persisted result.
func (s *sessionStore) Patch(tenantID int64, p sessionPatch) (domain.WhatsappSession, error) {
	if _, err := s.Ensure(tenantID); err != nil {
		return domain.WhatsappSession{}, err
	}

	now := time.Now()
	values := map[string]interface{}{"last_update_at": now}
	if p.Status != nil {
		values["status"] = *p.Status
	}
	if p.PhoneNumber != nil {
		values["phone_number"] = *p.PhoneNumber
	}
	if p.DisplayName != nil {
		values["display_name"] = *p.DisplayName
	}
	if p.ErrorMessage != nil {
		values["error_message"] = *p.ErrorMessage
	}
	if p.Heartbeat {
		values["last_heartbeat_at"] = now
	}

	err := s.db.Model(&domain.WhatsappSession{}).
		Where("tenant_id = ?", tenantID).
		Updates(values).Error
	if err != nil {
		return domain.WhatsappSession{}, err
	}

	var row domain.WhatsappSession
	if err := s.db.Where("tenant_id = ?", tenantID).First(&row).Error; err != nil {
		return domain.WhatsappSession{}, err
	}
	s.mu.Lock()
	s.cache[tenantID] = row
	s.mu.Unlock()
	return row, nil
}

// SetQR stores the pairing QR code in process memory only.
func (s *sessionStore) SetQR(tenantID int64, qr string) {
	s.mu.Lock()
	if qr == "" {
		delete(s.qr, tenantID)
	} else {
		s.qr[tenantID] = qr
	}
	s.mu.Unlock()
}

// QR returns the cached pairing QR code, empty when none is pending.
func (s *sessionStore) QR(tenantID int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.qr[tenantID]
}

// Drop removes the tenant from the caches. The database row stays.
func (s *sessionStore) Drop(tenantID int64) {
	s.mu.Lock()
	delete(s.cache, tenantID)
	delete(s.qr, tenantID)
	s.mu.Unlock()
}

// Delete removes the tenant's session row and evicts the caches.
func (s *sessionStore) Delete(tenantID int64) error {
	err := s.db.Where("tenant_id = ?", tenantID).
		Delete(&domain.WhatsappSession{}).Error
	if err != nil {
		return err
	}
	s.Drop(tenantID)
	return nil
}

// ActiveTenants returns tenant ids whose rows are worth polling. Sessions
// already disconnected are skipped.
func (s *sessionStore) ActiveTenants() ([]int64, error) {
	var ids []int64
	err := s.db.Model(&domain.WhatsappSession{}).
		Where("status in ?", []string{StatusConnecting, StatusQrPending, StatusConnected, StatusError}).
		Pluck("tenant_id", &ids).Error
	return ids, err
}
