// Package whatsapp manages the per-tenant WhatsApp session lifecycle:
// starting and stopping provider sessions, normalizing provider status
// into the stored state machine, and serving QR codes during pairing.
package whatsapp

import (
	"context"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/wppconnect"
	"github.com/dialogix/dialogix/pkg/metrics"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventChannelStatusChanged is published on every normalized status change.
const EventChannelStatusChanged = "channel.status.changed"

// StatusChange is the payload for EventChannelStatusChanged.
type StatusChange struct {
	TenantId  int64  `json:"tenant_id,string"`
	SessionId string `json:"session_id"`
	Old       string `json:"old"`
	New       string `json:"new"`
}

// State is the session snapshot returned to API callers. The QR code itself
// is served by GetQRCode only, State just flags its presence.
type State struct {
	TenantId     int64     `json:"tenant_id,string"`
	SessionId    string    `json:"session_id"`
	Status       string    `json:"status"`
	PhoneNumber  string    `json:"phone_number"`
	DisplayName  string    `json:"display_name"`
	ErrorMessage string    `json:"error_message"`
	QrAvailable  bool      `json:"qr_available"`
	LastUpdateAt time.Time `json:"last_update_at"`
}

// Service drives the WhatsApp channel lifecycle for all tenants.
type Service struct {
	db       *gorm.DB
	store    *sessionStore
	bus      EventBus.Bus
	clientFn func() *wppconnect.Client
}

// NewService creates the lifecycle service. clientFn returns the provider
// client built from current settings, it is called per operation so runtime
// setting changes take effect without a restart.
func NewService(db *gorm.DB, bus EventBus.Bus, clientFn func() *wppconnect.Client) *Service {
	return &Service{
		db:       db,
		store:    newSessionStore(db),
		bus:      bus,
		clientFn: clientFn,
	}
}

var defaultService *Service

// SetDefault installs the process-wide service instance.
func SetDefault(s *Service) { defaultService = s }

// Default returns the process-wide service instance.
func Default() *Service { return defaultService }

func (s *Service) stateOf(row domain.WhatsappSession) State {
	return State{
		TenantId:     row.TenantId,
		SessionId:    row.SessionId,
		Status:       row.Status,
		PhoneNumber:  row.PhoneNumber,
		DisplayName:  row.DisplayName,
		ErrorMessage: row.ErrorMessage,
		QrAvailable:  s.store.QR(row.TenantId) != "",
		LastUpdateAt: row.LastUpdateAt,
	}
}

func (s *Service) publishChange(row domain.WhatsappSession, old string) {
	if row.Status == old || s.bus == nil {
		return
	}
	s.bus.Publish(EventChannelStatusChanged, StatusChange{
		TenantId:  row.TenantId,
		SessionId: row.SessionId,
		Old:       old,
		New:       row.Status,
	})
	zap.L().Info("whatsapp session status changed",
		zap.String("namespace", "whatsapp"),
		zap.Int64("tenant_id", row.TenantId),
		zap.String("old", old),
		zap.String("new", row.Status))
}

// applyPayload folds one provider payload into the tenant's stored state.
// Empty probe results leave the corresponding columns untouched.
func (s *Service) applyPayload(tenantID int64, prior domain.WhatsappSession, p wppconnect.Payload) (domain.WhatsappSession, error) {
	patch := sessionPatch{}

	newStatus := MapStatus(wppconnect.ProbeStatus(p), prior.Status)
	if connected, ok := wppconnect.ProbeConnected(p); ok {
		if connected {
			newStatus = StatusConnected
		} else if newStatus == StatusConnected {
			newStatus = StatusDisconnected
		}
	}
	if newStatus != prior.Status {
		patch.Status = strptr(newStatus)
	}
	if phone := wppconnect.ProbePhone(p); phone != "" {
		patch.PhoneNumber = strptr(phone)
	}
	if name := wppconnect.ProbeDisplayName(p); name != "" {
		patch.DisplayName = strptr(name)
	}
	if newStatus == StatusConnected {
		patch.ErrorMessage = strptr("")
	}

	if qr := wppconnect.ProbeQRCode(p); qr != "" {
		s.store.SetQR(tenantID, qr)
	}
	if newStatus == StatusConnected || newStatus == StatusDisconnected {
		s.store.SetQR(tenantID, "")
	}

	row, err := s.store.Patch(tenantID, patch)
	if err != nil {
		return row, err
	}
	s.publishChange(row, prior.Status)
	s.syncChannel(row)
	return row, nil
}

// syncChannel mirrors the session state onto the tenant's whatsapp channel
// row so channel listings stay accurate without joining the session table.
func (s *Service) syncChannel(row domain.WhatsappSession) {
	chStatus := domain.ChannelDisconnected
	if row.Status == StatusConnected {
		chStatus = domain.ChannelConnected
	}
	err := s.db.Model(&domain.ChanChannel{}).
		Where("tenant_id = ? and type = ?", row.TenantId, domain.ChannelTypeWhatsapp).
		Updates(map[string]interface{}{
			"status":       chStatus,
			"phone_number": row.PhoneNumber,
		}).Error
	if err != nil {
		zap.L().Error("sync whatsapp channel failed",
			zap.String("namespace", "whatsapp"),
			zap.Int64("tenant_id", row.TenantId), zap.Error(err))
	}
}

// clearChannel resets the tenant's whatsapp channel row after teardown.
func (s *Service) clearChannel(tenantID int64) {
	err := s.db.Model(&domain.ChanChannel{}).
		Where("tenant_id = ? and type = ?", tenantID, domain.ChannelTypeWhatsapp).
		Updates(map[string]interface{}{
			"status":       domain.ChannelDisconnected,
			"phone_number": "",
		}).Error
	if err != nil {
		zap.L().Error("clear whatsapp channel failed",
			zap.String("namespace", "whatsapp"),
			zap.Int64("tenant_id", tenantID), zap.Error(err))
	}
}

// synthesizedState builds a disconnected snapshot for a tenant without a
// session row, carrying over the channel record's phone number if any.
func (s *Service) synthesizedState(tenantID int64) State {
	st := State{
		TenantId:  tenantID,
		SessionId: SessionID(tenantID),
		Status:    StatusDisconnected,
	}
	var ch domain.ChanChannel
	err := s.db.Where("tenant_id = ? and type = ?", tenantID, domain.ChannelTypeWhatsapp).
		First(&ch).Error
	if err == nil {
		st.PhoneNumber = ch.PhoneNumber
	}
	return st
}

// Connect starts or resumes the tenant's provider session.
func (s *Service) Connect(ctx context.Context, tenantID int64) (State, error) {
	client := s.clientFn()
	if !client.Configured() {
		return State{}, wppconnect.ErrNotConfigured
	}
	prior, err := s.store.Ensure(tenantID)
	if err != nil {
		return State{}, err
	}

	row, err := s.store.Patch(tenantID, sessionPatch{Status: strptr(StatusConnecting), ErrorMessage: strptr("")})
	if err != nil {
		return State{}, err
	}
	s.publishChange(row, prior.Status)

	payload, err := client.StartSession(ctx, row.SessionId)
	if err != nil {
		failed, _ := s.store.Patch(tenantID, sessionPatch{
			Status:       strptr(StatusError),
			ErrorMessage: strptr(err.Error()),
		})
		s.publishChange(failed, StatusConnecting)
		metrics.IncrCounter("whatsapp_connect_error", 1)
		return s.stateOf(failed), errors.Wrap(err, "start session")
	}

	row, err = s.applyPayload(tenantID, row, payload)
	if err != nil {
		return State{}, err
	}
	metrics.IncrCounter("whatsapp_connect", 1)
	return s.stateOf(row), nil
}

// Reconnect tears the provider session down and starts it again, clearing
// the leftovers of the previous pairing first.
func (s *Service) Reconnect(ctx context.Context, tenantID int64) (State, error) {
	client := s.clientFn()
	if !client.Configured() {
		return State{}, wppconnect.ErrNotConfigured
	}
	if row, err := s.store.Get(tenantID); err == nil {
		// best effort, a dead provider session should not block reconnect
		if _, lerr := client.LogoutSession(ctx, row.SessionId); lerr != nil {
			zap.L().Warn("logout before reconnect failed",
				zap.String("namespace", "whatsapp"),
				zap.Int64("tenant_id", tenantID), zap.Error(lerr))
		}
		if _, perr := s.store.Patch(tenantID, sessionPatch{
			PhoneNumber:  strptr(""),
			DisplayName:  strptr(""),
			ErrorMessage: strptr(""),
		}); perr != nil {
			return State{}, perr
		}
	}
	s.store.SetQR(tenantID, "")
	return s.Connect(ctx, tenantID)
}

// Disconnect logs the provider session out and removes the session row.
// Provider failures are logged, the local teardown always completes.
func (s *Service) Disconnect(ctx context.Context, tenantID int64) (State, error) {
	row, err := s.store.Get(tenantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.clearChannel(tenantID)
		return State{TenantId: tenantID, SessionId: SessionID(tenantID), Status: StatusDisconnected}, nil
	}
	if err != nil {
		return State{}, err
	}

	client := s.clientFn()
	if client.Configured() {
		if _, lerr := client.LogoutSession(ctx, row.SessionId); lerr != nil {
			zap.L().Warn("provider logout failed",
				zap.String("namespace", "whatsapp"),
				zap.Int64("tenant_id", tenantID), zap.Error(lerr))
		}
	}

	if err := s.store.Delete(tenantID); err != nil {
		return State{}, err
	}
	s.clearChannel(tenantID)
	s.publishChange(domain.WhatsappSession{
		TenantId:  tenantID,
		SessionId: row.SessionId,
		Status:    StatusDisconnected,
	}, row.Status)
	metrics.IncrCounter("whatsapp_disconnect", 1)
	return State{TenantId: tenantID, SessionId: row.SessionId, Status: StatusDisconnected, LastUpdateAt: time.Now()}, nil
}

// GetStatus polls the provider and reconciles the stored state with the
// answer. Without a session row a disconnected snapshot is synthesized from
// the channel record. When the provider is unreachable the stored snapshot
// is returned together with the error, the stored status is not regressed
// by transient poll failures.
func (s *Service) GetStatus(ctx context.Context, tenantID int64) (State, error) {
	row, err := s.store.Get(tenantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.synthesizedState(tenantID), nil
	}
	if err != nil {
		return State{}, err
	}

	client := s.clientFn()
	if !client.Configured() {
		return s.stateOf(row), wppconnect.ErrNotConfigured
	}

	payload, err := client.CheckConnection(ctx, row.SessionId)
	if err != nil {
		return s.stateOf(row), errors.Wrap(err, "check connection")
	}

	updated, err := s.applyPayload(tenantID, row, payload)
	if err != nil {
		return State{}, err
	}

	// connected sessions without device info get it filled from host-device
	if updated.Status == StatusConnected && (updated.PhoneNumber == "" || updated.DisplayName == "") {
		if dev, derr := client.HostDevice(ctx, updated.SessionId); derr == nil {
			updated, err = s.applyPayload(tenantID, updated, dev)
			if err != nil {
				return State{}, err
			}
		}
	}

	updated, err = s.store.Patch(tenantID, sessionPatch{Heartbeat: true})
	if err != nil {
		return State{}, err
	}
	return s.stateOf(updated), nil
}

// GetQRCode refreshes the pairing QR code from the provider and returns
// it, falling back to the last cached code when the provider answer has
// none. A tenant with no session gets ErrSessionNotFound.
func (s *Service) GetQRCode(ctx context.Context, tenantID int64) (string, error) {
	row, err := s.store.Get(tenantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}

	client := s.clientFn()
	if !client.Configured() {
		return "", wppconnect.ErrNotConfigured
	}
	payload, err := client.QRCode(ctx, row.SessionId)
	if err != nil {
		return "", errors.Wrap(err, "fetch qrcode")
	}
	if _, err := s.applyPayload(tenantID, row, payload); err != nil {
		return "", err
	}
	return s.store.QR(tenantID), nil
}

// HandleWebhook folds one provider webhook event into stored state. Events
// whose session id does not resolve to a known tenant are dropped without
// any mutation.
func (s *Service) HandleWebhook(ctx context.Context, payload map[string]interface{}) error {
	sessionID := wppconnect.ProbeSessionID(payload)
	if sessionID == "" {
		zap.L().Warn("webhook without session id dropped",
			zap.String("namespace", "whatsapp"))
		return nil
	}
	tenantID := TenantFromSessionID(sessionID)
	if tenantID == 0 {
		zap.L().Warn("webhook with foreign session id dropped",
			zap.String("namespace", "whatsapp"),
			zap.String("session_id", sessionID))
		return nil
	}
	row, err := s.store.Get(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Warn("webhook for unknown session dropped",
				zap.String("namespace", "whatsapp"),
				zap.String("session_id", sessionID))
			return nil
		}
		return err
	}

	if _, err := s.applyPayload(tenantID, row, wppconnect.Payload(payload)); err != nil {
		return err
	}
	metrics.IncrCounter("whatsapp_webhook", 1)
	return nil
}

// RunHeartbeatSweep polls every non-disconnected session concurrently and
// reconciles stored state with the provider. Used as a scheduled task.
func (s *Service) RunHeartbeatSweep(ctx context.Context) error {
	ids, err := s.store.ActiveTenants()
	if err != nil {
		return errors.Wrap(err, "list active sessions")
	}
	if len(ids) == 0 {
		return nil
	}

	pool, err := ants.NewPool(8)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, tenantID := range ids {
		tenantID := tenantID
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			if _, serr := s.GetStatus(cctx, tenantID); serr != nil {
				zap.L().Warn("session heartbeat poll failed",
					zap.String("namespace", "whatsapp"),
					zap.Int64("tenant_id", tenantID), zap.Error(serr))
			}
		})
		if err != nil {
			wg.Done()
		}
	}
	wg.Wait()
	metrics.SetGauge("whatsapp_sessions_active", int64(len(ids)))
	return nil
}
