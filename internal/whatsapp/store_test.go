package whatsapp

import (
	"testing"

	"github.com/dialogix/dialogix/internal/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureCreatesDisconnectedRow(t *testing.T) {
	store := newSessionStore(newTestDB(t))

	_, err := store.Get(10)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	row, err := store.Ensure(10)
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, row.Status)
	assert.Equal(t, "tenant-10", row.SessionId)

	again, err := store.Ensure(10)
	require.NoError(t, err)
	assert.Equal(t, row.ID, again.ID)

	var count int64
	store.db.Model(&domain.WhatsappSession{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPatchSemantics(t *testing.T) {
	store := newSessionStore(newTestDB(t))
	_, err := store.Ensure(1)
	require.NoError(t, err)

	row, err := store.Patch(1, sessionPatch{
		Status:      strptr(StatusConnected),
		PhoneNumber: strptr("5511999"),
		DisplayName: strptr("Desk"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConnected, row.Status)

	// nil pointers leave columns untouched
	row, err = store.Patch(1, sessionPatch{Status: strptr(StatusError), ErrorMessage: strptr("poll failed")})
	require.NoError(t, err)
	assert.Equal(t, StatusError, row.Status)
	assert.Equal(t, "5511999", row.PhoneNumber)
	assert.Equal(t, "Desk", row.DisplayName)

	// pointer to empty string clears
	row, err = store.Patch(1, sessionPatch{ErrorMessage: strptr("")})
	require.NoError(t, err)
	assert.Empty(t, row.ErrorMessage)
	assert.Equal(t, StatusError, row.Status)
}

func TestCacheMatchesRowAfterPatch(t *testing.T) {
	db := newTestDB(t)
	store := newSessionStore(db)
	_, err := store.Ensure(2)
	require.NoError(t, err)

	_, err = store.Patch(2, sessionPatch{Status: strptr(StatusQrPending)})
	require.NoError(t, err)

	// cached read agrees with the persisted row
	cached, err := store.Get(2)
	require.NoError(t, err)
	var row domain.WhatsappSession
	require.NoError(t, db.Where("tenant_id = ?", 2).First(&row).Error)
	assert.Equal(t, row.Status, cached.Status)

	// after a cache drop the row is reloaded from the database
	store.Drop(2)
	reloaded, err := store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, row.Status, reloaded.Status)
}

func TestQRCacheNeverPersists(t *testing.T) {
	db := newTestDB(t)
	store := newSessionStore(db)
	_, err := store.Ensure(3)
	require.NoError(t, err)

	store.SetQR(3, "base64qr")
	assert.Equal(t, "base64qr", store.QR(3))

	// nothing about the QR exists in the table schema
	cols, err := db.Migrator().ColumnTypes(&domain.WhatsappSession{})
	require.NoError(t, err)
	for _, col := range cols {
		assert.NotContains(t, col.Name(), "qr")
	}

	store.SetQR(3, "")
	assert.Empty(t, store.QR(3))
}

func TestDeleteRemovesRowAndCaches(t *testing.T) {
	db := newTestDB(t)
	store := newSessionStore(db)
	_, err := store.Ensure(5)
	require.NoError(t, err)
	store.SetQR(5, "pending-qr")

	require.NoError(t, store.Delete(5))

	assert.Empty(t, store.QR(5))
	_, err = store.Get(5)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	var count int64
	db.Model(&domain.WhatsappSession{}).Where("tenant_id = ?", 5).Count(&count)
	assert.Zero(t, count)
}

func TestActiveTenantsSkipsDisconnected(t *testing.T) {
	store := newSessionStore(newTestDB(t))
	for tenant, status := range map[int64]string{
		1: StatusConnected,
		2: StatusDisconnected,
		3: StatusQrPending,
		4: StatusError,
	} {
		_, err := store.Ensure(tenant)
		require.NoError(t, err)
		_, err = store.Patch(tenant, sessionPatch{Status: strptr(status)})
		require.NoError(t, err)
	}

	ids, err := store.ActiveTenants()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3, 4}, ids)
}
