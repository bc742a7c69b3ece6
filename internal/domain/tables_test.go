package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Every registered entity must migrate cleanly on sqlite, the backend the
// test suites run against.
func TestTablesMigrateOnSqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(Tables...))

	for _, table := range Tables {
		assert.True(t, db.Migrator().HasTable(table), "missing table for %T", table)
	}
}
