package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/judyrop/crm/config"
	"github.com/judyrop/crm/models"
)

func getTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "crm.sqlite3?_foreign_keys=on", SQLiteDSN("crm.sqlite3"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", SQLiteDSN("file:x?mode=memory"))
	assert.Equal(t, "file:x?_foreign_keys=off", SQLiteDSN("file:x?_foreign_keys=off"))
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "crm"})
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=crm sslmode=disable", dsn)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"}, nil)
	assert.EqualError(t, err, `unsupported database driver "mysql"`)
}

func TestMigrateNormalizesLegacyStatuses(t *testing.T) {
	db := getTestDB(t)

	order := models.Order{Status: models.StatusPending}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Model(&order).UpdateColumn("status", models.LegacyStatusInTransit).Error)

	require.NoError(t, NormalizeOrderStatuses(db))

	var got models.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, models.StatusOutForDelivery, got.Status)
}

func TestDuplicateEmailIsTranslated(t *testing.T) {
	db := getTestDB(t)

	a := models.Customer{Name: "A", IsActive: true}
	a.SetEmail("dup@x.com")
	require.NoError(t, db.Create(&a).Error)

	b := models.Customer{Name: "B", IsActive: true}
	b.SetEmail("dup@x.com")
	assert.ErrorIs(t, db.Create(&b).Error, gorm.ErrDuplicatedKey)

	// Blank emails are stored as NULL and never collide.
	require.NoError(t, db.Create(&models.Customer{Name: "C"}).Error)
	require.NoError(t, db.Create(&models.Customer{Name: "D"}).Error)
}
