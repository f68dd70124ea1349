package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestManager(t *testing.T) *DatabaseManager {
	t.Helper()
	dsn := fmt.Sprintf("file:core_%d?mode=memory&cache=shared", time.Now().UnixNano())
	dm, err := Open(sqlite.Open(dsn), 1, LogLevelSilent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })
	require.NoError(t, dm.Migrate())
	return dm
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"silent":  LogLevelSilent,
		"ERROR":   LogLevelError,
		" info ":  LogLevelInfo,
		"warn":    LogLevelWarn,
		"":        LogLevelWarn,
		"verbose": LogLevelWarn,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestDialector(t *testing.T) {
	d, err := Dialector("mysql", "root:pw@tcp(localhost:3306)/presensi?parseTime=true")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = Dialector("postgres", "host=localhost user=presensi dbname=presensi")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector("oracle", "")
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	dm := openTestManager(t)
	ctx := context.Background()

	err := dm.Exec(ctx, func(db *gorm.DB) error {
		return UpsertUsers(db, []User{
			{ID: 1, Name: "Budi Santoso", Role: "member"},
			{ID: 2, Name: "Siti Admin", Role: "admin"},
		})
	})
	require.NoError(t, err)

	// second upsert renames user 1
	err = dm.Exec(ctx, func(db *gorm.DB) error {
		return UpsertUsers(db, []User{{ID: 1, Name: "Budi S.", Role: "member"}})
	})
	require.NoError(t, err)

	var user *User
	require.NoError(t, dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		user, err = FindUserByID(db, 1)
		return err
	}))
	require.NotNil(t, user)
	assert.Equal(t, "Budi S.", user.Name)

	require.NoError(t, dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		user, err = FindUserByID(db, 99)
		return err
	}))
	assert.Nil(t, user)
}

func TestTransactionRollsBack(t *testing.T) {
	dm := openTestManager(t)
	ctx := context.Background()

	err := dm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&User{ID: 5, Name: "Temp", Role: "member"}).Error; err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	assert.Error(t, err)

	var count int64
	require.NoError(t, dm.DB.Model(&User{}).Count(&count).Error)
	assert.Zero(t, count)
}
