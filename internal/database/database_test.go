package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = ConnectRedis("")
	require.Error(t, err)
}

func TestConnectSQLite(t *testing.T) {
	db, err := ConnectSQLite("file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE smoke (id INTEGER)").Error)
	require.NoError(t, db.Exec("INSERT INTO smoke (id) VALUES (1)").Error)

	var count int64
	require.NoError(t, db.Table("smoke").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestConnectorsRejectEmptyTargets(t *testing.T) {
	_, err := ConnectPostgres("")
	require.Error(t, err)
	_, err = ConnectSQLite("")
	require.Error(t, err)
	_, err = ConnectNATS("", "test")
	require.Error(t, err)
}
