package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgenlab/xgenaudio/internal/dbstore"
)

func newTestLogger(t *testing.T) (*Logger, *dbstore.Store) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := dbstore.NewStore(db, dbstore.DriverSQLite)
	require.NoError(t, store.EnsureTable(context.Background(), Table, TableSchema()))

	return New(store), store
}

func fetchAll(t *testing.T, store *dbstore.Store) []dbstore.Record {
	t.Helper()
	recs, err := store.Find(context.Background(), dbstore.Query{Table: Table})
	require.NoError(t, err)
	return recs
}

func TestLogIDFormat(t *testing.T) {
	ac := Context{UserID: "42", Function: "transcribe_audio"}
	assert.Equal(t, "LOG__42__transcribe_audio", ac.LogID())
}

func TestSuccessPersistsRow(t *testing.T) {
	l, store := newTestLogger(t)
	ac := Context{UserID: "42", Endpoint: "stt/transcribe", Function: "transcribe_audio", RequestID: "req-1"}

	l.Success(context.Background(), ac, "transcription completed", map[string]any{"chars": 120})

	recs := fetchAll(t, store)
	require.Len(t, recs, 1)
	assert.Equal(t, "LOG__42__transcribe_audio", recs[0]["log_id"])
	assert.Equal(t, "INFO", recs[0]["log_level"])
	assert.Equal(t, "SUCCESS: transcription completed", recs[0]["message"])
	assert.Equal(t, "stt/transcribe", recs[0]["api_endpoint"])
	assert.Equal(t, "req-1", recs[0]["request_id"])

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(recs[0]["metadata"].(string)), &meta))
	assert.Equal(t, float64(120), meta["chars"])
}

func TestErrorAppendsDetails(t *testing.T) {
	l, store := newTestLogger(t)
	ac := Context{UserID: "7", Endpoint: "tts/generate", Function: "generate_speech"}

	l.Error(context.Background(), ac, "synthesis failed", assert.AnError, nil)

	recs := fetchAll(t, store)
	require.Len(t, recs, 1)
	assert.Equal(t, "ERROR", recs[0]["log_level"])
	assert.Contains(t, recs[0]["message"], "synthesis failed: ")

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(recs[0]["metadata"].(string)), &meta))
	assert.NotEmpty(t, meta["error_details"])
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	// No table created: every insert fails.
	l := New(dbstore.NewStore(db, dbstore.DriverSQLite))

	assert.NotPanics(t, func() {
		l.Info(context.Background(), Context{UserID: "1", Function: "f"}, "msg", nil)
	})
}

func TestNilStoreDisablesPersistence(t *testing.T) {
	l := New(nil)

	assert.NotPanics(t, func() {
		l.Warn(context.Background(), Context{UserID: "1", Function: "f"}, "msg", nil)
	})
}
