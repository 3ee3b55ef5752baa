package writer

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	pkgbigquery "github.com/janmanch/janmanch-backend/pkg/bigquery"
)

func TestNewWriterValidation(t *testing.T) {
	_, err := New(nil, Config{})
	require.Error(t, err, "nil client must be rejected")

	_, err = New(&pkgbigquery.Client{}, Config{SessionTable: " "})
	require.Error(t, err, "blank session table must be rejected")
}

func TestWriterRetriesOnTransientError(t *testing.T) {
	w, fake := newFakeWriter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		nil,
	}

	err := w.InsertSession(context.Background(), SessionEventRow{EventID: "1"})
	require.NoError(t, err)
	require.Len(t, fake.calls, 2, "503 should be retried once")
	require.Equal(t, w.sessionTable, fake.calls[1].table)
	require.Empty(t, w.sessionBuffer, "buffer drains after a successful insert")
}

func TestWriterDoesNotRetryPermanentError(t *testing.T) {
	w, fake := newFakeWriter(t)
	fake.responses = []error{errors.New("schema mismatch")}

	err := w.InsertSession(context.Background(), SessionEventRow{EventID: "1"})
	require.Error(t, err)
	require.Len(t, fake.calls, 1, "non-retryable failures stop after one attempt")
}

func TestWriterBatching(t *testing.T) {
	w, fake := newFakeWriter(t)
	w.batchSize = 2

	require.NoError(t, w.InsertSession(context.Background(), SessionEventRow{EventID: "1"}))
	require.Empty(t, fake.calls, "rows buffer until the batch fills")

	require.NoError(t, w.InsertSession(context.Background(), SessionEventRow{EventID: "2"}))
	require.Len(t, fake.calls, 1)
	require.Equal(t, 2, fake.calls[0].rowCount)
}

func TestWriterFlush(t *testing.T) {
	w, fake := newFakeWriter(t)
	w.batchSize = 10

	require.NoError(t, w.InsertSession(context.Background(), SessionEventRow{EventID: "1"}))
	require.NoError(t, w.Flush(context.Background()))
	require.Len(t, fake.calls, 1, "flush pushes a partial batch")
}

type insertCall struct {
	table    string
	rowCount int
}

type fakeInserter struct {
	responses []error
	calls     []insertCall
	index     int
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.calls = append(f.calls, insertCall{table: table, rowCount: len(rows)})
	var err error
	if f.index < len(f.responses) {
		err = f.responses[f.index]
	}
	f.index++
	return err
}

func newFakeWriter(t *testing.T) (*BigQueryWriter, *fakeInserter) {
	t.Helper()
	w, err := New(&pkgbigquery.Client{}, Config{SessionTable: "session_events"})
	require.NoError(t, err)

	fake := &fakeInserter{}
	w.client = fake
	return w, fake
}
