package submission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSinkPostsRecord(t *testing.T) {
	received := make(chan models.BookingRecord, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var got models.BookingRecord
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		received <- got
		w.Write([]byte(`{"result":"success","message":"Booking saved successfully","row":7}`))
	}))
	defer srv.Close()

	rec := testRecord()

	t.Run("no-cors cannot confirm", func(t *testing.T) {
		sink := NewHTTPSink(srv.URL, SinkModeNoCORS, time.Second, srv.Client(), logger.Discard())
		outcome, err := sink.Send(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, RemoteUnknown, outcome)
		assert.Equal(t, rec, <-received)
	})

	t.Run("readable confirms", func(t *testing.T) {
		sink := NewHTTPSink(srv.URL, SinkModeReadable, time.Second, srv.Client(), logger.Discard())
		outcome, err := sink.Send(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, RemoteConfirmed, outcome)
		<-received
	})
}

func TestHTTPSinkReadableErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"error","message":"sheet is locked"}`))
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, SinkModeReadable, time.Second, srv.Client(), logger.Discard())
	outcome, err := sink.Send(context.Background(), testRecord())

	assert.Equal(t, RemoteFailed, outcome)
	var remoteErr *RemoteWriteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Contains(t, remoteErr.Error(), "sheet is locked")
}

func TestHTTPSinkNoCORSIgnoresErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, SinkModeNoCORS, time.Second, srv.Client(), logger.Discard())
	outcome, err := sink.Send(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, RemoteUnknown, outcome)
}

func TestHTTPSinkUnconfigured(t *testing.T) {
	sink := NewHTTPSink("", SinkModeNoCORS, time.Second, nil, logger.Discard())
	outcome, err := sink.Send(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, RemoteSkipped, outcome)
}
