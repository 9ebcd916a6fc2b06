package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"
)

type SinkMode string

const (
	// SinkModeNoCORS treats the response as unreadable: any completed
	// request is Unknown, never Confirmed.
	SinkModeNoCORS   SinkMode = "no-cors"
	SinkModeReadable SinkMode = "readable"
)

// RemoteWriteError wraps a transport failure or an error envelope from
// the sink. It is logged and never shown to the visitor.
type RemoteWriteError struct {
	URL string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote write to %s: %v", e.URL, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }

// HTTPSink posts booking records to the remote sink.
type HTTPSink struct {
	URL     string
	Mode    SinkMode
	Timeout time.Duration
	Client  *http.Client
	Logger  *logger.Logger
}

func NewHTTPSink(url string, mode SinkMode, timeout time.Duration, client *http.Client, log *logger.Logger) *HTTPSink {
	if client == nil {
		client = &http.Client{}
	}
	if mode != SinkModeReadable {
		mode = SinkModeNoCORS
	}
	return &HTTPSink{URL: url, Mode: mode, Timeout: timeout, Client: client, Logger: log}
}

// Send posts rec within the configured timeout.
func (s *HTTPSink) Send(ctx context.Context, rec models.BookingRecord) (RemoteOutcome, error) {
	if s.URL == "" {
		s.Logger.Warn("SINK", "Sink URL not configured. Skipping remote sync.")
		return RemoteSkipped, nil
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return RemoteFailed, &RemoteWriteError{URL: s.URL, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return RemoteFailed, &RemoteWriteError{URL: s.URL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return RemoteFailed, &RemoteWriteError{URL: s.URL, Err: err}
	}
	defer resp.Body.Close()

	if s.Mode == SinkModeNoCORS {
		io.Copy(io.Discard, resp.Body)
		s.Logger.Debug("SINK", "Data sent to sink, response not inspected")
		return RemoteUnknown, nil
	}

	var env models.SinkEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return RemoteFailed, &RemoteWriteError{URL: s.URL, Err: fmt.Errorf("unreadable reply (status %d): %w", resp.StatusCode, err)}
	}
	if env.Result != models.SinkResultSuccess {
		return RemoteFailed, &RemoteWriteError{URL: s.URL, Err: fmt.Errorf("sink error: %s", env.Message)}
	}
	if env.Row != nil {
		s.Logger.Debug("SINK", fmt.Sprintf("Sink stored booking in row %d", *env.Row))
	}
	return RemoteConfirmed, nil
}
