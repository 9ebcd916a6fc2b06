package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ayat-booking/internal/availability"
	"ayat-booking/internal/catalog"
	"ayat-booking/internal/lock"
	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"
	"ayat-booking/internal/submission"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCatalog = `{
  "events": [
    {"id": "raw", "title": "Sufi Evening", "date": "2030-03-14", "ticketPrice": 500,
     "totalSeats": 50, "bookedSeats": 45, "upiId": "ayat@upi", "merchantName": "Ayat Baithak"},
    {"id": "open", "title": "Ghazal Night", "date": "2030-04-01", "ticketPrice": 700,
     "bookingStatus": "open", "availabilityMessage": "Limited seats"},
    {"id": "full", "title": "Qawwali", "date": "2030-05-01", "ticketPrice": 400,
     "totalSeats": 20, "bookedSeats": 5, "bookingStatus": "sold_out"},
    {"id": "gone", "title": "Old Baithak", "date": "2020-01-01", "ticketPrice": 300,
     "totalSeats": 20, "bookedSeats": 0}
  ]
}`

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, rec models.BookingRecord) submission.Outcome {
	args := m.Called(ctx, rec)
	return args.Get(0).(submission.Outcome)
}

func setupTestController(t *testing.T) (*Controller, *catalog.Store, *MockSubmitter) {
	events, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	store := catalog.NewStore(events, nil)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	sub := new(MockSubmitter)
	log := logger.Discard()
	ev := availability.NewEvaluator(10)
	ev.Clock = func() time.Time { return testNow }
	c := NewController(store, ev, sub, lock.NewSubmitLock(client, time.Minute, log), log)
	return c, store, sub
}

func validInput(tickets int) Input {
	return Input{
		Name:             "Asha Rao",
		Phone:            "9876543210",
		Email:            "asha@example.com",
		Tickets:          tickets,
		FoodPreference:   models.FoodVegetarian,
		UPITransactionID: "412345678901",
	}
}

func TestOpenRefusesUnbookableEvents(t *testing.T) {
	c, _, _ := setupTestController(t)

	_, err := c.Open("missing")
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = c.Open("full")
	var nb *NotBookableError
	require.True(t, errors.As(err, &nb))
	assert.Equal(t, availability.ReasonSoldOut, nb.Reason)
	assert.Equal(t, availability.LabelSoldOut, nb.Label)

	_, err = c.Open("gone")
	require.True(t, errors.As(err, &nb))
	assert.Equal(t, availability.ReasonPast, nb.Reason)
}

func TestOpenCapsTicketsToRemainingSeats(t *testing.T) {
	c, _, _ := setupTestController(t)

	f, err := c.Open("raw")
	require.NoError(t, err)
	v := f.View()
	assert.Equal(t, StateOpen, v.State)
	assert.Equal(t, 5, v.MaxTickets)
	assert.Equal(t, 1, v.Tickets)
	assert.Equal(t, 500, v.TotalAmount)

	f, err = c.Open("open")
	require.NoError(t, err)
	assert.Equal(t, 10, f.View().MaxTickets)
}

func TestSetTicketsRecomputesTotal(t *testing.T) {
	c, _, _ := setupTestController(t)

	f, err := c.Open("raw")
	require.NoError(t, err)

	total, err := f.SetTickets(3)
	require.NoError(t, err)
	assert.Equal(t, 1500, total)

	v, err := c.SetTickets(f.ID(), 4)
	require.NoError(t, err)
	assert.Equal(t, 2000, v.TotalAmount)
	assert.Equal(t, 4, v.Tickets)

	_, err = f.SetTickets(0)
	assert.ErrorIs(t, err, ErrTicketsOutOfRange)
	_, err = f.SetTickets(6)
	assert.ErrorIs(t, err, ErrTicketsOutOfRange)
	assert.Equal(t, 2000, f.View().TotalAmount, "rejected change keeps the previous total")
}

func TestSubmitBuildsRecordFromCurrentPrice(t *testing.T) {
	c, _, sub := setupTestController(t)

	f, err := c.Open("raw")
	require.NoError(t, err)
	_, err = f.SetTickets(3)
	require.NoError(t, err)

	var got models.BookingRecord
	sub.On("Submit", mock.Anything, mock.AnythingOfType("models.BookingRecord")).
		Run(func(args mock.Arguments) { got = args.Get(1).(models.BookingRecord) }).
		Return(submission.Outcome{Confirmed: true, Remote: submission.RemoteUnknown})

	in := validInput(4)
	in.Name = "  Asha Rao "
	conf, err := c.Submit(context.Background(), f.ID(), in)
	require.NoError(t, err)

	assert.Equal(t, 4, got.Tickets)
	assert.Equal(t, 2000, got.TotalAmount)
	assert.Equal(t, "Asha Rao", got.Name)
	assert.Equal(t, "raw", got.EventID)
	assert.Equal(t, "Sufi Evening", got.EventTitle)
	assert.Equal(t, "2030-03-14", got.EventDate)
	assert.Equal(t, testNow, got.BookingDate)

	assert.Equal(t, got, conf.Booking)
	assert.Equal(t, "Thank you, Asha Rao! Your booking for Sufi Evening has been confirmed.", conf.Message)
	assert.Equal(t, "You will receive a confirmation email at asha@example.com shortly.", conf.EmailNotice)
	assert.Equal(t, StateSubmitted, f.View().State)

	_, err = c.Submit(context.Background(), f.ID(), validInput(1))
	assert.ErrorIs(t, err, ErrFormNotFound)
	_, err = f.SetTickets(1)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	sub.AssertNumberOfCalls(t, "Submit", 1)
}

func TestSubmitUsesFormTicketsWhenInputOmitsThem(t *testing.T) {
	c, _, sub := setupTestController(t)
	sub.On("Submit", mock.Anything, mock.Anything).Return(submission.Outcome{Confirmed: true})

	f, err := c.Open("open")
	require.NoError(t, err)
	_, err = f.SetTickets(2)
	require.NoError(t, err)

	conf, err := c.Submit(context.Background(), f.ID(), validInput(0))
	require.NoError(t, err)
	assert.Equal(t, 2, conf.Booking.Tickets)
	assert.Equal(t, 1400, conf.Booking.TotalAmount)
}

func TestSubmitPhoneValidation(t *testing.T) {
	c, _, sub := setupTestController(t)
	sub.On("Submit", mock.Anything, mock.Anything).Return(submission.Outcome{Confirmed: true})

	f, err := c.Open("open")
	require.NoError(t, err)

	in := validInput(1)
	in.Phone = "12345"
	_, err = c.Submit(context.Background(), f.ID(), in)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Phone must be a 10-digit number", verr.Fields["phone"])
	assert.Len(t, verr.Fields, 1)
	assert.Equal(t, StateRejected, f.View().State)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)

	in.Phone = "9876543210"
	_, err = c.Submit(context.Background(), f.ID(), in)
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, f.View().State)
}

func TestSubmitReportsEveryInvalidField(t *testing.T) {
	c, _, sub := setupTestController(t)

	f, err := c.Open("raw")
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), f.ID(), Input{
		Email:          "not-an-email",
		Tickets:        7,
		FoodPreference: "pescatarian",
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Name is required", verr.Fields["name"])
	assert.Equal(t, "Phone is required", verr.Fields["phone"])
	assert.Equal(t, "Enter a valid email address", verr.Fields["email"])
	assert.Equal(t, "UPI transaction ID is required", verr.Fields["upiTransactionId"])
	assert.Contains(t, verr.Fields, "foodPreference")
	assert.Equal(t, "Sorry, only 5 seats are available.", verr.Fields["tickets"])
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSubmitRechecksLiveSeats(t *testing.T) {
	c, store, sub := setupTestController(t)
	sub.On("Submit", mock.Anything, mock.Anything).Return(submission.Outcome{Confirmed: true})

	f, err := c.Open("raw")
	require.NoError(t, err)
	_, err = f.SetTickets(5)
	require.NoError(t, err)

	store.AddBooked("raw", 3)

	_, err = c.Submit(context.Background(), f.ID(), validInput(5))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Sorry, only 2 seats are available.", verr.Fields["tickets"])

	_, err = c.Submit(context.Background(), f.ID(), validInput(2))
	assert.NoError(t, err)
}

func TestSubmitRefusesConcurrentDuplicate(t *testing.T) {
	c, _, sub := setupTestController(t)

	f, err := c.Open("open")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	sub.On("Submit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(submission.Outcome{Confirmed: true}).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Submit(context.Background(), f.ID(), validInput(1))
		assert.NoError(t, err)
	}()

	<-entered
	_, err = c.Submit(context.Background(), f.ID(), validInput(1))
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(release)
	wg.Wait()
	sub.AssertNumberOfCalls(t, "Submit", 1)
}

func TestSubmitRefusedWhileLockHeldElsewhere(t *testing.T) {
	c, _, sub := setupTestController(t)

	f, err := c.Open("open")
	require.NoError(t, err)

	ok, err := c.Lock.Acquire(context.Background(), f.ID(), "other-instance")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = c.Submit(context.Background(), f.ID(), validInput(1))
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.Equal(t, StateOpen, f.View().State)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestCloseDiscardsForm(t *testing.T) {
	c, _, sub := setupTestController(t)

	f, err := c.Open("raw")
	require.NoError(t, err)

	require.NoError(t, c.Close(f.ID()))
	assert.Equal(t, StateClosed, f.View().State)

	_, err = c.Submit(context.Background(), f.ID(), validInput(1))
	assert.ErrorIs(t, err, ErrFormNotFound)
	_, err = f.SetTickets(2)
	assert.ErrorIs(t, err, ErrFormClosed)
	assert.ErrorIs(t, c.Close(f.ID()), ErrFormNotFound)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestCloseDuringSubmissionLetsItFinish(t *testing.T) {
	c, _, sub := setupTestController(t)

	f, err := c.Open("open")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	sub.On("Submit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(submission.Outcome{Confirmed: true})

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), f.ID(), validInput(1))
		done <- err
	}()

	<-entered
	require.NoError(t, c.Close(f.ID()))
	close(release)

	assert.NoError(t, <-done)
	assert.Equal(t, StateSubmitted, f.View().State)
}

func registered(c *Controller) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.forms)
}

func TestSubmittedFormsLeaveRegistry(t *testing.T) {
	c, _, sub := setupTestController(t)
	sub.On("Submit", mock.Anything, mock.Anything).Return(submission.Outcome{Confirmed: true})

	var submitted []*Form
	for i := 0; i < 20; i++ {
		f, err := c.Open("open")
		require.NoError(t, err)
		if i%2 == 0 {
			_, err = c.Submit(context.Background(), f.ID(), validInput(1))
			require.NoError(t, err)
			submitted = append(submitted, f)
		}
	}

	assert.Equal(t, 10, registered(c))
	for _, f := range submitted {
		_, err := c.Form(f.ID())
		assert.ErrorIs(t, err, ErrFormNotFound)
		assert.Equal(t, StateSubmitted, f.View().State)
	}
}

func TestRejectedFormStaysRegistered(t *testing.T) {
	c, _, _ := setupTestController(t)

	f, err := c.Open("open")
	require.NoError(t, err)

	in := validInput(1)
	in.Phone = "12345"
	_, err = c.Submit(context.Background(), f.ID(), in)
	require.Error(t, err)

	assert.Equal(t, 1, registered(c))
	assert.Equal(t, StateRejected, f.View().State)
}

func TestOpenSweepsAbandonedForms(t *testing.T) {
	c, _, _ := setupTestController(t)
	c.FormTTL = 10 * time.Minute

	now := testNow
	c.Evaluator.Clock = func() time.Time { return now }

	stale, err := c.Open("open")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := c.Open("raw")
		require.NoError(t, err)
	}
	require.Equal(t, 5, registered(c))

	now = testNow.Add(5 * time.Minute)
	fresh, err := c.Open("open")
	require.NoError(t, err)
	assert.Equal(t, 6, registered(c))

	now = testNow.Add(11 * time.Minute)
	_, err = c.Open("open")
	require.NoError(t, err)

	assert.Equal(t, 2, registered(c))
	_, err = c.Form(stale.ID())
	assert.ErrorIs(t, err, ErrFormNotFound)
	assert.Equal(t, StateClosed, stale.View().State)
	_, err = c.Form(fresh.ID())
	assert.NoError(t, err)
}

func TestSweepKeepsFormsMidSubmit(t *testing.T) {
	c, _, sub := setupTestController(t)
	c.FormTTL = time.Minute

	now := testNow
	c.Evaluator.Clock = func() time.Time { return now }

	f, err := c.Open("open")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	sub.On("Submit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(submission.Outcome{Confirmed: true})

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), f.ID(), validInput(1))
		done <- err
	}()

	<-entered
	now = testNow.Add(time.Hour)
	_, err = c.Open("raw")
	require.NoError(t, err)
	_, err = c.Form(f.ID())
	assert.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateSubmitted, f.View().State)
	assert.Equal(t, 1, registered(c))
}
