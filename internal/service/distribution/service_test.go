package distribution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dpr/internal/domain/models"
	"github.com/mamadbah2/dpr/internal/repository/redislock"
	"github.com/mamadbah2/dpr/internal/service/export"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

type fakeExporter struct {
	calls  int
	starts []time.Time
	err    error
}

func (f *fakeExporter) Export(_ context.Context, _ []string, start, _ time.Time) (*export.Artifact, error) {
	f.calls++
	f.starts = append(f.starts, start)
	if f.err != nil {
		return nil, f.err
	}
	return &export.Artifact{Bytes: []byte("xlsx"), Filename: export.Filename(start), ReportCount: 4}, nil
}

type fakeRecipients struct {
	list  []models.Recipient
	err   error
	calls int
}

func (f *fakeRecipients) ActiveRecipients(context.Context, string) ([]models.Recipient, error) {
	f.calls++
	return f.list, f.err
}

type fakeLog struct {
	mu      sync.Mutex
	entries []models.DeliveryLogEntry
}

func (f *fakeLog) LogDelivery(_ context.Context, e models.DeliveryLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLog) byStatus(status models.DeliveryStatus) []models.DeliveryLogEntry {
	var out []models.DeliveryLogEntry
	for _, e := range f.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

type fakeState struct {
	last   time.Time
	marked []time.Time
}

func (f *fakeState) LastSentDate(context.Context, string) (time.Time, error) {
	return f.last, nil
}

func (f *fakeState) MarkSent(_ context.Context, _ string, date time.Time, _ string) error {
	f.marked = append(f.marked, date)
	f.last = date
	return nil
}

type fakeChannel struct {
	mu       sync.Mutex
	attempts map[string]int
	messages []models.OutboundMessage
	failFor  map[string]error
	credErr  error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{attempts: map[string]int{}, failFor: map[string]error{}}
}

func (f *fakeChannel) Name() string { return "fake" }

func (f *fakeChannel) CheckCredentials() error { return f.credErr }

func (f *fakeChannel) Send(_ context.Context, msg models.OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[msg.To.Email]++
	f.messages = append(f.messages, msg)
	return f.failFor[msg.To.Email]
}

func (f *fakeChannel) total() int {
	n := 0
	for _, c := range f.attempts {
		n += c
	}
	return n
}

type heldLocker struct{}

func (heldLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	return nil, redislock.ErrLocked
}

func recipient(email string) models.Recipient {
	return models.Recipient{Email: email, Name: "PM " + email, Active: true, ReportTypes: []string{models.ReportTypeDaily}}
}

type fixture struct {
	svc        *Service
	exporter   *fakeExporter
	recipients *fakeRecipients
	log        *fakeLog
	state      *fakeState
	channel    *fakeChannel
}

func newFixture(now time.Time, parallelism int, rcpts ...models.Recipient) *fixture {
	f := &fixture{
		exporter:   &fakeExporter{},
		recipients: &fakeRecipients{list: rcpts},
		log:        &fakeLog{},
		state:      &fakeState{},
		channel:    newFakeChannel(),
	}
	f.svc = NewService(Dependencies{
		Exporter:   f.exporter,
		Recipients: f.recipients,
		Log:        f.log,
		State:      f.state,
		Channel:    f.channel,
	}, Settings{
		ProjectName: "MAHSR-T3",
		Sites:       []string{"TCB-407", "TCB-436"},
		Gate:        TimeGate{Location: ist, Hour: 10, Minute: 30, Window: 5 * time.Minute},
		Parallelism: parallelism,
	}, nil)
	f.svc.now = func() time.Time { return now }
	f.svc.newRunID = func() string { return "run-1" }
	return f
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 5, 29, hour, minute, 0, 0, ist)
}

func TestRunDailyIsolatesRecipientFailures(t *testing.T) {
	for _, parallelism := range []int{1, 3} {
		t.Run(fmt.Sprintf("parallelism=%d", parallelism), func(t *testing.T) {
			f := newFixture(at(10, 30), parallelism, recipient("a@x.io"), recipient("b@x.io"), recipient("c@x.io"))
			f.channel.failFor["b@x.io"] = &models.DeliveryError{Class: models.ErrorClassAuth, Err: errors.New("535 bad credentials")}

			res, err := f.svc.RunDaily(context.Background(), Options{})
			require.NoError(t, err)

			assert.Equal(t, StatusPartial, res.Status)
			assert.Equal(t, 3, res.Total)
			assert.Equal(t, 2, res.Sent)
			assert.Equal(t, 1, res.Failed)
			assert.Equal(t, 2, res.ExitCode())

			assert.Len(t, f.log.entries, 3)
			assert.Len(t, f.log.byStatus(models.DeliverySent), 2)
			failed := f.log.byStatus(models.DeliveryFailed)
			require.Len(t, failed, 1)
			assert.Equal(t, "b@x.io", failed[0].RecipientEmail)
			assert.Equal(t, models.ErrorClassAuth, failed[0].ErrorClass)
			assert.Contains(t, failed[0].ErrorMessage, "535")

			assert.Equal(t, map[string]int{"a@x.io": 1, "b@x.io": 1, "c@x.io": 1}, f.channel.attempts)
			assert.Equal(t, 1, f.exporter.calls)
			assert.Len(t, f.state.marked, 1)
		})
	}
}

func TestRunDailyUsesYesterdayInReferenceTimezone(t *testing.T) {
	// 00:10 UTC on the 29th is already 05:40 IST on the 29th; force past the gate.
	f := newFixture(time.Date(2025, 5, 29, 0, 10, 0, 0, time.UTC), 1, recipient("a@x.io"))

	res, err := f.svc.RunDaily(context.Background(), Options{Force: true})
	require.NoError(t, err)

	want := time.Date(2025, 5, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, res.ReportDate)
	assert.Equal(t, []time.Time{want}, f.exporter.starts)
	assert.Equal(t, "28052025-DPR.xlsx", res.Filename)

	require.Len(t, f.channel.messages, 1)
	msg := f.channel.messages[0]
	assert.Equal(t, "MAHSR-T3 Daily Progress Report - 28-05-2025", msg.Subject)
	assert.Equal(t, "28052025-DPR.xlsx", msg.AttachmentName)
	assert.Equal(t, []byte("xlsx"), msg.Attachment)
	assert.Contains(t, msg.HTMLBody, "TCB-407, TCB-436")
	assert.Contains(t, msg.HTMLBody, "PM a@x.io")
}

func TestRunDailySkipsOutsideWindow(t *testing.T) {
	f := newFixture(at(10, 36), 1, recipient("a@x.io"))

	res, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, ReasonOutsideWindow, res.Reason)
	assert.Zero(t, res.Total)
	assert.Zero(t, f.channel.total())
	assert.Zero(t, f.recipients.calls)
	assert.Zero(t, f.exporter.calls)
	assert.Equal(t, 0, res.ExitCode())
}

func TestRunDailyNoRecipientsIsNeutral(t *testing.T) {
	f := newFixture(at(10, 30), 1)

	res, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusNoRecipients, res.Status)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 0, res.Failed)
	assert.Zero(t, f.exporter.calls)
	assert.Empty(t, f.log.entries)
	assert.Equal(t, 0, res.ExitCode())
}

func TestRunDailyIgnoresUnsubscribedRecipients(t *testing.T) {
	inactive := recipient("off@x.io")
	inactive.Active = false
	weekly := recipient("weekly@x.io")
	weekly.ReportTypes = []string{"weekly"}
	f := newFixture(at(10, 30), 1, inactive, weekly, recipient("a@x.io"))

	res, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, map[string]int{"a@x.io": 1}, f.channel.attempts)
}

func TestRunDailyAlreadySentAndRetrigger(t *testing.T) {
	f := newFixture(at(10, 30), 1, recipient("a@x.io"))

	first, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, first.Status)

	f.svc.now = func() time.Time { return at(10, 35) }
	second, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Equal(t, ReasonAlreadySent, second.Reason)
	assert.Equal(t, 1, f.channel.total())

	forced, err := f.svc.RunDaily(context.Background(), Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, forced.Status)
	assert.Equal(t, 2, f.channel.total())
}

func TestRunDailyBackfillKeepsLatestSentDate(t *testing.T) {
	f := newFixture(at(10, 30), 1, recipient("a@x.io"))
	latest := time.Date(2025, 5, 28, 0, 0, 0, 0, time.UTC)

	first, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, first.Status)
	assert.Equal(t, latest, f.state.last)

	f.svc.now = func() time.Time { return at(10, 32) }
	backfill, err := f.svc.RunDaily(context.Background(), Options{
		Force:      true,
		ReportDate: time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, backfill.Status)
	assert.Equal(t, latest, f.state.last)
	assert.Equal(t, []time.Time{latest}, f.state.marked)

	f.svc.now = func() time.Time { return at(10, 35) }
	tick, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, tick.Status)
	assert.Equal(t, ReasonAlreadySent, tick.Reason)
	assert.Equal(t, 2, f.channel.total())
}

func TestRunDailyTotalFailureIsRetriedByNextTrigger(t *testing.T) {
	f := newFixture(at(10, 30), 1, recipient("a@x.io"), recipient("b@x.io"))
	transient := &models.DeliveryError{Class: models.ErrorClassTransient, Err: errors.New("timeout")}
	f.channel.failFor["a@x.io"] = transient
	f.channel.failFor["b@x.io"] = transient

	res, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 1, res.ExitCode())
	assert.Len(t, f.log.byStatus(models.DeliveryFailed), 2)
	assert.Empty(t, f.state.marked)

	delete(f.channel.failFor, "a@x.io")
	delete(f.channel.failFor, "b@x.io")
	f.svc.now = func() time.Time { return at(10, 35) }
	retry, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, retry.Status)
}

func TestRunDailyMissingCredentialsSendsNothing(t *testing.T) {
	f := newFixture(at(10, 30), 1, recipient("a@x.io"), recipient("b@x.io"))
	f.channel.credErr = &models.ConfigurationError{Setting: "SMTP_USERNAME", Err: models.ErrMissingCredentials}

	res, err := f.svc.RunDaily(context.Background(), Options{})
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, models.ErrMissingCredentials)

	assert.Zero(t, f.channel.total())
	assert.Zero(t, f.exporter.calls)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, f.log.entries, 2)
	for _, e := range f.log.entries {
		assert.Equal(t, models.DeliveryFailed, e.Status)
		assert.Equal(t, models.ErrorClassConfiguration, e.ErrorClass)
	}
	assert.Empty(t, f.state.marked)
}

func TestRunDailyExportFailureIsHard(t *testing.T) {
	f := newFixture(at(10, 30), 1, recipient("a@x.io"))
	f.exporter.err = &models.DataFetchError{Op: "export", Err: errors.New("no reachable servers")}

	res, err := f.svc.RunDaily(context.Background(), Options{})
	var fetchErr *models.DataFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Zero(t, f.channel.total())
	assert.Len(t, f.log.byStatus(models.DeliveryFailed), 1)
}

func TestRunDailyRecipientFetchFailureIsHard(t *testing.T) {
	f := newFixture(at(10, 30), 1)
	f.recipients.err = errors.New("no reachable servers")

	_, err := f.svc.RunDaily(context.Background(), Options{})
	var fetchErr *models.DataFetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, f.exporter.calls)
}

func TestRunDailySkipsWhenLockHeld(t *testing.T) {
	f := newFixture(at(10, 30), 1, recipient("a@x.io"))
	f.svc.deps.Locker = heldLocker{}

	res, err := f.svc.RunDaily(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, ReasonRunInProgress, res.Reason)
	assert.Zero(t, f.channel.total())
}

func TestSendTest(t *testing.T) {
	f := newFixture(at(10, 30), 1)

	require.NoError(t, f.svc.SendTest(context.Background(), "ops@x.io"))
	require.Len(t, f.channel.messages, 1)
	assert.Equal(t, "ops@x.io", f.channel.messages[0].To.Email)
	assert.Equal(t, "MAHSR-T3 DPR System - Test Email", f.channel.messages[0].Subject)
	assert.Empty(t, f.channel.messages[0].Attachment)

	f.channel.credErr = &models.ConfigurationError{Setting: "SMTP_PASSWORD", Err: models.ErrMissingCredentials}
	assert.ErrorIs(t, f.svc.SendTest(context.Background(), "ops@x.io"), models.ErrMissingCredentials)
	assert.Len(t, f.channel.messages, 1)
}
