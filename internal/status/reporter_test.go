package status

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"clipper/internal/logging"
	"clipper/internal/transport"
)

type call struct {
	op        string
	messageID int
	text      string
}

type fakeMessenger struct {
	mu       sync.Mutex
	calls    []call
	nextID   int
	editErrs []error
	sendErrs []error
	pinErr   error
}

func (f *fakeMessenger) SendText(_ context.Context, _ int64, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			f.calls = append(f.calls, call{op: "send-failed", text: text})
			return 0, err
		}
	}
	f.nextID++
	id := 100 + f.nextID
	f.calls = append(f.calls, call{op: "send", messageID: id, text: text})
	return id, nil
}

func (f *fakeMessenger) EditText(_ context.Context, _ int64, messageID int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.editErrs) > 0 {
		err := f.editErrs[0]
		f.editErrs = f.editErrs[1:]
		if err != nil {
			f.calls = append(f.calls, call{op: "edit-failed", messageID: messageID, text: text})
			return err
		}
	}
	f.calls = append(f.calls, call{op: "edit", messageID: messageID, text: text})
	return nil
}

func (f *fakeMessenger) Pin(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "pin", messageID: messageID})
	return f.pinErr
}

func (f *fakeMessenger) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

type fakeRegistry struct {
	mu          sync.Mutex
	ids         map[int64]int
	deactivated []int64
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{ids: make(map[int64]int)}
}

func (f *fakeRegistry) StatusMessageID(_ context.Context, user int64) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.ids[user]
	return id, ok, nil
}

func (f *fakeRegistry) SetStatusMessageID(_ context.Context, user int64, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[user] = id
	return nil
}

func (f *fakeRegistry) Deactivate(_ context.Context, user int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, user)
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestReporter(m *fakeMessenger, reg *fakeRegistry) (*Reporter, *fakeClock, *[]time.Duration) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	var slept []time.Duration
	r := NewReporter(m, reg, Options{MinInterval: 2 * time.Second, MinPercentDelta: 10, Pin: true}, logging.NewNop())
	r.now = clock.Now
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, clock, &slept
}

func equalOps(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestReportSendsAndPinsFirstMessage(t *testing.T) {
	m := &fakeMessenger{}
	reg := newFakeRegistry()
	r, _, _ := newTestReporter(m, reg)

	if !r.Report(context.Background(), 7, "hello") {
		t.Fatal("expected first report to emit")
	}
	if got := m.ops(); !equalOps(got, []string{"send", "pin"}) {
		t.Fatalf("ops = %v", got)
	}
	if reg.ids[7] != 101 {
		t.Fatalf("registry id = %d, want 101", reg.ids[7])
	}
}

func TestReportWithoutPinSkipsPin(t *testing.T) {
	m := &fakeMessenger{}
	r, _, _ := newTestReporter(m, newFakeRegistry())

	r.Report(context.Background(), 7, "hello", WithoutPin())
	if got := m.ops(); !equalOps(got, []string{"send"}) {
		t.Fatalf("ops = %v", got)
	}
}

func TestReportEditsExistingMessage(t *testing.T) {
	m := &fakeMessenger{}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, _, _ := newTestReporter(m, reg)

	r.Report(context.Background(), 7, "hello")
	if got := m.ops(); !equalOps(got, []string{"edit", "pin"}) {
		t.Fatalf("ops = %v", got)
	}
	for _, c := range m.calls {
		if c.messageID != 55 {
			t.Fatalf("calls = %+v", m.calls)
		}
	}
}

func TestReportEditWithoutPinSkipsPin(t *testing.T) {
	m := &fakeMessenger{}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, _, _ := newTestReporter(m, reg)

	r.Report(context.Background(), 7, "hello", WithoutPin())
	if got := m.ops(); !equalOps(got, []string{"edit"}) {
		t.Fatalf("ops = %v", got)
	}
}

func TestReportNotModifiedStillPins(t *testing.T) {
	m := &fakeMessenger{editErrs: []error{transport.ErrNotModified}}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, _, _ := newTestReporter(m, reg)

	r.Report(context.Background(), 7, "hello")
	if got := m.ops(); !equalOps(got, []string{"edit-failed", "pin"}) {
		t.Fatalf("ops = %v", got)
	}
}

func (f *fakeMessenger) count(op string) int {
	n := 0
	for _, got := range f.ops() {
		if got == op {
			n++
		}
	}
	return n
}

func TestReportCoalescesWithinInterval(t *testing.T) {
	m := &fakeMessenger{}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, clock, _ := newTestReporter(m, reg)
	ctx := context.Background()

	r.Report(ctx, 7, "Resolving")
	clock.Advance(500 * time.Millisecond)
	if r.Report(ctx, 7, "Downloading") {
		t.Fatal("second report inside interval should be suppressed")
	}
	if n := m.count("edit"); n != 1 {
		t.Fatalf("expected one outbound edit, got %+v", m.calls)
	}

	clock.Advance(2 * time.Second)
	if !r.Report(ctx, 7, "Downloading") {
		t.Fatal("report after interval should emit")
	}
}

func TestReportForceBypassesInterval(t *testing.T) {
	m := &fakeMessenger{}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, _, _ := newTestReporter(m, reg)
	ctx := context.Background()

	r.Report(ctx, 7, "Resolving")
	if !r.Report(ctx, 7, IdleText, Force()) {
		t.Fatal("forced report should emit")
	}
	if m.count("edit") != 2 {
		t.Fatalf("calls = %+v", m.calls)
	}
}

func TestReportProgressDelta(t *testing.T) {
	m := &fakeMessenger{}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, clock, _ := newTestReporter(m, reg)
	ctx := context.Background()

	if !r.Report(ctx, 7, "Downloading\n"+ProgressBar(40)) {
		t.Fatal("40% should emit")
	}
	clock.Advance(3 * time.Second)
	if r.Report(ctx, 7, "Downloading\n"+ProgressBar(45)) {
		t.Fatal("45% should be suppressed")
	}
	clock.Advance(3 * time.Second)
	if !r.Report(ctx, 7, "Downloading\n"+ProgressBar(60)) {
		t.Fatal("60% should emit")
	}
	if m.count("edit") != 2 {
		t.Fatalf("calls = %+v", m.calls)
	}
}

func TestReportDeltaIgnoredWhenPreviousNotProgress(t *testing.T) {
	m := &fakeMessenger{}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, clock, _ := newTestReporter(m, reg)
	ctx := context.Background()

	r.Report(ctx, 7, "Resolving "+fmt.Sprint(1))
	clock.Advance(3 * time.Second)
	if !r.Report(ctx, 7, "Downloading\n"+ProgressBar(5)) {
		t.Fatal("first progress after text should emit")
	}
}

func TestReportMessageGoneSendsNew(t *testing.T) {
	m := &fakeMessenger{editErrs: []error{fmt.Errorf("edit: %w", transport.ErrMessageNotFound)}}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, _, _ := newTestReporter(m, reg)

	if !r.Report(context.Background(), 7, "hello") {
		t.Fatal("expected emission via new message")
	}
	if got := m.ops(); !equalOps(got, []string{"edit-failed", "send", "pin"}) {
		t.Fatalf("ops = %v", got)
	}
	if reg.ids[7] != 101 {
		t.Fatalf("registry id = %d, want 101", reg.ids[7])
	}
}

func TestReportNotModifiedCountsAsSuccess(t *testing.T) {
	m := &fakeMessenger{editErrs: []error{transport.ErrNotModified}}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, _, _ := newTestReporter(m, reg)

	if !r.Report(context.Background(), 7, "hello") {
		t.Fatal("not-modified should count as success")
	}
}

func TestReportRetryAfterWaitsOnce(t *testing.T) {
	throttle := &transport.RetryAfterError{Wait: 3 * time.Second}
	m := &fakeMessenger{editErrs: []error{throttle}}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, _, slept := newTestReporter(m, reg)

	if !r.Report(context.Background(), 7, "hello") {
		t.Fatal("retry should succeed")
	}
	if len(*slept) != 1 || (*slept)[0] != 3*time.Second {
		t.Fatalf("slept = %v", *slept)
	}
	if got := m.ops(); !equalOps(got, []string{"edit-failed", "edit", "pin"}) {
		t.Fatalf("ops = %v", got)
	}
}

func TestReportSecondFailureSwallowed(t *testing.T) {
	throttle := &transport.RetryAfterError{Wait: time.Second}
	m := &fakeMessenger{editErrs: []error{throttle, throttle}}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, clock, _ := newTestReporter(m, reg)
	ctx := context.Background()

	if r.Report(ctx, 7, "hello") {
		t.Fatal("double throttling should not emit")
	}
	clock.Advance(100 * time.Millisecond)
	if !r.Report(ctx, 7, "hello") {
		t.Fatal("failed report must not update coalescing state")
	}
}

func TestReportUnreachableDeactivates(t *testing.T) {
	m := &fakeMessenger{editErrs: []error{transport.ErrUnreachable}}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, _, _ := newTestReporter(m, reg)

	if r.Report(context.Background(), 7, "hello") {
		t.Fatal("unreachable user should not emit")
	}
	if len(reg.deactivated) != 1 || reg.deactivated[0] != 7 {
		t.Fatalf("deactivated = %v", reg.deactivated)
	}
}

func TestReportPinAlreadyPinnedIgnored(t *testing.T) {
	m := &fakeMessenger{pinErr: errors.Join(transport.ErrAlreadyPinned)}
	r, _, _ := newTestReporter(m, newFakeRegistry())

	if !r.Report(context.Background(), 7, "hello") {
		t.Fatal("pin errors must not fail the report")
	}
}

func TestResetForgetsState(t *testing.T) {
	m := &fakeMessenger{}
	reg := newFakeRegistry()
	reg.ids[7] = 55
	r, _, _ := newTestReporter(m, reg)
	ctx := context.Background()

	r.Report(ctx, 7, "hello")
	r.Reset(7)
	if !r.Report(ctx, 7, "world") {
		t.Fatal("report after reset should emit")
	}
}
