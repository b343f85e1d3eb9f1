package listing

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukit/admin-dashboard/internal/testutil"
)

type commitLog struct {
	mu  sync.Mutex
	got []string
}

func (l *commitLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, s)
}

func (l *commitLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.got...)
}

func newTestDebouncer() (*Debouncer, *testutil.FakeClock, *commitLog) {
	clock := testutil.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	log := &commitLog{}
	return NewDebouncer(clock, 500*time.Millisecond, log.add), clock, log
}

func recv(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v := <-ch:
		return v
	default:
		t.Fatal("debounce result not delivered")
		return false
	}
}

func TestDebouncer_CommitsAfterQuietPeriod(t *testing.T) {
	d, clock, log := newTestDebouncer()

	ch := d.Input("ada")
	assert.Equal(t, "ada", d.Draft(), "draft updates without delay")
	assert.True(t, d.Pending())

	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, log.all())

	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"ada"}, log.all())
	assert.True(t, recv(t, ch))
	assert.False(t, d.Pending())
}

func TestDebouncer_KeystrokesRestartTimer(t *testing.T) {
	d, clock, log := newTestDebouncer()

	// a @0, ab @300, abc @600: one commit of "abc" at 1100.
	first := d.Input("a")
	clock.Advance(300 * time.Millisecond)
	second := d.Input("ab")
	clock.Advance(300 * time.Millisecond)
	third := d.Input("abc")

	assert.False(t, recv(t, first))
	assert.False(t, recv(t, second))
	assert.Equal(t, 1, clock.Pending(), "only one timer is live")

	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, log.all())
	clock.Advance(time.Millisecond)

	assert.Equal(t, []string{"abc"}, log.all())
	assert.True(t, recv(t, third))
}

func TestDebouncer_SubmitCommitsImmediately(t *testing.T) {
	d, clock, log := newTestDebouncer()

	ch := d.Input("rust")
	assert.Equal(t, "rust", d.Submit())
	assert.Equal(t, []string{"rust"}, log.all())
	assert.False(t, recv(t, ch), "the pending timer was cancelled")

	clock.Advance(time.Second)
	assert.Equal(t, []string{"rust"}, log.all(), "no second emission")
	assert.Equal(t, 0, clock.Pending())
}

func TestDebouncer_SubmitTextReplacesDraft(t *testing.T) {
	d, _, log := newTestDebouncer()

	d.Input("go")
	assert.Equal(t, "golang", d.SubmitText("golang"))
	assert.Equal(t, "golang", d.Draft())
	assert.Equal(t, []string{"golang"}, log.all())
}

func TestDebouncer_StopCancelsPendingCommit(t *testing.T) {
	d, clock, log := newTestDebouncer()

	ch := d.Input("pending")
	d.Stop()
	assert.False(t, recv(t, ch))

	clock.Advance(time.Second)
	assert.Empty(t, log.all())

	after := d.Input("late")
	assert.False(t, recv(t, after))
	d.Submit()
	clock.Advance(time.Second)
	assert.Empty(t, log.all(), "nothing is emitted after disposal")
}

func TestDebouncer_TimerFiringAfterSupersedeIsIgnored(t *testing.T) {
	var fire func()
	clock := clockFunc(func(_ time.Duration, f func()) func() bool {
		fire = f
		// Simulates a timer that already started running and cannot be stopped.
		return func() bool { return false }
	})
	log := &commitLog{}
	d := NewDebouncer(clock, time.Millisecond, log.add)

	d.Input("one")
	stale := fire
	d.Input("two")
	stale()
	assert.Empty(t, log.all())

	fire()
	assert.Equal(t, []string{"two"}, log.all())
}

func TestDebouncer_SubmitDuringSlowTimerCommitLandsLast(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	log := &commitLog{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	d := NewDebouncer(clock, 500*time.Millisecond, func(s string) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		log.add(s)
	})

	first := d.Input("ab")
	advanced := make(chan struct{})
	go func() {
		defer close(advanced)
		clock.Advance(500 * time.Millisecond)
	}()
	<-entered

	// The timer commit of "ab" is still being delivered.
	second := d.Input("abc")
	submitted := make(chan string, 1)
	go func() { submitted <- d.Submit() }()

	assert.Never(t, func() bool { return len(submitted) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"submit must wait for the earlier commit")

	close(release)
	assert.Equal(t, "abc", <-submitted)
	<-advanced

	assert.Equal(t, []string{"ab", "abc"}, log.all())
	assert.True(t, <-first)
	assert.False(t, <-second)
	assert.Equal(t, 0, clock.Pending())
}

func TestNewDebouncer_Defaults(t *testing.T) {
	d := NewDebouncer(nil, 0, nil)
	assert.Equal(t, DefaultDebounceDelay, d.delay)
	require.NotNil(t, d.clock)
	d.Submit()
}

func TestSearchBox_CommitsIntoController(t *testing.T) {
	f := staticFetcher(1, "a")
	c := newTestController(t, f)
	clock := testutil.NewFakeClock(time.Now())
	box := NewSearchBox(c, clock, 500*time.Millisecond)

	box.Input("j")
	box.Input("ja")
	clock.Advance(500 * time.Millisecond)
	s := waitSettled(t, c)

	assert.Equal(t, "ja", s.Search)
	assert.Len(t, f.calls(), 1)
}

type clockFunc func(d time.Duration, f func()) func() bool

func (c clockFunc) AfterFunc(d time.Duration, f func()) func() bool { return c(d, f) }
