package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMessageHandler records processed messages for verification.
type mockMessageHandler struct {
	mu        sync.Mutex
	processed []string
	delay     time.Duration
	panicOn   string
}

func (m *mockMessageHandler) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.panicOn != "" && msg.Text == m.panicOn {
		panic("test panic: " + msg.Text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, msg.Text)
}

func (m *mockMessageHandler) getProcessed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.processed))
	copy(result, m.processed)
	return result
}

func newTestSession(userId int64, handler MessageHandler) *UserSession {
	ctx, cancel := context.WithCancel(context.Background())
	session := &UserSession{
		userId: userId,
		inbox:  make(chan SessionMessage, 10),
		ctx:    ctx,
		cancel: cancel,
	}
	session.SetHandler(handler)
	session.StartWorker()
	return session
}

func TestSessionWorkerProcessesMessagesSequentially(t *testing.T) {
	handler := &mockMessageHandler{delay: 10 * time.Millisecond}
	session := newTestSession(1, handler)
	defer session.Stop()

	for i := 0; i < 5; i++ {
		session.Send(SessionMessage{Type: "text", Text: fmt.Sprintf("msg-%d", i)})
	}

	require.Eventually(t, func() bool {
		return len(handler.getProcessed()) == 5
	}, 2*time.Second, 10*time.Millisecond)

	// Order must be preserved even though sends were queued at once
	expected := []string{"msg-0", "msg-1", "msg-2", "msg-3", "msg-4"}
	assert.Equal(t, expected, handler.getProcessed())
}

func TestSessionWorkerRecoverFromPanic(t *testing.T) {
	handler := &mockMessageHandler{panicOn: "boom"}
	session := newTestSession(1, handler)
	defer session.Stop()

	session.Send(SessionMessage{Type: "text", Text: "before"})
	session.Send(SessionMessage{Type: "text", Text: "boom"})
	session.Send(SessionMessage{Type: "text", Text: "after"})

	require.Eventually(t, func() bool {
		return len(handler.getProcessed()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// The panicking message is dropped, the worker keeps running
	assert.Equal(t, []string{"before", "after"}, handler.getProcessed())
}

func TestSessionSendSyncWaitsForProcessing(t *testing.T) {
	handler := &mockMessageHandler{delay: 50 * time.Millisecond}
	session := newTestSession(1, handler)
	defer session.Stop()

	start := time.Now()
	session.SendSync(SessionMessage{Type: "text", Text: "sync"})
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Equal(t, []string{"sync"}, handler.getProcessed())
}

func TestSessionsProcessConcurrently(t *testing.T) {
	handler := &mockMessageHandler{delay: 50 * time.Millisecond}

	sessions := make([]*UserSession, 3)
	for i := range sessions {
		sessions[i] = newTestSession(int64(i+1), handler)
		defer sessions[i].Stop()
	}

	start := time.Now()
	var wg sync.WaitGroup
	for i, session := range sessions {
		wg.Add(1)
		go func(s *UserSession, n int) {
			defer wg.Done()
			s.SendSync(SessionMessage{Type: "text", Text: fmt.Sprintf("user-%d", n)})
		}(session, i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Three users at 50ms each should overlap, not serialize to 150ms
	assert.Less(t, elapsed, 140*time.Millisecond)
	assert.Len(t, handler.getProcessed(), 3)
}

func TestSessionStopDrainsQueue(t *testing.T) {
	handler := &mockMessageHandler{}
	session := newTestSession(1, handler)

	done := make(chan struct{})
	session.Send(SessionMessage{Type: "text", Text: "queued", Done: done})

	session.Stop()

	// Done channels must be closed even for messages dropped during shutdown
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Done channel was not closed on shutdown")
	}
}

func TestSessionSendAfterStopDoesNotBlock(t *testing.T) {
	handler := &mockMessageHandler{}
	session := newTestSession(1, handler)
	session.Stop()

	finished := make(chan struct{})
	go func() {
		session.Send(SessionMessage{Type: "text", Text: "late"})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Send blocked after Stop")
	}
}
