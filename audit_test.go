package authservice

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func auditEnabled(c *Config) {
	c.Audit.Enabled = true
	c.Audit.BufferSize = 64
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	env := newTestEnv(t, withSink(sink))

	_, _ = env.engine.Login(context.Background(), "a@b.com", "wrong-password")
	env.engine.Close()

	if sink.count.Load() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.count.Load())
	}
}

func TestAuditLoginEvents(t *testing.T) {
	sink := NewChannelSink(16)
	env := newTestEnv(t, withSink(sink), withConfig(auditEnabled))
	ctx := WithClientIP(context.Background(), "203.0.113.1")

	env.signup(t, "a@b.com", "password1100", false)
	if ev := nextEvent(t, sink); ev.EventType != auditEventSignup || !ev.Success || ev.Metadata["requires_2fa"] != "false" {
		t.Fatalf("unexpected signup event: %+v", ev)
	}

	_, _ = env.engine.Login(ctx, "a@b.com", "wrong-password")
	ev := nextEvent(t, sink)
	if ev.EventType != auditEventLoginFailure || ev.Success || ev.Error != string(auditErrIncorrectCredentials) {
		t.Fatalf("unexpected failure event: %+v", ev)
	}
	if ev.IP != "203.0.113.1" || ev.Email != "a@b.com" {
		t.Fatalf("missing context on event: %+v", ev)
	}

	res, err := env.engine.Login(ctx, "a@b.com", "password1100")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if ev := nextEvent(t, sink); ev.EventType != auditEventLoginSuccess || !ev.Success {
		t.Fatalf("unexpected success event: %+v", ev)
	}

	if err := env.engine.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if ev := nextEvent(t, sink); ev.EventType != auditEventLogout {
		t.Fatalf("unexpected logout event: %+v", ev)
	}
}

func TestAuditTwoFAEventsNeverCarryCode(t *testing.T) {
	sink := NewChannelSink(16)
	env := newTestEnv(t, withSink(sink), withConfig(auditEnabled))
	env.signup(t, "a@b.com", "password1100", true)
	_ = nextEvent(t, sink)

	res, err := env.engine.Login(context.Background(), "a@b.com", "password1100")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	code := env.lastCode(t, "a@b.com")

	ev := nextEvent(t, sink)
	if ev.EventType != auditEventTwoFAChallenge || ev.Metadata["login_attempt_id"] != res.LoginAttemptID {
		t.Fatalf("unexpected challenge event: %+v", ev)
	}
	raw, _ := json.Marshal(ev)
	if strings.Contains(string(raw), code) {
		t.Fatal("audit event leaks the 2FA code")
	}
}

func TestAuditDropIfFull(t *testing.T) {
	gate := &gateSink{gate: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, gate)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "x"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and a buffer of 1")
	}
	close(gate.gate)
	d.Close()
	d.Close()
}

func TestAuditDispatcherFlushesOnClose(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 32}, sink)
	for i := 0; i < 20; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "x"})
	}
	d.Close()
	if sink.count.Load() != 20 {
		t.Fatalf("expected 20 events flushed, got %d", sink.count.Load())
	}
	d.Emit(context.Background(), AuditEvent{EventType: "late"})
	if sink.count.Load() != 20 {
		t.Fatal("events after Close must be ignored")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONWriterSink(&buf)
	s.Emit(context.Background(), AuditEvent{EventType: "logout", Email: "a@b.com", Success: true})

	line := strings.TrimSpace(buf.String())
	var got AuditEvent
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("invalid JSON line %q: %v", line, err)
	}
	if got.EventType != "logout" || got.Email != "a@b.com" || !got.Success {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewZapSink(zap.New(core))
	s.Emit(context.Background(), AuditEvent{
		EventType: "login_failure",
		Email:     "a@b.com",
		Error:     "incorrect_credentials",
		Metadata:  map[string]string{"scope": "login"},
	})

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event"] != "login_failure" || fields["error"] != "incorrect_credentials" || fields["meta.scope"] != "login" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
