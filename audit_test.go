package hallpass

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)
	defer d.close()

	d.emit(context.Background(), AuditEvent{EventType: AuditLogin, SubjectID: "u-1", Success: true})

	select {
	case event := <-sink.Events():
		if event.EventType != AuditLogin || event.SubjectID != "u-1" {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.ID == "" || event.Timestamp.IsZero() {
			t.Fatalf("id/timestamp not stamped: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled dispatcher should be nil")
	}

	// All operations must be nil-safe.
	d.emit(context.Background(), AuditEvent{EventType: AuditLogin})
	d.close()
	if d.droppedCount() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// No sink drain: a blocked channel sink with buffer 1 fills immediately.
	block := make(chan struct{})
	sink := blockingSink{release: block}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	// Unblock the sink before close so the drain goroutine can exit.
	defer d.close()
	defer close(block)

	// First event may be in flight, second fills the buffer; keep going until
	// a drop registers.
	deadline := time.After(2 * time.Second)
	for d.droppedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("no drop observed")
		default:
		}
		d.emit(context.Background(), AuditEvent{EventType: AuditLogin})
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(_ context.Context, _ AuditEvent) {
	<-s.release
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.emit(context.Background(), AuditEvent{EventType: AuditLogout})
	}
	d.close()

	delivered := 0
	for {
		select {
		case <-sink.Events():
			delivered++
			if delivered == 5 {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 5 events delivered after close", delivered)
		}
	}
}

func TestEmitAfterCloseIsIgnored(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)
	d.close()

	d.emit(context.Background(), AuditEvent{EventType: AuditLogin})

	select {
	case event := <-sink.Events():
		t.Fatalf("event delivered after close: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestJSONWriterSinkWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{ID: "e-1", EventType: AuditLogin, SubjectID: "u-1", Success: true})
	sink.Emit(context.Background(), AuditEvent{ID: "e-2", EventType: AuditLogout, SubjectID: "u-1", Success: true})

	scanner := bufio.NewScanner(&buf)
	var types []string
	for scanner.Scan() {
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		types = append(types, event.EventType)
	}
	if len(types) != 2 || types[0] != AuditLogin || types[1] != AuditLogout {
		t.Fatalf("unexpected lines: %v", types)
	}
}
