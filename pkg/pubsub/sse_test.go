package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with buffer size 3, replay all
	pub.ConfigureTopic(TopicPipelineStatus, TopicConfig{
		BufferSize: 3,
		ReplayAll:  true,
	})

	// Publish 5 events
	for i := 1; i <= 5; i++ {
		err := pub.Publish(TopicPipelineStatus, "status", PipelineStatus{State: "aggregating", Step: i, Total: 5})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe and verify we get last 3 events
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicPipelineStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive last 3 events (3, 4, 5)
	receivedCount := 0
	for receivedCount < 3 {
		select {
		case event := <-sub.Events():
			receivedCount++
			t.Logf("Received replayed event version %d", event.Version)
			// Events should be 3, 4, 5 (last 3 of 5)
			expectedVersion := receivedCount + 2
			if event.Version != expectedVersion {
				t.Errorf("Expected version %d, got %d", expectedVersion, event.Version)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for event %d", receivedCount+1)
		}
	}

	if receivedCount != 3 {
		t.Errorf("Expected 3 replayed events, got %d", receivedCount)
	}
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with buffer size 5, replay only last
	pub.ConfigureTopic(TopicPipelineStatus, TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	// Publish 3 events
	for i := 1; i <= 3; i++ {
		err := pub.Publish(TopicPipelineStatus, "status", PipelineStatus{State: "aggregating", Step: i, Total: 5})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe and verify we get only last event
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicPipelineStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive only last event (version 3)
	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("Expected version 3, got %d", event.Version)
		}
		t.Logf("Received last event version %d", event.Version)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}

	// Verify no more events are sent
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
		// Good, no extra events
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with no buffer
	pub.ConfigureTopic(TopicPipelineStatus, TopicConfig{
		BufferSize: 0,
		ReplayAll:  false,
	})

	// Publish events before subscribing
	for i := 1; i <= 3; i++ {
		err := pub.Publish(TopicPipelineStatus, "status", PipelineStatus{State: "aggregating", Step: i, Total: 5})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe - should not receive any replayed events
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicPipelineStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Verify no events are received (because none were buffered)
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
		// Good, no events replayed
		t.Log("Correctly received no events (buffer disabled)")
	}

	// Now publish a new event - subscriber should receive it
	err = pub.Publish(TopicPipelineStatus, "status", PipelineStatus{State: "ready", Step: 4, Total: 4})
	if err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Version != 4 {
			t.Errorf("Expected version 4, got %d", event.Version)
		}
		t.Logf("Received new event version %d", event.Version)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestPipelinePublisherReplaysLatestStatus(t *testing.T) {
	pub := NewPipelinePublisher()
	defer pub.Close()

	if err := pub.Publish(TopicPipelineStatus, "loading", PipelineStatus{State: "loading", Step: 1, Total: 5}); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}
	if err := pub.Publish(TopicPipelineStatus, "ready", PipelineStatus{State: "ready", Step: 5, Total: 5}); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicPipelineStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	select {
	case event := <-sub.Events():
		var status PipelineStatus
		if err := json.Unmarshal(event.Data, &status); err != nil {
			t.Fatalf("Failed to decode status: %v", err)
		}
		if status.State != "ready" || event.Type != "ready" || event.Version != 2 {
			t.Errorf("Expected ready status version 2, got %s/%s version %d", event.Type, status.State, event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for replayed status")
	}

	// Scores is a separate topic
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected event on %s", event.Topic)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestClosedPublisher(t *testing.T) {
	pub := NewPipelinePublisher()
	sub, err := pub.Subscribe(context.Background(), TopicScores)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	pub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Error("Expected subscription channel to be closed")
	}
	if err := pub.Publish(TopicScores, "ready", ScoresData{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Publish, got %v", err)
	}
	if _, err := pub.Subscribe(context.Background(), TopicScores); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Subscribe, got %v", err)
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicScores, Type: "ready", Data: json.RawMessage(`{"terms":3}`), Version: 1}

	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "data: {") || !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("Unexpected SSE framing: %q", out)
	}
	if !strings.Contains(out, `"data":{"terms":3}`) {
		t.Errorf("Expected payload in SSE output: %q", out)
	}
}
