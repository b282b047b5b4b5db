package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func readEvent(t *testing.T, c *Client, timeout time.Duration) Event {
	t.Helper()
	select {
	case msg := <-c.Send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return ev
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for event")
	}
	return Event{}
}

func TestHubPublish(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("session-1")
	defer hub.Unregister(client)

	hub.Publish("session-1", Event{Type: "workout.add", WorkoutID: "1", HTML: "<li></li>"})

	ev := readEvent(t, client, 100*time.Millisecond)
	if ev.Type != "workout.add" || ev.WorkoutID != "1" || ev.HTML != "<li></li>" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestHubPublishOtherSessionNotDelivered(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("session-1")
	defer hub.Unregister(client)

	hub.Publish("session-2", Event{Type: "workout.add"})

	select {
	case <-client.Send:
		t.Fatalf("unexpected delivery")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "mapty:abc:events" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if sessionIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected session id")
	}
	if sessionIDFromChannel("bad") != "" {
		t.Fatalf("expected empty session id")
	}
	if sessionIDFromChannel("tracking:abc:broadcast") != "" {
		t.Fatalf("expected empty session id for foreign channel")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("session-2")
	if hub.Subscribers("session-2") != 1 {
		t.Fatalf("expected one subscriber")
	}
	hub.Unregister(client)
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
	if hub.Subscribers("session-2") != 0 {
		t.Fatalf("expected no subscribers")
	}
}

func TestHubRedisRelayBetweenHubs(t *testing.T) {
	s := miniredis.RunT(t)
	rdbA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbA.Close()
	rdbB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbB.Close()

	hubA := NewHub(rdbA, nil)
	defer hubA.Close()
	hubB := NewHub(rdbB, nil)
	defer hubB.Close()

	local := hubA.Register("session-redis")
	defer hubA.Unregister(local)
	remote := hubB.Register("session-redis")
	defer hubB.Unregister(remote)

	time.Sleep(20 * time.Millisecond)
	hubA.Publish("session-redis", Event{Type: "notice.open"})

	if ev := readEvent(t, local, 200*time.Millisecond); ev.Type != "notice.open" {
		t.Fatalf("unexpected local event %+v", ev)
	}
	if ev := readEvent(t, remote, 500*time.Millisecond); ev.Type != "notice.open" {
		t.Fatalf("unexpected relayed event %+v", ev)
	}

	// the publishing hub ignores its own relay
	select {
	case <-local.Send:
		t.Fatalf("duplicate delivery on publishing hub")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()

	hub := NewHub(client, nil)
	server.Close()
	defer hub.Close()

	c := hub.Register("session-bad")
	defer hub.Unregister(c)

	hub.Publish("session-bad", Event{Type: "ping"})
	if ev := readEvent(t, c, 100*time.Millisecond); ev.Type != "ping" {
		t.Fatalf("expected local delivery despite redis failure")
	}
}
