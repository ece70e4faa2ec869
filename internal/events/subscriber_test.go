package events

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNATSSubscriber_ImplementsSubscriber(t *testing.T) {
	var _ Subscriber = (*NATSSubscriber)(nil)
}

func TestNATSSubscriber_ReceivesWildcardTopics(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	topics := []string{TopicFormCreated, TopicRecordSubmitted, TopicBuilderDropped}
	for _, topic := range topics {
		if err := pub.conn.Publish(topic, []byte(`{}`)); err != nil {
			t.Fatalf("publishing to %s: %v", topic, err)
		}
	}
	pub.conn.Flush()

	for i, want := range topics {
		select {
		case msg := <-ch:
			if msg.Topic != want {
				t.Errorf("message %d topic = %q, want %q", i, msg.Topic, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestNATSSubscriber_Cancel(t *testing.T) {
	url := startTestNATS(t)

	sub, err := NewNATSSubscriber(url)
	if err != nil {
		t.Fatalf("creating subscriber: %v", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(TopicAll)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}
}

func TestNATSSubscriber_QueueGroupDeliversOnce(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	var chans []<-chan Message
	for range 2 {
		sub, err := NewNATSSubscriber(url)
		if err != nil {
			t.Fatalf("creating subscriber: %v", err)
		}
		defer sub.Close()
		ch, cancel, err := sub.InQueue("hooks").Subscribe(TopicAll)
		if err != nil {
			t.Fatalf("subscribing: %v", err)
		}
		defer cancel()
		chans = append(chans, ch)
	}

	const n = 10
	for range n {
		if err := pub.conn.Publish(TopicRecordSubmitted, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}
	pub.conn.Flush()

	got := 0
	timeout := time.After(2 * time.Second)
	for got < n {
		select {
		case <-chans[0]:
			got++
		case <-chans[1]:
			got++
		case <-timeout:
			t.Fatalf("received %d messages, want %d", got, n)
		}
	}
	select {
	case <-chans[0]:
		t.Error("message delivered to both queue members")
	case <-chans[1]:
		t.Error("message delivered to both queue members")
	case <-time.After(100 * time.Millisecond):
	}
}
