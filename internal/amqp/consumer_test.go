package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type ackRecord struct {
	acked   bool
	nacked  bool
	requeue bool
}

type fakeAcker struct {
	records map[uint64]*ackRecord
}

func (f *fakeAcker) rec(tag uint64) *ackRecord {
	if f.records[tag] == nil {
		f.records[tag] = &ackRecord{}
	}
	return f.records[tag]
}

func (f *fakeAcker) Ack(tag uint64, _ bool) error {
	f.rec(tag).acked = true
	return nil
}

func (f *fakeAcker) Nack(tag uint64, _ bool, requeue bool) error {
	r := f.rec(tag)
	r.nacked = true
	r.requeue = requeue
	return nil
}

func (f *fakeAcker) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

type fakeConsumeChannel struct {
	msgs     chan amqp091.Delivery
	prefetch int
}

func (f *fakeConsumeChannel) Consume(string, string, bool, bool, bool, bool, amqp091.Table) (<-chan amqp091.Delivery, error) {
	return f.msgs, nil
}

func (f *fakeConsumeChannel) Qos(prefetchCount, _ int, _ bool) error {
	f.prefetch = prefetchCount
	return nil
}

func (f *fakeConsumeChannel) Close() error { return nil }

func TestConsumer_Dispatch(t *testing.T) {
	acker := &fakeAcker{records: map[uint64]*ackRecord{}}
	ch := &fakeConsumeChannel{msgs: make(chan amqp091.Delivery, 8)}
	c := &Consumer{channel: ch, queueName: "events"}

	email, _ := NewEmailMessage("me@example.com", "Conferma", "Clicca", "http://x/auth").ToJSON()
	assigned, _ := NewWorkDayEvent("acc", "2024-03-04", "c1").ToJSON()
	removed, _ := NewWorkDayEvent("acc", "2024-03-05", "").ToJSON()

	deliveries := []amqp091.Delivery{
		{DeliveryTag: 1, RoutingKey: RoutingEmailSend, Body: email},
		{DeliveryTag: 2, RoutingKey: RoutingWorkDayAssigned, Body: assigned},
		{DeliveryTag: 3, RoutingKey: RoutingWorkDayUnassigned, Body: removed},
		{DeliveryTag: 4, RoutingKey: RoutingEmailSend, Body: []byte("{not json")},
		{DeliveryTag: 5, RoutingKey: "something.else", Body: []byte("{}")},
	}
	for _, d := range deliveries {
		d.Acknowledger = acker
		ch.msgs <- d
	}
	close(ch.msgs)

	var (
		gotEmails []string
		gotDates  []string
	)
	fail := true
	err := c.Consume(context.Background(), Handlers{
		Email: func(_ context.Context, msg *EmailMessage) error {
			gotEmails = append(gotEmails, msg.To)
			return nil
		},
		WorkDay: func(_ context.Context, e *WorkDayEvent) error {
			gotDates = append(gotDates, e.Date)
			if e.ClientID == "" && fail {
				fail = false
				return errors.New("downstream unavailable")
			}
			return nil
		},
	})
	if !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}
	if ch.prefetch != 10 {
		t.Fatalf("expected prefetch 10, got %d", ch.prefetch)
	}

	if len(gotEmails) != 1 || gotEmails[0] != "me@example.com" {
		t.Fatalf("unexpected emails %v", gotEmails)
	}
	if len(gotDates) != 2 {
		t.Fatalf("unexpected work day events %v", gotDates)
	}

	want := map[uint64]ackRecord{
		1: {acked: true},
		2: {acked: true},
		3: {nacked: true, requeue: true},
		4: {nacked: true, requeue: false},
		5: {acked: true},
	}
	for tag, w := range want {
		got := acker.records[tag]
		if got == nil || *got != w {
			t.Errorf("delivery %d: got %+v, want %+v", tag, got, w)
		}
	}
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	ch := &fakeConsumeChannel{msgs: make(chan amqp091.Delivery)}
	c := &Consumer{channel: ch, queueName: "events"}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Consume(ctx, Handlers{}) }()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
