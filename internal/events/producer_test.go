package events

import (
	"bytes"
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes successfully", func() {
			w := newTestWriter()
			ep := NewEventProducer(w)

			err := ep.Write(context.TODO(), ImportMessageKind, bytes.NewReader([]byte("msg1")))
			Expect(err).To(BeNil())

			err = ep.Write(context.TODO(), ImportMessageKind, bytes.NewReader([]byte("msg2")))
			Expect(err).To(BeNil())

			Eventually(w.Len, 5*time.Second).Should(Equal(2))

			messages := w.Snapshot()
			Expect(messages[0].Type()).To(Equal(ImportMessageKind))
			Expect(messages[0].Source()).To(Equal(eventSource))

			Expect(ep.Close()).To(BeNil())
		})

		It("writes to the configured topic", func() {
			w := newTestWriter()
			ep := NewEventProducer(w, WithOutputTopic("other.topic"))

			err := ep.Write(context.TODO(), ImportMessageKind, bytes.NewReader([]byte("msg1")))
			Expect(err).To(BeNil())

			Eventually(w.Len, 5*time.Second).Should(Equal(1))
			Expect(w.Topics()).To(Equal([]string{"other.topic"}))

			Expect(ep.Close()).To(BeNil())
		})
	})
})

type testwriter struct {
	mu       sync.Mutex
	messages []cloudevents.Event
	topics   []string
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(_ context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *testwriter) Snapshot() []cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]cloudevents.Event{}, t.messages...)
}

func (t *testwriter) Topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.topics...)
}
