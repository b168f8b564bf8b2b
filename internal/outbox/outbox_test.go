package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"profast/internal/platform/metrics"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]Entry
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, entries []Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, entries)
	return nil
}

func (p *recordingPublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

type WorkerSuite struct {
	suite.Suite
	ctx       context.Context
	store     *InMemoryStore
	recorder  *Recorder
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.recorder = NewRecorder(s.store)
	s.publisher = &recordingPublisher{}
	s.metrics = metrics.New(prometheus.NewRegistry())
}

func (s *WorkerSuite) record(n int) {
	for i := range n {
		err := s.recorder.Record(s.ctx, "parcel", "p-1", EventPaymentRecorded, map[string]int{"seq": i})
		s.Require().NoError(err)
	}
}

func (s *WorkerSuite) TestRecordEncodesPayload() {
	s.record(1)
	all := s.store.All()
	s.Require().Len(all, 1)
	s.Equal("parcel", all[0].AggregateType)
	s.Equal(EventPaymentRecorded, all[0].EventType)
	s.JSONEq(`{"seq":0}`, string(all[0].Payload))
	s.Nil(all[0].PublishedAt)
}

func (s *WorkerSuite) TestDrainPublishesInBatchesAndMarks() {
	s.record(5)
	w := NewWorker(s.store, s.publisher, WithBatchSize(2), WithMetrics(s.metrics))

	n, err := w.Drain(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, n)
	s.Len(s.publisher.batches, 3)
	s.Equal(5.0, promtest.ToFloat64(s.metrics.OutboxPublished))

	pending, err := s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)

	n, err = w.Drain(s.ctx)
	s.Require().NoError(err)
	s.Zero(n, "nothing republished once marked")
}

func (s *WorkerSuite) TestPublishFailureLeavesEntriesPending() {
	s.record(2)
	s.publisher.err = errors.New("broker down")
	w := NewWorker(s.store, s.publisher)

	_, err := w.ProcessBatch(s.ctx)
	s.Error(err)

	pending, err := s.store.FetchUnpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(pending, 2)
}

func (s *WorkerSuite) TestRunStopsOnCancel() {
	s.record(3)
	w := NewWorker(s.store, s.publisher, WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	s.Eventually(func() bool { return s.publisher.published() == 3 }, time.Second, 10*time.Millisecond)
	cancel()
	s.NoError(<-done)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NoError(t, r.Record(context.Background(), "rider", "r-1", EventRiderActivated, nil))
}

func TestRecordRejectsUnencodablePayload(t *testing.T) {
	r := NewRecorder(NewInMemoryStore())
	err := r.Record(context.Background(), "parcel", "p-1", EventPaymentRecorded, map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	var typeErr *json.UnsupportedTypeError
	assert.ErrorAs(t, err, &typeErr)
}
