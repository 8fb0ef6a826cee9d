package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"rentdesk/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// LeadQueue is an in-memory queue of leads waiting for notification
type LeadQueue struct {
	items    chan models.Lead
	done     chan struct{}
	stopped  chan struct{}
	closed   bool
	started  bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(models.Lead) error
}

// NewLeadQueue creates a new lead queue with the specified buffer size
func NewLeadQueue(bufferSize int, logger *logrus.Logger) *LeadQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &LeadQueue{
		items:    make(chan models.Lead, bufferSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		logger:   logger,
		handlers: make([]func(models.Lead) error, 0),
	}
}

// Push adds a lead to the queue without blocking
func (q *LeadQueue) Push(lead models.Lead) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- lead:
		q.logger.WithField("lead_id", lead.ID).Debug("Pushed lead to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each lead
func (q *LeadQueue) Subscribe(handler func(models.Lead) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *LeadQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

func (q *LeadQueue) process() {
	defer close(q.stopped)
	for {
		select {
		case <-q.done:
			return
		case lead := <-q.items:
			q.processLead(lead)
		}
	}
}

// processLead sends the lead to all subscribed handlers
func (q *LeadQueue) processLead(lead models.Lead) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(lead); err != nil {
			q.logger.WithError(err).WithField("lead_id", lead.ID).Error("Handler failed to process lead")
		}
	}
}

// Close stops the queue. Leads still buffered are dropped.
func (q *LeadQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	close(q.done)
	q.mu.Unlock()

	if started {
		<-q.stopped
	}
	return nil
}

// Len returns the current number of leads in the queue
func (q *LeadQueue) Len() int {
	return len(q.items)
}

// Cap returns how many leads the queue can buffer
func (q *LeadQueue) Cap() int {
	return cap(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *LeadQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
