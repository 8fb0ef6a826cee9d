// Package notify delivers new-lead notifications to the agency.
//
// Every channel is best-effort: the dispatcher logs failures and never reports
// them back to the request that created the lead.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"rentdesk/server/internal/models"
	"rentdesk/server/internal/queue"
)

// Notifier sends a notification about a new lead
type Notifier interface {
	NotifyLead(ctx context.Context, lead models.Lead) error
}

// Multi fans a notification out to several channels. All channels are tried;
// the returned error joins every failure.
type Multi []Notifier

func (m Multi) NotifyLead(ctx context.Context, lead models.Lead) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyLead(ctx, lead); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher hands leads to a notifier from a background queue so that the
// request creating the lead never waits for the mail server.
type Dispatcher struct {
	queue    *queue.LeadQueue
	notifier Notifier
	timeout  time.Duration
	logger   *logrus.Logger
}

func NewDispatcher(q *queue.LeadQueue, notifier Notifier, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	d := &Dispatcher{
		queue:    q,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}
	q.Subscribe(d.send)
	return d
}

// Dispatch queues the lead. A full or closed queue drops the notification.
func (d *Dispatcher) Dispatch(lead models.Lead) {
	if err := d.queue.Push(lead); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"lead_id":        lead.ID,
			"queue_length":   d.queue.Len(),
			"queue_capacity": d.queue.Cap(),
		}).Warn("Dropped lead notification")
	}
}

func (d *Dispatcher) send(lead models.Lead) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.notifier.NotifyLead(ctx, lead); err != nil {
		d.logger.WithError(err).WithField("lead_id", lead.ID).Error("Failed to send lead notification")
		return nil
	}

	d.logger.WithField("lead_id", lead.ID).Info("Lead notification sent")
	return nil
}
