// Package dispatch sends one message per recipient through the gateway,
// sequentially and throttled, and reduces the per-item outcomes into a
// batch summary.
//
// A recipient's failure never stops the batch: gateway rejections and
// transport failures are recorded on the attempt and the loop moves on.
// The dispatcher does not retry.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"uk.co.dudmesh.bulksms/internal/gateway"
	"uk.co.dudmesh.bulksms/internal/model"
	"uk.co.dudmesh.bulksms/internal/tag"
)

type Sender interface {
	Send(ctx context.Context, req gateway.SendRequest) (*model.GatewayAck, error)
}

type Dispatcher struct {
	sender   Sender
	throttle Throttle
	clock    tag.Clock
	log      *log.Logger
}

type Option func(*Dispatcher)

func WithThrottle(t Throttle) Option {
	return func(d *Dispatcher) {
		d.throttle = t
	}
}

func WithClock(clock tag.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		d.log = logger
	}
}

func New(sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:   sender,
		throttle: FixedDelay(DefaultDelay),
		clock:    time.Now,
		log:      log.New("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends message to every non-blank recipient in order. Item tags are
// derived from the recipient's position in the list, so blank entries leave a
// gap in the index sequence but never produce an attempt.
//
// Only validation problems are returned as errors. Once the first call is
// made the batch always completes: an in-flight call is not interrupted by
// ctx, and if ctx ends mid-batch the remaining recipients are recorded as
// abandoned transport failures without being sent.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []string, message, groupTag string) (*model.BatchResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, model.NewValidationError("message", "message is required")
	}
	live := make([]int, 0, len(recipients))
	for i, r := range recipients {
		if strings.TrimSpace(r) != "" {
			live = append(live, i)
		}
	}
	if len(live) == 0 {
		return nil, model.NewValidationError("phoneNumbers", "at least one recipient is required")
	}

	groupTag, tags := tag.Allocate(groupTag, len(recipients), d.clock)
	d.log.Infof("dispatching group %s: %d recipients", groupTag, len(live))
	batchesTotal.Inc()

	sendCtx := context.WithoutCancel(ctx)
	attempts := make([]model.DispatchAttempt, 0, len(live))
	var abandoned error
	for n, i := range live {
		if n > 0 && abandoned == nil {
			abandoned = d.throttle.Wait(ctx)
		}
		if abandoned == nil {
			abandoned = ctx.Err()
		}

		attempt := model.DispatchAttempt{
			Index:       i,
			Destination: strings.TrimSpace(recipients[i]),
			Message:     message,
			Tag:         tags[i],
		}
		if abandoned != nil {
			now := time.Now()
			attempt.StartedAt, attempt.FinishedAt = now, now
			attempt.Failure = &model.TransportFailure{Cause: fmt.Sprintf("dispatch abandoned: %v", abandoned)}
		} else {
			d.send(sendCtx, &attempt)
			d.log.Debugf("sent %d/%d %s: %s", n+1, len(live), attempt.Tag.ItemTag, attempt.Outcome())
		}
		attemptsTotal.WithLabelValues(attempt.Outcome().String()).Inc()
		attempts = append(attempts, attempt)
	}

	result := newBatchResult(groupTag, message, attempts)
	if abandoned != nil {
		d.log.Warnf("group %s abandoned: %v", groupTag, abandoned)
	}
	d.log.Infof("group %s done: total=%d success=%d failed=%d errors=%d",
		groupTag, result.Summary.Total, result.Summary.Success, result.Summary.Failed, result.Summary.TransportErrors)
	return result, nil
}

// send finalizes attempt with either an ack or a transport failure. A panic
// in the sender is contained to this attempt.
func (d *Dispatcher) send(ctx context.Context, attempt *model.DispatchAttempt) {
	attempt.StartedAt = time.Now()
	defer func() {
		if r := recover(); r != nil {
			attempt.Ack = nil
			attempt.Failure = &model.TransportFailure{Cause: fmt.Sprintf("panic: %v", r)}
			d.log.Errorf("send %s panicked: %v", attempt.Tag.ItemTag, r)
		}
		attempt.FinishedAt = time.Now()
		callDuration.Observe(attempt.FinishedAt.Sub(attempt.StartedAt).Seconds())
	}()

	ack, err := d.sender.Send(ctx, gateway.SendRequest{
		PhoneNumber: attempt.Destination,
		Message:     attempt.Message,
		ClientTag:   attempt.Tag.ItemTag,
		GroupTag:    attempt.Tag.GroupTag,
	})
	switch {
	case err != nil:
		attempt.Failure = model.NewTransportFailure(err)
		d.log.Warnf("send %s to %s failed: %v", attempt.Tag.ItemTag, attempt.Destination, err)
	case ack == nil:
		attempt.Failure = &model.TransportFailure{Cause: "empty gateway response"}
	default:
		attempt.Ack = ack
		if rejection := ack.Err(); rejection != nil {
			d.log.Warnf("send %s to %s: %v", attempt.Tag.ItemTag, attempt.Destination, rejection)
		}
	}
}
