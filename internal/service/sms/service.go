package sms

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/gommon/log"

	"uk.co.dudmesh.bulksms/internal/boot"
	"uk.co.dudmesh.bulksms/internal/dispatch"
	"uk.co.dudmesh.bulksms/internal/gateway"
	"uk.co.dudmesh.bulksms/internal/model"
	"uk.co.dudmesh.bulksms/internal/reconcile"
	"uk.co.dudmesh.bulksms/internal/recipient"
	"uk.co.dudmesh.bulksms/internal/tag"
)

const (
	MaxMessageLength  int = 660
	MaxGroupTagLength int = 200
)

type service struct {
	config     *boot.Config
	gateway    *gateway.Client
	dispatcher *dispatch.Dispatcher
	reconciler *reconcile.Reconciler
	clock      tag.Clock
	log        *log.Logger
}

type Option func(*options)

type options struct {
	clock     tag.Clock
	throttle  dispatch.Throttle
	logOutput io.Writer
}

func WithClock(clock tag.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func WithThrottle(t dispatch.Throttle) Option {
	return func(o *options) {
		o.throttle = t
	}
}

// WithLogOutput redirects the service's loggers, which write to stdout by
// default.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

func New(config *boot.Config, opts ...Option) (*service, error) {
	o := &options{
		clock:    time.Now,
		throttle: dispatch.NewThrottle(config.Dispatch.Delay, config.Dispatch.RatePerSec),
	}
	for _, opt := range opts {
		opt(o)
	}

	level := config.Level()
	gwLog, dispatchLog, reconcileLog, serviceLog := log.New("gateway"), log.New("dispatch"), log.New("reconcile"), log.New("sms")
	for _, l := range []*log.Logger{gwLog, dispatchLog, reconcileLog, serviceLog} {
		l.SetLevel(level)
		if o.logOutput != nil {
			l.SetOutput(o.logOutput)
		}
	}

	client, err := gateway.New(gateway.Config{
		Endpoint: config.Gateway.Endpoint,
		Token:    config.Gateway.Token,
		ClientID: config.Gateway.ClientID,
		SMSCode:  config.Gateway.SMSCode,
		Timeout:  config.Gateway.Timeout,
	}, gateway.WithLogger(gwLog))
	if err != nil {
		return nil, fmt.Errorf("creating gateway client: %w", err)
	}

	return &service{
		config:  config,
		gateway: client,
		dispatcher: dispatch.New(client,
			dispatch.WithThrottle(o.throttle),
			dispatch.WithClock(o.clock),
			dispatch.WithLogger(dispatchLog),
		),
		reconciler: reconcile.New(client, reconcileLog),
		clock:      o.clock,
		log:        serviceLog,
	}, nil
}

// BatchSend normalizes, validates and dedupes the recipients, then dispatches
// the batch.
func (s *service) BatchSend(ctx context.Context, params *model.BatchSendParams) (*model.BatchResult, error) {
	if err := s.validateMessage(params.Message); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(params.GroupTag) > MaxGroupTagLength {
		return nil, model.NewValidationError("groupTag", fmt.Sprintf("groupTag must be at most %d characters", MaxGroupTagLength))
	}

	var phoneNumbers []string
	var err error
	if len(params.PhoneNumbers) > 0 {
		phoneNumbers, err = recipient.Normalize(params.PhoneNumbers)
	} else {
		phoneNumbers, err = recipient.Parse(params.PhoneNumbersText)
	}
	if err != nil {
		return nil, err
	}
	if s.config.Dispatch.ValidatePhoneNumbers {
		if err := recipient.Validate(phoneNumbers); err != nil {
			return nil, err
		}
	}
	deduped := recipient.Dedupe(phoneNumbers)
	if dropped := len(phoneNumbers) - len(deduped); dropped > 0 {
		s.log.Infof("dropped %d duplicate recipients", dropped)
	}

	return s.dispatcher.Dispatch(ctx, deduped, params.Message, strings.TrimSpace(params.GroupTag))
}

func (s *service) BatchStatus(ctx context.Context, query model.ReconcileQuery) (*model.Reconciliation, error) {
	return s.reconciler.Reconcile(ctx, query)
}

// Send issues a single message. Unlike a batch, a transport failure is
// returned as an error.
func (s *service) Send(ctx context.Context, params *model.SendParams) (*model.SendResult, error) {
	phoneNumber := strings.TrimSpace(params.PhoneNumber)
	if phoneNumber == "" {
		return nil, model.NewValidationError("phoneNumber", "phone number is required")
	}
	if s.config.Dispatch.ValidatePhoneNumbers {
		if err := recipient.Validate([]string{phoneNumber}); err != nil {
			return nil, err
		}
	}
	if err := s.validateMessage(params.Message); err != nil {
		return nil, err
	}
	clientTag := strings.TrimSpace(params.ClientTag)
	if clientTag == "" {
		clientTag = tag.DefaultClientTag(s.clock())
	}

	ack, err := s.gateway.Send(context.WithoutCancel(ctx), gateway.SendRequest{
		PhoneNumber: phoneNumber,
		Message:     params.Message,
		ClientTag:   clientTag,
	})
	if err != nil {
		s.log.Warnf("send %s failed: %v", clientTag, err)
		return nil, model.NewTransportFailure(err)
	}
	s.log.Infof("send %s: responseCode=%d", clientTag, ack.ResponseCode)
	return &model.SendResult{ClientTag: clientTag, Ack: ack}, nil
}

func (s *service) Status(ctx context.Context, query model.StatusQuery) (*model.StatusLookup, error) {
	return s.reconciler.Lookup(ctx, query)
}

func (s *service) validateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return model.NewValidationError("message", "message is required")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return model.NewValidationError("message", fmt.Sprintf("message must be at most %d characters", MaxMessageLength))
	}
	return nil
}
