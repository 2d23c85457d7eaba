// Package leads accepts email sign-ups from the landing page and forwards them
// to the hosted form backend in the background. Callers never wait on, or see,
// the outcome of the forward.
package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	LeadSubject        = "BioPlot AI - Lead Capture Form Submission"
	pricingSubjectBase = "BioPlot AI - Pricing Interest: "

	SourceLeadCapture  = "lead_capture_section"
	SourcePricingModal = "pricing_modal"

	metricNamespace = "github.com/BBplayer2021/BioPlotLab/internal/leads"

	defaultQueueSize = 64
	defaultWorkers   = 2
)

// ErrQueueFull is returned when the submission was accepted for display but dropped.
var ErrQueueFull = errors.New("leads: queue full")

var errClosed = errors.New("leads: service closed")

// Submission is a single captured email.
type Submission struct {
	ID        string
	Email     string
	Subject   string
	Source    string
	Plan      string
	Lang      string
	CreatedAt time.Time
}

// NewLead builds a lead-capture section submission.
func NewLead(email, lang string) Submission {
	return Submission{Email: email, Subject: LeadSubject, Source: SourceLeadCapture, Lang: lang}
}

// NewPricingInterest builds a pricing modal submission for the selected plan.
func NewPricingInterest(email, planKey, planName, lang string) Submission {
	return Submission{
		Email:   email,
		Subject: PricingSubject(planName),
		Source:  SourcePricingModal,
		Plan:    planKey,
		Lang:    lang,
	}
}

// PricingSubject is the form subject for interest in a plan.
func PricingSubject(planName string) string {
	return pricingSubjectBase + strings.TrimSpace(planName)
}

// Receipt identifies an accepted submission.
type Receipt struct {
	ID         string
	AcceptedAt time.Time
}

// ServiceDeps bundles constructor inputs for the lead service.
type ServiceDeps struct {
	Forwarder   Forwarder
	Clock       func() time.Time
	IDGenerator func() string
	Logger      *zap.Logger
	Meter       metric.Meter
	QueueSize   int
	Workers     int
	Timeout     time.Duration
}

// Service validates submissions and forwards them on a bounded worker pool.
type Service struct {
	forwarder Forwarder
	clock     func() time.Time
	newID     func() string
	logger    *zap.Logger
	timeout   time.Duration

	forwarded        metric.Int64Counter
	forwardedEnabled bool

	mu     sync.RWMutex
	closed bool
	queue  chan Submission
	wg     sync.WaitGroup
}

// NewService starts the worker pool.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Forwarder == nil {
		return nil, fmt.Errorf("leads service: forwarder is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	queueSize := deps.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	workers := deps.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	meter := deps.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	forwarded, err := meter.Int64Counter(
		"leads.forwarded",
		metric.WithDescription("Lead submissions by source and forward outcome"),
	)
	if err != nil {
		logger.Warn("leads: unable to register forward metric", zap.Error(err))
	}

	s := &Service{
		forwarder:        deps.Forwarder,
		clock:            func() time.Time { return clock().UTC() },
		newID:            newID,
		logger:           logger,
		timeout:          timeout,
		forwarded:        forwarded,
		forwardedEnabled: err == nil,
		queue:            make(chan Submission, queueSize),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.work()
	}
	return s, nil
}

// Submit validates the email, stamps the submission and queues it for
// forwarding. It never blocks on the network. A full queue drops the
// submission and returns ErrQueueFull alongside a valid receipt.
func (s *Service) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	email, err := NormalizeEmail(sub.Email)
	if err != nil {
		return Receipt{}, err
	}
	sub.Email = email
	sub.ID = s.newID()
	sub.CreatedAt = s.clock()
	if sub.Subject == "" {
		sub.Subject = LeadSubject
	}
	if sub.Source == "" {
		sub.Source = SourceLeadCapture
	}
	receipt := Receipt{ID: sub.ID, AcceptedAt: sub.CreatedAt}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.count(ctx, sub.Source, "dropped")
		return receipt, errClosed
	}
	select {
	case s.queue <- sub:
		return receipt, nil
	default:
		s.logger.Warn("leads: queue full, dropping submission",
			zap.String("submissionId", sub.ID),
			zap.String("source", sub.Source),
		)
		s.count(ctx, sub.Source, "dropped")
		return receipt, ErrQueueFull
	}
}

// Close stops accepting submissions and waits for queued ones to be forwarded.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) work() {
	defer s.wg.Done()
	for sub := range s.queue {
		s.forward(sub)
	}
}

func (s *Service) forward(sub Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	fields := []zap.Field{
		zap.String("submissionId", sub.ID),
		zap.String("source", sub.Source),
		zap.String("lang", sub.Lang),
	}
	if sub.Plan != "" {
		fields = append(fields, zap.String("plan", sub.Plan))
	}

	if err := s.forwarder.Forward(ctx, sub); err != nil {
		s.logger.Warn("leads: forward failed", append(fields, zap.Error(err))...)
		s.count(ctx, sub.Source, "error")
		return
	}
	s.logger.Info("leads: submission forwarded", fields...)
	s.count(ctx, sub.Source, "ok")
}

func (s *Service) count(ctx context.Context, source, outcome string) {
	if !s.forwardedEnabled {
		return
	}
	s.forwarded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}
