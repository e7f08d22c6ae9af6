package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/call-task-dispatcher/internal/domain"
	"github.com/acme/call-task-dispatcher/internal/gateway"
	"github.com/acme/call-task-dispatcher/internal/queue"
	"github.com/acme/call-task-dispatcher/internal/repository"
	"github.com/acme/call-task-dispatcher/pkg/logger"
)

// Outcome classifies the result of processing one task.
type Outcome int

const (
	// OutcomeSkipped: nothing dispatched, task status unchanged (lost
	// claim race, or unresolved data the operator must fix).
	OutcomeSkipped Outcome = iota
	// OutcomeCompleted: the gateway accepted the call.
	OutcomeCompleted
	// OutcomeRetrying: the gateway failed retryably; the task went back to
	// Scheduled with an attempt consumed.
	OutcomeRetrying
	// OutcomeFailed: terminal gateway error or attempts exhausted.
	OutcomeFailed
)

// CycleResult aggregates one dispatch cycle for observability.
type CycleResult struct {
	Processed int
	Completed int
	Failed    int
	Skipped   int
}

// Config carries the dispatch tuning knobs.
type Config struct {
	BatchSize          int
	Concurrency        int
	MaxAttempts        int
	RequestTimeout     time.Duration
	DefaultVoiceID     string
	DefaultCallerID    string
	DefaultCountryCode string
}

// OutcomePublisher publishes per-attempt outcome events. Nil disables
// publishing.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, msg queue.TaskOutcomeMessage) error
}

// AccountLimiter caps in-flight gateway calls per account. Nil disables
// the cap.
type AccountLimiter interface {
	Acquire(ctx context.Context, userID uuid.UUID) (bool, error)
	Release(ctx context.Context, userID uuid.UUID) error
}

// Service runs the call-task dispatch pipeline. Both the periodic scan
// and the delayed-queue worker funnel through ProcessTask, so only one
// code path performs status transitions.
type Service struct {
	cfg Config

	tasks       repository.TaskRepository
	contacts    repository.ContactRepository
	credentials repository.CredentialRepository
	agents      repository.AgentSettingsRepository
	campaigns   repository.CampaignRepository

	voice   gateway.Voice
	numbers gateway.NumberLister

	outcomes OutcomePublisher
	limiter  AccountLimiter
	logger   *logger.Logger
}

// NewService wires the dispatch pipeline.
func NewService(
	cfg Config,
	tasks repository.TaskRepository,
	contacts repository.ContactRepository,
	credentials repository.CredentialRepository,
	agents repository.AgentSettingsRepository,
	campaigns repository.CampaignRepository,
	voice gateway.Voice,
	numbers gateway.NumberLister,
	outcomes OutcomePublisher,
	limiter AccountLimiter,
	lg *logger.Logger,
) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Service{
		cfg:         cfg,
		tasks:       tasks,
		contacts:    contacts,
		credentials: credentials,
		agents:      agents,
		campaigns:   campaigns,
		voice:       voice,
		numbers:     numbers,
		outcomes:    outcomes,
		limiter:     limiter,
		logger:      lg,
	}
}

// RunCycle executes one scan over due tasks. A store error fetching the
// batch aborts the cycle; everything after that is per-task and never
// takes down the batch.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	tracer := otel.Tracer("dispatch.cycle")
	sctx, span := tracer.Start(ctx, "dispatch.run_cycle")
	defer span.End()

	now := time.Now().UTC()
	due, err := s.tasks.ListDue(sctx, now, s.cfg.BatchSize)
	if err != nil {
		span.RecordError(err)
		return CycleResult{}, fmt.Errorf("dispatch: list due tasks: %w", err)
	}
	span.SetAttributes(attribute.Int("tasks.due", len(due)))
	s.logger.Info("dispatch: cycle started", zap.Int("due", len(due)), zap.Time("now", now))

	var (
		mu     sync.Mutex
		result CycleResult
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, s.cfg.Concurrency)

	for _, task := range due {
		wg.Add(1)
		sem <- struct{}{}
		go func(task *domain.CallTask) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := s.ProcessTask(sctx, task)

			mu.Lock()
			result.Processed++
			switch outcome {
			case OutcomeCompleted:
				result.Completed++
			case OutcomeRetrying, OutcomeFailed:
				result.Failed++
			case OutcomeSkipped:
				result.Skipped++
			}
			mu.Unlock()
		}(task)
	}
	wg.Wait()

	s.logger.Info("dispatch: cycle finished",
		zap.Int("processed", result.Processed),
		zap.Int("completed", result.Completed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// ProcessByID re-fetches a task fresh and dispatches it. The delayed
// queue hands over ids, and data captured at enqueue time is not trusted.
func (s *Service) ProcessByID(ctx context.Context, id uuid.UUID) Outcome {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("dispatch: queued task no longer exists", zap.String("task_id", id.String()))
		} else {
			s.logger.Error("dispatch: fetch queued task", zap.String("task_id", id.String()), zap.Error(err))
		}
		return OutcomeSkipped
	}
	return s.ProcessTask(ctx, task)
}

// ProcessTask runs the per-task pipeline: claim, resolve collaborators,
// place the call, commit the status transition. Safe to race: the claim
// is a conditional update, so a concurrent scan and queue worker agree
// on exactly one winner and the gateway fires at most once per claim.
func (s *Service) ProcessTask(ctx context.Context, task *domain.CallTask) Outcome {
	tracer := otel.Tracer("dispatch.task")
	sctx, span := tracer.Start(ctx, "dispatch.task", trace.WithAttributes(
		attribute.String("task.id", task.ID.String()),
		attribute.Int("task.attempt_count", task.AttemptCount),
	))
	defer span.End()

	lg := s.logger.With(zap.String("task_id", task.ID.String()))

	claimed, err := s.tasks.Claim(sctx, task.ID)
	if err != nil {
		span.RecordError(err)
		lg.Error("dispatch: claim task", zap.Error(err))
		return OutcomeSkipped
	}
	if !claimed {
		lg.Debug("dispatch: task not claimable, skipping")
		return OutcomeSkipped
	}

	contact, err := s.contacts.Get(sctx, task.ContactID)
	if err != nil {
		lg.Warn("dispatch: contact unresolved", zap.String("contact_id", task.ContactID.String()), zap.Error(err))
		return s.releaseAndSkip(sctx, span, task, lg)
	}
	if contact.Phone == "" {
		lg.Warn("dispatch: contact has no phone number", zap.String("contact_id", contact.ID.String()))
		return s.releaseAndSkip(sctx, span, task, lg)
	}

	agent := s.resolveAgent(sctx, contact.UserID, lg)

	creds, err := s.credentials.Latest(sctx, contact.UserID)
	if err != nil || !creds.Complete() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			span.RecordError(err)
		}
		lg.Warn("dispatch: credentials missing or incomplete", zap.String("user_id", contact.UserID.String()))
		return s.releaseAndSkip(sctx, span, task, lg)
	}

	callerID := s.resolveCallerID(sctx, *creds, lg)
	if callerID == "" {
		lg.Warn("dispatch: no outbound number available", zap.String("user_id", contact.UserID.String()))
		return s.releaseAndSkip(sctx, span, task, lg)
	}

	countryCode, campaignPrompt := s.resolveCampaignOverrides(sctx, task, lg)
	destination := NormalizeDestination(contact.Phone, countryCode)
	if destination == "" {
		lg.Warn("dispatch: contact phone not dialable", zap.String("contact_id", contact.ID.String()))
		return s.releaseAndSkip(sctx, span, task, lg)
	}

	if s.limiter != nil {
		acquired, err := s.limiter.Acquire(sctx, contact.UserID)
		if err != nil {
			span.RecordError(err)
			lg.Error("dispatch: limiter acquire", zap.Error(err))
			return s.releaseAndSkip(sctx, span, task, lg)
		}
		if !acquired {
			lg.Debug("dispatch: account at concurrency cap, deferring", zap.String("user_id", contact.UserID.String()))
			return s.releaseAndSkip(sctx, span, task, lg)
		}
		defer func() {
			if err := s.limiter.Release(context.WithoutCancel(sctx), contact.UserID); err != nil {
				lg.Warn("dispatch: limiter release", zap.Error(err))
			}
		}()
	}

	voiceID := agent.VoiceID
	if voiceID == "" {
		voiceID = s.cfg.DefaultVoiceID
	}

	now := time.Now().UTC()
	req := gateway.CallRequest{
		DestinationNumber: destination,
		CallerIDNumber:    callerID,
		ContactName:       contact.FirstName,
		FirstMessage:      firstMessage(task, contact),
		SystemPrompt:      systemPrompt(task, contact, agent, campaignPrompt, destination, now),
		VoiceID:           voiceID,
	}
	span.SetAttributes(attribute.String("call.destination", destination))

	callCtx, cancel := context.WithTimeout(sctx, s.cfg.RequestTimeout)
	started := time.Now()
	callResult, callErr := s.voice.PlaceCall(callCtx, *creds, req)
	cancel()
	duration := time.Since(started)

	attempt := task.AttemptCount + 1
	outcomeMsg := queue.TaskOutcomeMessage{
		TaskID:      task.ID,
		ContactID:   contact.ID,
		CampaignID:  task.CampaignID,
		Attempt:     attempt,
		Destination: destination,
		CallerID:    callerID,
		DurationMs:  duration.Milliseconds(),
		OccurredAt:  now,
	}

	if callErr == nil {
		if err := s.tasks.Complete(sctx, task.ID); err != nil {
			span.RecordError(err)
			lg.Error("dispatch: mark completed", zap.Error(err))
		}
		outcomeMsg.Status = string(domain.TaskStatusCompleted)
		outcomeMsg.GatewayCall = callResult.CallID
		s.publishOutcome(sctx, outcomeMsg, lg)
		lg.Info("dispatch: call placed",
			zap.String("gateway_call", callResult.CallID),
			zap.String("destination", destination),
			zap.Int("attempt", attempt))
		return OutcomeCompleted
	}

	span.RecordError(callErr)
	outcomeMsg.Error = callErr.Error()

	if gateway.IsRetryable(callErr) && attempt < s.cfg.MaxAttempts {
		if err := s.tasks.ScheduleRetry(sctx, task.ID, attempt, callErr.Error()); err != nil {
			span.RecordError(err)
			lg.Error("dispatch: schedule retry", zap.Error(err))
		}
		outcomeMsg.Status = string(domain.TaskStatusScheduled)
		s.publishOutcome(sctx, outcomeMsg, lg)
		lg.Warn("dispatch: call failed, will retry",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.cfg.MaxAttempts),
			zap.Error(callErr))
		return OutcomeRetrying
	}

	if err := s.tasks.Fail(sctx, task.ID, attempt, callErr.Error()); err != nil {
		span.RecordError(err)
		lg.Error("dispatch: mark failed", zap.Error(err))
	}
	outcomeMsg.Status = string(domain.TaskStatusFailed)
	s.publishOutcome(sctx, outcomeMsg, lg)
	lg.Error("dispatch: call failed terminally", zap.Int("attempt", attempt), zap.Error(callErr))
	return OutcomeFailed
}

// releaseAndSkip returns a claimed task to Scheduled without consuming an
// attempt. Used for data conditions a human fixes; the task re-enters on
// a later cycle.
func (s *Service) releaseAndSkip(ctx context.Context, span trace.Span, task *domain.CallTask, lg *zap.Logger) Outcome {
	if err := s.tasks.Release(ctx, task.ID); err != nil {
		span.RecordError(err)
		lg.Error("dispatch: release claim", zap.Error(err))
	}
	return OutcomeSkipped
}

func (s *Service) resolveAgent(ctx context.Context, userID uuid.UUID, lg *zap.Logger) domain.AgentSettings {
	agent, err := s.agents.Latest(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			lg.Warn("dispatch: agent settings lookup", zap.Error(err))
		}
		return domain.AgentSettings{UserID: userID}
	}
	return *agent
}

// resolveCallerID lists the account's numbers fresh and applies the
// first-available policy, falling back to the configured default.
func (s *Service) resolveCallerID(ctx context.Context, creds domain.CredentialBundle, lg *zap.Logger) string {
	numbers, err := s.numbers.ListNumbers(ctx, creds)
	if err != nil {
		lg.Warn("dispatch: list outbound numbers", zap.Error(err))
		return s.cfg.DefaultCallerID
	}
	if selected := gateway.FirstNumber(numbers); selected != nil {
		return selected.PhoneNumber
	}
	return s.cfg.DefaultCallerID
}

func (s *Service) resolveCampaignOverrides(ctx context.Context, task *domain.CallTask, lg *zap.Logger) (countryCode, prompt string) {
	countryCode = s.cfg.DefaultCountryCode
	if task.CampaignID == nil {
		return countryCode, ""
	}

	campaign, err := s.campaigns.Get(ctx, *task.CampaignID)
	if err != nil {
		// Overrides are best-effort; a missing campaign degrades to defaults.
		lg.Warn("dispatch: campaign lookup", zap.String("campaign_id", task.CampaignID.String()), zap.Error(err))
		return countryCode, ""
	}
	if campaign.CountryCode != "" {
		countryCode = campaign.CountryCode
	}
	return countryCode, campaign.Prompt
}

func (s *Service) publishOutcome(ctx context.Context, msg queue.TaskOutcomeMessage, lg *zap.Logger) {
	if s.outcomes == nil {
		return
	}
	if err := s.outcomes.PublishOutcome(ctx, msg); err != nil {
		lg.Warn("dispatch: publish outcome", zap.Error(err))
	}
}
