package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/hall-matrix-api/internal/allocation"
	"github.com/noah-isme/hall-matrix-api/internal/dto"
	"github.com/noah-isme/hall-matrix-api/internal/models"
	appErrors "github.com/noah-isme/hall-matrix-api/pkg/errors"
	"github.com/noah-isme/hall-matrix-api/pkg/lock"
)

type rosterSource interface {
	Resolve(ctx context.Context, subjectCodes []string, examDate time.Time, session string) (*Roster, error)
}

type hallSlotSource interface {
	Slots(ctx context.Context) ([]models.Hall, error)
}

type allocationStore interface {
	ReplaceSession(ctx context.Context, run *models.AllocationRun, records []models.AllocationRecord) error
	List(ctx context.Context, filter models.AllocationRecordFilter) ([]models.AllocationRecord, int, error)
	ListRuns(ctx context.Context, examDate, session string) ([]models.AllocationRun, error)
}

// EventPublisher announces committed runs to downstream consumers.
type EventPublisher interface {
	PublishCommitted(run models.AllocationRun, records []models.AllocationRecord) error
}

// AllocationServiceConfig governs run behaviour.
type AllocationServiceConfig struct {
	Engine                 allocation.Options
	StudentsPerInvigilator int
	LockTimeout            time.Duration
	WriteTimeout           time.Duration
	QueryCacheTTL          time.Duration
}

// AllocationService runs the resolve, allocate, assign and write pipeline and serves
// committed plans.
type AllocationService struct {
	roster       rosterSource
	halls        hallSlotSource
	invigilators invigilatorReader
	store        allocationStore
	locker       lock.Locker
	events       EventPublisher
	cache        *CacheService
	metrics      *MetricsService
	engine       *allocation.Engine
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          AllocationServiceConfig
	now          func() time.Time
}

// NewAllocationService wires allocation dependencies. events, cache and metrics are optional.
func NewAllocationService(
	roster rosterSource,
	halls hallSlotSource,
	invigilators invigilatorReader,
	store allocationStore,
	locker lock.Locker,
	events EventPublisher,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AllocationServiceConfig,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	return &AllocationService{
		roster:       roster,
		halls:        halls,
		invigilators: invigilators,
		store:        store,
		locker:       locker,
		events:       events,
		cache:        cache,
		metrics:      metrics,
		engine:       allocation.NewEngine(cfg.Engine),
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Generate computes a seating plan for the requested session and, unless DryRun is set,
// replaces the committed records of that session with it. Plans with unplaced students
// are never committed.
func (s *AllocationService) Generate(ctx context.Context, actor models.Actor, req dto.GenerateAllocationRequest) (*dto.GenerateAllocationResponse, error) {
	req.SubjectCodes = dto.CodeList(uniqueCodes(req.SubjectCodes))
	req.ExamDate = strings.TrimSpace(req.ExamDate)
	req.Session = normalizeSession(req.Session)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation request")
	}
	examDate, err := time.Parse(models.ExamDateLayout, req.ExamDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "examDate must be formatted as YYYY-MM-DD")
	}

	mode := dto.AllocationModeCommit
	if req.DryRun {
		mode = dto.AllocationModePreview
	}
	start := s.now()
	logger := s.logger.With(
		zap.String("exam_date", req.ExamDate),
		zap.String("session", req.Session),
		zap.String("mode", mode),
		zap.String("actor", actor.Label()),
		zap.String("request_id", actor.RequestID),
	)

	runCtx := ctx
	if !req.DryRun {
		release, err := s.acquire(ctx, req.ExamDate, req.Session)
		if err != nil {
			s.metrics.ObserveAllocationRun(mode, appErrors.FromError(err).Code, 0, nil, s.now().Sub(start))
			logger.Warn("allocation lock not acquired", zap.Error(err))
			return nil, err
		}
		defer release()

		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
		defer cancel()
	}

	resp, err := s.run(runCtx, actor, req, examDate, mode)
	duration := s.now().Sub(start)
	if err != nil {
		appErr := appErrors.FromError(err)
		var unplaced map[string]int
		if details, ok := appErr.Details.(dto.AllocationFailureDetails); ok {
			unplaced = details.Reasons
		}
		s.metrics.ObserveAllocationRun(mode, appErr.Code, 0, unplaced, duration)
		logger.Warn("allocation run failed", zap.String("code", appErr.Code), zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveAllocationRun(mode, "ok", resp.Summary.Placed, nil, duration)
	logger.Info("allocation run completed",
		zap.Int("placed", resp.Summary.Placed),
		zap.Int("halls_used", resp.Summary.HallsUsed),
		zap.Int("warnings", len(resp.Warnings)),
		zap.Duration("duration", duration),
	)
	return resp, nil
}

func (s *AllocationService) acquire(ctx context.Context, examDate, session string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()

	waitStart := s.now()
	release, err := s.locker.Acquire(lockCtx, examDate+"|"+session)
	s.metrics.ObserveLockWait(s.now().Sub(waitStart))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, appErrors.Wrap(err, appErrors.ErrWriteConflict.Code, appErrors.ErrWriteConflict.Status, appErrors.ErrWriteConflict.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire allocation lock")
	}
	return release, nil
}

func (s *AllocationService) run(ctx context.Context, actor models.Actor, req dto.GenerateAllocationRequest, examDate time.Time, mode string) (*dto.GenerateAllocationResponse, error) {
	codes := []string(req.SubjectCodes)
	roster, err := s.roster.Resolve(ctx, codes, examDate, req.Session)
	if err != nil {
		return nil, err
	}

	halls, err := s.halls.Slots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load halls")
	}
	pool, err := s.invigilators.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invigilators")
	}

	result := s.engine.Allocate(roster.Students, halls)
	plan := allocation.AssignInvigilators(result.UsedHalls(), pool, s.cfg.StudentsPerInvigilator)
	summary := summarise(roster, result, plan)

	if len(result.Unplaced) > 0 {
		return nil, unplacedError(result, summary)
	}

	records := make([]models.AllocationRecord, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		records = append(records, models.AllocationRecord{
			SubjectCode: a.SubjectCode,
			HallNo:      a.HallNo,
			SeatIndex:   a.SeatIndex,
			RegNo:       a.RegNo,
			ExamDate:    req.ExamDate,
			Session:     req.Session,
			Invigilator: plan.Names(a.HallNo),
		})
	}
	warnings := append(append([]models.AllocationWarning{}, roster.Warnings...), plan.Warnings...)

	resp := &dto.GenerateAllocationResponse{
		Mode:     mode,
		Records:  records,
		Seats:    result.Assignments,
		Warnings: warnings,
		Summary:  summary,
	}
	if mode == dto.AllocationModePreview {
		return resp, nil
	}

	rawWarnings, err := json.Marshal(warnings)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode warnings")
	}
	run := &models.AllocationRun{
		ExamDate:     req.ExamDate,
		Session:      req.Session,
		SubjectCodes: strings.Join(codes, ","),
		TriggeredBy:  actor.Label(),
		RequestID:    actor.RequestID,
		Placed:       summary.Placed,
		HallsUsed:    summary.HallsUsed,
		Warnings:     types.JSONText(rawWarnings),
	}
	if err := s.store.ReplaceSession(ctx, run, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store allocation")
	}
	resp.Run = run
	resp.Records = records

	s.cache.Invalidate(ctx, CacheKey("allocations", "*"))
	if s.events != nil {
		if err := s.events.PublishCommitted(*run, records); err != nil {
			s.logger.Warn("allocation event not queued", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	return resp, nil
}

func unplacedError(result allocation.Result, summary dto.AllocationSummary) error {
	reasons := result.Reasons()
	base := appErrors.ErrAdjacencyUnsatisfiable
	message := fmt.Sprintf("%d students could not be seated without an adjacent same-subject neighbour", len(result.Unplaced))
	if n := reasons[models.UnplacedCapacityShortage]; n > 0 {
		base = appErrors.ErrCapacityShortage
		message = fmt.Sprintf("%d students exceed the available seats; %d unplaced in total", n, len(result.Unplaced))
	}
	return appErrors.WithDetails(base, message, dto.AllocationFailureDetails{
		Unplaced: result.Unplaced,
		Reasons:  reasons,
		Summary:  summary,
	})
}

func summarise(roster *Roster, result allocation.Result, plan allocation.InvigilatorPlan) dto.AllocationSummary {
	summary := dto.AllocationSummary{
		Students:   len(roster.Students),
		Placed:     len(result.Assignments),
		Unplaced:   len(result.Unplaced),
		PerSubject: roster.PerSubject,
		Halls:      make([]dto.HallSummary, 0, len(result.Halls)),
	}
	for _, h := range result.UsedHalls() {
		summary.HallsUsed++
		summary.Halls = append(summary.Halls, dto.HallSummary{
			HallNo:       h.HallNo,
			Block:        h.Block,
			Capacity:     h.Capacity,
			Occupied:     h.Occupied,
			Invigilators: plan.Names(h.HallNo),
		})
	}
	return summary
}

const exportPageSize = 1000

type cachedAllocationPage struct {
	Records []models.AllocationRecord `json:"records"`
	Total   int                       `json:"total"`
}

// List returns committed records. The second return reports a cache hit.
func (s *AllocationService) List(ctx context.Context, q dto.AllocationQuery) ([]models.AllocationRecord, *models.Pagination, bool, error) {
	q.Session = normalizeSession(q.Session)
	if err := s.validator.Struct(q); err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation query")
	}
	if q.Format == "csv" {
		return s.listAll(ctx, q)
	}
	page, size := normalizePage(q.Page, q.Limit, 100, 1000)
	pagination := &models.Pagination{Page: page, PageSize: size}

	key := CacheKey("allocations", q.ExamDate, q.Session, q.HallNo, fmt.Sprintf("%d-%d", page, size))
	var cached cachedAllocationPage
	if s.cache.Get(ctx, key, &cached) {
		pagination.TotalCount = cached.Total
		return cached.Records, pagination, true, nil
	}

	records, total, err := s.store.List(ctx, models.AllocationRecordFilter{
		ExamDate: q.ExamDate,
		Session:  q.Session,
		HallNo:   q.HallNo,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocations")
	}
	pagination.TotalCount = total
	s.cache.Set(ctx, key, cachedAllocationPage{Records: records, Total: total}, s.cfg.QueryCacheTTL)
	return records, pagination, false, nil
}

// listAll reads every record of the filter for export, one store page at a time.
func (s *AllocationService) listAll(ctx context.Context, q dto.AllocationQuery) ([]models.AllocationRecord, *models.Pagination, bool, error) {
	key := CacheKey("allocations", q.ExamDate, q.Session, q.HallNo, "all")
	var cached cachedAllocationPage
	if s.cache.Get(ctx, key, &cached) {
		return cached.Records, &models.Pagination{Page: 1, PageSize: len(cached.Records), TotalCount: cached.Total}, true, nil
	}

	var all []models.AllocationRecord
	total := 0
	for page := 1; ; page++ {
		records, count, err := s.store.List(ctx, models.AllocationRecordFilter{
			ExamDate: q.ExamDate,
			Session:  q.Session,
			HallNo:   q.HallNo,
			Page:     page,
			PageSize: exportPageSize,
		})
		if err != nil {
			return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocations")
		}
		total = count
		all = append(all, records...)
		if len(records) < exportPageSize || len(all) >= total {
			break
		}
	}

	s.cache.Set(ctx, key, cachedAllocationPage{Records: all, Total: total}, s.cfg.QueryCacheTTL)
	return all, &models.Pagination{Page: 1, PageSize: len(all), TotalCount: total}, false, nil
}

// ListRuns returns the audit trail of committed runs.
func (s *AllocationService) ListRuns(ctx context.Context, q dto.AllocationRunQuery) ([]models.AllocationRun, error) {
	q.Session = normalizeSession(q.Session)
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid run query")
	}
	runs, err := s.store.ListRuns(ctx, q.ExamDate, q.Session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocation runs")
	}
	return runs, nil
}

// uniqueCodes splits, trims and deduplicates subject codes, then sorts them so equal
// requests share a lock key and audit value.
func uniqueCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range dto.SplitCodes(codes...) {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// normalizeSession trims the label and upper-cases the well known FN and AN sessions.
func normalizeSession(session string) string {
	session = strings.TrimSpace(session)
	for _, known := range []string{models.SessionForenoon, models.SessionAfternoon} {
		if strings.EqualFold(session, known) {
			return known
		}
	}
	return session
}
