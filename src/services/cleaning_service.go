package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulcha3/group4-BDM-case/src/logger"
	"github.com/paulcha3/group4-BDM-case/src/metrics"
	"github.com/paulcha3/group4-BDM-case/src/model"
	"github.com/paulcha3/group4-BDM-case/src/models"
	"github.com/paulcha3/group4-BDM-case/src/parsers"
	"github.com/paulcha3/group4-BDM-case/src/processors"
	"github.com/paulcha3/group4-BDM-case/src/utils"
	"github.com/patrickmn/go-cache"
)

const (
	ckRun        = "run_%s"
	ckRunRecords = "run_records_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	MaxListedRuns = 100
)

type cleaningServiceImpl struct {
	db          *sql.DB
	cleaner     *processors.DatasetCleaner
	reportCache *cache.Cache
	metrics     *metrics.Registry
}

func NewCleaningService(db *sql.DB, cleaner *processors.DatasetCleaner, reportCache *cache.Cache, reg *metrics.Registry) CleaningService {
	if reportCache == nil {
		reportCache = cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	}
	return &cleaningServiceImpl{
		db:          db,
		cleaner:     cleaner,
		reportCache: reportCache,
		metrics:     reg,
	}
}

func (s *cleaningServiceImpl) CleanDataset(ctx context.Context, req CleanRequest) (*CleanResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.L.With("runID", runID, "source", req.SourceName)
	ctx = logger.WithContext(ctx, log)
	log.Info("CleanDataset START", "subject", req.Subject)

	format := req.Format
	if format == "" {
		format = parsers.FormatFromFilename(req.SourceName)
	}
	parser, err := parsers.GetParser(format)
	if err != nil {
		s.metrics.ObserveFailure(metrics.OutcomeParseError)
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}
	dataset, err := parser.Parse(req.Source)
	if err != nil {
		s.metrics.ObserveFailure(metrics.OutcomeParseError)
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}

	cleaned, stats := s.cleaner.Clean(ctx, dataset)

	run := model.CleaningRun{
		ID:          runID,
		Subject:     req.Subject,
		SourceName:  req.SourceName,
		Format:      format,
		InitialRows: stats.InitialRows,
		FinalRows:   stats.FinalRows,
		Columns:     cleaned.Columns,
		Stats:       stats,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.persist(ctx, &run, cleaned.Records); err != nil {
		s.metrics.ObserveFailure(metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}

	s.reportCache.Set(fmt.Sprintf(ckRun, runID), &run, cache.DefaultExpiration)
	s.reportCache.Set(fmt.Sprintf(ckRunRecords, runID), cleaned, cache.DefaultExpiration)
	s.metrics.ObserveRun(stats, time.Since(start))

	log.Info("CleanDataset END", "initialRows", stats.InitialRows, "finalRows", stats.FinalRows, "duration", time.Since(start))
	return &CleanResult{Run: run, Dataset: cleaned}, nil
}

// persist stores the run and its rows in one transaction.
func (s *cleaningServiceImpl) persist(ctx context.Context, run *model.CleaningRun, records []models.Record) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := run.InsertRun(ctx, dbTx); err != nil {
		return err
	}
	if err := model.InsertRecords(ctx, dbTx, run.ID, records); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing cleaning run: %w", err)
	}
	return nil
}

func (s *cleaningServiceImpl) GetRun(ctx context.Context, id string) (*model.CleaningRun, error) {
	key := fmt.Sprintf(ckRun, id)
	if cached, found := s.reportCache.Get(key); found {
		logger.L.Debug("Cache hit for cleaning run", "runID", id)
		return cached.(*model.CleaningRun), nil
	}
	run, err := model.GetRunByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(key, run, cache.DefaultExpiration)
	return run, nil
}

func (s *cleaningServiceImpl) ListRuns(ctx context.Context, limit int) ([]model.CleaningRun, error) {
	if limit <= 0 {
		limit = MaxListedRuns
	}
	return model.ListRuns(ctx, s.db, utils.ClampInt(limit, 1, MaxListedRuns))
}

func (s *cleaningServiceImpl) GetRunDataset(ctx context.Context, id string) (models.Dataset, error) {
	key := fmt.Sprintf(ckRunRecords, id)
	if cached, found := s.reportCache.Get(key); found {
		logger.L.Debug("Cache hit for cleaned records", "runID", id)
		return cached.(models.Dataset), nil
	}
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return models.Dataset{}, err
	}
	records, err := model.GetRunRecords(ctx, s.db, id)
	if err != nil {
		return models.Dataset{}, err
	}
	ds := models.Dataset{Columns: run.Columns, Records: records}
	s.reportCache.Set(key, ds, cache.DefaultExpiration)
	return ds, nil
}
