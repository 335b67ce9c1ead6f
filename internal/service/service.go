package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/stress-service/internal/config"
	"github.com/Dan9191/stress-service/internal/metrics"
	"github.com/Dan9191/stress-service/internal/models"
	"github.com/Dan9191/stress-service/internal/stress"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Interest rate sources recorded with each run
const (
	RateSourceDataset = "dataset"
	RateSourceKeyRate = "key_rate"
	RateSourceDefault = "default"
)

const sampleDatasetName = "Sample company (demo)"

// Store is the persistence the service depends on
type Store interface {
	CreateDataset(ctx context.Context, ds *models.Dataset) error
	GetDataset(ctx context.Context, id, userID string) (*models.Dataset, error)
	ListDatasets(ctx context.Context, userID string) ([]models.Dataset, error)
	ListAllDatasets(ctx context.Context) ([]models.Dataset, error)
	CreateStressRun(ctx context.Context, run *models.StressRun) error
	GetStressRun(ctx context.Context, id, userID string) (*models.StressRun, error)
	ListStressRuns(ctx context.Context, userID string) ([]models.StressRun, error)
	CreateDisclosureAnalysis(ctx context.Context, a *models.DisclosureAnalysis) error
	GetDisclosureAnalysis(ctx context.Context, id, userID string) (*models.DisclosureAnalysis, error)
	ListDisclosureAnalyses(ctx context.Context, userID string) ([]models.DisclosureAnalysis, error)
	Counts(ctx context.Context, userID string) (*models.Counts, error)
}

// RateProvider returns the current market key rate in percent
type RateProvider interface {
	GetKeyRate(ctx context.Context) (float64, error)
}

// Alerter delivers fragility alerts
type Alerter interface {
	SendFragilityAlert(ctx context.Context, alert models.FragilityAlert) error
}

// Renderer turns a report payload into a document
type Renderer interface {
	Render(ctx context.Context, payload *models.ReportPayload) ([]byte, error)
}

// Service handles business logic
type Service struct {
	store    Store
	engine   *stress.Engine
	rates    RateProvider
	alerter  Alerter
	renderer Renderer
	log      *logrus.Logger
	config   *config.Config
	now      func() time.Time
}

// NewService initializes a new service. rates, alerter and renderer are
// optional and may be nil.
func NewService(store Store, engine *stress.Engine, rates RateProvider, alerter Alerter, renderer Renderer, log *logrus.Logger, cfg *config.Config) *Service {
	if engine == nil {
		engine = stress.NewEngine(nil)
	}
	return &Service{
		store:    store,
		engine:   engine,
		rates:    rates,
		alerter:  alerter,
		renderer: renderer,
		log:      log,
		config:   cfg,
		now:      time.Now,
	}
}

// DatasetInput is a request to store a financial snapshot
type DatasetInput struct {
	Name           *string                `json:"name"`
	UploadID       *string                `json:"upload_id"`
	Revenue        *float64               `json:"revenue"`
	EBITDA         *float64               `json:"ebitda"`
	Debt           *float64               `json:"debt"`
	Cash           *float64               `json:"cash"`
	Equity         *float64               `json:"equity"`
	WorkingCapital *float64               `json:"working_capital"`
	InterestRate   *float64               `json:"interest_rate"`
	MonthlyBurn    *float64               `json:"monthly_burn"`
	RawMetadata    map[string]interface{} `json:"raw_metadata"`
}

func (in DatasetInput) inputs() stress.FinancialInputs {
	return stress.FinancialInputs{
		Revenue:        in.Revenue,
		EBITDA:         in.EBITDA,
		Debt:           in.Debt,
		Cash:           in.Cash,
		Equity:         in.Equity,
		WorkingCapital: in.WorkingCapital,
		InterestRate:   in.InterestRate,
		MonthlyBurn:    in.MonthlyBurn,
	}
}

// StressRequest asks for a scenario to be run against a stored dataset
type StressRequest struct {
	DatasetID  string                    `json:"dataset_id"`
	ScenarioID string                    `json:"scenario_id"`
	Overrides  *stress.ScenarioOverrides `json:"overrides"`
}

// PreviewRequest asks for a scenario to be run against inline inputs
type PreviewRequest struct {
	Inputs     stress.FinancialInputs    `json:"inputs"`
	ScenarioID string                    `json:"scenario_id"`
	Overrides  *stress.ScenarioOverrides `json:"overrides"`
}

// Scenarios returns the scenario catalog
func (s *Service) Scenarios() []stress.Scenario {
	return stress.Catalog()
}

// CreateDataset validates and stores a dataset for the user
func (s *Service) CreateDataset(ctx context.Context, userID string, in DatasetInput) (*models.Dataset, error) {
	if !in.inputs().HasAnyMetric() {
		s.log.WithField("user", userID).Warn("Rejected dataset without metrics")
		return nil, NewValidationError("supply at least one metric (revenue, ebitda, debt, cash or equity)")
	}
	if err := validateInterestRate(in.InterestRate); err != nil {
		return nil, err
	}

	ds := &models.Dataset{
		UserID:         userID,
		UploadID:       in.UploadID,
		Name:           in.Name,
		Revenue:        in.Revenue,
		EBITDA:         in.EBITDA,
		Debt:           in.Debt,
		Cash:           in.Cash,
		Equity:         in.Equity,
		WorkingCapital: in.WorkingCapital,
		InterestRate:   in.InterestRate,
		MonthlyBurn:    in.MonthlyBurn,
		RawMetadata:    in.RawMetadata,
	}
	if err := s.store.CreateDataset(ctx, ds); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user": userID, "dataset": ds.ID}).Info("Dataset created")
	return ds, nil
}

// CreateSampleDataset stores the demo company for the user
func (s *Service) CreateSampleDataset(ctx context.Context, userID string) (*models.Dataset, error) {
	name := sampleDatasetName
	return s.CreateDataset(ctx, userID, DatasetInput{
		Name:           &name,
		Revenue:        stress.Float(100_000_000),
		EBITDA:         stress.Float(18_000_000),
		Debt:           stress.Float(45_000_000),
		Cash:           stress.Float(12_000_000),
		Equity:         stress.Float(55_000_000),
		WorkingCapital: stress.Float(8_000_000),
		RawMetadata:    map[string]interface{}{"source": "sample"},
	})
}

// ListDatasets returns the datasets of the user
func (s *Service) ListDatasets(ctx context.Context, userID string) ([]models.Dataset, error) {
	return s.store.ListDatasets(ctx, userID)
}

// GetDataset returns a dataset owned by the user
func (s *Service) GetDataset(ctx context.Context, userID, id string) (*models.Dataset, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.store.GetDataset(ctx, id, userID)
}

// RunStress runs a scenario against a stored dataset and persists the result
func (s *Service) RunStress(ctx context.Context, userID string, req StressRequest) (*models.StressRun, error) {
	if req.DatasetID == "" {
		return nil, NewValidationError("dataset_id is required")
	}
	id, err := s.parseScenario(req.ScenarioID)
	if err != nil {
		return nil, err
	}
	datasetID, ok := canonicalID(req.DatasetID)
	if !ok {
		return nil, NewValidationErrorf("invalid dataset_id %q", req.DatasetID)
	}

	ds, err := s.store.GetDataset(ctx, datasetID, userID)
	if err != nil {
		return nil, err
	}
	return s.runDataset(ctx, ds, id, req.Overrides)
}

// PreviewStress runs a scenario against inline inputs without storing anything
func (s *Service) PreviewStress(ctx context.Context, req PreviewRequest) (*stress.StressResult, error) {
	id, err := s.parseScenario(req.ScenarioID)
	if err != nil {
		return nil, err
	}
	if !req.Inputs.HasAnyMetric() {
		return nil, NewValidationError("supply at least one metric (revenue, ebitda, debt, cash or equity)")
	}
	if err := validateInterestRate(req.Inputs.InterestRate); err != nil {
		return nil, err
	}

	inputs, _ := s.resolveRate(ctx, req.Inputs)
	return s.compute(ctx, inputs, id, req.Overrides)
}

// ListStressRuns returns the stress runs of the user
func (s *Service) ListStressRuns(ctx context.Context, userID string) ([]models.StressRun, error) {
	return s.store.ListStressRuns(ctx, userID)
}

// GetStressRun returns a stress run owned by the user
func (s *Service) GetStressRun(ctx context.Context, userID, id string) (*models.StressRun, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.store.GetStressRun(ctx, id, userID)
}

// RecordDisclosureAnalysis stores the structured output of a filing analysis
func (s *Service) RecordDisclosureAnalysis(ctx context.Context, userID string, uploadID, fileName *string, results models.DisclosureResults) (*models.DisclosureAnalysis, error) {
	results.Normalize()
	a := &models.DisclosureAnalysis{
		UserID:              userID,
		UploadID:            uploadID,
		FileName:            fileName,
		DisclosureRiskScore: stress.Float(results.DisclosureRiskScore),
		SentimentScore:      stress.Float(results.SentimentScore),
		Results:             results,
	}
	if err := s.store.CreateDisclosureAnalysis(ctx, a); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user": userID, "analysis": a.ID, "disclosure_risk_score": results.DisclosureRiskScore}).
		Info("Disclosure analysis recorded")
	return a, nil
}

// ListDisclosureAnalyses returns the disclosure analyses of the user
func (s *Service) ListDisclosureAnalyses(ctx context.Context, userID string) ([]models.DisclosureAnalysis, error) {
	return s.store.ListDisclosureAnalyses(ctx, userID)
}

// Counts returns the record counts of the user
func (s *Service) Counts(ctx context.Context, userID string) (*models.Counts, error) {
	return s.store.Counts(ctx, userID)
}

// RescoreAll runs the configured scenarios against every stored dataset.
// Failures are logged and the remaining datasets are still processed.
func (s *Service) RescoreAll(ctx context.Context) (int, error) {
	datasets, err := s.store.ListAllDatasets(ctx)
	if err != nil {
		return 0, err
	}

	ids := make([]stress.ScenarioID, 0, len(s.config.RescoreScenarios))
	for _, raw := range s.config.RescoreScenarios {
		id, err := stress.ParseScenarioID(raw)
		if err != nil {
			s.log.Warnf("Skipping rescore scenario: %v", err)
			continue
		}
		ids = append(ids, id)
	}

	var (
		runs int
		errs []error
	)
	for i := range datasets {
		ds := &datasets[i]
		if !ds.Inputs().HasAnyMetric() {
			continue
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return runs, err
			}
			if _, err := s.runDataset(ctx, ds, id, nil); err != nil {
				s.log.WithFields(logrus.Fields{"dataset": ds.ID, "scenario": id}).Errorf("Rescore failed: %v", err)
				errs = append(errs, fmt.Errorf("dataset %s scenario %s: %w", ds.ID, id, err))
				continue
			}
			runs++
		}
	}
	return runs, errors.Join(errs...)
}

// canonicalID returns the canonical form of a record id. Records are keyed by
// UUID, so anything else cannot match a row.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func validateInterestRate(rate *float64) error {
	if rate != nil && (*rate < 0 || *rate > 1) {
		return NewValidationErrorf("interest_rate must be a decimal fraction between 0 and 1, got %g", *rate)
	}
	return nil
}

func (s *Service) parseScenario(raw string) (stress.ScenarioID, error) {
	id, err := stress.ParseScenarioID(raw)
	if err != nil {
		s.log.Warnf("Rejected stress request: %v", err)
		return "", NewValidationErrorf("invalid scenario_id %q", raw)
	}
	return id, nil
}

func (s *Service) runDataset(ctx context.Context, ds *models.Dataset, id stress.ScenarioID, overrides *stress.ScenarioOverrides) (*models.StressRun, error) {
	inputs, source := s.resolveRate(ctx, ds.Inputs())
	result, err := s.compute(ctx, inputs, id, overrides)
	if err != nil {
		return nil, err
	}

	score := result.FragilityScore
	datasetID := ds.ID
	run := &models.StressRun{
		UserID:    ds.UserID,
		DatasetID: &datasetID,
		ScenarioParams: models.ScenarioParams{
			ScenarioID: id,
			Overrides:  overrides.Resolve(),
			Source:     source,
		},
		ScenarioName:   result.ScenarioName,
		Results:        result,
		FragilityScore: &score,
	}
	if err := s.store.CreateStressRun(ctx, run); err != nil {
		s.log.WithFields(logrus.Fields{"user": ds.UserID, "dataset": ds.ID}).Errorf("Failed to store stress run: %v", err)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user":            ds.UserID,
		"dataset":         ds.ID,
		"scenario":        id,
		"fragility_score": score,
		"rate_source":     source,
	}).Info("Stress run completed")

	s.maybeAlert(ctx, ds, run)
	return run, nil
}

// compute runs the engine, giving up when the context or the configured
// timeout expires first.
func (s *Service) compute(ctx context.Context, in stress.FinancialInputs, id stress.ScenarioID, overrides *stress.ScenarioOverrides) (*stress.StressResult, error) {
	if s.config.StressTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.StressTimeout)
		defer cancel()
	}

	type outcome struct {
		result *stress.StressResult
		err    error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		result, err := s.engine.Run(in, id, overrides)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		metrics.ObserveRunFailure(string(id), "timeout")
		return nil, fmt.Errorf("stress run %s: %w", id, ctx.Err())
	case out := <-done:
		if out.err != nil {
			metrics.ObserveRunFailure(string(id), "error")
			return nil, out.err
		}
		metrics.ObserveRun(string(id), out.result.FragilityScore, time.Since(start))
		return out.result, nil
	}
}

// resolveRate fills a missing interest rate from the key rate provider when
// enabled. The returned source names where the applied rate came from.
func (s *Service) resolveRate(ctx context.Context, in stress.FinancialInputs) (stress.FinancialInputs, string) {
	if in.InterestRate != nil {
		return in, RateSourceDataset
	}
	if !s.config.UseKeyRate || s.rates == nil {
		return in, RateSourceDefault
	}

	rate, err := s.rates.GetKeyRate(ctx)
	metrics.ObserveKeyRate(err)
	if err != nil {
		s.log.Warnf("Key rate unavailable, using default rate: %v", err)
		return in, RateSourceDefault
	}
	in.InterestRate = stress.Float(rate / 100)
	return in, RateSourceKeyRate
}

func (s *Service) maybeAlert(ctx context.Context, ds *models.Dataset, run *models.StressRun) {
	if s.alerter == nil || run.FragilityScore == nil || *run.FragilityScore < s.config.AlertThreshold {
		return
	}

	alert := models.FragilityAlert{
		RunID:          run.ID,
		CompanyName:    ds.DisplayName(),
		ScenarioName:   run.ScenarioName,
		FragilityScore: *run.FragilityScore,
		Threshold:      s.config.AlertThreshold,
		StressedDSCR:   run.Results.Stressed.DSCR,
		StressedRunway: run.Results.Stressed.LiquidityRunwayMonths,
		CreatedAt:      run.CreatedAt,
	}
	err := s.alerter.SendFragilityAlert(ctx, alert)
	metrics.ObserveAlert(err)
	if err != nil {
		s.log.WithField("run", run.ID).Errorf("Failed to send fragility alert: %v", err)
	}
}
