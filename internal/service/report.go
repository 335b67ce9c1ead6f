package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/Dan9191/stress-service/internal/models"
	"github.com/shopspring/decimal"
)

// Report thresholds
const (
	fragilityRiskThreshold    = 50
	fragilityDeRiskThreshold  = 60
	stressedDSCRRiskThreshold = 1.5
	disclosureRiskThreshold   = 60
)

var standingRecommendations = []string{
	"Monitor liquidity runway and maintain contingency funding plans.",
	"Review debt maturities and refinancing options under rate stress.",
	"Track disclosure and regulatory developments; update risk factor disclosures as needed.",
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ReportRequest selects the records of the executive brief. Missing ids fall
// back to the most recent records of the user.
type ReportRequest struct {
	StressRunID          string `json:"stress_run_id"`
	DisclosureAnalysisID string `json:"disclosure_analysis_id"`
}

// BuildReport assembles the executive risk brief payload for the user
func (s *Service) BuildReport(ctx context.Context, userID string, req ReportRequest) (*models.ReportPayload, error) {
	run, err := s.reportStressRun(ctx, userID, req.StressRunID)
	if err != nil {
		return nil, err
	}
	ds, err := s.reportDataset(ctx, userID, run)
	if err != nil {
		return nil, err
	}
	analysis, err := s.reportDisclosure(ctx, userID, req.DisclosureAnalysisID)
	if err != nil {
		return nil, err
	}

	payload := buildPayload(ds, run, analysis)
	payload.GeneratedAt = s.now().UTC()
	return payload, nil
}

// RenderReport builds the brief and renders it to a PDF. It returns the
// document and its download file name.
func (s *Service) RenderReport(ctx context.Context, userID string, req ReportRequest) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", errors.New("report renderer is not configured")
	}
	payload, err := s.BuildReport(ctx, userID, req)
	if err != nil {
		return nil, "", err
	}
	doc, err := s.renderer.Render(ctx, payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render report: %w", err)
	}
	return doc, ReportFilename(payload), nil
}

// CanRender reports whether a document renderer is configured
func (s *Service) CanRender() bool {
	return s.renderer != nil
}

func (s *Service) reportStressRun(ctx context.Context, userID, id string) (*models.StressRun, error) {
	if id != "" {
		return s.GetStressRun(ctx, userID, id)
	}
	runs, err := s.store.ListStressRuns(ctx, userID)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func (s *Service) reportDataset(ctx context.Context, userID string, run *models.StressRun) (*models.Dataset, error) {
	if run != nil && run.DatasetID != nil {
		ds, err := s.store.GetDataset(ctx, *run.DatasetID, userID)
		if err == nil {
			return ds, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	datasets, err := s.store.ListDatasets(ctx, userID)
	if err != nil || len(datasets) == 0 {
		return nil, err
	}
	return &datasets[0], nil
}

func (s *Service) reportDisclosure(ctx context.Context, userID, id string) (*models.DisclosureAnalysis, error) {
	if id != "" {
		id, ok := canonicalID(id)
		if !ok {
			return nil, ErrNotFound
		}
		return s.store.GetDisclosureAnalysis(ctx, id, userID)
	}
	analyses, err := s.store.ListDisclosureAnalyses(ctx, userID)
	if err != nil || len(analyses) == 0 {
		return nil, err
	}
	return &analyses[0], nil
}

func buildPayload(ds *models.Dataset, run *models.StressRun, analysis *models.DisclosureAnalysis) *models.ReportPayload {
	payload := &models.ReportPayload{CompanyName: "Company"}
	if ds != nil {
		payload.CompanyName = ds.DisplayName()
		payload.KeyMetrics = models.KeyMetrics{
			Revenue: ds.Revenue,
			EBITDA:  ds.EBITDA,
			Debt:    ds.Debt,
			Cash:    ds.Cash,
			Equity:  ds.Equity,
		}
	}
	payload.FormattedMetrics = map[string]string{
		"revenue": FormatCurrency(payload.KeyMetrics.Revenue),
		"ebitda":  FormatCurrency(payload.KeyMetrics.EBITDA),
		"debt":    FormatCurrency(payload.KeyMetrics.Debt),
		"cash":    FormatCurrency(payload.KeyMetrics.Cash),
		"equity":  FormatCurrency(payload.KeyMetrics.Equity),
	}

	var risks []string
	if run != nil {
		if run.FragilityScore != nil && *run.FragilityScore >= fragilityRiskThreshold {
			risks = append(risks, fmt.Sprintf("Stress scenario \"%s\" yields fragility score %d/100.", run.ScenarioName, *run.FragilityScore))
		}
		if run.Results != nil {
			if dscr := run.Results.Stressed.DSCR; dscr != nil && *dscr < stressedDSCRRiskThreshold {
				risks = append(risks, fmt.Sprintf("Debt service coverage (DSCR) under stress is %.2fx; refinancing and covenant risk elevated.", *dscr))
			}
		}
		payload.StressSummary = stressSummary(run)
	}
	if analysis != nil {
		score := 0.0
		if analysis.DisclosureRiskScore != nil {
			score = *analysis.DisclosureRiskScore
		}
		if score >= disclosureRiskThreshold {
			risks = append(risks, fmt.Sprintf("10-K disclosure risk score is %s/100; regulatory and litigation language warrants review.",
				strconv.FormatFloat(score, 'f', -1, 64)))
		}
		payload.DisclosureSummary = &models.DisclosureSummary{
			FileName:            analysis.FileName,
			DisclosureRiskScore: analysis.DisclosureRiskScore,
			ExecutiveSummary:    analysis.Results.ExecutiveSummary,
		}
	}
	if len(risks) == 0 {
		risks = append(risks, "Run stress tests and 10-K analysis to quantify key risks.")
	}
	payload.KeyRisks = risks

	var recs []string
	if analysis != nil && analysis.DisclosureRiskScore != nil && *analysis.DisclosureRiskScore >= disclosureRiskThreshold {
		recs = append(recs, "Strengthen risk factor and legal/regulatory disclosures; consider legal review of sensitive language.")
	}
	if run != nil && run.FragilityScore != nil && *run.FragilityScore >= fragilityDeRiskThreshold {
		recs = append(recs, "Consider de-risking balance sheet (e.g. term out debt, increase cash) given stress test results.")
	}
	payload.Recommendations = append(recs, standingRecommendations...)

	return payload
}

func stressSummary(run *models.StressRun) *models.StressSummary {
	summary := &models.StressSummary{
		ScenarioName:   run.ScenarioName,
		FragilityScore: run.FragilityScore,
	}
	if run.Results != nil {
		summary.BaselineDSCR = run.Results.Baseline.DSCR
		summary.StressedDSCR = run.Results.Stressed.DSCR
		summary.BaselineRunwayMonths = run.Results.Baseline.LiquidityRunwayMonths
		summary.StressedRunwayMonths = run.Results.Stressed.LiquidityRunwayMonths
	}
	return summary
}

// FormatCurrency renders an amount as $1.23B, $4.56M, $7.8K or $12.
// Unknown amounts render as an em dash.
func FormatCurrency(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return "—"
	}
	d := decimal.NewFromFloat(*v)
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.New(1, 9)):
		return "$" + d.Shift(-9).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(decimal.New(1, 6)):
		return "$" + d.Shift(-6).StringFixed(2) + "M"
	case abs.GreaterThanOrEqual(decimal.New(1, 3)):
		return "$" + d.Shift(-3).StringFixed(1) + "K"
	default:
		return "$" + d.StringFixed(0)
	}
}

// ReportFilename returns the download name of the rendered brief
func ReportFilename(p *models.ReportPayload) string {
	return fmt.Sprintf("Executive-Risk-Brief-%s-%s.pdf",
		nonAlphanumeric.ReplaceAllString(p.CompanyName, "-"), p.GeneratedAt.Format("2006-01-02"))
}
