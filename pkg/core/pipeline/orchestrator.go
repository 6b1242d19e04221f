package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"camels_monitor/pkg/core/audit"
	"camels_monitor/pkg/core/catalog"
	"camels_monitor/pkg/core/ingest"
	"camels_monitor/pkg/core/normalize"
	"camels_monitor/pkg/core/registry"
	"camels_monitor/pkg/core/score"
	"camels_monitor/pkg/core/store"
)

// ObservationStore persists and serves canonical observations.
type ObservationStore interface {
	Upsert(ctx context.Context, observations []normalize.CanonicalObservation) (store.UpsertSummary, error)
	LogEvent(ctx context.Context, runID, sourceID, bankID, indicatorID, period, status, message string) error
	LatestSnapshots(ctx context.Context) (map[string]map[string]score.IndicatorSnapshot, error)
	Coverage(ctx context.Context) ([]store.CoverageEntry, error)
}

// ScoreStore persists scoring runs.
type ScoreStore interface {
	SaveRun(ctx context.Context, runID string, scores []score.CompositeScore) error
}

// IngestionStore records ingestion attempts.
type IngestionStore interface {
	Record(ctx context.Context, entry store.IngestionLogEntry) error
}

// RegistryStore syncs the seed registries and serves bank profiles.
type RegistryStore interface {
	SyncBanks(ctx context.Context, banks []registry.BankProfile) error
	SyncIndicators(ctx context.Context, defs []registry.IndicatorDefinition) error
	BankProfiles(ctx context.Context) ([]registry.BankProfile, error)
}

// AuditRecorder writes the per-stage audit trail.
type AuditRecorder interface {
	PrepareStage(ctx context.Context, runID, stage string) error
	RecordIngestion(ctx context.Context, runID string, entry store.IngestionLogEntry) error
	RecordScores(ctx context.Context, runID string, scores []score.CompositeScore) error
	RecordExport(ctx context.Context, runID, path, checksum string) error
}

// SourceDownloader fetches a source document to local disk.
type SourceDownloader interface {
	Download(ctx context.Context, source catalog.SourceDefinition, dir string) (ingest.DownloadResult, error)
}

// Exporter writes the run's export artifacts and returns their paths.
type Exporter interface {
	Export(runID string, output score.Output) ([]string, error)
}

// Settings configures one pipeline run.
type Settings struct {
	SourcesPath    string // catalog yaml
	BanksPath      string // seed bank registry csv
	ThresholdsPath string // scoring configuration (yaml or hjson)
	DownloadDir    string
	ExportDir      string
	MinPeriods     int // coverage below this logs a warning
}

// RunContext carries state between pipeline stages.
type RunContext struct {
	RunID     string
	StartedAt time.Time
	Settings  Settings

	Sources      []catalog.SourceDefinition
	Banks        []registry.BankProfile
	Catalog      *registry.IndicatorCatalog
	BankLookup   map[string]string
	Downloads    map[string]ingest.DownloadResult
	Datasets     map[string]ingest.ParsedDataset
	Observations []normalize.CanonicalObservation
	Snapshots    map[string]map[string]score.IndicatorSnapshot
	Output       score.Output
	ExportPaths  []string
}

// Stage is one named step of the pipeline, executed in declaration order.
type Stage struct {
	Name string
	Run  func(ctx context.Context, rc *RunContext) error
}

// Orchestrator runs the monitoring pipeline end to end:
// registry sync -> ingestion -> normalization -> scoring -> export.
type Orchestrator struct {
	settings   Settings
	parsers    ingest.ParserTable
	downloader SourceDownloader
	registryDB RegistryStore
	obsDB      ObservationStore
	scoreDB    ScoreStore
	ingestDB   IngestionStore
	trail      AuditRecorder
	exporter   Exporter
}

// NewOrchestrator wires the orchestrator to the real repositories over the
// shared pool.
func NewOrchestrator(settings Settings) *Orchestrator {
	return &Orchestrator{
		settings:   settings,
		parsers:    ingest.DefaultParsers(),
		downloader: ingest.NewDownloader(),
		registryDB: store.NewRegistryRepo(nil),
		obsDB:      store.NewObservationRepo(nil),
		scoreDB:    store.NewScoreRepo(nil),
		ingestDB:   store.NewIngestionRepo(nil),
		trail:      audit.NewTrail(nil),
		exporter:   &defaultExporter{dir: settings.ExportDir},
	}
}

// SetRegistryStore allows injecting a custom registry store (e.g., for testing).
func (o *Orchestrator) SetRegistryStore(s RegistryStore) { o.registryDB = s }

// SetObservationStore allows injecting a custom observation store.
func (o *Orchestrator) SetObservationStore(s ObservationStore) { o.obsDB = s }

// SetScoreStore allows injecting a custom score store.
func (o *Orchestrator) SetScoreStore(s ScoreStore) { o.scoreDB = s }

// SetIngestionStore allows injecting a custom ingestion store.
func (o *Orchestrator) SetIngestionStore(s IngestionStore) { o.ingestDB = s }

// SetAuditRecorder allows injecting a custom audit recorder.
func (o *Orchestrator) SetAuditRecorder(t AuditRecorder) { o.trail = t }

// SetDownloader allows injecting a custom downloader.
func (o *Orchestrator) SetDownloader(d SourceDownloader) { o.downloader = d }

// SetExporter allows injecting a custom exporter.
func (o *Orchestrator) SetExporter(e Exporter) { o.exporter = e }

// SetParsers allows injecting a custom parser table.
func (o *Orchestrator) SetParsers(p ingest.ParserTable) { o.parsers = p }

// Stages returns the ordered stage list.
func (o *Orchestrator) Stages() []Stage {
	return []Stage{
		{Name: "load-config", Run: o.loadConfig},
		{Name: "sync-registry", Run: o.syncRegistry},
		{Name: "ingest", Run: o.runIngestion},
		{Name: "normalize", Run: o.runNormalization},
		{Name: "score", Run: o.runScoring},
		{Name: "export", Run: o.runExport},
	}
}

// Run executes every stage in order and returns the run context. A stage
// error aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (*RunContext, error) {
	rc := &RunContext{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Settings:  o.settings,
		Downloads: make(map[string]ingest.DownloadResult),
		Datasets:  make(map[string]ingest.ParsedDataset),
	}

	fmt.Printf("Starting monitoring pipeline run %s...\n", rc.RunID)
	for _, stage := range o.Stages() {
		start := time.Now()
		fmt.Printf("--- Stage: %s ---\n", stage.Name)
		if err := stage.Run(ctx, rc); err != nil {
			return rc, fmt.Errorf("stage %s failed: %w", stage.Name, err)
		}
		fmt.Printf("Stage %s completed in %v\n", stage.Name, time.Since(start).Round(time.Millisecond))
	}
	fmt.Printf("Pipeline run %s completed in %v\n", rc.RunID, time.Since(rc.StartedAt).Round(time.Millisecond))
	return rc, nil
}
