package pipeline

import (
	"context"
	"fmt"
	"time"

	"camels_monitor/pkg/core/audit"
	"camels_monitor/pkg/core/catalog"
	"camels_monitor/pkg/core/export"
	"camels_monitor/pkg/core/ingest"
	"camels_monitor/pkg/core/normalize"
	"camels_monitor/pkg/core/registry"
	"camels_monitor/pkg/core/score"
	"camels_monitor/pkg/core/store"
)

// loadConfig reads the source catalog and the seed bank registry and builds
// the in-memory indicator catalog.
func (o *Orchestrator) loadConfig(ctx context.Context, rc *RunContext) error {
	sources, err := catalog.Load(rc.Settings.SourcesPath)
	if err != nil {
		return err
	}
	banks, err := registry.LoadSeedBanks(rc.Settings.BanksPath)
	if err != nil {
		return err
	}
	rc.Sources = sources
	rc.Banks = banks
	rc.Catalog = registry.NewIndicatorCatalog(registry.DefaultIndicators())
	rc.BankLookup = registry.BankLookup(banks)
	fmt.Printf("Loaded %d sources, %d banks, %d indicators\n",
		len(sources), len(banks), rc.Catalog.Len())
	return nil
}

// syncRegistry pushes the seed registries into the database.
func (o *Orchestrator) syncRegistry(ctx context.Context, rc *RunContext) error {
	if err := o.registryDB.SyncBanks(ctx, rc.Banks); err != nil {
		return err
	}
	return o.registryDB.SyncIndicators(ctx, rc.Catalog.Definitions())
}

// runIngestion downloads and parses every catalog source. Per-source
// failures are recorded and skipped; the stage only fails when nothing at
// all could be ingested.
func (o *Orchestrator) runIngestion(ctx context.Context, rc *RunContext) error {
	if err := o.trail.PrepareStage(ctx, rc.RunID, audit.StageIngestion); err != nil {
		return err
	}
	for _, source := range rc.Sources {
		entry := store.IngestionLogEntry{
			RunID:     rc.RunID,
			SourceID:  source.ID,
			Bank:      source.Bank,
			Country:   source.Country,
			Regulator: source.Regulator,
			URL:       source.URL,
			Format:    source.Format,
			Frequency: source.Frequency,
			StartedAt: time.Now().UTC(),
		}

		result, err := o.downloader.Download(ctx, source, rc.Settings.DownloadDir)
		if err == nil {
			entry.LocalPath = result.Path
			entry.Checksum = result.SHA256
			var dataset ingest.ParsedDataset
			dataset, err = o.parsers.ParseFile(result.Path, source)
			if err == nil {
				rc.Downloads[source.ID] = result
				rc.Datasets[source.ID] = dataset
				entry.RecordCount = dataset.RowCount()
				entry.Status = "success"
				entry.Metadata = dataset.Metadata
			}
		}
		if err != nil {
			fmt.Printf("Warning: ingestion failed for %s: %v. Skipping.\n", source.ID, err)
			entry.Status = "failure"
			entry.Error = err.Error()
		}
		entry.CompletedAt = time.Now().UTC()

		if err := o.ingestDB.Record(ctx, entry); err != nil {
			return err
		}
		if err := o.trail.RecordIngestion(ctx, rc.RunID, entry); err != nil {
			return err
		}
	}
	if len(rc.Datasets) == 0 && len(rc.Sources) > 0 {
		return fmt.Errorf("no sources ingested successfully")
	}
	fmt.Printf("Ingested %d of %d sources\n", len(rc.Datasets), len(rc.Sources))
	return nil
}

// runNormalization transforms every parsed dataset into canonical
// observations and upserts them.
func (o *Orchestrator) runNormalization(ctx context.Context, rc *RunContext) error {
	transformer := normalize.NewTransformer(rc.Catalog, rc.BankLookup)
	for _, source := range rc.Sources {
		dataset, ok := rc.Datasets[source.ID]
		if !ok {
			continue
		}
		prov := normalize.Provenance{
			RunID:    rc.RunID,
			Checksum: rc.Downloads[source.ID].SHA256,
		}
		observations := transformer.Transform(dataset, source, prov, rc.RunID)
		rc.Observations = append(rc.Observations, observations...)
	}

	summary, err := o.obsDB.Upsert(ctx, rc.Observations)
	if err != nil {
		return err
	}
	for _, obs := range rc.Observations {
		if err := o.obsDB.LogEvent(ctx, rc.RunID, obs.SourceID, obs.BankID,
			obs.IndicatorID, obs.Period, "stored", ""); err != nil {
			return err
		}
	}
	fmt.Printf("Normalized %d observations (%d inserted, %d updated)\n",
		len(rc.Observations), summary.Inserted, summary.Updated)

	if rc.Settings.MinPeriods > 0 {
		coverage, err := o.obsDB.Coverage(ctx)
		if err != nil {
			return err
		}
		for _, entry := range coverage {
			if entry.Periods < rc.Settings.MinPeriods {
				fmt.Printf("Warning: %s/%s has only %d period(s) of history (minimum %d)\n",
					entry.BankID, entry.IndicatorID, entry.Periods, rc.Settings.MinPeriods)
			}
		}
	}
	return nil
}

// runScoring rates every registered bank against the latest snapshots.
func (o *Orchestrator) runScoring(ctx context.Context, rc *RunContext) error {
	cfg, err := score.LoadConfig(rc.Settings.ThresholdsPath)
	if err != nil {
		return err
	}
	engine := score.NewEngine(cfg)

	banks, err := o.registryDB.BankProfiles(ctx)
	if err != nil {
		return err
	}
	if len(banks) == 0 {
		banks = rc.Banks
	}
	snapshots, err := o.obsDB.LatestSnapshots(ctx)
	if err != nil {
		return err
	}
	rc.Snapshots = snapshots
	rc.Output = engine.ScoreAll(banks, snapshots)

	if err := o.scoreDB.SaveRun(ctx, rc.RunID, rc.Output.Scores); err != nil {
		return err
	}
	if err := o.trail.PrepareStage(ctx, rc.RunID, audit.StageScoring); err != nil {
		return err
	}
	if err := o.trail.RecordScores(ctx, rc.RunID, rc.Output.Scores); err != nil {
		return err
	}
	fmt.Printf("Scored %d banks (%d with data, latest period %s)\n",
		len(rc.Output.Scores), rc.Output.BanksWithValues, rc.Output.LatestPeriod)
	return nil
}

// runExport writes the export artifacts and audits them.
func (o *Orchestrator) runExport(ctx context.Context, rc *RunContext) error {
	paths, err := o.exporter.Export(rc.RunID, rc.Output)
	if err != nil {
		return err
	}
	rc.ExportPaths = paths

	if err := o.trail.PrepareStage(ctx, rc.RunID, audit.StageExport); err != nil {
		return err
	}
	for _, path := range paths {
		checksum, err := export.FileChecksum(path)
		if err != nil {
			return err
		}
		if err := o.trail.RecordExport(ctx, rc.RunID, path, checksum); err != nil {
			return err
		}
	}
	fmt.Printf("Exported %d artifacts to %s\n", len(paths), rc.Settings.ExportDir)
	return nil
}

// defaultExporter writes the CSV, XLSX and report artifacts into one
// directory.
type defaultExporter struct {
	dir string
}

func (e *defaultExporter) Export(runID string, output score.Output) ([]string, error) {
	portfolio, indicators := export.Flatten(output.Scores)
	paths, err := export.WriteCSV(e.dir, portfolio, indicators)
	if err != nil {
		return nil, err
	}
	workbook, err := export.WriteXLSX(e.dir, portfolio, indicators)
	if err != nil {
		return nil, err
	}
	paths = append(paths, workbook)
	reports, err := export.WriteReport(e.dir, runID, output)
	if err != nil {
		return nil, err
	}
	return append(paths, reports...), nil
}
