package experiments

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"awreplay/engine"
	"awreplay/experiments/metrics"
	"awreplay/game"
	"awreplay/replay"

	"github.com/rs/zerolog/log"
)

// Benchmark replays a set of archives and stores per-replay and per-action
// timings as CSV.
type Benchmark struct {
	Files   []string
	Rounds  int
	OutDir  string
	Options []replay.Option
}

// Run plays every file Rounds times and returns the directory holding the
// records. Files that fail to decode are recorded with the reason and do not
// stop the run.
func (b Benchmark) Run() (string, error) {
	rounds := max(b.Rounds, 1)
	replayRecords := []metrics.ReplayRecord{}
	actionRecords := []metrics.ActionRecord{}

	log.Info().Msgf("starting replay benchmark over %d files, %d rounds each...", len(b.Files), rounds)

	count := 0
	for fi, file := range b.Files {
		m, err := loadFile(file, b.Options)
		if err != nil {
			count++
			log.Warn().Msgf("skipping %s: %v", file, err)
			replayRecords = append(replayRecords, metrics.ReplayRecord{
				ID:           count,
				File:         file,
				ReplayMetric: metrics.ReplayMetric{Halted: true, Reason: err.Error()},
			})
			continue
		}

		for round := 0; round < rounds; round++ {
			log.Info().Msgf("starting file %d of %d round %d of %d...", fi+1, len(b.Files), round+1, rounds)

			metric, actions, err := playMatch(m)
			if err != nil {
				return "", err
			}
			count++
			replayRecords = append(replayRecords, metrics.ReplayRecord{
				ID:           count,
				File:         file,
				Name:         m.Info.Name,
				ReplayMetric: metric,
			})
			for _, am := range actions {
				actionRecords = append(actionRecords, metrics.ActionRecord{
					Replay:       count,
					ActionMetric: am,
				})
			}

			log.Info().Msgf("completed file %d round %d: %d of %d actions in %s", fi+1, round+1, metric.Applied, len(m.Actions), metric.Duration)
		}
	}

	log.Info().Msg("completed replay benchmark")

	writer, err := metrics.NewWriter(b.OutDir)
	if err != nil {
		return "", fmt.Errorf("failed to create benchmark writer: %w", err)
	}
	if err := writer.WriteReplayRecords(replayRecords); err != nil {
		return "", fmt.Errorf("failed to write replay records: %w", err)
	}
	log.Info().Msg("stored replay records")

	if err := writer.WriteActionRecords(actionRecords); err != nil {
		return "", fmt.Errorf("failed to write action records: %w", err)
	}
	log.Info().Msg("stored action records")
	return writer.Dir(), nil
}

func loadFile(path string, opts []replay.Option) (*replay.Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return replay.Load(data, opts...)
}

// playMatch runs a match from the start. A rule violation ends the run and is
// part of the metric, not an error.
func playMatch(m *replay.Match) (metrics.ReplayMetric, []metrics.ActionMetric, error) {
	collector := metrics.NewCollector()
	d, err := engine.NewDriver(m, engine.WithCollector(collector))
	if err != nil {
		return metrics.ReplayMetric{}, nil, err
	}
	_, err = d.Run()
	var v *game.RuleViolation
	if err != nil && !errors.As(err, &v) {
		return metrics.ReplayMetric{}, nil, err
	}
	return collector.Complete(), collector.Actions(), nil
}

// Glob expands patterns into a de-duplicated file list, in pattern order.
func Glob(patterns ...string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		for _, f := range matches {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}
