package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type ReplayRecord struct {
	ID   int
	File string
	Name string
	ReplayMetric
}

type ActionRecord struct {
	Replay int // ReplayRecord.ID
	ActionMetric
}

type Writer struct {
	baseDir string
}

// NewWriter creates a timestamped folder under dir for one batch of records.
func NewWriter(dir string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(dir, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteReplayRecords(records []ReplayRecord) error {
	path := filepath.Join(w.baseDir, "replay_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create replay records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"id", "file", "match", "name", "applied", "events", "halted", "reason", "start_time", "end_time", "duration"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write replay records header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.ID),
			record.File,
			strconv.Itoa(record.MatchID),
			record.Name,
			strconv.Itoa(record.Applied),
			strconv.Itoa(record.Events),
			strconv.FormatBool(record.Halted),
			record.Reason,
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write replay record row: %w", err)
		}
	}

	return nil
}

func (w *Writer) WriteActionRecords(records []ActionRecord) error {
	path := filepath.Join(w.baseDir, "action_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create action records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"replay", "index", "kind", "player", "day", "events", "duration"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write action records header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Replay),
			strconv.Itoa(record.Index),
			record.Kind.String(),
			strconv.Itoa(int(record.Player)),
			strconv.Itoa(record.Day),
			strconv.Itoa(record.Events),
			record.Duration.String(),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write action record row: %w", err)
		}
	}

	return nil
}
