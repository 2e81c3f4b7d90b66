package experiments

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"awreplay/replaytest"

	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestBenchmark(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return path
	}
	clean := write("clean.zip", replaytest.Skirmish())
	halted := write("halted.zip", replaytest.SkirmishWith(replaytest.Tampered(1, `"units_hit_points":6`, `"units_hit_points":2`)))
	broken := write("broken.zip", []byte("not an archive"))

	files, err := Glob(filepath.Join(dir, "*.zip"), clean)
	require.NoError(t, err)
	require.Equal(t, []string{broken, clean, halted}, files, "Globs are expanded once per file")

	out, err := Benchmark{Files: files, Rounds: 2, OutDir: filepath.Join(dir, "out")}.Run()
	require.NoError(t, err)

	replays := readCSV(t, filepath.Join(out, "replay_records.csv"))
	require.Equal(t, []string{"id", "file", "match", "name", "applied", "events", "halted", "reason", "start_time", "end_time", "duration"}, replays[0])
	require.Len(t, replays, 1+1+2+2, "One row for the broken file and two rounds for each of the others")

	broke := replays[1]
	require.Equal(t, broken, broke[1])
	require.Equal(t, "true", broke[6])
	require.NotEmpty(t, broke[7], "The decode failure is recorded")

	for _, row := range replays[2:4] {
		require.Equal(t, clean, row[1])
		require.Equal(t, "1001", row[2])
		require.Equal(t, "Skirmish", row[3])
		require.Equal(t, "8", row[4])
		require.Equal(t, "false", row[6])
	}
	for _, row := range replays[4:6] {
		require.Equal(t, halted, row[1])
		require.Equal(t, "3", row[4], "Play stops at the violation")
		require.Equal(t, "true", row[6])
	}

	actions := readCSV(t, filepath.Join(out, "action_records.csv"))
	require.Equal(t, []string{"replay", "index", "kind", "player", "day", "events", "duration"}, actions[0])
	require.Len(t, actions, 1+8+8+3+3)
	require.Equal(t, []string{"2", "0", "capture", "100", "1"}, actions[1][:5])
}
