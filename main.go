package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	"awreplay/catalog"
	"awreplay/communication/server"
	"awreplay/config"
	"awreplay/engine"
	"awreplay/experiments"
	"awreplay/game"
	"awreplay/gamemaster"
	"awreplay/journal"
	"awreplay/replay"

	"github.com/rs/zerolog/log"
)

const usage = `usage: awreplay [-config file] <command> [flags]

commands:
  dump     decode an archive and print its summary, or the state at an action
  play     pace through an archive, logging every update
  journal  record an archive's playback to the journal directory
  verify   check a journal against the archive it came from
  serve    serve playback over HTTP and websocket
  index    add archives to the catalog
  bench    time the playback of archives and write CSV records
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Error().Msgf("%v", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("awreplay", flag.ContinueOnError)
	configPath := global.String("config", "", "YAML config file")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("no command given")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := config.SetupLogging(cfg.LogLevel, cfg.PrettyLogs); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "dump":
		return runDump(cfg, rest)
	case "play":
		return runPlay(ctx, cfg, rest)
	case "journal":
		return runJournal(ctx, cfg, rest)
	case "verify":
		return runVerify(cfg, rest)
	case "serve":
		return runServe(ctx, cfg, rest)
	case "index":
		return runIndex(cfg, rest)
	case "bench":
		return runBench(cfg, rest)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// archiveFlags are shared by every command that decodes an archive.
type archiveFlags struct {
	archive string
	mapPath string
	strict  bool
}

func (a *archiveFlags) register(fs *flag.FlagSet, cfg config.Config) {
	fs.StringVar(&a.archive, "archive", "", "replay archive (zip)")
	fs.StringVar(&a.mapPath, "map", "", "map export (text or JSON) when the archive bundles none")
	fs.BoolVar(&a.strict, "strict", cfg.Strict, "stop at recorded outcomes the rules cannot produce")
}

func (a *archiveFlags) options() ([]replay.Option, error) {
	opts := []replay.Option{replay.WithStrict(a.strict)}
	if a.mapPath != "" {
		data, err := os.ReadFile(a.mapPath)
		if err != nil {
			return nil, err
		}
		def, err := replay.ParseMap(data)
		if err != nil {
			return nil, err
		}
		opts = append(opts, replay.WithMap(def))
	}
	return opts, nil
}

func (a *archiveFlags) load() (*replay.Match, error) {
	if a.archive == "" {
		return nil, errors.New("-archive is required")
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.archive)
	if err != nil {
		return nil, err
	}
	return replay.Load(data, opts...)
}

type dumpSummary struct {
	Info    replay.Info    `json:"info"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Players []game.Player  `json:"players"`
	Turns   []replay.Turn  `json:"turns"`
	Actions map[string]int `json:"actions"`
}

func runDump(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	var af archiveFlags
	af.register(fs, cfg)
	at := fs.Int("at", -1, "print the state before this action instead of the summary")
	reach := fs.Int("reach", 0, "with -at, print the tiles this unit can reach")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := af.load()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *at < 0 {
		counts := map[string]int{}
		for kind, n := range m.ActionCounts() {
			counts[kind.String()] = n
		}
		return enc.Encode(dumpSummary{
			Info: m.Info, Width: m.Map.Width, Height: m.Map.Height,
			Players: m.Setup.Players, Turns: m.Turns, Actions: counts,
		})
	}

	d, err := engine.NewDriver(m)
	if err != nil {
		return err
	}
	if _, err := d.Seek(*at); err != nil {
		return err
	}
	gs := d.State()
	if *reach == 0 {
		return enc.Encode(gs)
	}
	tiles := game.Reachable(gs, game.UnitID(*reach))
	positions := make([]game.Position, 0, len(tiles))
	for p := range tiles {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Y != positions[j].Y {
			return positions[i].Y < positions[j].Y
		}
		return positions[i].X < positions[j].X
	})
	for _, p := range positions {
		fmt.Printf("%s cost %d\n", p, tiles[p])
	}
	return nil
}

func runPlay(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	var af archiveFlags
	af.register(fs, cfg)
	interval := fs.Duration("interval", cfg.StepInterval, "pause between actions")
	from := fs.Int("from", 0, "start before this action")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := af.load()
	if err != nil {
		return err
	}
	d, err := engine.NewDriver(m)
	if err != nil {
		return err
	}
	if _, err := d.Seek(*from); err != nil {
		return err
	}

	pb := engine.NewPlayback(d, engine.WithInterval(*interval), engine.WithBuffer(cfg.UpdateBuffer))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go pb.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-pb.Updates():
			if !ok {
				return nil
			}
			log.Info().Msgf("day %d action %d/%d: %s by player %d, %d events", u.Day, u.Cursor, d.Len(), u.Action, u.Player, len(u.Events))
			for _, e := range u.Events {
				log.Debug().Msgf("  %s %+v", e.Kind(), e)
			}
		case <-time.After(*interval * 4):
			status, err := pb.Status(ctx)
			if err != nil {
				return err
			}
			if status.Halted != nil {
				return status.Halted
			}
			if status.AtEnd && status.Paused {
				log.Info().Msgf("finished on day %d", status.Day)
				return nil
			}
		}
	}
}

func runJournal(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	var af archiveFlags
	af.register(fs, cfg)
	dir := fs.String("dir", cfg.JournalDir, "journal root directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := af.load()
	if err != nil {
		return err
	}
	manifest, path, err := journal.Record(ctx, *dir, m, time.Now)
	if err != nil {
		return err
	}
	fmt.Println(path)
	if manifest.Halted != nil {
		log.Warn().Msgf("playback halted at action %d: %s", manifest.Halted.ActionIndex, manifest.Halted.Reason)
	}
	return nil
}

func runVerify(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	var af archiveFlags
	af.register(fs, cfg)
	dir := fs.String("journal", "", "journal bundle directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	j, err := journal.Load(*dir)
	if err != nil {
		return err
	}
	m, err := af.load()
	if err != nil {
		return err
	}
	if err := journal.Verify(j, m); err != nil {
		return err
	}
	log.Info().Msgf("journal %s matches match %d", j.Dir, m.Info.ID)
	return nil
}

func runServe(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.ListenAddr, "listen address")
	strict := fs.Bool("strict", cfg.Strict, "stop at recorded outcomes the rules cannot produce")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := catalog.New(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer c.Close()

	gm := gamemaster.NewGameMaster(ctx,
		gamemaster.WithCatalog(c),
		gamemaster.WithReplayOptions(replay.WithStrict(*strict)),
		gamemaster.WithPlaybackOptions(engine.WithInterval(cfg.StepInterval), engine.WithBuffer(cfg.UpdateBuffer), engine.StartPaused()),
		gamemaster.WithSubscriberBuffer(cfg.UpdateBuffer),
	)
	defer gm.Close()

	srv := &http.Server{Addr: *addr, Handler: server.New(gm, c)}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Info().Msgf("serving on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runIndex(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	path := fs.String("catalog", cfg.CatalogPath, "catalog database")
	strict := fs.Bool("strict", cfg.Strict, "stop at recorded outcomes the rules cannot produce")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files, err := experiments.Glob(fs.Args()...)
	if err != nil {
		return err
	}

	c, err := catalog.New(*path)
	if err != nil {
		return err
	}
	defer c.Close()

	failed := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err == nil {
			var m *replay.Match
			if m, err = replay.Load(data, replay.WithStrict(*strict)); err == nil {
				var e catalog.Entry
				if e, err = c.Index(m, file); err == nil {
					log.Info().Msgf("indexed %s: match %d, %d/%d actions", file, e.MatchID, e.Applied, e.Actions)
					continue
				}
			}
		}
		failed++
		log.Warn().Msgf("failed to index %s: %v", file, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d archives could not be indexed", failed, len(files))
	}
	return nil
}

func runBench(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	rounds := fs.Int("rounds", 3, "playbacks per archive")
	out := fs.String("out", cfg.MetricsDir, "directory for CSV records")
	strict := fs.Bool("strict", cfg.Strict, "stop at recorded outcomes the rules cannot produce")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files, err := experiments.Glob(fs.Args()...)
	if err != nil {
		return err
	}
	dir, err := experiments.Benchmark{
		Files:   files,
		Rounds:  *rounds,
		OutDir:  *out,
		Options: []replay.Option{replay.WithStrict(*strict)},
	}.Run()
	if err != nil {
		return err
	}
	fmt.Println(dir)
	return nil
}
