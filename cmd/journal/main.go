// Command journal composes a journal entry from text and photographs and
// writes it as a paginated PDF plus a JPEG preview.
//
// Usage:
//
//	journal [flags] photo.jpg [photo.png ...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/config"
	"github.com/gogpu/journal/draft"
	"github.com/gogpu/journal/export"
	"github.com/gogpu/journal/internal/kv"
	"github.com/gogpu/journal/internal/kv/redis"
	"github.com/gogpu/journal/render"
	"github.com/gogpu/journal/scene"
	"github.com/gogpu/journal/session"
)

type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	var (
		configPath = flag.String("config", "", "JSON configuration file")
		text       = flag.String("text", "", "entry text; paragraphs are separated by blank lines")
		textFile   = flag.String("text-file", "", "read the entry text from a file")
		layoutMode = flag.String("layout", "", "layout mode: standard, mirrored or freeflow")
		date       = flag.String("date", time.Now().Format(draft.DateLayout), "entry date (YYYY-MM-DD)")
		location   = flag.String("location", "", "entry location")
		outDir     = flag.String("out", ".", "output directory")
		storeDir   = flag.String("store", "", "keep drafts in this directory")
		resume     = flag.Bool("resume", false, "continue from the saved draft")
		verbose    = flag.Bool("v", false, "debug logging")
		stickers   stringList
	)
	flag.Var(&stickers, "sticker", "sticker image file (repeatable)")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	journal.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if cfg.Render.ComplexShaping {
		render.EnableComplexShaping()
	}
	if *storeDir != "" {
		cfg.Storage.Type = config.StorageFile
		cfg.Storage.Dir = *storeDir
	}
	if *layoutMode != "" {
		m, err := scene.ParseLayoutMode(*layoutMode)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Layout.Mode = m
	}
	day, err := time.Parse(draft.DateLayout, *date)
	if err != nil {
		log.Fatalf("invalid -date: %v", err)
	}
	body := *text
	if *textFile != "" {
		data, err := os.ReadFile(*textFile)
		if err != nil {
			log.Fatal(err)
		}
		body = string(data)
	}

	client, err := openStorage(cfg.Storage)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, cfg, client, entry{
		date:     day,
		location: *location,
		text:     body,
		images:   flag.Args(),
		stickers: stickers,
		outDir:   *outDir,
		resume:   *resume,
	})
	if err != nil {
		log.Fatal(err)
	}
}

type entry struct {
	date     time.Time
	location string
	text     string
	images   []string
	stickers []string
	outDir   string
	resume   bool
}

func run(ctx context.Context, cfg config.Config, client kv.Client, e entry) error {
	s, err := session.New(cfg,
		session.WithStore(draft.NewStore(client, cfg.Session.DraftKey)),
		session.WithStatusHandler(func(st session.Status) {
			fmt.Fprintln(os.Stderr, st)
		}))
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()

	if e.resume {
		if _, err := s.Restore(ctx); err != nil && !errors.Is(err, draft.ErrCorrupt) {
			return err
		}
	}
	if err := s.SetEntry(ctx, e.date, e.location); err != nil {
		return err
	}
	if strings.TrimSpace(e.text) != "" {
		if err := s.SetText(ctx, e.text); err != nil {
			return err
		}
	}
	if err := addFiles(ctx, e.images, s.AddImages); err != nil {
		return err
	}
	if err := addFiles(ctx, e.stickers, s.AddStickers); err != nil {
		return err
	}

	out, err := s.Export(ctx)
	if err != nil {
		return err
	}
	if err := writeFile(e.outDir, out.Name, out.PDF); err != nil {
		return err
	}
	preview, err := s.Preview(ctx)
	if err != nil {
		return err
	}
	if err := writeFile(e.outDir, export.PreviewName(e.date), preview); err != nil {
		return err
	}
	log.Printf("wrote %s (%d pages) to %s", out.Name, out.Pages, e.outDir)
	return s.Flush(ctx)
}

// addFiles uploads files as one batch. Unreadable items are reported by
// the session and skipped.
func addFiles(ctx context.Context, paths []string, add func(context.Context, ...[]byte) ([]scene.ID, error)) error {
	if len(paths) == 0 {
		return nil
	}
	files := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, data)
	}
	ids, err := add(ctx, files...)
	if len(ids) == 0 && err != nil {
		return err
	}
	return nil
}

func writeFile(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func openStorage(c config.Storage) (kv.Client, error) {
	switch c.Type {
	case config.StorageFile:
		f, err := kv.NewFile(c.Dir)
		if err != nil {
			return nil, err
		}
		return f, nil
	case config.StorageRedis:
		client := redis.New(redis.Conf{Addr: c.Addr(), PW: c.PW, DB: c.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis %s: %w", c.Addr(), err)
		}
		return client, nil
	default:
		return kv.NewMemory(c.Quota), nil
	}
}
