// Package session runs one editing session: a single goroutine owns the
// scene, the interaction controller and the renderer, and every public
// method is a command message processed by that goroutine.
//
// Slow work never runs on the loop. Uploads are decoded by the caller one
// at a time, theme extraction and autosave run in the background, and the
// loop only applies their results.
package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/config"
	"github.com/gogpu/journal/draft"
	"github.com/gogpu/journal/export"
	"github.com/gogpu/journal/interact"
	"github.com/gogpu/journal/media"
	"github.com/gogpu/journal/render"
	"github.com/gogpu/journal/scene"
	"github.com/gogpu/journal/theme"
)

// Session is one editing session. Create it with New and start it with
// Run; commands block until Run picks them up.
type Session struct {
	cfg      config.Config
	renderer *render.Renderer
	exporter *export.Exporter
	decoder  *media.Decoder
	store    *draft.Store
	bus      *theme.Bus
	uploads  *semaphore.Weighted

	sceneOpts []scene.Option
	onStatus  func(Status)
	onFrame   func(*render.Surface)

	reqs    chan request
	themes  chan themeResult
	saves   chan saveResult
	quit    chan struct{} // closed when the loop stops reading
	stopped chan struct{} // closed when Run has returned
	bg      sync.WaitGroup
	running bool
	runMu   sync.Mutex

	// Owned by the loop goroutine.
	scene      *scene.Scene
	ctrl       *interact.Controller
	batch      uint64
	revision   uint64
	firstAsset *scene.Asset
	redraw     bool
	themeTimer *time.Timer
	saveTimer  *time.Timer
	savePend   bool
	saving     bool
}

type request struct {
	fn   func() error
	done chan error
}

// Option configures a Session.
type Option func(*Session)

// WithStore enables autosave and Restore through st.
func WithStore(st *draft.Store) Option {
	return func(s *Session) { s.store = st }
}

// WithStatusHandler receives every status message. It is called on the
// session goroutine and must not call back into the session.
func WithStatusHandler(fn func(Status)) Option {
	return func(s *Session) { s.onStatus = fn }
}

// WithFrameHandler receives a fresh 1x frame after every visible change.
// It is called on the session goroutine and must not call back into the
// session.
func WithFrameHandler(fn func(*render.Surface)) Option {
	return func(s *Session) { s.onFrame = fn }
}

// WithSceneOptions configures every scene the session creates.
func WithSceneOptions(opts ...scene.Option) Option {
	return func(s *Session) { s.sceneOpts = append(s.sceneOpts, opts...) }
}

// New builds a session from cfg.
func New(cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	renderOpts := []render.Option{
		render.WithFontSize(cfg.Render.FontSize),
		render.WithLineSpacing(cfg.Render.LineSpacing),
		render.WithBaseScale(cfg.Render.BaseScale),
		render.WithMaxDensity(cfg.Render.MaxDensity),
		render.WithCacheBudget(cfg.Render.CacheMB << 20),
	}
	if cfg.Render.FontFile != "" {
		data, err := os.ReadFile(cfg.Render.FontFile)
		if err != nil {
			return nil, fmt.Errorf("session: font: %w", err)
		}
		renderOpts = append(renderOpts, render.WithFont(data))
	}
	r, err := render.New(renderOpts...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		renderer: r,
		exporter: export.New(r,
			export.WithDensity(cfg.Export.Density),
			export.WithPage(cfg.Export.PageWidthMM, cfg.Export.PageHeightMM),
			export.WithQuality(cfg.Export.JPEGQuality),
			export.WithPreview(cfg.Export.PreviewWidth, cfg.Export.PreviewQuality)),
		decoder: media.NewDecoder(
			media.WithMaxBytes(cfg.Media.MaxBytes),
			media.WithMaxDimension(cfg.Media.MaxDimension),
			media.WithMaxPixels(cfg.Media.MaxPixels),
			media.WithQuality(cfg.Media.Quality),
			media.WithTimeout(cfg.Media.Timeout.D())),
		bus:     theme.NewBus(),
		uploads: semaphore.NewWeighted(1),
		reqs:    make(chan request),
		themes:  make(chan themeResult),
		saves:   make(chan saveResult),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scene = s.newScene()
	s.ctrl = interact.New(s.scene)
	s.revision = s.scene.Revision()
	return s, nil
}

func (s *Session) newScene() *scene.Scene {
	opts := append([]scene.Option{scene.WithLayoutMode(s.cfg.Layout.Mode)}, s.sceneOpts...)
	return scene.New(opts...)
}

// Themes subscribes to theme changes. The current theme is delivered
// first; the channel is closed when the session stops.
func (s *Session) Themes() (<-chan scene.Theme, func()) {
	return s.bus.Subscribe()
}

// Run processes commands until ctx is cancelled. A pending autosave is
// flushed before it returns. Run may be called only once.
func (s *Session) Run(ctx context.Context) error {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return fmt.Errorf("session: Run called twice")
	}
	s.running = true
	s.runMu.Unlock()

	s.themeTimer = stoppedTimer()
	s.saveTimer = stoppedTimer()
	s.bus.Publish(s.scene.Theme)
	journal.Logger().Debug("session: started", "layout", s.scene.LayoutMode)

	defer s.shutdown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-s.reqs:
			req.done <- req.fn()
		case <-s.themeTimer.C:
			s.extractTheme()
		case res := <-s.themes:
			s.applyTheme(res)
		case <-s.saveTimer.C:
			s.autosave()
		case res := <-s.saves:
			s.saved(res)
		}
		s.settle()
	}
}

func (s *Session) shutdown() {
	s.themeTimer.Stop()
	s.saveTimer.Stop()
	close(s.quit)
	s.bg.Wait()
	if s.savePend && s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Media.Timeout.D())
		if _, err := s.store.Save(ctx, draft.FromScene(s.scene)); err != nil {
			journal.Logger().Warn("session: final autosave failed", "err", err)
		}
		cancel()
	}
	s.bus.Close()
	close(s.stopped)
	journal.Logger().Debug("session: stopped")
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func() error) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case s.reqs <- req:
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-req.done
}

// settle reacts to whatever the last loop iteration changed.
func (s *Session) settle() {
	if rev := s.scene.Revision(); rev != s.revision {
		s.revision = rev
		s.redraw = true
		s.scheduleSave()
	}
	if first := s.currentFirstAsset(); first != s.firstAsset {
		s.firstAsset = first
		if first != nil {
			s.themeTimer.Reset(s.cfg.Session.ThemeDebounce.D())
		}
	}
	if s.redraw {
		s.redraw = false
		s.emitFrame()
	}
}

func (s *Session) currentFirstAsset() *scene.Asset {
	if e := s.scene.FirstImage(); e != nil {
		return e.Asset
	}
	return nil
}

func (s *Session) emitFrame() {
	if s.onFrame == nil {
		return
	}
	surf, err := s.renderer.Render(s.scene, 1, s.frameOptions()...)
	if err != nil {
		s.fail(err)
		return
	}
	s.onFrame(surf)
}

// frameOptions returns the live overlays of the controller.
func (s *Session) frameOptions() []render.FrameOption {
	var opts []render.FrameOption
	if id, ok := s.ctrl.Selected(); ok {
		opts = append(opts, render.WithSelection(id))
	}
	if id, t, ok := s.ctrl.Pending(); ok {
		opts = append(opts, render.WithOverride(id, t), render.WithoutHandles())
	}
	if l, ok := s.ctrl.Loupe(); ok {
		opts = append(opts, render.WithLoupe(l.Image, l.X, l.Y))
	}
	return opts
}

func (s *Session) status(level Level, msg string, err error) {
	if s.onStatus != nil {
		s.onStatus(Status{Level: level, Message: msg, Err: err})
	}
}

func (s *Session) info(msg string) { s.status(LevelInfo, msg, nil) }

func (s *Session) fail(err error) {
	journal.Logger().Warn("session: command failed", "err", err)
	s.status(LevelError, Message(err), err)
}
