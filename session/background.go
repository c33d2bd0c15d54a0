package session

import (
	"context"

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/draft"
	"github.com/gogpu/journal/scene"
	"github.com/gogpu/journal/theme"
)

type themeResult struct {
	asset *scene.Asset
	theme scene.Theme
}

type saveResult struct {
	res draft.SaveResult
	err error
}

// extractTheme samples the first image off the loop.
func (s *Session) extractTheme() {
	a := s.currentFirstAsset()
	if a == nil {
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		res := themeResult{asset: a, theme: theme.Extract(a.Image)}
		select {
		case s.themes <- res:
		case <-s.quit:
		}
	}()
}

// applyTheme installs an extracted theme unless the first image changed
// while it was computed.
func (s *Session) applyTheme(res themeResult) {
	if res.asset != s.currentFirstAsset() {
		journal.Logger().Debug("session: stale theme dropped")
		return
	}
	s.setTheme(res.theme)
}

func (s *Session) setTheme(t scene.Theme) {
	s.scene.SetTheme(t)
	s.bus.Publish(t)
	journal.Logger().Debug("session: theme", "primary", theme.Hex(t.Primary), "shadow", theme.Hex(t.Shadow))
}

func (s *Session) scheduleSave() {
	if s.store == nil {
		return
	}
	s.savePend = true
	s.saveTimer.Reset(s.cfg.Session.AutosaveDebounce.D())
}

// autosave serializes the committed scene on the loop and writes it in the
// background. At most one write is in flight; a save requested meanwhile
// runs once the current one finishes.
func (s *Session) autosave() {
	if s.store == nil || !s.savePend {
		return
	}
	if s.saving {
		return
	}
	s.savePend = false
	s.saving = true
	d := draft.FromScene(s.scene)
	timeout := s.cfg.Media.Timeout.D()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := s.store.Save(ctx, d)
		select {
		case s.saves <- saveResult{res: res, err: err}:
		case <-s.quit:
		}
	}()
}

func (s *Session) saved(r saveResult) {
	s.saving = false
	switch {
	case r.err != nil:
		journal.Logger().Warn("session: autosave failed", "err", r.err)
		s.status(LevelWarn, "Your draft could not be saved.", r.err)
	case r.res.Degraded:
		s.status(LevelWarn, "Draft saved without photos: storage is full.", nil)
	default:
		journal.Logger().Debug("session: autosaved", "bytes", r.res.Size, "chunks", r.res.Chunks)
	}
	if s.savePend {
		s.autosave()
	}
}
