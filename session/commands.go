package session

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/draft"
	"github.com/gogpu/journal/export"
	"github.com/gogpu/journal/interact"
	"github.com/gogpu/journal/layout"
	"github.com/gogpu/journal/media"
	"github.com/gogpu/journal/render"
	"github.com/gogpu/journal/scene"
	"github.com/gogpu/journal/theme"
)

// SetEntry records the entry date and location.
func (s *Session) SetEntry(ctx context.Context, date time.Time, location string) error {
	return s.do(ctx, func() error {
		s.scene.SetEntry(date, location)
		return nil
	})
}

// SetText replaces the paragraphs with text split on blank lines.
func (s *Session) SetText(ctx context.Context, text string) error {
	return s.SetParagraphs(ctx, SplitParagraphs(text))
}

// SetParagraphs replaces the paragraphs. Existing paragraphs keep their
// regions; new ones get the regions of the current layout mode.
func (s *Session) SetParagraphs(ctx context.Context, paragraphs []string) error {
	return s.do(ctx, func() error {
		regions := layout.TextRegions(len(paragraphs), s.scene.LayoutMode)
		if err := s.scene.SetParagraphs(paragraphs, regions); err != nil {
			s.fail(err)
			return err
		}
		s.reflow()
		return nil
	})
}

// SetLayoutMode selects the placement strategy for future additions.
func (s *Session) SetLayoutMode(ctx context.Context, m scene.LayoutMode) error {
	return s.do(ctx, func() error {
		s.scene.SetLayoutMode(m)
		return nil
	})
}

// Handle feeds one pointer or key event to the interaction controller.
func (s *Session) Handle(ctx context.Context, ev interact.Event) (changed bool, err error) {
	err = s.do(ctx, func() error {
		changed = s.ctrl.Handle(ev)
		if changed {
			s.redraw = true
			if !s.ctrl.State().Gesturing() {
				s.reflow()
			}
		}
		return nil
	})
	return changed, err
}

// Select selects an element by id.
func (s *Session) Select(ctx context.Context, id scene.ID) (ok bool, err error) {
	err = s.do(ctx, func() error {
		if ok = s.ctrl.Select(id); ok {
			s.redraw = true
		}
		return nil
	})
	return ok, err
}

// Delete removes the selected element.
func (s *Session) Delete(ctx context.Context) error {
	return s.do(ctx, func() error {
		if err := s.ctrl.Delete(); err != nil {
			s.fail(err)
			return err
		}
		s.redraw = true
		return nil
	})
}

// ParagraphAt returns the section index of the paragraph under a canvas
// point.
func (s *Session) ParagraphAt(ctx context.Context, x, y float64) (index int, ok bool, err error) {
	err = s.do(ctx, func() error {
		index, ok = s.ctrl.TextAt(x, y)
		return nil
	})
	return index, ok, err
}

// Render draws the live scene, overlays included, at density.
func (s *Session) Render(ctx context.Context, density float64) (surf *render.Surface, err error) {
	err = s.do(ctx, func() error {
		surf, err = s.renderer.Render(s.scene, density, s.frameOptions()...)
		if err != nil {
			s.fail(err)
		}
		return err
	})
	return surf, err
}

// BeginEyedropper enters color picking. Clicking a pixel of the live frame
// makes its color the theme primary.
func (s *Session) BeginEyedropper(ctx context.Context) error {
	return s.do(ctx, func() error {
		surf, err := s.renderer.Render(s.scene, 1)
		if err != nil {
			s.fail(err)
			return err
		}
		err = s.ctrl.BeginEyedropper(surf.Image, surf.Scale, func(c color.NRGBA) {
			s.setTheme(theme.FromPrimary(c))
			s.info("Theme color picked: " + theme.Hex(c))
		})
		if err != nil {
			s.fail(err)
			return err
		}
		s.redraw = true
		return nil
	})
}

// Output is a finished export.
type Output struct {
	Name  string
	PDF   []byte
	Pages int
}

// Export renders the entry to a PDF. The scene is cloned on the session
// goroutine and rendered outside it; once started the export is not
// cancelled by ctx.
func (s *Session) Export(ctx context.Context) (*Output, error) {
	var snap *scene.Scene
	err := s.do(ctx, func() error {
		if s.scene.Date.IsZero() {
			s.fail(ErrMissingField)
			return fmt.Errorf("%w: date", ErrMissingField)
		}
		snap = s.scene.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, err := s.exporter.Document(context.WithoutCancel(ctx), snap)
	if err != nil {
		s.report(ctx, LevelError, Message(err), err)
		return nil, err
	}
	out := &Output{Name: export.FileName(snap.Date), PDF: res.PDF, Pages: res.Geometry.Pages}
	s.report(ctx, LevelInfo, fmt.Sprintf("Exported %s (%d pages).", out.Name, out.Pages), nil)
	return out, nil
}

// Preview renders the gallery thumbnail JPEG.
func (s *Session) Preview(ctx context.Context) ([]byte, error) {
	var snap *scene.Scene
	if err := s.do(ctx, func() error {
		snap = s.scene.Clone()
		return nil
	}); err != nil {
		return nil, err
	}
	data, err := s.exporter.Preview(ctx, snap)
	if err != nil {
		s.report(ctx, LevelError, Message(err), err)
	}
	return data, err
}

// report posts a status message from outside the loop.
func (s *Session) report(ctx context.Context, level Level, msg string, err error) {
	_ = s.do(ctx, func() error {
		s.status(level, msg, err)
		return nil
	})
}

// Reset discards the entry and its draft.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.do(ctx, func() error {
		s.replaceScene(s.newScene())
		s.revision = s.scene.Revision()
		s.savePend = false
		s.saveTimer.Stop()
		return nil
	}); err != nil {
		return err
	}
	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		s.report(ctx, LevelError, Message(err), err)
		return err
	}
	return nil
}

// Restore loads the saved draft. A corrupt draft is discarded and the
// session continues with an empty scene; ok is false in that case.
func (s *Session) Restore(ctx context.Context) (ok bool, err error) {
	if s.store == nil {
		return false, ErrNoStore
	}
	d, found, loadErr := s.store.Load(ctx)
	if loadErr != nil && !errors.Is(loadErr, draft.ErrCorrupt) {
		return false, loadErr
	}
	err = s.do(ctx, func() error {
		if loadErr != nil {
			s.replaceScene(s.newScene())
			s.fail(loadErr)
			return loadErr
		}
		if !found {
			return nil
		}
		sc, err := d.Scene(media.DecodeBytes, s.sceneOpts...)
		if err != nil {
			err = fmt.Errorf("%w: %v", draft.ErrCorrupt, err)
			s.replaceScene(s.newScene())
			s.fail(err)
			return err
		}
		s.replaceScene(sc)
		s.reflow()
		s.revision = sc.Revision()
		ok = true
		s.info("Draft restored.")
		journal.Logger().Info("session: draft restored", "elements", sc.Len())
		return nil
	})
	return ok, err
}

// reflow stores the regions text is drawn in, so taps on overflowing
// lines hit their paragraph and paragraphs never overlap.
func (s *Session) reflow() {
	for _, l := range s.renderer.LayoutText(s.scene) {
		if l.Region == l.Block.Region {
			continue
		}
		if err := s.scene.UpdateTransform(l.Block.ID, l.Region); err != nil {
			journal.Logger().Warn("session: reflow", "id", l.Block.ID, "err", err)
		}
	}
}

// replaceScene swaps the scene without triggering theme extraction: the
// new scene already carries its theme.
func (s *Session) replaceScene(sc *scene.Scene) {
	s.scene = sc
	s.ctrl.Reset(sc)
	s.firstAsset = s.currentFirstAsset()
	s.themeTimer.Stop()
	s.bus.Publish(sc.Theme)
	s.redraw = true
}

// Snapshot returns a copy of the scene for inspection.
func (s *Session) Snapshot(ctx context.Context) (snap *scene.Scene, err error) {
	err = s.do(ctx, func() error {
		snap = s.scene.Clone()
		return nil
	})
	return snap, err
}

// State returns the interaction state and selection.
func (s *Session) State(ctx context.Context) (state interact.State, selected scene.ID, err error) {
	err = s.do(ctx, func() error {
		state = s.ctrl.State()
		selected, _ = s.ctrl.Selected()
		return nil
	})
	return state, selected, err
}

// Flush writes a pending autosave now.
func (s *Session) Flush(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	var d draft.Draft
	pending := false
	if err := s.do(ctx, func() error {
		if pending = s.savePend; pending {
			s.savePend = false
			s.saveTimer.Stop()
			d = draft.FromScene(s.scene)
		}
		return nil
	}); err != nil || !pending {
		return err
	}
	res, err := s.store.Save(ctx, d)
	if err == nil && res.Degraded {
		s.report(ctx, LevelWarn, "Draft saved without photos: storage is full.", nil)
	}
	return err
}
