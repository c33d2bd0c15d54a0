package scene

import (
	"errors"
	"fmt"
	"image"
	"testing"
	"time"
)

func seqIDs() Option {
	n := 0
	return WithIDGenerator(func() ID {
		n++
		return ID(fmt.Sprintf("e%d", n))
	})
}

func testAsset() *Asset {
	return &Asset{Ref: "a", Image: image.NewNRGBA(image.Rect(0, 0, 4, 3)), Format: "png"}
}

func TestAddAssignsUniqueIncreasingZ(t *testing.T) {
	s := New(seqIDs())
	a, _ := s.AddImage(testAsset(), 4, 3, Transform{X: 100, Y: 100, Width: 300, Height: 225})
	b, _ := s.AddSticker(testAsset(), 4, 3, Transform{X: 150, Y: 150, Width: 100, Height: 100})
	c, _ := s.AddImage(testAsset(), 4, 3, Transform{X: 200, Y: 200, Width: 300, Height: 225})
	tb, _ := s.AddText("hello", Transform{X: 50, Y: 50, Width: 1000, Height: 400})

	seen := map[int]ID{}
	for _, n := range s.PaintOrder() {
		if prev, dup := seen[n.ZIndex]; dup {
			t.Fatalf("z-index %d shared by %s and %s", n.ZIndex, prev, n.ID)
		}
		seen[n.ZIndex] = n.ID
	}
	if !(a.ZIndex < b.ZIndex && b.ZIndex < c.ZIndex && c.ZIndex < tb.ZIndex) {
		t.Errorf("z-indices not in creation order: %d %d %d %d", a.ZIndex, b.ZIndex, c.ZIndex, tb.ZIndex)
	}
}

func TestPaintOrderBands(t *testing.T) {
	s := New(seqIDs())
	st, _ := s.AddSticker(testAsset(), 4, 3, Transform{Width: 100, Height: 100})
	tb, _ := s.AddText("p", Transform{Width: 100, Height: 100})
	im, _ := s.AddImage(testAsset(), 4, 3, Transform{Width: 100, Height: 100})

	order := s.PaintOrder()
	want := []ID{im.ID, tb.ID, st.ID}
	for i, n := range order {
		if n.ID != want[i] {
			t.Fatalf("PaintOrder()[%d] = %s, want %s", i, n.ID, want[i])
		}
	}
	hit := s.HitOrder()
	if hit[0].ID != st.ID || hit[2].ID != im.ID {
		t.Errorf("HitOrder() = %v, want stickers first and images last", hit)
	}
}

func TestRemoveLeavesOthersUntouched(t *testing.T) {
	s := New(seqIDs())
	var ids []ID
	for i := range 4 {
		e, err := s.AddImage(testAsset(), 4, 3, Transform{X: float64(i * 100), Y: 80, Width: 120, Height: 90, Rotation: float64(i * 10)})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, e.ID)
	}
	st, _ := s.AddSticker(testAsset(), 4, 3, Transform{X: 5, Y: 5, Width: 60, Height: 60})

	before := map[ID]Node{}
	for _, n := range s.PaintOrder() {
		before[n.ID] = n
	}

	if !s.Remove(ids[1]) {
		t.Fatal("Remove() = false for existing id")
	}
	if s.Remove(ids[1]) {
		t.Error("Remove() twice should report false")
	}
	if len(s.Images) != 3 || len(s.Stickers) != 1 {
		t.Fatalf("got %d images, %d stickers; want 3, 1", len(s.Images), len(s.Stickers))
	}
	for _, n := range s.PaintOrder() {
		if n.ID == ids[1] {
			t.Fatal("removed element still present")
		}
		old := before[n.ID]
		if n.Transform != old.Transform || n.ZIndex != old.ZIndex {
			t.Errorf("element %s changed: got %+v z=%d, want %+v z=%d", n.ID, n.Transform, n.ZIndex, old.Transform, old.ZIndex)
		}
	}
	if _, ok := s.Lookup(st.ID); !ok {
		t.Error("sticker lost after removing an image")
	}
}

func TestUpdateTransformRejectsBelowFloor(t *testing.T) {
	s := New(seqIDs())
	e, _ := s.AddImage(testAsset(), 4, 3, Transform{X: 10, Y: 10, Width: 300, Height: 225})
	prior := e.Transform
	rev := s.Revision()

	err := s.UpdateTransform(e.ID, Transform{X: 10, Y: 10, Width: 49, Height: 225})
	if !errors.Is(err, ErrBelowMinSize) {
		t.Fatalf("UpdateTransform() error = %v, want ErrBelowMinSize", err)
	}
	var se *SizeError
	if !errors.As(err, &se) || se.Width != 49 {
		t.Errorf("error = %#v, want SizeError with width 49", err)
	}
	if e.Transform != prior {
		t.Errorf("transform changed after rejection: %+v", e.Transform)
	}
	if s.Revision() != rev {
		t.Error("rejected update bumped the revision")
	}

	if err := s.UpdateTransform(e.ID, Transform{X: 0, Y: 0, Width: 50, Height: 50, Rotation: -90}); err != nil {
		t.Fatalf("UpdateTransform() at floor: %v", err)
	}
	if e.Transform.Rotation != 270 {
		t.Errorf("rotation = %v, want 270", e.Transform.Rotation)
	}
	if err := s.UpdateTransform("missing", prior); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTransform(missing) = %v, want ErrNotFound", err)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.AddImage(nil, 1, 1, Transform{Width: 100, Height: 100}); !errors.Is(err, ErrNoAsset) {
		t.Errorf("AddImage(nil) = %v, want ErrNoAsset", err)
	}
	if _, err := s.AddImage(testAsset(), 1, 1, Transform{Width: 10, Height: 100}); !errors.Is(err, ErrBelowMinSize) {
		t.Errorf("AddImage(tiny) = %v, want ErrBelowMinSize", err)
	}
	if s.Len() != 0 {
		t.Errorf("scene mutated by rejected adds: %d elements", s.Len())
	}
}

func TestSetParagraphsKeepsIdentity(t *testing.T) {
	s := New(seqIDs())
	regions := []Transform{
		{X: 50, Y: 50, Width: 500, Height: 200},
		{X: 50, Y: 300, Width: 500, Height: 200},
		{X: 50, Y: 550, Width: 500, Height: 200},
	}
	if err := s.SetParagraphs([]string{"one", "two"}, regions); err != nil {
		t.Fatal(err)
	}
	first := s.TextBlocks[0].ID
	s.TextBlocks[0].Region.X = 400

	if err := s.SetParagraphs([]string{"uno", "dos", "tres"}, regions); err != nil {
		t.Fatal(err)
	}
	if s.TextBlocks[0].ID != first || s.TextBlocks[0].Region.X != 400 {
		t.Errorf("first block identity or region lost: %+v", s.TextBlocks[0])
	}
	if got := s.Paragraphs(); len(got) != 3 || got[2] != "tres" {
		t.Errorf("Paragraphs() = %q", got)
	}
	if err := s.SetParagraphs([]string{"a", "b", "c", "d"}, regions); err == nil {
		t.Error("SetParagraphs() with too few regions should fail")
	}
}

func TestSetParagraphsNormalizesNFC(t *testing.T) {
	s := New()
	decomposed := "Cafe\u0301"
	if err := s.SetParagraphs([]string{decomposed}, []Transform{{Width: 100, Height: 100}}); err != nil {
		t.Fatal(err)
	}
	if got := s.TextBlocks[0].Content; got != "Caf\u00e9" {
		t.Errorf("Content = %q, want composed form", got)
	}
}

func TestTextAt(t *testing.T) {
	s := New()
	_ = s.SetParagraphs([]string{"a", "b"}, []Transform{
		{X: 50, Y: 50, Width: 1000, Height: 300},
		{X: 50, Y: 400, Width: 1000, Height: 300},
	})
	tests := []struct {
		x, y    float64
		want    int
		wantHit bool
	}{
		{100, 100, 0, true},
		{100, 500, 1, true},
		{100, 375, 0, false},
		{2000, 100, 0, false},
	}
	for _, tt := range tests {
		got, ok := s.TextAt(tt.x, tt.y)
		if ok != tt.wantHit || (ok && got != tt.want) {
			t.Errorf("TextAt(%v, %v) = %d, %v; want %d, %v", tt.x, tt.y, got, ok, tt.want, tt.wantHit)
		}
	}
}

func TestTrimTrailingEmpty(t *testing.T) {
	s := New()
	r := Transform{Width: 100, Height: 100}
	_ = s.SetParagraphs([]string{"a", "", "b", " ", ""}, []Transform{r, r, r, r, r})
	s.TrimTrailingEmpty()
	if got := s.Paragraphs(); len(got) != 3 || got[1] != "" || got[2] != "b" {
		t.Errorf("Paragraphs() after trim = %q, want [a  b]", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	e, _ := s.AddImage(testAsset(), 4, 3, Transform{Width: 100, Height: 100})
	s.SetEntry(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), " Lisbon ")

	c := s.Clone()
	c.Images[0].Transform.X = 999
	c.Remove(e.ID)

	if len(s.Images) != 1 || s.Images[0].Transform.X != 0 {
		t.Errorf("original mutated through clone: %+v", s.Images)
	}
	if c.Location != "Lisbon" {
		t.Errorf("clone Location = %q", c.Location)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	s := New(WithLayoutMode(LayoutMirrored))
	_, _ = s.AddImage(testAsset(), 4, 3, Transform{Width: 100, Height: 100})
	s.SetTheme(Theme{})
	s.Reset()
	if s.Len() != 0 || s.Theme != DefaultTheme || s.LayoutMode != LayoutMirrored {
		t.Errorf("Reset() left len=%d theme=%v mode=%v", s.Len(), s.Theme, s.LayoutMode)
	}
	e, _ := s.AddImage(testAsset(), 4, 3, Transform{Width: 100, Height: 100})
	if e.ZIndex != 0 {
		t.Errorf("z counter not reset: %d", e.ZIndex)
	}
}

func TestLayoutModeJSON(t *testing.T) {
	for _, m := range []LayoutMode{LayoutStandard, LayoutMirrored, LayoutFreeflow} {
		data, err := m.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		var got LayoutMode
		if err := got.UnmarshalJSON(data); err != nil || got != m {
			t.Errorf("round trip %v -> %s -> %v (%v)", m, data, got, err)
		}
	}
	if _, err := ParseLayoutMode("diagonal"); err == nil {
		t.Error("ParseLayoutMode(diagonal) should fail")
	}
}
