package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/journal/internal/kv"
	"github.com/gogpu/journal/media"
	"github.com/gogpu/journal/scene"
	"github.com/gogpu/journal/theme"
)

func seqIDs() scene.Option {
	n := 0
	return scene.WithIDGenerator(func() scene.ID {
		n++
		return scene.ID(fmt.Sprintf("el-%d", n))
	})
}

// noisyAsset returns a PNG asset whose encoded size grows with the side.
func noisyAsset(t *testing.T, side int) *scene.Asset {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	seed := uint32(7)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = uint8(seed >> 24)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	a, err := media.DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func sampleScene(t *testing.T, side int) *scene.Scene {
	t.Helper()
	s := scene.New(seqIDs(), scene.WithLayoutMode(scene.LayoutMirrored))
	s.SetEntry(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), "Lisbon")
	s.SetTheme(theme.FromPrimary(color.NRGBA{R: 120, G: 80, B: 60, A: 255}))

	if _, err := s.AddText("First day.", scene.Transform{X: 100, Y: 100, Width: 1200, Height: 400}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddImage(noisyAsset(t, side), side, side,
		scene.Transform{X: 400, Y: 600, Width: 300, Height: 300, Rotation: 15}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSticker(noisyAsset(t, 8), 8, 8,
		scene.Transform{X: 900, Y: 900, Width: 120, Height: 120}); err != nil {
		t.Fatal(err)
	}
	return s
}

// summary is the comparable projection of a scene.
type summary struct {
	Paragraphs []string
	Nodes      []nodeSummary
	Theme      scene.Theme
	Mode       scene.LayoutMode
	Date       string
	Location   string
}

type nodeSummary struct {
	ID        scene.ID
	Kind      scene.Kind
	Transform scene.Transform
	ZIndex    int
}

func summarize(s *scene.Scene) summary {
	sum := summary{
		Paragraphs: s.Paragraphs(),
		Theme:      s.Theme,
		Mode:       s.LayoutMode,
		Date:       s.Date.Format(DateLayout),
		Location:   s.Location,
	}
	for _, n := range s.PaintOrder() {
		sum.Nodes = append(sum.Nodes, nodeSummary{n.ID, n.Kind, n.Transform, n.ZIndex})
	}
	return sum
}

func TestSceneRoundTrip(t *testing.T) {
	orig := sampleScene(t, 16)

	data, err := json.Marshal(FromScene(orig))
	if err != nil {
		t.Fatal(err)
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatal(err)
	}
	restored, err := d.Scene(media.DecodeBytes)
	if err != nil {
		t.Fatalf("Scene: %v", err)
	}
	if diff := cmp.Diff(summarize(orig), summarize(restored)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got, want := restored.Images[0].Asset.Data, orig.Images[0].Asset.Data; !bytes.Equal(got, want) {
		t.Error("image payload changed across round trip")
	}

	// New elements must stack above restored ones.
	e, err := restored.AddImage(noisyAsset(t, 4), 4, 4, scene.Transform{Width: 60, Height: 60})
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range restored.PaintOrder() {
		if n.ID != e.ID && n.ZIndex >= e.ZIndex {
			t.Errorf("restored %s has z %d >= new element z %d", n.ID, n.ZIndex, e.ZIndex)
		}
	}
}

func TestDraftJSONShape(t *testing.T) {
	data, err := json.Marshal(FromScene(sampleScene(t, 4)))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"location", "paragraphs", "images", "stickers", "date", "theme", "layoutMode", "elementPositions"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if string(raw["layoutMode"]) != `"mirrored"` || string(raw["date"]) != `"2024-03-09"` {
		t.Errorf("layoutMode=%s date=%s", raw["layoutMode"], raw["date"])
	}
}

func TestSceneWithoutPositionsUsesLayout(t *testing.T) {
	d := FromScene(sampleScene(t, 16))
	d.ElementPositions = nil

	s, err := d.Scene(media.DecodeBytes)
	if err != nil {
		t.Fatalf("Scene: %v", err)
	}
	if len(s.Images) != 1 || len(s.Stickers) != 1 || len(s.TextBlocks) != 1 {
		t.Fatalf("restored %d images, %d stickers, %d text", len(s.Images), len(s.Stickers), len(s.TextBlocks))
	}
	seen := map[int]bool{}
	for _, n := range s.PaintOrder() {
		if seen[n.ZIndex] {
			t.Errorf("duplicate z-index %d", n.ZIndex)
		}
		seen[n.ZIndex] = true
	}
}

func TestParseDataURI(t *testing.T) {
	a := &scene.Asset{Data: []byte{1, 2, 3}, Format: "jpeg"}
	mt, data, err := ParseDataURI(DataURI(a))
	if err != nil || mt != "image/jpeg" || !bytes.Equal(data, a.Data) {
		t.Errorf("ParseDataURI = %q, %v, %v", mt, data, err)
	}
	for _, bad := range []string{"", "http://x", "data:text/plain;base64,AAAA", "data:image/png;base64,@@", "data:image/png,AAAA"} {
		if _, _, err := ParseDataURI(bad); !errors.Is(err, ErrDataURI) {
			t.Errorf("ParseDataURI(%q) err = %v", bad, err)
		}
	}
}

func TestStoreSingleKey(t *testing.T) {
	mem := kv.NewMemory(0)
	st := NewStore(mem, "journal_draft")
	d := FromScene(sampleScene(t, 4))

	res, err := st.Save(context.Background(), d)
	if err != nil || res.Chunks != 0 || res.Degraded {
		t.Fatalf("Save = %+v, %v", res, err)
	}
	if diff := cmp.Diff([]string{"journal_draft"}, mem.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	got, found, err := st.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("Load found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreChunkedRoundTrip(t *testing.T) {
	mem := kv.NewMemory(0)
	st := NewStore(mem, "d", WithLimits(256, 100),
		WithClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }))
	d := FromScene(sampleScene(t, 16))

	res, err := st.Save(context.Background(), d)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.Chunks < 2 {
		t.Fatalf("Chunks = %d, want chunked save", res.Chunks)
	}
	if want := (res.Size + 99) / 100; res.Chunks != want {
		t.Errorf("Chunks = %d, want %d", res.Chunks, want)
	}
	keys := mem.Keys()
	if len(keys) != res.Chunks+1 {
		t.Errorf("keys = %v, want %d chunks plus meta", keys, res.Chunks)
	}
	for _, k := range keys {
		if k == "d" {
			t.Error("single-key value left behind by chunked save")
		}
	}

	meta, _, _ := mem.Get(context.Background(), "d_meta")
	var m Meta
	if err := json.Unmarshal(meta, &m); err != nil || m.TotalSize != res.Size || m.Chunks != res.Chunks {
		t.Errorf("meta = %s (%v)", meta, err)
	}

	got, found, err := st.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("Load found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}

	// Shrinking back below the item limit removes every chunk.
	small := Draft{Paragraphs: []string{"short"}}
	if _, err := st.Save(context.Background(), small); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"d"}, mem.Keys()); diff != "" {
		t.Errorf("keys after shrink (-want +got):\n%s", diff)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	_, found, err := NewStore(kv.NewMemory(0), "d").Load(context.Background())
	if err != nil || found {
		t.Errorf("Load on empty store found=%v err=%v", found, err)
	}
}

func TestStoreCorruptDraftIsPurged(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		setup map[string]string
	}{
		{"invalid json", map[string]string{"d": "{not json"}},
		{"invalid theme", map[string]string{"d": `{"theme":{"primary":"#zz","shadow":"#000"}}`}},
		{"missing chunk", map[string]string{
			"d_meta":    `{"chunks":3,"totalSize":30,"savedAt":"2024-01-01T00:00:00Z"}`,
			"d_chunk_0": strings.Repeat("a", 10),
			"d_chunk_1": strings.Repeat("b", 10),
		}},
		{"size mismatch", map[string]string{
			"d_meta":    `{"chunks":1,"totalSize":99,"savedAt":"2024-01-01T00:00:00Z"}`,
			"d_chunk_0": `{}`,
		}},
		{"bad meta", map[string]string{"d_meta": "][", "d_chunk_0": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := kv.NewMemory(0)
			for k, v := range tt.setup {
				_ = mem.Set(ctx, k, []byte(v))
			}
			_ = mem.Set(ctx, "other", []byte("keep"))

			_, found, err := NewStore(mem, "d").Load(ctx)
			if !errors.Is(err, ErrCorrupt) || found {
				t.Fatalf("Load found=%v err=%v, want ErrCorrupt", found, err)
			}
			if diff := cmp.Diff([]string{"other"}, mem.Keys()); diff != "" {
				t.Errorf("keys after purge (-want +got):\n%s", diff)
			}
		})
	}
}

// flakyDelete fails every Delete that touches key while armed.
type flakyDelete struct {
	kv.Client
	key   string
	armed bool
}

func (f *flakyDelete) Delete(ctx context.Context, keys ...string) (int64, error) {
	if f.armed && slices.Contains(keys, f.key) {
		return 0, errors.New("backend unavailable")
	}
	return f.Client.Delete(ctx, keys...)
}

func TestStoreShrinkReportsStaleMeta(t *testing.T) {
	ctx := context.Background()
	client := &flakyDelete{Client: kv.NewMemory(0), key: "d_meta"}
	st := NewStore(client, "d", WithLimits(256, 100))
	if res, err := st.Save(ctx, FromScene(sampleScene(t, 16))); err != nil || res.Chunks < 2 {
		t.Fatalf("chunked Save = %+v, %v", res, err)
	}

	client.armed = true
	small := Draft{Paragraphs: []string{"short"}}
	if _, err := st.Save(ctx, small); err == nil {
		t.Fatal("Save succeeded although the chunk meta could not be removed")
	}
	if got, _, err := st.Load(ctx); err != nil || cmp.Equal(small, got) {
		t.Errorf("Load after failed shrink = %+v, %v; want the previous draft", got.Paragraphs, err)
	}

	client.armed = false
	if _, err := st.Save(ctx, small); err != nil {
		t.Fatal(err)
	}
	got, found, err := st.Load(ctx)
	if err != nil || !found {
		t.Fatalf("Load found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(small, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreDegradedSave(t *testing.T) {
	// Every chunk exceeds the backend quota; only a text-only draft fits.
	mem := kv.NewMemory(600)
	st := NewStore(mem, "d", WithLimits(600, 1000))
	d := FromScene(sampleScene(t, 24))

	res, err := st.Save(context.Background(), d)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !res.Degraded {
		t.Fatal("expected degraded save")
	}
	got, found, err := st.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("Load found=%v err=%v", found, err)
	}
	if got.HasMedia() {
		t.Error("degraded draft still carries media")
	}
	if diff := cmp.Diff(d.Paragraphs, got.Paragraphs); diff != "" {
		t.Errorf("paragraphs (-want +got):\n%s", diff)
	}
	if len(got.ElementPositions) != 1 || got.ElementPositions[0].Kind != "text" {
		t.Errorf("positions = %+v", got.ElementPositions)
	}
}

func TestStoreSaveFailsWithoutMedia(t *testing.T) {
	st := NewStore(kv.NewMemory(10), "d")
	_, err := st.Save(context.Background(), Draft{Paragraphs: []string{"a long enough paragraph"}})
	if !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Errorf("err = %v, want quota error", err)
	}
}
