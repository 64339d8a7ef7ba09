package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"dubber/internal/config"
	"dubber/internal/ledger"
	"dubber/internal/mediaid"
	"dubber/internal/procrun"
	"dubber/internal/testsupport"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t)
}

type fakeAudio struct {
	result procrun.Result
	err    error
	// sizeKB controls the artifact written into the work directory; zero
	// writes nothing.
	sizeKB int
	calls  int
}

func (f *fakeAudio) FetchAudio(ctx context.Context, locator, outDir string, deadline time.Duration) (procrun.Result, error) {
	f.calls++
	if f.sizeKB > 0 {
		data := make([]byte, f.sizeKB*1024)
		if err := os.WriteFile(filepath.Join(outDir, "track.mp3"), data, 0o644); err != nil {
			return procrun.Result{}, err
		}
	}
	return f.result, f.err
}

type fakeSource struct {
	title      string
	titleErr   error
	downloadOK bool
	thumbnail  string // "jpg", "webp", or ""
	result     procrun.Result
}

func (f *fakeSource) Title(ctx context.Context, locator string, deadline time.Duration) (string, error) {
	if f.titleErr != nil {
		return "", f.titleErr
	}
	return f.title, nil
}

func (f *fakeSource) Download(ctx context.Context, locator, destPath string, deadline time.Duration) (procrun.Result, error) {
	if f.downloadOK {
		if err := os.WriteFile(destPath, []byte("video"), 0o644); err != nil {
			return procrun.Result{}, err
		}
	}
	if f.thumbnail != "" {
		base := strings.TrimSuffix(destPath, filepath.Ext(destPath))
		if err := os.WriteFile(base+"."+f.thumbnail, []byte("thumb"), 0o644); err != nil {
			return procrun.Result{}, err
		}
	}
	return f.result, nil
}

type fakeMixer struct {
	mixResult     procrun.Result
	mixErr        error
	convertResult procrun.Result
}

func (f *fakeMixer) Mix(ctx context.Context, videoPath, audioPath, outPath string, originalVolume, translationVolume float64, deadline time.Duration) (procrun.Result, error) {
	if f.mixErr == nil && f.mixResult.ExitCode == 0 && !f.mixResult.TimedOut {
		if err := os.WriteFile(outPath, []byte("mixed media"), 0o644); err != nil {
			return procrun.Result{}, err
		}
	}
	return f.mixResult, f.mixErr
}

func (f *fakeMixer) ConvertImage(ctx context.Context, src, dst string, deadline time.Duration) (procrun.Result, error) {
	if f.convertResult.Success() {
		if err := os.WriteFile(dst, []byte("converted"), 0o644); err != nil {
			return procrun.Result{}, err
		}
	}
	return f.convertResult, nil
}

type memLedger struct {
	mu      sync.Mutex
	entries map[string]ledger.Entry
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]ledger.Entry)}
}

func (m *memLedger) Exists(ctx context.Context, videoID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[videoID]
	return ok, nil
}

func (m *memLedger) Upsert(ctx context.Context, entry ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.VideoID] = entry
	return nil
}

type memJournal struct {
	mu      sync.Mutex
	records []string
}

func (m *memJournal) Append(locator, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, locator+" - "+reason)
	return nil
}

func (m *memJournal) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.records...)
}

func testVideo(t *testing.T, raw string) mediaid.Video {
	t.Helper()
	return mediaid.Normalize(raw)
}

func newTestDriver(t *testing.T, cfg *config.Config, deps Deps, longMode bool) *Driver {
	t.Helper()
	driver, err := NewDriver(cfg, deps, longMode, WithSleep(func(context.Context, time.Duration) {}))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return driver
}

func TestDriverSuccess(t *testing.T) {
	cfg := newTestConfig(t)
	store := newMemLedger()
	journal := &memJournal{}
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 64},
		Source:  &fakeSource{title: "Sample Clip", downloadOK: true},
		Mixer:   &fakeMixer{},
		Ledger:  store,
		Journal: journal,
	}
	driver := newTestDriver(t, cfg, deps, false)

	video := testVideo(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	outcome := driver.Process(context.Background(), video)

	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.FinalState != StatePersisted {
		t.Fatalf("final state = %s, want %s", outcome.FinalState, StatePersisted)
	}
	wantPath := filepath.Join(cfg.VideosDir(), "Sample Clip.mp4")
	if outcome.Message != wantPath {
		t.Fatalf("message = %q, want %q", outcome.Message, wantPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("final artifact missing: %v", err)
	}
	entry, ok := store.entries["dQw4w9WgXcQ"]
	if !ok {
		t.Fatal("expected ledger entry")
	}
	if entry.Title != "Sample Clip" || entry.URL != video.Locator {
		t.Fatalf("unexpected ledger entry: %+v", entry)
	}
	if len(journal.all()) != 0 {
		t.Fatalf("expected empty journal, got %v", journal.all())
	}

	leftovers, err := filepath.Glob(filepath.Join(cfg.VideosDir(), "temp_*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("work directories not cleaned up: %v", leftovers)
	}
}

func TestDriverSkipsProcessedItem(t *testing.T) {
	cfg := newTestConfig(t)
	store := newMemLedger()
	store.entries["dQw4w9WgXcQ"] = ledger.Entry{VideoID: "dQw4w9WgXcQ"}
	audio := &fakeAudio{sizeKB: 64}
	deps := Deps{
		Audio:   audio,
		Source:  &fakeSource{downloadOK: true},
		Mixer:   &fakeMixer{},
		Ledger:  store,
		Journal: &memJournal{},
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ"))

	if !outcome.Skipped || outcome.Success {
		t.Fatalf("expected skip, got %+v", outcome)
	}
	if audio.calls != 0 {
		t.Fatalf("audio stage ran %d times for a skipped item", audio.calls)
	}
}

func TestDriverNoSpeechTrack(t *testing.T) {
	cfg := newTestConfig(t)
	store := newMemLedger()
	journal := &memJournal{}
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 2},
		Source:  &fakeSource{downloadOK: true},
		Mixer:   &fakeMixer{},
		Ledger:  store,
		Journal: journal,
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/watch?v=aaaaaaaaaaa"))

	if outcome.Success || outcome.FinalState != StateFailed {
		t.Fatalf("expected failure, got %+v", outcome)
	}
	if !strings.Contains(outcome.Message, "no speech track") {
		t.Fatalf("message = %q, want no speech track reason", outcome.Message)
	}
	records := journal.all()
	if len(records) != 1 || !strings.Contains(records[0], "no speech track") {
		t.Fatalf("journal records = %v", records)
	}
	// Reasons land in the journal as plain operator text, without the
	// classifier prefix stage errors carry internally.
	if strings.Contains(records[0], "validation error") {
		t.Fatalf("journal reason leaks classifier prefix: %q", records[0])
	}
	if len(store.entries) != 0 {
		t.Fatalf("failed item must not reach the ledger: %v", store.entries)
	}
}

func TestDriverAudioTimeout(t *testing.T) {
	cfg := newTestConfig(t)
	journal := &memJournal{}
	deps := Deps{
		Audio:   &fakeAudio{result: procrun.Result{TimedOut: true, ExitCode: -1}},
		Source:  &fakeSource{downloadOK: true},
		Mixer:   &fakeMixer{},
		Ledger:  newMemLedger(),
		Journal: journal,
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/watch?v=bbbbbbbbbbb"))

	if !strings.Contains(outcome.Message, "translation timeout") {
		t.Fatalf("message = %q, want timeout reason", outcome.Message)
	}
	if len(journal.all()) != 1 {
		t.Fatalf("expected one journal record, got %v", journal.all())
	}
}

func TestDriverTitleFallsBackToID(t *testing.T) {
	cfg := newTestConfig(t)
	store := newMemLedger()
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 64},
		Source:  &fakeSource{titleErr: os.ErrDeadlineExceeded, downloadOK: true},
		Mixer:   &fakeMixer{},
		Ledger:  store,
		Journal: &memJournal{},
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/watch?v=ccccccccccc"))

	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	wantPath := filepath.Join(cfg.VideosDir(), "ccccccccccc.mp4")
	if outcome.Message != wantPath {
		t.Fatalf("message = %q, want %q", outcome.Message, wantPath)
	}
	if store.entries["ccccccccccc"].Title != "ccccccccccc" {
		t.Fatalf("ledger title = %q, want video id", store.entries["ccccccccccc"].Title)
	}
}

func TestDriverSourceFetchLeavesNoFile(t *testing.T) {
	cfg := newTestConfig(t)
	journal := &memJournal{}
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 64},
		Source:  &fakeSource{title: "Clip", downloadOK: false},
		Mixer:   &fakeMixer{},
		Ledger:  newMemLedger(),
		Journal: journal,
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/watch?v=ddddddddddd"))

	if outcome.Message != "source fetch failed" {
		t.Fatalf("message = %q, want source fetch failed", outcome.Message)
	}
	if len(journal.all()) != 1 {
		t.Fatalf("expected one journal record, got %v", journal.all())
	}
}

func TestDriverMixFailure(t *testing.T) {
	cfg := newTestConfig(t)
	store := newMemLedger()
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 64},
		Source:  &fakeSource{title: "Clip", downloadOK: true},
		Mixer:   &fakeMixer{mixResult: procrun.Result{ExitCode: 1}},
		Ledger:  store,
		Journal: &memJournal{},
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/watch?v=eeeeeeeeeee"))

	if outcome.Message != "mix failed" {
		t.Fatalf("message = %q, want mix failed", outcome.Message)
	}
	if len(store.entries) != 0 {
		t.Fatalf("failed mix must not reach the ledger: %v", store.entries)
	}
}

func TestDriverLongModeAppendsID(t *testing.T) {
	cfg := newTestConfig(t)
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 64},
		Source:  &fakeSource{title: "Documentary", downloadOK: true},
		Mixer:   &fakeMixer{},
		Ledger:  newMemLedger(),
		Journal: &memJournal{},
	}
	driver := newTestDriver(t, cfg, deps, true)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/watch?v=fffffffffff"))

	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	wantPath := filepath.Join(cfg.VideosDir(), "Documentary_fffffffffff.mp4")
	if outcome.Message != wantPath {
		t.Fatalf("message = %q, want %q", outcome.Message, wantPath)
	}
}

func TestDriverShortCategoryOutput(t *testing.T) {
	cfg := newTestConfig(t)
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 64},
		Source:  &fakeSource{title: "Quick One", downloadOK: true},
		Mixer:   &fakeMixer{},
		Ledger:  newMemLedger(),
		Journal: &memJournal{},
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/shorts/ggggggggggg"))

	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.Category != mediaid.CategoryShort {
		t.Fatalf("category = %s, want short-form", outcome.Category)
	}
	if filepath.Dir(outcome.Message) != cfg.ShortsDir() {
		t.Fatalf("output %q not under shorts dir", outcome.Message)
	}
}

func TestDriverAdoptsJpgThumbnail(t *testing.T) {
	cfg := newTestConfig(t)
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 64},
		Source:  &fakeSource{title: "Thumbed", downloadOK: true, thumbnail: "jpg"},
		Mixer:   &fakeMixer{},
		Ledger:  newMemLedger(),
		Journal: &memJournal{},
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/watch?v=hhhhhhhhhhh"))

	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if _, err := os.Stat(filepath.Join(cfg.VideosDir(), "Thumbed.jpg")); err != nil {
		t.Fatalf("thumbnail not adopted: %v", err)
	}
}

func TestDriverConvertsWebpThumbnail(t *testing.T) {
	cfg := newTestConfig(t)
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 64},
		Source:  &fakeSource{title: "Webp", downloadOK: true, thumbnail: "webp"},
		Mixer:   &fakeMixer{},
		Ledger:  newMemLedger(),
		Journal: &memJournal{},
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://www.youtube.com/watch?v=iiiiiiiiiii"))

	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if _, err := os.Stat(filepath.Join(cfg.VideosDir(), "Webp.jpg")); err != nil {
		t.Fatalf("thumbnail not converted: %v", err)
	}
}

func TestDriverUnrecognizedLocator(t *testing.T) {
	cfg := newTestConfig(t)
	journal := &memJournal{}
	deps := Deps{
		Audio:   &fakeAudio{sizeKB: 64},
		Source:  &fakeSource{downloadOK: true},
		Mixer:   &fakeMixer{},
		Ledger:  newMemLedger(),
		Journal: journal,
	}
	driver := newTestDriver(t, cfg, deps, false)

	outcome := driver.Process(context.Background(), testVideo(t, "https://example.com/clip"))

	if outcome.Success || outcome.FinalState != StateFailed {
		t.Fatalf("expected failure, got %+v", outcome)
	}
	if !strings.Contains(outcome.Message, "unrecognized locator") {
		t.Fatalf("message = %q", outcome.Message)
	}
	// The raw form cannot drive a journal retry, so nothing is appended.
	if records := journal.all(); len(records) != 0 {
		t.Fatalf("unrecognized locator must not be journaled: %v", records)
	}
}
