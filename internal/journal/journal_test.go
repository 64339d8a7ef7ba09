package journal

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAppendLineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	j := New(path)
	j.now = func() time.Time {
		return time.Date(2026, 8, 28, 13, 45, 2, 0, time.UTC)
	}

	if err := j.Append("https://youtu.be/ABCDEFGHIJK", "no speech track (2.0KB)"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	want := "[2026-08-28 13:45:02] https://youtu.be/ABCDEFGHIJK - no speech track (2.0KB)\n"
	if string(data) != want {
		t.Fatalf("journal line = %q, want %q", string(data), want)
	}
}

func TestAppendReusableAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	j := New(path)

	if err := j.Append("https://youtu.be/AAAAAAAAAAA", "mix failed"); err != nil {
		t.Fatalf("first Append failed: %v", err)
	}
	if err := j.Append("https://youtu.be/BBBBBBBBBBB", "source fetch failed"); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}
	if !strings.Contains(lines[0], "AAAAAAAAAAA") || !strings.Contains(lines[1], "BBBBBBBBBBB") {
		t.Fatalf("unexpected line order: %q", lines)
	}
}

func TestAppendFlattensNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	j := New(path)

	if err := j.Append("https://youtu.be/ABCDEFGHIJK", "line one\nline two"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 1 {
		t.Fatalf("expected a single line, got %d newlines: %q", got, string(data))
	}
}

func TestCandidateLocatorsDedupes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	j := New(path)

	entries := []string{
		"https://www.youtube.com/watch?v=AAAAAAAAAAA",
		"https://www.youtube.com/watch?v=BBBBBBBBBBB",
		"https://www.youtube.com/watch?v=AAAAAAAAAAA",
	}
	for _, locator := range entries {
		if err := j.Append(locator, "timeout after 700s"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	locators, err := j.CandidateLocators()
	if err != nil {
		t.Fatalf("CandidateLocators failed: %v", err)
	}
	want := []string{
		"https://www.youtube.com/watch?v=AAAAAAAAAAA",
		"https://www.youtube.com/watch?v=BBBBBBBBBBB",
	}
	if !reflect.DeepEqual(locators, want) {
		t.Fatalf("CandidateLocators = %#v, want %#v", locators, want)
	}
}

func TestCandidateLocatorsMissingFile(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "failed.txt"))
	locators, err := j.CandidateLocators()
	if err != nil {
		t.Fatalf("CandidateLocators failed: %v", err)
	}
	if len(locators) != 0 {
		t.Fatalf("expected no locators, got %#v", locators)
	}
}

func TestCandidateLocatorsSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	body := "garbage line\n[2026-08-28 10:00:00] https://youtu.be/CCCCCCCCCCC - mix failed\nnot a url - reason\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("seed journal: %v", err)
	}

	locators, err := New(path).CandidateLocators()
	if err != nil {
		t.Fatalf("CandidateLocators failed: %v", err)
	}
	if len(locators) != 1 || locators[0] != "https://youtu.be/CCCCCCCCCCC" {
		t.Fatalf("unexpected locators: %#v", locators)
	}
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.txt")
	j := New(path)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := j.Append("https://youtu.be/DDDDDDDDDDD", "source fetch failed"); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	linePattern := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] https://youtu\.be/DDDDDDDDDDD - source fetch failed$`)
	for _, line := range lines {
		if !linePattern.MatchString(line) {
			t.Fatalf("malformed journal line: %q", line)
		}
	}
}
