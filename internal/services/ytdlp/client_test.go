package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dubber/internal/procrun"
	"dubber/internal/services"
)

type fakeRunner struct {
	calls   []procrun.Command
	results []procrun.Result
	err     error
	// onRun lets a test observe or react to each invocation.
	onRun func(cmd procrun.Command)
}

func (f *fakeRunner) Run(_ context.Context, cmd procrun.Command, _ time.Duration) (procrun.Result, error) {
	f.calls = append(f.calls, cmd)
	if f.onRun != nil {
		f.onRun(cmd)
	}
	if f.err != nil {
		return procrun.Result{}, f.err
	}
	if len(f.results) == 0 {
		return procrun.Result{ExitCode: 0}, nil
	}
	result := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return result, nil
}

func newClient(t *testing.T, opts Options, runner Runner) *Client {
	t.Helper()
	if opts.Binary == "" {
		opts.Binary = "yt-dlp"
	}
	client, err := New(opts, runner)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestTitleSuccess(t *testing.T) {
	runner := &fakeRunner{results: []procrun.Result{{ExitCode: 0, Stdout: "Some Title\n"}}}
	client := newClient(t, Options{}, runner)

	title, err := client.Title(context.Background(), "https://youtu.be/ABCDEFGHIJK", time.Minute)
	if err != nil {
		t.Fatalf("Title failed: %v", err)
	}
	if title != "Some Title" {
		t.Fatalf("title = %q", title)
	}
	args := runner.calls[0].Args
	if args[0] != "--print" || args[1] != "title" {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestTitleRequestsMetadataLanguage(t *testing.T) {
	runner := &fakeRunner{results: []procrun.Result{{ExitCode: 0, Stdout: "Название\n"}}}
	client := newClient(t, Options{AudioLanguage: "ru"}, runner)

	if _, err := client.Title(context.Background(), "https://youtu.be/ABCDEFGHIJK", time.Minute); err != nil {
		t.Fatalf("Title failed: %v", err)
	}
	joined := strings.Join(runner.calls[0].Args, " ")
	if !strings.Contains(joined, "--extractor-args youtube:lang=ru") {
		t.Fatalf("extractor args missing: %s", joined)
	}

	plain := &fakeRunner{results: []procrun.Result{{ExitCode: 0, Stdout: "Title\n"}}}
	if _, err := newClient(t, Options{}, plain).Title(context.Background(), "url", time.Minute); err != nil {
		t.Fatalf("Title failed: %v", err)
	}
	if strings.Contains(strings.Join(plain.calls[0].Args, " "), "--extractor-args") {
		t.Fatalf("extractor args present without a language: %#v", plain.calls[0].Args)
	}
}

func TestTitleFailures(t *testing.T) {
	cases := []struct {
		name     string
		result   procrun.Result
		sentinel error
	}{
		{"non-zero exit", procrun.Result{ExitCode: 1}, services.ErrExternalTool},
		{"empty output", procrun.Result{ExitCode: 0, Stdout: "  \n"}, services.ErrExternalTool},
		{"timeout", procrun.Result{TimedOut: true}, services.ErrTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{results: []procrun.Result{tc.result}}
			client := newClient(t, Options{}, runner)
			_, err := client.Title(context.Background(), "url", time.Minute)
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("expected %v classification, got %v", tc.sentinel, err)
			}
		})
	}
}

func TestFormatSelector(t *testing.T) {
	withLang := newClient(t, Options{MaxHeight: 1080, AudioLanguage: "ru"}, &fakeRunner{})
	want := "bestvideo[height<=1080]+ba[language=ru]/bestvideo[height<=1080]+ba/best"
	if got := withLang.FormatSelector(); got != want {
		t.Fatalf("FormatSelector = %q, want %q", got, want)
	}

	noLang := newClient(t, Options{MaxHeight: 720}, &fakeRunner{})
	if got := noLang.FormatSelector(); got != "bestvideo[height<=720]+ba/best" {
		t.Fatalf("FormatSelector = %q", got)
	}
}

func TestDownloadArgs(t *testing.T) {
	runner := &fakeRunner{}
	client := newClient(t, Options{AudioLanguage: "ru"}, runner)

	if _, err := client.Download(context.Background(), "https://youtu.be/ABCDEFGHIJK", "/tmp/video.mp4", time.Minute); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	joined := strings.Join(runner.calls[0].Args, " ")
	for _, fragment := range []string{
		"-f bestvideo[height<=1080]+ba[language=ru]",
		"--merge-output-format mp4",
		"--write-thumbnail",
		"--convert-thumbnails jpg",
		"--extractor-args youtube:lang=ru",
		"-o /tmp/video.mp4",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("args missing %q: %s", fragment, joined)
		}
	}
	if strings.Contains(joined, "--cookies ") {
		t.Fatalf("cookies flag present without cookies file: %s", joined)
	}
}

func TestCookiesAppendedWhenFileExists(t *testing.T) {
	cookies := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(cookies, []byte("# netscape"), 0o644); err != nil {
		t.Fatalf("write cookies: %v", err)
	}
	runner := &fakeRunner{results: []procrun.Result{{ExitCode: 0, Stdout: "T"}}}
	client := newClient(t, Options{CookiesFile: cookies}, runner)

	if _, err := client.Title(context.Background(), "url", time.Minute); err != nil {
		t.Fatalf("Title failed: %v", err)
	}
	joined := strings.Join(runner.calls[0].Args, " ")
	if !strings.Contains(joined, "--cookies "+cookies) {
		t.Fatalf("cookies flag missing: %s", joined)
	}
}

func TestExtractCookiesFirstBrowserWins(t *testing.T) {
	cookies := filepath.Join(t.TempDir(), "cookies.txt")
	runner := &fakeRunner{
		results: []procrun.Result{{ExitCode: 1}, {ExitCode: 0}},
	}
	runner.onRun = func(cmd procrun.Command) {
		// Second attempt (firefox) succeeds and produces the file.
		if len(runner.calls) == 2 {
			_ = os.WriteFile(cookies, []byte("# netscape"), 0o644)
		}
	}
	client := newClient(t, Options{CookiesFile: cookies}, runner)

	browser := client.ExtractCookies(context.Background(), nil)
	if browser != "firefox" {
		t.Fatalf("expected firefox, got %q", browser)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(runner.calls))
	}
}

func TestExtractCookiesAllFail(t *testing.T) {
	runner := &fakeRunner{results: []procrun.Result{{ExitCode: 1}}}
	client := newClient(t, Options{CookiesFile: filepath.Join(t.TempDir(), "cookies.txt")}, runner)

	if browser := client.ExtractCookies(context.Background(), nil); browser != "" {
		t.Fatalf("expected no browser, got %q", browser)
	}
	if len(runner.calls) != len(cookieBrowsers) {
		t.Fatalf("expected %d attempts, got %d", len(cookieBrowsers), len(runner.calls))
	}
}
