package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// timestampLayout matches the journal line format: [YYYY-MM-DD HH:MM:SS].
const timestampLayout = "2006-01-02 15:04:05"

// locatorPattern is the inverse of the line format, extracting the locator
// from "[timestamp] <locator> - <reason>".
var locatorPattern = regexp.MustCompile(`\] (https?://\S+) -`)

// Journal appends failure records to a durable text file. Appends are
// unit-of-call atomic: an in-process mutex serializes concurrent workers and
// a file lock excludes concurrent processes.
type Journal struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
	now  func() time.Time
}

// New creates a journal writing to path. The file is created lazily on the
// first append.
func New(path string) *Journal {
	return &Journal{
		path: path,
		lock: flock.New(path + ".lock"),
		now:  time.Now,
	}
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Append writes one failure record. The reason should be a short
// human-readable cause; newlines are flattened so one failure is always one
// line.
func (j *Journal) Append(locator, reason string) error {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return errors.New("locator required")
	}
	reason = strings.Join(strings.Fields(reason), " ")
	if reason == "" {
		reason = "unknown failure"
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("ensure journal directory: %w", err)
	}
	if err := j.lock.Lock(); err != nil {
		return fmt.Errorf("acquire journal lock: %w", err)
	}
	defer func() { _ = j.lock.Unlock() }()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	line := fmt.Sprintf("[%s] %s - %s\n", j.now().Format(timestampLayout), locator, reason)
	if _, err := file.WriteString(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("append journal line: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}

// CandidateLocators scans prior entries and returns the deduplicated set of
// failed locators, sorted for stable output. A missing journal file yields an
// empty list.
func (j *Journal) CandidateLocators() ([]string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.Open(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	seen := make(map[string]struct{})
	var locators []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		match := locatorPattern.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		locators = append(locators, match[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	sort.Strings(locators)
	return locators, nil
}
