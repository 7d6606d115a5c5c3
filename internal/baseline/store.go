package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrBaselineNotFound is returned when a baseline doesn't exist.
var ErrBaselineNotFound = errors.New("baseline not found")

// ErrEmptyName is returned when saving a baseline without a name.
var ErrEmptyName = errors.New("baseline name is empty")

// Store manages baseline persistence.
type Store struct {
	Dir string // Base directory for baselines
}

// NewStore creates a store with the given directory.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// DirEnvVar overrides the default baseline directory.
const DirEnvVar = "OVCONFIG_BASELINE_DIR"

// DefaultDir returns the default baseline directory (~/.ovconfig/baselines).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ovconfig/baselines"
	}
	return filepath.Join(home, ".ovconfig", "baselines")
}

// ResolveDir returns the baseline directory from env var or default.
func ResolveDir(environ []string) string {
	for _, env := range environ {
		if strings.HasPrefix(env, DirEnvVar+"=") {
			return strings.TrimPrefix(env, DirEnvVar+"=")
		}
	}
	return DefaultDir()
}

// Save stores a baseline under its name, replacing any previous one.
func (s *Store) Save(b Baseline) error {
	if b.Name == "" {
		return ErrEmptyName
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode baseline '%s': %w", b.Name, err)
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path(b.Name), append(data, '\n'), 0644)
}

// Load retrieves a baseline by name.
func (s *Store) Load(name string) (Baseline, error) {
	b, err := readBaseline(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return Baseline{}, fmt.Errorf("%w: %s", ErrBaselineNotFound, name)
	}
	return b, err
}

// List returns a summary of every readable baseline, sorted by name.
// Files that fail to decode are skipped.
func (s *Store) List() ([]BaselineSummary, error) {
	paths, err := filepath.Glob(filepath.Join(s.Dir, "*"+fileExt))
	if err != nil {
		return nil, err
	}

	summaries := []BaselineSummary{}
	for _, path := range paths {
		b, err := readBaseline(path)
		if err != nil {
			continue
		}
		summaries = append(summaries, b.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}

// Delete removes a baseline by name.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrBaselineNotFound, name)
	}
	return err
}

// Exists checks if a baseline exists.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

const fileExt = ".json"

// nameReplacer keeps baseline names inside the store directory
var nameReplacer = strings.NewReplacer("/", "_", "\\", "_")

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, nameReplacer.Replace(name)+fileExt)
}

func readBaseline(path string) (Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Baseline{}, err
	}
	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return Baseline{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return b, nil
}
