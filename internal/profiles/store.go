// Package profiles persists workspace profiles as one YAML file per profile.
package profiles

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/model"
)

const ext = ".yaml"

var (
	ErrNotFound    = errors.New("profile not found")
	ErrExists      = errors.New("profile already exists")
	ErrInvalidName = errors.New("invalid profile name")
)

// Store reads and writes profiles under a single directory.
type Store struct {
	dir string
	log *logging.Logger
}

// NewStore returns a store rooted at dir, creating it if needed.
func NewStore(dir string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating profiles dir: %w", err)
	}
	return &Store{dir: dir, log: log.Named("profiles")}, nil
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// ValidateName rejects names that cannot be used as a file name.
func ValidateName(name string) error {
	n := strings.TrimSpace(name)
	if n == "" || n != name || n == "." || n == ".." || strings.ContainsAny(n, `/\`) || strings.ContainsRune(n, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+ext)
}

// LoadAll returns every readable profile sorted by display order, then name.
// Files that fail to parse are skipped with a warning.
func (s *Store) LoadAll() ([]*model.WorkspaceProfile, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+ext))
	if err != nil {
		return nil, err
	}
	var out []*model.WorkspaceProfile
	for _, f := range matches {
		p, err := readFile(f)
		if err != nil {
			s.log.Warn("skipping unreadable profile", zap.String("file", f), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Names returns the profile names in LoadAll order.
func (s *Store) Names() ([]string, error) {
	all, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	return names, nil
}

// Load reads a single profile by name.
func (s *Store) Load(name string) (*model.WorkspaceProfile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	p, err := readFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, err
}

// Fingerprint returns a digest of the profile file as it is on disk.
func (s *Store) Fingerprint(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Save writes the profile to <name>.yaml and clears its dirty flag.
func (s *Store) Save(p *model.WorkspaceProfile) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	data, err := yaml.Marshal(persisted(p))
	if err != nil {
		return fmt.Errorf("encoding profile %s: %w", p.Name, err)
	}
	if err := writeAtomic(s.path(p.Name), data); err != nil {
		return fmt.Errorf("writing profile %s: %w", p.Name, err)
	}
	p.ClearDirty()
	s.log.Debug("saved profile", zap.String("profile", p.Name), zap.Int("apps", len(p.Apps)))
	return nil
}

// Rename moves a profile file and rewrites the name stored inside it.
func (s *Store) Rename(oldName, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	p, err := s.Load(oldName)
	if err != nil {
		return err
	}
	if _, err := os.Stat(s.path(newName)); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, newName)
	}
	p.Name = newName
	if err := s.Save(p); err != nil {
		return err
	}
	return os.Remove(s.path(oldName))
}

// Delete removes a profile. Deleting a missing profile is not an error.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Reorder assigns display orders following names and saves each profile.
// Profiles not named keep their relative order after the named ones.
func (s *Store) Reorder(names []string) error {
	all, err := s.LoadAll()
	if err != nil {
		return err
	}
	byName := make(map[string]*model.WorkspaceProfile, len(all))
	for _, p := range all {
		byName[p.Name] = p
	}
	ordered := make([]*model.WorkspaceProfile, 0, len(all))
	seen := make(map[string]bool)
	for _, n := range names {
		p, ok := byName[n]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, n)
		}
		if !seen[n] {
			ordered = append(ordered, p)
			seen[n] = true
		}
	}
	for _, p := range all {
		if !seen[p.Name] {
			ordered = append(ordered, p)
		}
	}
	for i, p := range ordered {
		p.DisplayOrder = i
		if err := s.Save(p); err != nil {
			return err
		}
	}
	return nil
}

func readFile(path string) (*model.WorkspaceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p model.WorkspaceProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), ext)
	}
	return &p, nil
}

func persisted(p *model.WorkspaceProfile) *model.WorkspaceProfile {
	out := &model.WorkspaceProfile{
		Name:                 p.Name,
		WallpaperPath:        p.WallpaperPath,
		Volume:               p.Volume,
		VirtualDesktopID:     p.VirtualDesktopID,
		RenameVirtualDesktop: p.RenameVirtualDesktop,
		DisplayOrder:         p.DisplayOrder,
		Apps:                 make([]*model.ApplicationEntry, len(p.Apps)),
	}
	for i, e := range p.Apps {
		out.Apps[i] = e.Persisted()
	}
	return out
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
