// Package backup keeps timestamped copies of the database file next to a
// small JSON sidecar that records when the scheduled backups last ran.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rongwang/cgtracker/internal/config"
	"go.uber.org/zap"
)

// Backup kinds
const (
	KindManual    = "manual"
	KindMorning   = "morning"
	KindAfternoon = "afternoon"
)

const (
	filePrefix     = "cg_management_"
	fileExt        = ".db"
	fileTimeLayout = "20060102_150405"
	fileDateLayout = "20060102"

	// MetaFileName is the sidecar holding the last scheduled backup times
	MetaFileName    = "cg_backup_meta.json"
	morningLayout   = "2006-01-02"
	afternoonLayout = "2006-01-02 15:04:05"
	dayLayout       = "2006-01-02"
)

// Snapshotter writes a consistent copy of the database to a new file
type Snapshotter interface {
	Snapshot(ctx context.Context, dest string) error
}

// Info describes one backup file
type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Result is a backup taken by RunScheduled
type Result struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// meta is the sidecar file format
type meta struct {
	LastMorningBackup   *string `json:"last_morning_backup"`
	LastAfternoonBackup *string `json:"last_afternoon_backup"`
}

// Manager creates, schedules and prunes backups in one directory
type Manager struct {
	dir            string
	retention      time.Duration
	afternoonStart int
	afternoonEnd   int
	snap           Snapshotter
	logger         *zap.Logger
	now            func() time.Time
}

// NewManager creates a backup manager. Scheduling uses the local clock.
func NewManager(cfg config.BackupConfig, snap Snapshotter, logger *zap.Logger) *Manager {
	return &Manager{
		dir:            cfg.Dir,
		retention:      time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		afternoonStart: cfg.AfternoonStartHour,
		afternoonEnd:   cfg.AfternoonEndHour,
		snap:           snap,
		logger:         logger,
		now:            time.Now,
	}
}

// SetClock replaces the time source
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Dir returns the backup directory
func (m *Manager) Dir() string {
	return m.dir
}

// Backup takes a backup now and returns the file name
func (m *Manager) Backup(ctx context.Context, kind string) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	base := filePrefix + m.now().Format(fileTimeLayout)
	name := base + fileExt
	// Two backups within the same second get a numeric suffix
	for i := 2; fileExists(filepath.Join(m.dir, name)); i++ {
		name = fmt.Sprintf("%s_%d%s", base, i, fileExt)
	}

	if err := m.snap.Snapshot(ctx, filepath.Join(m.dir, name)); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	m.logger.Info("backup created", zap.String("kind", kind), zap.String("file", name))
	return name, nil
}

// RunScheduled takes the morning backup when none was taken today and the
// afternoon backup when inside the afternoon window and none was taken
// today, then prunes expired backups.
func (m *Manager) RunScheduled(ctx context.Context) ([]Result, error) {
	state := m.loadMeta()
	now := m.now()
	today := now.Format(dayLayout)

	var (
		results []Result
		errs    []error
	)

	if state.LastMorningBackup == nil || dayOf(*state.LastMorningBackup, morningLayout, now.Location()) < today {
		name, err := m.Backup(ctx, KindMorning)
		if err != nil {
			errs = append(errs, err)
		} else {
			stamp := now.Format(morningLayout)
			state.LastMorningBackup = &stamp
			results = append(results, Result{Kind: KindMorning, Name: name})
		}
	}

	inWindow := now.Hour() >= m.afternoonStart && now.Hour() < m.afternoonEnd
	if inWindow && (state.LastAfternoonBackup == nil || dayOf(*state.LastAfternoonBackup, afternoonLayout, now.Location()) < today) {
		name, err := m.Backup(ctx, KindAfternoon)
		if err != nil {
			errs = append(errs, err)
		} else {
			stamp := now.Format(afternoonLayout)
			state.LastAfternoonBackup = &stamp
			results = append(results, Result{Kind: KindAfternoon, Name: name})
		}
	}

	if len(results) > 0 {
		if err := m.saveMeta(state); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := m.Prune(); err != nil {
		errs = append(errs, err)
	}

	return results, errors.Join(errs...)
}

// Prune deletes backups whose file name date is older than the retention window
func (m *Manager) Prune() (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read backup dir: %w", err)
	}

	cutoff := m.now().Add(-m.retention)
	deleted := 0
	for _, entry := range entries {
		day, ok := backupDate(entry.Name(), m.now().Location())
		if !ok || !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err != nil {
			return deleted, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		deleted++
	}

	if deleted > 0 {
		m.logger.Info("pruned old backups", zap.Int("count", deleted))
	}
	return deleted, nil
}

// List returns the backups newest first
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	infos := []Info{}
	for _, entry := range entries {
		if _, ok := backupDate(entry.Name(), time.Local); !ok {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, Info{Name: entry.Name(), Size: fi.Size(), CreatedAt: fi.ModTime()})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name > infos[j].Name
	})
	return infos, nil
}

// RemoveAll deletes the backup directory with every backup and the sidecar
func (m *Manager) RemoveAll() error {
	return os.RemoveAll(m.dir)
}

func (m *Manager) loadMeta() meta {
	var state meta

	raw, err := os.ReadFile(filepath.Join(m.dir, MetaFileName))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("could not read backup metadata, resetting", zap.Error(err))
		}
		return meta{}
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		m.logger.Warn("could not parse backup metadata, resetting", zap.Error(err))
		return meta{}
	}
	return state
}

func (m *Manager) saveMeta(state meta) error {
	raw, err := json.MarshalIndent(&state, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(m.dir, MetaFileName), raw, 0o644); err != nil {
		return fmt.Errorf("save backup metadata: %w", err)
	}
	return nil
}

// dayOf reformats a sidecar timestamp as YYYY-MM-DD. Unparseable values
// sort before any real day so the backup is taken again.
func dayOf(value, layout string, loc *time.Location) string {
	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return ""
	}
	return t.Format(dayLayout)
}

// backupDate extracts the day from a backup file name
func backupDate(name string, loc *time.Location) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
		return time.Time{}, false
	}
	datePart, _, _ := strings.Cut(strings.TrimPrefix(name, filePrefix), "_")
	day, err := time.ParseInLocation(fileDateLayout, datePart, loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
