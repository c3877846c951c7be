// Package backup archives the mutable application state (user accounts,
// sessions, and the likes/conversations database) into timestamped zip
// files. The event catalog itself is never backed up; it is rebuilt from
// upstream on every refresh.
package backup

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix = "seoulfest_backup_"
	fileSuffix = ".zip"
)

var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrInvalidFilename = errors.New("invalid backup filename")
)

// Info contains metadata about one backup archive.
type Info struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	Version   string    `json:"version,omitempty"`
}

// Manifest describes the contents of a backup archive.
type Manifest struct {
	Version   string            `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	Files     map[string]string `json:"files"` // filename -> sha256 checksum
}

// Service creates, lists, restores, and prunes backup archives.
type Service struct {
	mu        sync.RWMutex
	backupDir string
	dataDir   string
	keep      int // newest archives to retain, 0 disables pruning
}

// stateFiles are the files archived from the data directory.
var stateFiles = []string{
	"users.json",
	"sessions.json",
	"seoulfest.db",
}

// NewService creates a backup service writing archives to
// dataDir/backups. keep is the number of archives retained by Cleanup.
func NewService(dataDir string, keep int) (*Service, error) {
	backupDir := filepath.Join(dataDir, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	return &Service{
		backupDir: backupDir,
		dataDir:   dataDir,
		keep:      keep,
	}, nil
}

// Create archives the current application state, then prunes archives
// beyond the retention count. Missing state files are skipped, not errors:
// a fresh install has nothing to back up yet.
func (s *Service) Create() (*Info, error) {
	info, err := s.create()
	if err != nil {
		return nil, err
	}
	if _, err := s.Cleanup(); err != nil {
		log.Printf("[backup] cleanup after create failed: %v", err)
	}
	return info, nil
}

func (s *Service) create() (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timestamp := time.Now().UTC().Format("20060102-150405")
	filename := filePrefix + timestamp + fileSuffix
	backupPath := filepath.Join(s.backupDir, filename)

	tmpPath := backupPath + ".tmp"
	zipFile, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}

	zipWriter := zip.NewWriter(zipFile)
	manifest := Manifest{
		Version:   "1.0",
		CreatedAt: time.Now().UTC(),
		Files:     make(map[string]string),
	}

	fail := func(err error) (*Info, error) {
		zipWriter.Close()
		zipFile.Close()
		os.Remove(tmpPath)
		return nil, err
	}

	for _, name := range stateFiles {
		srcPath := filepath.Join(s.dataDir, name)
		stat, err := os.Stat(srcPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil || stat.IsDir() {
			log.Printf("[backup] skipping %s: %v", name, err)
			continue
		}

		checksum, err := addFileToZip(zipWriter, srcPath, name)
		if err != nil {
			log.Printf("[backup] failed to archive %s: %v", name, err)
			continue
		}
		manifest.Files[name] = checksum
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fail(fmt.Errorf("marshal manifest: %w", err))
	}
	manifestWriter, err := zipWriter.Create("manifest.json")
	if err != nil {
		return fail(fmt.Errorf("create manifest in zip: %w", err))
	}
	if _, err := manifestWriter.Write(manifestJSON); err != nil {
		return fail(fmt.Errorf("write manifest: %w", err))
	}

	if err := zipWriter.Close(); err != nil {
		zipFile.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close zip writer: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close zip file: %w", err)
	}
	if err := os.Rename(tmpPath, backupPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("finalize backup: %w", err)
	}

	stat, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	info := &Info{
		Filename:  filename,
		Size:      stat.Size(),
		CreatedAt: manifest.CreatedAt,
		Version:   manifest.Version,
	}
	log.Printf("[backup] created %s (%d bytes, %d files)", filename, info.Size, len(manifest.Files))
	return info, nil
}

// List returns all archives, newest first.
func (s *Service) List() ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	backups := make([]Info, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}

		stat, err := entry.Info()
		if err != nil {
			continue
		}
		info := Info{
			Filename:  name,
			Size:      stat.Size(),
			CreatedAt: stat.ModTime(),
		}
		if manifest, err := readManifest(filepath.Join(s.backupDir, name)); err == nil {
			info.CreatedAt = manifest.CreatedAt
			info.Version = manifest.Version
		}
		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Delete removes one archive.
func (s *Service) Delete(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(filename)
}

func (s *Service) deleteLocked(filename string) error {
	if err := validateFilename(filename); err != nil {
		return err
	}

	backupPath := filepath.Join(s.backupDir, filename)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return ErrBackupNotFound
	}
	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	return nil
}

// Restore extracts an archive's files back into the data directory,
// verifying each checksum against the manifest. Files land atomically via
// a temp-file rename; a checksum mismatch aborts before anything is
// replaced.
func (s *Service) Restore(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateFilename(filename); err != nil {
		return err
	}

	backupPath := filepath.Join(s.backupDir, filename)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return ErrBackupNotFound
	}

	manifest, err := readManifest(backupPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	reader, err := zip.OpenReader(backupPath)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer reader.Close()

	restored := 0
	for _, file := range reader.File {
		if file.Name == "manifest.json" {
			continue
		}
		expected, ok := manifest.Files[file.Name]
		if !ok {
			log.Printf("[backup] skipping unknown file in archive: %s", file.Name)
			continue
		}

		destPath := filepath.Join(s.dataDir, file.Name)
		tmpPath := destPath + ".restore.tmp"
		checksum, err := extractFile(file, tmpPath)
		if err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("extract %s: %w", file.Name, err)
		}
		if checksum != expected {
			os.Remove(tmpPath)
			return fmt.Errorf("checksum mismatch for %s", file.Name)
		}
		if err := os.Rename(tmpPath, destPath); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("finalize %s: %w", file.Name, err)
		}
		restored++
	}

	log.Printf("[backup] restored %d files from %s", restored, filename)
	return nil
}

// Open returns a reader over one archive for download.
func (s *Service) Open(filename string) (io.ReadCloser, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := validateFilename(filename); err != nil {
		return nil, 0, err
	}

	file, err := os.Open(filepath.Join(s.backupDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrBackupNotFound
		}
		return nil, 0, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	return file, stat.Size(), nil
}

// Cleanup prunes archives beyond the configured retention count.
func (s *Service) Cleanup() (int, error) {
	if s.keep <= 0 {
		return 0, nil
	}

	backups, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= s.keep {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, b := range backups[s.keep:] {
		if err := s.deleteLocked(b.Filename); err != nil {
			log.Printf("[backup] failed to prune %s: %v", b.Filename, err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		log.Printf("[backup] pruned %d old backups", deleted)
	}
	return deleted, nil
}

func validateFilename(filename string) error {
	if strings.ContainsAny(filename, `/\`) || strings.HasPrefix(filename, ".") {
		return ErrInvalidFilename
	}
	if !strings.HasPrefix(filename, filePrefix) || !strings.HasSuffix(filename, fileSuffix) {
		return ErrInvalidFilename
	}
	return nil
}

func addFileToZip(zipWriter *zip.Writer, srcPath, destName string) (string, error) {
	file, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	writer, err := zipWriter.Create(destName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(writer, io.TeeReader(file, hasher)); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func extractFile(file *zip.File, destPath string) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	outFile, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer outFile.Close()

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(outFile, hasher), rc); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func readManifest(zipPath string) (*Manifest, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name == "manifest.json" {
			rc, err := file.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()

			var manifest Manifest
			if err := json.NewDecoder(rc).Decode(&manifest); err != nil {
				return nil, err
			}
			return &manifest, nil
		}
	}
	return nil, errors.New("manifest not found in backup")
}
