package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"seoulfest/services/backup"
)

// backupService is the archive store consumed by BackupHandler.
type backupService interface {
	Create() (*backup.Info, error)
	List() ([]backup.Info, error)
	Delete(filename string) error
	Restore(filename string) error
	Open(filename string) (io.ReadCloser, int64, error)
}

var _ backupService = (*backup.Service)(nil)

// BackupHandler exposes backup management to authenticated users.
type BackupHandler struct {
	Backups backupService
}

func NewBackupHandler(backups backupService) *BackupHandler {
	return &BackupHandler{Backups: backups}
}

// Create handles POST /api/v1/backups.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	info, err := h.Backups.Create()
	if err != nil {
		log.Printf("[handler] backup create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create backup")
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// List handles GET /api/v1/backups.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.Backups.List()
	if err != nil {
		log.Printf("[handler] backup list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": backups})
}

// Delete handles DELETE /api/v1/backups/{filename}.
func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	err := h.Backups.Delete(filename)
	switch {
	case errors.Is(err, backup.ErrInvalidFilename):
		writeError(w, http.StatusBadRequest, "invalid backup filename")
	case errors.Is(err, backup.ErrBackupNotFound):
		writeError(w, http.StatusNotFound, "backup not found")
	case err != nil:
		log.Printf("[handler] backup delete failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete backup")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"detail": "backup deleted"})
	}
}

// Restore handles POST /api/v1/backups/{filename}/restore. A safety
// archive of the current state is taken first; its failure is logged but
// does not block the restore.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	if pre, err := h.Backups.Create(); err != nil {
		log.Printf("[handler] pre-restore backup failed: %v", err)
	} else {
		log.Printf("[handler] pre-restore backup %s", pre.Filename)
	}

	err := h.Backups.Restore(filename)
	switch {
	case errors.Is(err, backup.ErrInvalidFilename):
		writeError(w, http.StatusBadRequest, "invalid backup filename")
	case errors.Is(err, backup.ErrBackupNotFound):
		writeError(w, http.StatusNotFound, "backup not found")
	case err != nil:
		log.Printf("[handler] backup restore failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to restore backup")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"detail": "backup restored"})
	}
}

// Download handles GET /api/v1/backups/{filename}/download.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	reader, size, err := h.Backups.Open(filename)
	switch {
	case errors.Is(err, backup.ErrInvalidFilename):
		writeError(w, http.StatusBadRequest, "invalid backup filename")
		return
	case errors.Is(err, backup.ErrBackupNotFound):
		writeError(w, http.StatusNotFound, "backup not found")
		return
	case err != nil:
		log.Printf("[handler] backup download failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to open backup")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("[handler] backup stream interrupted: %v", err)
	}
}
