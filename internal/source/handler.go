package source

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// Handler exposes the source-admin endpoints: browsing the shared Drive
// folder and pulling files down into the local upload directory so the
// pipeline can read them.
type Handler struct {
	drive     *DriveService
	uploadDir string
}

func NewHandler(drive *DriveService, uploadDir string) *Handler {
	return &Handler{drive: drive, uploadDir: uploadDir}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/sources/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/sources/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/sources/ingest", h.IngestFile).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	var err error
	if folderPath != "" {
		folderID, err = h.drive.FindFolderByPath(folderPath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	files, err := h.drive.ListFiles(folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=data.csv")

	if err := h.drive.DownloadFile(fileID, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// IngestFile downloads a Drive file into the upload directory, converting
// spreadsheets to CSV so every ingested source reads the same way.
func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = fileID
	}

	dest, err := h.ingest(fileID, name)
	if err != nil {
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success", "path": dest})
}

func (h *Handler) ingest(fileID, name string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}

	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	raw := filepath.Join(h.uploadDir, base)

	f, err := os.Create(raw)
	if err != nil {
		return "", err
	}
	if err := h.drive.DownloadFile(fileID, f); err != nil {
		f.Close()
		os.Remove(raw)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	if ext != ".xlsx" {
		return raw, nil
	}

	// Spreadsheets get rewritten as CSV next to the original.
	records, err := ReadFile(raw)
	if err != nil {
		return "", err
	}
	dest := strings.TrimSuffix(raw, ext) + ".csv"
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.WriteAll(records); err != nil {
		return "", err
	}
	return dest, writer.Error()
}
