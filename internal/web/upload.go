package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gyeh/claimstats/internal/importer"
)

type uploadResponse struct {
	RunID          string   `json:"run_id,omitempty"`
	Mode           string   `json:"mode"`
	ClaimsLoaded   int64    `json:"claims_loaded"`
	ClaimsSkipped  int64    `json:"claims_skipped"`
	DetailsLoaded  int64    `json:"details_loaded"`
	DetailsSkipped int64    `json:"details_skipped"`
	OrphansSkipped int64    `json:"orphans_skipped"`
	Errors         []string `json:"errors,omitempty"`
}

// handleUpload accepts the two exchange files as multipart form blobs
// plus an upload_mode of append (default) or overwrite. The blobs land
// in a scoped temp directory that is removed on every exit path.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	mode := r.FormValue("upload_mode")
	if mode == "" {
		mode = "append"
	}
	if mode != "append" && mode != "overwrite" {
		writeError(w, http.StatusBadRequest, "upload_mode must be append or overwrite")
		return
	}

	claimsFile, _, err := r.FormFile("claims_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "claims_file is required")
		return
	}
	defer claimsFile.Close()

	detailsFile, _, err := r.FormFile("details_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "details_file is required")
		return
	}
	defer detailsFile.Close()

	tmpDir, err := os.MkdirTemp("", "claimupload-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "temp storage: "+err.Error())
		return
	}
	defer os.RemoveAll(tmpDir)

	claimsPath := filepath.Join(tmpDir, "claims.csv")
	detailsPath := filepath.Join(tmpDir, "details.csv")
	if err := saveBlob(claimsPath, claimsFile); err != nil {
		writeError(w, http.StatusInternalServerError, "save claims file: "+err.Error())
		return
	}
	if err := saveBlob(detailsPath, detailsFile); err != nil {
		writeError(w, http.StatusInternalServerError, "save details file: "+err.Error())
		return
	}

	summary, err := importer.Run(r.Context(), s.store, s.log, importer.Options{
		ClaimsFile:  claimsPath,
		DetailsFile: detailsPath,
		Clear:       mode == "overwrite",
	})
	if err != nil {
		var vf *importer.ValidationFailed
		if errors.As(err, &vf) {
			msgs := make([]string, len(vf.Errors))
			for i, ve := range vf.Errors {
				msgs[i] = ve.Error()
			}
			writeJSON(w, http.StatusUnprocessableEntity, uploadResponse{Mode: mode, Errors: msgs})
			return
		}
		s.log.Error().Err(err).Msg("upload import failed")
		writeError(w, http.StatusInternalServerError, "import failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		RunID:          summary.RunID,
		Mode:           mode,
		ClaimsLoaded:   summary.ClaimsLoaded,
		ClaimsSkipped:  summary.ClaimsSkipped,
		DetailsLoaded:  summary.DetailsLoaded,
		DetailsSkipped: summary.DetailsSkipped,
		OrphansSkipped: summary.OrphansSkipped,
	})
}

func saveBlob(path string, src multipart.File) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
