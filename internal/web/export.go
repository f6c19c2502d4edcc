package web

import (
	"net/http"

	"github.com/gyeh/claimstats/internal/export"
)

// handleExport streams the stored records back out in the exchange
// format. ?type=claims (default) or ?type=details.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exportType := r.URL.Query().Get("type")
	if exportType == "" {
		exportType = "claims"
	}

	var stream *export.LineStream
	var filename string
	switch exportType {
	case "claims":
		cur, err := s.store.ClaimRows(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("export query failed")
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		stream = export.Claims(cur)
		filename = "exported_claims.csv"
	case "details":
		cur, err := s.store.DetailRows(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("export query failed")
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		stream = export.Details(cur)
		filename = "exported_claim_details.csv"
	default:
		writeError(w, http.StatusBadRequest, "type must be claims or details")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := stream.WriteTo(w); err != nil {
		// Headers are gone by now; just log.
		s.log.Error().Err(err).Msg("export stream failed")
	}
}
