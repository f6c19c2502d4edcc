package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gyeh/claimstats/internal/model"
	"github.com/gyeh/claimstats/internal/store/storetest"
)

const uploadClaims = "id|patient_name|billed_amount|paid_amount|status|insurer_name|discharge_date\n" +
	"1|John Smith|100.00|80.00|Paid|Aetna|2024-01-15\n" +
	"2|Maria Garcia|50.00|0.00|Denied|Cigna|2024-02-01\n"

const uploadDetails = "id|claim_id|denial_reason|cpt_codes\n" +
	"1|2|Policy expired|99213\n"

func newTestServer(st *storetest.Mem) *Server {
	return New(st, zerolog.Nop())
}

func multipartBody(t *testing.T, mode, claims, details string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if mode != "" {
		if err := mw.WriteField("upload_mode", mode); err != nil {
			t.Fatal(err)
		}
	}
	cf, err := mw.CreateFormFile("claims_file", "claims.csv")
	if err != nil {
		t.Fatal(err)
	}
	cf.Write([]byte(claims))
	df, err := mw.CreateFormFile("details_file", "details.csv")
	if err != nil {
		t.Fatal(err)
	}
	df.Write([]byte(details))
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUpload_OK(t *testing.T) {
	st := storetest.New()
	srv := newTestServer(st)

	body, contentType := multipartBody(t, "", uploadClaims, uploadDetails)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Mode != "append" {
		t.Errorf("mode = %q", resp.Mode)
	}
	if resp.ClaimsLoaded != 2 || resp.DetailsLoaded != 1 {
		t.Errorf("response counts: %+v", resp)
	}
	if resp.RunID == "" {
		t.Error("response missing run_id")
	}
	if len(st.Claims) != 2 {
		t.Errorf("store has %d claims", len(st.Claims))
	}
}

func TestUpload_ValidationErrorsReturn422(t *testing.T) {
	srv := newTestServer(storetest.New())

	badClaims := "id|patient_name\n1|x\n"
	body, contentType := multipartBody(t, "", badClaims, uploadDetails)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Errors) == 0 {
		t.Error("expected validation errors in response")
	}
}

func TestUpload_MissingFileReturns400(t *testing.T) {
	srv := newTestServer(storetest.New())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	cf, err := mw.CreateFormFile("claims_file", "claims.csv")
	if err != nil {
		t.Fatal(err)
	}
	cf.Write([]byte(uploadClaims))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_BadModeReturns400(t *testing.T) {
	srv := newTestServer(storetest.New())
	body, contentType := multipartBody(t, "replace", uploadClaims, uploadDetails)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_OverwriteClearsStore(t *testing.T) {
	st := storetest.New()
	st.Claims[99] = model.Claim{ID: 99, PatientName: "stale"}
	srv := newTestServer(st)

	body, contentType := multipartBody(t, "overwrite", uploadClaims, uploadDetails)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, exists := st.Claims[99]; exists {
		t.Error("overwrite did not clear prior claims")
	}
	if len(st.Claims) != 2 {
		t.Errorf("store has %d claims", len(st.Claims))
	}
}

func TestDashboard_EmptyStore(t *testing.T) {
	srv := newTestServer(storetest.New())
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["total_claims"] != float64(0) {
		t.Errorf("total_claims = %v", resp["total_claims"])
	}
	if resp["total_billed"] != "0.00" {
		t.Errorf("total_billed = %v", resp["total_billed"])
	}
}

func TestDashboard_Totals(t *testing.T) {
	st := storetest.New()
	st.Claims[1] = model.Claim{
		ID: 1, PatientName: "a", InsurerName: "A",
		BilledAmount: decimal.RequireFromString("100.00"),
		PaidAmount:   decimal.RequireFromString("80.00"),
		Status:       model.StatusApproved,
	}
	srv := newTestServer(st)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["total_billed"] != "100.00" || resp["total_paid"] != "80.00" {
		t.Errorf("totals: billed=%v paid=%v", resp["total_billed"], resp["total_paid"])
	}
	if resp["total_underpayment"] != "20.00" {
		t.Errorf("underpayment = %v", resp["total_underpayment"])
	}
}

func TestExport_Claims(t *testing.T) {
	st := storetest.New()
	st.Claims[1] = model.Claim{
		ID: 1, PatientName: "a", InsurerName: "A",
		BilledAmount: decimal.RequireFromString("1.00"),
		PaidAmount:   decimal.RequireFromString("1.00"),
		Status:       model.StatusApproved,
	}
	srv := newTestServer(st)

	req := httptest.NewRequest(http.MethodGet, "/export?type=claims", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "claims") {
		t.Errorf("Content-Disposition = %q", got)
	}
	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), rec.Body.String())
	}
	if !strings.HasPrefix(lines[1], "1|a|1.00|1.00|Paid|A|") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestExport_UnknownTypeReturns400(t *testing.T) {
	srv := newTestServer(storetest.New())
	req := httptest.NewRequest(http.MethodGet, "/export?type=runs", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(storetest.New())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
