// mkclaims generates synthetic claim and claim-detail fixture files in
// the pipe-delimited exchange format, for local runs and tests.
// Usage: go run ./cmd/mkclaims --out-dir testdata --rows 500 --seed 1
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	patients = []string{
		"John Smith", "Maria Garcia", "Wei Chen", "Fatima Ali",
		"James Brown", "Olga Ivanova", "Carlos Diaz", "Aiko Tanaka",
	}
	insurers = []string{
		"United Healthcare", "Blue Cross Blue Shield", "Aetna",
		"Cigna", "Humana", "Kaiser Permanente",
	}
	statuses = []string{"Paid", "Denied", "Under Review", "Processing", "Pending"}
	reasons  = []string{
		"Policy expired", "Service not covered", "Incomplete documentation",
		"Duplicate claim", "Out of network",
	}
	cptPool = []string{"99213", "99214", "99215", "80053", "85025", "71046", "93000"}
)

func main() {
	outDir := flag.String("out-dir", "testdata", "output directory")
	rows := flag.Int("rows", 500, "number of claims to generate")
	seed := flag.Int64("seed", 1, "random seed")
	orphans := flag.Int("orphans", 0, "extra detail rows referencing unknown claim ids")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	claimsPath := filepath.Join(*outDir, "claim_list_data.csv")
	detailsPath := filepath.Join(*outDir, "claim_detail_data.csv")

	if err := writeClaims(claimsPath, *rows, rng); err != nil {
		fmt.Fprintf(os.Stderr, "write claims: %v\n", err)
		os.Exit(1)
	}
	rng = rand.New(rand.NewSource(*seed))
	if err := writeDetails(detailsPath, *rows, *orphans, rng); err != nil {
		fmt.Fprintf(os.Stderr, "write details: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d claims to %s and %d details to %s\n",
		*rows, claimsPath, *rows+*orphans, detailsPath)
}

func writeClaims(path string, rows int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "id|patient_name|billed_amount|paid_amount|status|insurer_name|discharge_date")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= rows; i++ {
		billed := float64(rng.Intn(500000)) / 100
		paid := billed * rng.Float64()
		date := base.AddDate(0, 0, rng.Intn(540))
		fmt.Fprintf(w, "%d|%s|%.2f|%.2f|%s|%s|%s\n",
			30000+i,
			patients[rng.Intn(len(patients))],
			billed,
			paid,
			statuses[rng.Intn(len(statuses))],
			insurers[rng.Intn(len(insurers))],
			date.Format("2006-01-02"),
		)
	}
	return w.Flush()
}

func writeDetails(path string, rows, orphans int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "id|claim_id|denial_reason|cpt_codes")

	for i := 1; i <= rows; i++ {
		reason := "N/A"
		if rng.Intn(4) == 0 {
			reason = reasons[rng.Intn(len(reasons))]
		}
		n := 1 + rng.Intn(3)
		codes := make([]string, n)
		for j := range codes {
			codes[j] = cptPool[rng.Intn(len(cptPool))]
		}
		fmt.Fprintf(w, "%d|%d|%s|%s\n", i, 30000+i, reason, strings.Join(codes, ", "))
	}
	// Orphan rows exercise the loader's unknown-claim handling.
	for i := 1; i <= orphans; i++ {
		fmt.Fprintf(w, "%d|%d|N/A|%s\n", rows+i, 900000+i, cptPool[rng.Intn(len(cptPool))])
	}
	return w.Flush()
}
