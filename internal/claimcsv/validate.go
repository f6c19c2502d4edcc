package claimcsv

import (
	"bufio"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// maxSampleRows is how many data rows per file the pre-flight check
// inspects for column arity.
const maxSampleRows = 3

// Validate runs the pre-flight structural check over both input files
// and returns the accumulated error list; an empty list means the load
// may proceed. This is a sanity check on the header line and the first
// few data rows only; it does not guarantee the full file is
// well-formed, and the loader independently tolerates malformed rows.
func Validate(claimsPath, detailsPath string) []*ValidationError {
	var errs []*ValidationError
	errs = append(errs, validateFile(claimsPath, ClaimsHeader)...)
	errs = append(errs, validateFile(detailsPath, DetailsHeader)...)
	return errs
}

func validateFile(path string, expected []string) []*ValidationError {
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return []*ValidationError{{Kind: SourceReadError, File: name, Err: err}}
	}
	defer f.Close()

	var errs []*ValidationError

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		return []*ValidationError{{Kind: SourceReadError, File: name, Err: sc.Err()}}
	}
	header := strings.Split(sc.Text(), Delimiter)
	if !slices.Equal(header, expected) {
		errs = append(errs, &ValidationError{
			Kind:     HeaderMismatch,
			File:     name,
			Row:      1,
			Expected: expected,
			Actual:   header,
		})
	}

	// Arity check on the first few data rows; stop at the first
	// mismatch rather than scanning the rest of the file.
	for i := 0; i < maxSampleRows && sc.Scan(); i++ {
		fields := strings.Split(sc.Text(), Delimiter)
		if len(fields) != len(expected) {
			errs = append(errs, &ValidationError{
				Kind:     RowArityMismatch,
				File:     name,
				Row:      i + 2,
				Expected: expected,
				Actual:   fields,
			})
			break
		}
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, &ValidationError{Kind: SourceReadError, File: name, Err: err})
	}

	return errs
}
