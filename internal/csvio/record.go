// Package csvio translates between the trip book's CSV files and domain
// values. It is stateless: every function takes a reader or writer and
// returns plain values plus a Report of what was skipped.
//
// The dialect is deliberately simple and matches the cache files the
// application has always written: a double quote toggles "inside quotes",
// commas inside quotes do not split, and quote characters themselves are
// dropped. There is no escaping of embedded quotes.
package csvio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// HeaderMode controls how the first line of an input is treated.
type HeaderMode int

const (
	// HeaderDetect treats the first line as a header when it contains one of
	// the reader's marker substrings ("ID"/"Destination" for trips,
	// "FullName"/"Name" for people). A data row that happens to contain a
	// marker is skipped as well; pass HeaderPresent or HeaderAbsent when the
	// shape of the file is known.
	HeaderDetect HeaderMode = iota
	HeaderPresent
	HeaderAbsent
)

// ParseHeaderMode maps "detect", "yes"/"true" and "no"/"false".
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "detect", "auto":
		return HeaderDetect, nil
	case "yes", "true", "present":
		return HeaderPresent, nil
	case "no", "false", "absent":
		return HeaderAbsent, nil
	}
	return 0, fmt.Errorf("unknown header mode %q", s)
}

// Options tune a read.
type Options struct {
	Header HeaderMode

	// Sequence supplies the running number used for "TRIP_<n>" IDs when a
	// plain trip row has no destination. Nil counts rows read so far.
	Sequence func() int
}

var (
	tripMarkers   = []string{"ID", "Destination"}
	peopleMarkers = []string{"FullName", "Name"}
)

// SplitRecord splits one CSV line on commas outside double quotes.
func SplitRecord(line string) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	return append(fields, field.String())
}

// scanRows calls fn for every non-empty data line of r, honouring mode.
// Line numbers are 1-based and count the header.
func scanRows(r io.Reader, mode HeaderMode, markers []string, fn func(line int, fields []string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if n == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
			if isHeader(line, mode, markers) {
				continue
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fn(n, SplitRecord(line))
	}
	return sc.Err()
}

func isHeader(line string, mode HeaderMode, markers []string) bool {
	switch mode {
	case HeaderPresent:
		return true
	case HeaderAbsent:
		return false
	}
	for _, m := range markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// Report summarises one import: how many data rows were seen and what
// happened to them. Errors holds one *domain.ParseError per failed row.
type Report struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Total    int       `json:"total"`
	Imported int       `json:"imported"`
	Failed   int       `json:"failed"`
	Errors   []error   `json:"-"`
}

func newReport() Report {
	return Report{BatchID: uuid.New()}
}

func (r *Report) succeed() {
	r.Total++
	r.Imported++
}

func (r *Report) fail(err error) {
	r.Total++
	r.Failed++
	r.Errors = append(r.Errors, err)
}

// Reject moves one previously imported record to the failed column. Callers
// that commit parsed rows use it when the commit itself refuses a record.
func (r *Report) Reject(err error) {
	r.Imported--
	r.Failed++
	r.Errors = append(r.Errors, err)
}

// Summary is the one-line message shown to the user after an import.
func (r Report) Summary() string {
	return fmt.Sprintf("Imported %d of %d records", r.Imported, r.Total)
}

// ErrorMessages returns the text of every row error, for JSON responses.
func (r Report) ErrorMessages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		out = append(out, err.Error())
	}
	return out
}

// encodeField renders one output field. Fields containing a comma, and all
// fields when force is set, are wrapped in double quotes. The dialect has no
// quote escaping, so embedded double quotes are written as single quotes and
// line breaks as spaces.
func encodeField(s string, force bool) string {
	s = strings.NewReplacer(`"`, `'`, "\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	if force || strings.Contains(s, ",") {
		return `"` + s + `"`
	}
	return s
}

func writeLine(w *bufio.Writer, fields ...string) {
	// bufio.Writer keeps the first error and reports it from Flush.
	w.WriteString(strings.Join(fields, ","))
	w.WriteByte('\n')
}
