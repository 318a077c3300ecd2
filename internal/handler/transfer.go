package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/tripbook/internal/csvio"
	"github.com/pkordes/tripbook/internal/domain"
	"github.com/pkordes/tripbook/internal/service"
)

// ImportResponse reports the outcome of an import or preview.
type ImportResponse struct {
	BatchID  string        `json:"batch_id"`
	Total    int           `json:"total"`
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Summary  string        `json:"summary"`
	Errors   []string      `json:"errors"`
	Trips    []domain.Trip `json:"trips,omitempty"`
}

func importResponse(rep csvio.Report) ImportResponse {
	return ImportResponse{
		BatchID:  rep.BatchID.String(),
		Total:    rep.Total,
		Imported: rep.Imported,
		Failed:   rep.Failed,
		Summary:  rep.Summary(),
		Errors:   rep.ErrorMessages(),
	}
}

// ImportTripsParams are the query parameters of POST /import/trips.
type ImportTripsParams struct {
	Form    *string `form:"form"`
	Header  *string `form:"header"`
	Preview *bool   `form:"preview"`
}

// ImportTrips handles POST /import/trips. The body is the CSV itself.
// With ?preview=true the rows are parsed and returned but nothing is stored.
func (s *Server) ImportTrips(w http.ResponseWriter, r *http.Request) {
	var params ImportTripsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "form", q, &params.Form); err != nil {
		requestError(w, fmt.Sprintf("invalid format for parameter form: %v", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "header", q, &params.Header); err != nil {
		requestError(w, fmt.Sprintf("invalid format for parameter header: %v", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "preview", q, &params.Preview); err != nil {
		requestError(w, fmt.Sprintf("invalid format for parameter preview: %v", err))
		return
	}

	var opts service.ImportOptions
	var err error
	if opts.Form, err = service.ParseTripForm(deref(params.Form)); err != nil {
		s.fail(w, r, err, "")
		return
	}
	if opts.Header, err = parseHeader(deref(params.Header)); err != nil {
		s.fail(w, r, err, "")
		return
	}

	if params.Preview != nil && *params.Preview {
		trips, rep, err := s.transfer.PreviewTrips(r.Body, opts)
		if err != nil {
			s.fail(w, r, err, "")
			return
		}
		resp := importResponse(rep)
		resp.Trips = trips
		writeJSON(w, http.StatusOK, resp)
		return
	}

	rep, err := s.transfer.ImportTrips(r.Context(), r.Body, opts)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, importResponse(rep))
}

// ImportPeople handles POST /import/people. People whose ID is already
// known are counted as failed.
func (s *Server) ImportPeople(w http.ResponseWriter, r *http.Request) {
	var header *string
	if err := runtime.BindQueryParameter("form", true, false, "header", r.URL.Query(), &header); err != nil {
		requestError(w, fmt.Sprintf("invalid format for parameter header: %v", err))
		return
	}
	mode, err := parseHeader(deref(header))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	rep, err := s.transfer.ImportPeople(r.Context(), r.Body, mode)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, importResponse(rep))
}

// ExportTrips handles GET /export/trips. ?format=csv (the default) returns
// the cache form as an attachment; ?format=json returns the trip list.
func (s *Server) ExportTrips(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		requestError(w, fmt.Sprintf("invalid format for parameter format: %v", err))
		return
	}

	switch deref(format) {
	case "", "csv":
		s.writeCSV(w, r, "cache.csv", s.transfer.ExportTrips)
	case "json":
		writeJSON(w, http.StatusOK, s.trips.Query(service.TripFilter{}, service.TripSort{}))
	default:
		requestError(w, fmt.Sprintf("unknown export format %q", *format))
	}
}

// ExportPeople handles GET /export/people.
func (s *Server) ExportPeople(w http.ResponseWriter, r *http.Request) {
	s.writeCSV(w, r, "people_cache.csv", s.transfer.ExportPeople)
}

// writeCSV renders into a buffer first so a failed export still gets a
// proper error status.
func (s *Server) writeCSV(w http.ResponseWriter, r *http.Request, filename string, export func(io.Writer) error) {
	var buf bytes.Buffer
	if err := export(&buf); err != nil {
		s.fail(w, r, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func parseHeader(s string) (csvio.HeaderMode, error) {
	mode, err := csvio.ParseHeaderMode(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return mode, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
