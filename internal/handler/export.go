package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"github.com/quickavail/backend/internal/domain"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// csvHeaders defines the column names written as the first row of a CSV export.
var csvHeaders = []string{"Date", "Day", "Project", "Time Slots", "Hours"}

// ExportRowResponse is one row of a JSON export.
type ExportRowResponse struct {
	Date      string   `json:"date"`
	DateKey   string   `json:"dateKey"`
	Day       string   `json:"day"`
	ProjectID string   `json:"projectId"`
	Project   string   `json:"project"`
	TimeSlots []string `json:"timeSlots"`
	Hours     float64  `json:"hours"`
}

// ExportResponse is the JSON export of a schedule.
type ExportResponse struct {
	ShareID    string              `json:"shareId"`
	PersonName string              `json:"personName"`
	Rows       []ExportRowResponse `json:"rows"`
	TotalHours float64             `json:"totalHours"`
}

// ExportSchedule handles GET /api/schedules/{shareId}/export.
// Use ?format=csv to receive CSV; default is JSON. Exports are not views.
func (s *Server) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shareID, err := shareIDParam(r)
	if err != nil {
		s.writeRequestError(ctx, w, err.Error())
		return
	}

	format := ExportJSON
	var requested *ExportFormat
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &requested); err != nil {
		s.writeRequestError(ctx, w, err.Error())
		return
	}
	if requested != nil {
		switch *requested {
		case ExportJSON, ExportCSV:
			format = *requested
		default:
			s.writeRequestError(ctx, w, fmt.Sprintf("format %q is not supported, use csv or json", *requested))
			return
		}
	}

	sched, rows, err := s.schedules.Export(ctx, shareID)
	if err != nil {
		s.writeServiceError(ctx, w, err, "schedule not found")
		return
	}

	if format == ExportCSV {
		s.writeCSV(w, sched, rows)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, buildJSONExport(sched, rows))
}

// buildJSONExport converts domain rows to the JSON response.
func buildJSONExport(sched domain.Schedule, rows []domain.ExportRow) ExportResponse {
	out := ExportResponse{
		ShareID:    sched.ShareID,
		PersonName: sched.PersonName,
		Rows:       make([]ExportRowResponse, 0, len(rows)),
		TotalHours: domain.RoundTenth(domain.ExportTotalHours(rows)),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, ExportRowResponse{
			Date:      r.Date,
			DateKey:   string(r.DateKey),
			Day:       r.Day,
			ProjectID: r.ProjectID,
			Project:   r.Project,
			TimeSlots: r.TimeSlots,
			Hours:     r.Hours,
		})
	}
	return out
}

// writeCSV encodes rows as an attachment. Time slots within a row are joined
// with "; " and the file ends with a total hours row.
func (s *Server) writeCSV(w http.ResponseWriter, sched domain.Schedule, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write([]string{r.Date, r.Day, r.Project, domain.JoinSlots(r.TimeSlots), formatCSVHours(r.Hours)})
	}
	//nolint:errcheck
	cw.Write([]string{"", "", "", "TOTAL HOURS:", formatCSVHours(domain.RoundTenth(domain.ExportTotalHours(rows)))})
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="availability-%s.csv"`, sched.ShareID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func formatCSVHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
