package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/supportportal/internal/backend"
)

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }

func coordCells(c *backend.Coordinates) (string, string) {
	if !c.Located() {
		return "", ""
	}
	return formatCoord(c.Latitude), formatCoord(c.Longitude)
}

func stamp(t backend.Time) string {
	if t == 0 {
		return ""
	}
	return t.Std().Format(time.RFC3339)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(header)
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Campaign lists are joined with "; " so a cell stays one column.
func joinCampaigns(c []string) string { return strings.Join(c, "; ") }

func ExportInstitutionsCSV(list []backend.Institution) ([]byte, error) {
	rows := make([][]string, 0, len(list))
	for _, in := range list {
		lat, lng := coordCells(in.Coordinates)
		rows = append(rows, []string{
			itoa(in.ID), in.Name, in.InstitutionType, in.Region, in.ContactInfo,
			in.InfrastructureStatus, itoa(in.AwarenessRating), joinCampaigns(in.RelatedCampaigns), lat, lng,
		})
	}
	return writeCSV([]string{"id", "name", "type", "region", "contact", "infrastructure", "awareness", "campaigns", "latitude", "longitude"}, rows)
}

func ExportAreasCSV(list []backend.AreaMonitoring) ([]byte, error) {
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		lat, lng := coordCells(a.Coordinates)
		rows = append(rows, []string{
			a.RegionName, a.ConnectivityStatus, itoa(a.AccessLevel), string(AccessBandFor(a.AccessLevel)),
			a.Description, joinCampaigns(a.LinkedCampaigns), stamp(a.Timestamp), lat, lng,
		})
	}
	return writeCSV([]string{"region", "connectivity", "access_level", "access_band", "description", "campaigns", "updated_at", "latitude", "longitude"}, rows)
}

func ExportCampsCSV(list []backend.OutreachCamp) ([]byte, error) {
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		clinician := ""
		if c.AssignedClinician != nil {
			clinician = c.AssignedClinician.String()
		}
		lat, lng := coordCells(c.Coordinates)
		rows = append(rows, []string{
			itoa(c.ID), c.Name, c.Location, c.EventType, FormatCampDate(c.StartDate), FormatCampDate(c.EndDate),
			clinician, c.Status, c.Description, lat, lng,
		})
	}
	return writeCSV([]string{"id", "name", "location", "event_type", "start_date", "end_date", "clinician", "status", "description", "latitude", "longitude"}, rows)
}

func ExportReportedAreasCSV(list []backend.ReportedArea) ([]byte, error) {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		lat, lng := coordCells(r.Coordinates)
		rows = append(rows, []string{
			r.RegionName, r.ConnectivityStatus, r.Description, joinCampaigns(r.LinkedCampaigns),
			strconv.FormatBool(r.HasMentalHealthSupport), r.Reporter.String(), stamp(r.Timestamp), lat, lng,
		})
	}
	return writeCSV([]string{"region", "connectivity", "description", "campaigns", "mental_health_support", "reporter", "reported_at", "latitude", "longitude"}, rows)
}

// ExportMoodCSV renders the caller's own mood history, oldest first.
func ExportMoodCSV(entries []backend.MoodEntry) ([]byte, error) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{stamp(e.Timestamp), e.Mood})
	}
	return writeCSV([]string{"recorded_at", "mood"}, rows)
}
