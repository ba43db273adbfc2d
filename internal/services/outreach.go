package services

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/supportportal/internal/backend"
)

const campDateLayout = "2006-01-02"

var CampStatuses = []string{"Upcoming", "Ongoing", "Completed"}

// ParseCampaigns splits comma-separated campaign names, trimming each and
// dropping empties.
func ParseCampaigns(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseCampDate reads a YYYY-MM-DD date as UTC midnight.
func ParseCampDate(s string) (backend.Time, error) {
	t, err := time.Parse(campDateLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, NewInvalidError(fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", s))
	}
	return backend.FromTime(t), nil
}

func FormatCampDate(t backend.Time) string {
	return t.Std().Format(campDateLayout)
}

type AccessBand string

const (
	AccessCritical AccessBand = "critical"
	AccessLimited  AccessBand = "limited"
	AccessAdequate AccessBand = "adequate"
)

func AccessBandFor(level uint64) AccessBand {
	switch {
	case level <= 2:
		return AccessCritical
	case level == 3:
		return AccessLimited
	default:
		return AccessAdequate
	}
}

type MarkerType string

const (
	MarkerInstitution MarkerType = "institution"
	MarkerArea        MarkerType = "area"
	MarkerCamp        MarkerType = "camp"
	MarkerReported    MarkerType = "reported"
)

type MarkerMetadata struct {
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`
}

// MapMarker is one located outreach record placed on the 0-100 grid.
type MapMarker struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Coordinates backend.Coordinates `json:"coordinates"`
	Type        MarkerType          `json:"type"`
	Metadata    MarkerMetadata      `json:"metadata"`
	X           float64             `json:"x"`
	Y           float64             `json:"y"`
	GoogleMaps  string              `json:"google_maps_url"`
	AppleMaps   string              `json:"apple_maps_url"`
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// Project maps coordinates into a 0-100 box: longitude left to right,
// latitude bottom to top.
func Project(c backend.Coordinates) (x, y float64) {
	x = clampPercent((c.Longitude + 180) / 360 * 100)
	y = clampPercent(100 - (c.Latitude+90)/180*100)
	return x, y
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// encodeComponent escapes like a browser's encodeURIComponent for the
// characters that show up in labels.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func GoogleMapsURL(lat, lng float64, label string) string {
	query := formatCoord(lat) + "," + formatCoord(lng)
	if label != "" {
		query = encodeComponent(label + " @" + query)
	}
	return "https://www.google.com/maps/search/?api=1&query=" + query
}

func AppleMapsURL(lat, lng float64, label string) string {
	q := "Location"
	if label != "" {
		q = encodeComponent(label)
	}
	return "https://maps.apple.com/?q=" + q + "&ll=" + formatCoord(lat) + "," + formatCoord(lng)
}

func newMarker(id, name string, typ MarkerType, c *backend.Coordinates, meta MarkerMetadata) (MapMarker, bool) {
	if !c.Located() {
		return MapMarker{}, false
	}
	x, y := Project(*c)
	return MapMarker{
		ID:          id,
		Name:        name,
		Coordinates: *c,
		Type:        typ,
		Metadata:    meta,
		X:           x,
		Y:           y,
		GoogleMaps:  GoogleMapsURL(c.Latitude, c.Longitude, name),
		AppleMaps:   AppleMapsURL(c.Latitude, c.Longitude, name),
	}, true
}

// BuildMarkers collects every located record. Records without coordinates
// or at (0,0) are left out.
func BuildMarkers(inst []backend.Institution, areas []backend.AreaMonitoring, camps []backend.OutreachCamp, reported []backend.ReportedArea) []MapMarker {
	out := []MapMarker{}
	add := func(m MapMarker, ok bool) {
		if ok {
			out = append(out, m)
		}
	}
	for _, in := range inst {
		add(newMarker(fmt.Sprintf("institution-%d", in.ID), in.Name, MarkerInstitution, in.Coordinates,
			MarkerMetadata{Status: in.InfrastructureStatus, Description: in.InstitutionType + " in " + in.Region}))
	}
	for _, a := range areas {
		add(newMarker("area-"+a.RegionName, a.RegionName, MarkerArea, a.Coordinates,
			MarkerMetadata{Status: a.ConnectivityStatus, Description: a.Description}))
	}
	for _, c := range camps {
		add(newMarker(fmt.Sprintf("camp-%d", c.ID), c.Name, MarkerCamp, c.Coordinates,
			MarkerMetadata{Status: c.Status, Description: c.Description}))
	}
	for i, r := range reported {
		add(newMarker(fmt.Sprintf("reported-%s-%d", r.RegionName, i), r.RegionName, MarkerReported, r.Coordinates,
			MarkerMetadata{Status: r.ConnectivityStatus, Description: r.Description}))
	}
	return out
}

// Coverage targets for the dashboard progress bars.
const (
	InstitutionTarget = 50
	AreaTarget        = 30
	OngoingCampTarget = 20
)

type CoverageBar struct {
	Count   int     `json:"count"`
	Target  int     `json:"target"`
	Percent float64 `json:"percent"`
}

func coverage(count, target int) CoverageBar {
	return CoverageBar{Count: count, Target: target, Percent: math.Min(float64(count)/float64(target)*100, 100)}
}

type Coverage struct {
	Institutions CoverageBar `json:"institutions"`
	Areas        CoverageBar `json:"areas"`
	OngoingCamps CoverageBar `json:"ongoing_camps"`
}

type Notice struct {
	Severity string `json:"severity"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message"`
}

type DashboardSummary struct {
	Analytics       backend.DashboardAnalytics `json:"analytics"`
	Alerts          []Notice                   `json:"alerts"`
	Recommendations []Notice                   `json:"recommendations"`
	Coverage        Coverage                   `json:"coverage"`
	LowAwareness    int                        `json:"low_awareness_institutions"`
}

// Summarize derives the dashboard's alerts, recommendations and coverage.
func Summarize(a backend.DashboardAnalytics, inst []backend.Institution, areas []backend.AreaMonitoring, camps []backend.OutreachCamp) DashboardSummary {
	s := DashboardSummary{Analytics: a, Alerts: []Notice{}, Recommendations: []Notice{}}
	for _, in := range inst {
		if in.AwarenessRating < 3 {
			s.LowAwareness++
		}
	}
	ongoing := 0
	for _, c := range camps {
		if c.Status == "Ongoing" {
			ongoing++
		}
	}

	if a.DistressedRegions > 0 {
		s.Alerts = append(s.Alerts, Notice{Severity: "critical",
			Message: fmt.Sprintf("%d distressed regions detected requiring immediate attention", a.DistressedRegions)})
	}
	if a.LowAccessAreas > 0 {
		s.Alerts = append(s.Alerts, Notice{Severity: "warning",
			Message: fmt.Sprintf("%d areas with very low access levels need intervention", a.LowAccessAreas)})
	}
	if a.DistressedRegions == 0 && a.LowAccessAreas == 0 {
		s.Alerts = append(s.Alerts, Notice{Severity: "ok", Message: "No critical alerts at this time"})
	}

	if a.DistressedRegions > 0 {
		s.Recommendations = append(s.Recommendations, Notice{Severity: "priority", Title: "Priority Action Required",
			Message: fmt.Sprintf("Schedule wellness camps in %d distressed regions. Consider mobile clinics for areas with access level below 2.", a.DistressedRegions)})
	}
	if s.LowAwareness > 0 {
		s.Recommendations = append(s.Recommendations, Notice{Severity: "info", Title: "Institutional Outreach",
			Message: fmt.Sprintf("%d institutions have low awareness ratings. Recommend partnership programs and training sessions.", s.LowAwareness)})
	}
	if a.UpcomingEvents > 0 {
		s.Recommendations = append(s.Recommendations, Notice{Severity: "info", Title: "Event Coordination",
			Message: fmt.Sprintf("%d upcoming events scheduled. Ensure clinician assignments and resource allocation are complete.", a.UpcomingEvents)})
	}

	s.Coverage = Coverage{
		Institutions: coverage(len(inst), InstitutionTarget),
		Areas:        coverage(len(areas), AreaTarget),
		OngoingCamps: coverage(ongoing, OngoingCampTarget),
	}
	return s
}
