package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

// Form defaults for new outreach records.
const (
	DefaultAwarenessRating = 3
	DefaultAccessLevel     = 3
	DefaultCampStatus      = "Upcoming"
)

type OutreachStore interface {
	Caller() principal.Principal
	Institutions(ctx context.Context) ([]backend.Institution, error)
	Institution(ctx context.Context, id uint64) (*backend.Institution, error)
	AreaMonitoring(ctx context.Context) ([]backend.AreaMonitoring, error)
	AreaMonitoringByRegion(ctx context.Context, region string) (*backend.AreaMonitoring, error)
	OutreachCamps(ctx context.Context) ([]backend.OutreachCamp, error)
	OutreachCamp(ctx context.Context, id uint64) (*backend.OutreachCamp, error)
	ReportedAreas(ctx context.Context) ([]backend.ReportedArea, error)
	ReportedArea(ctx context.Context, region string) (*backend.ReportedArea, error)
	DashboardAnalytics(ctx context.Context) (*backend.DashboardAnalytics, error)

	AddInstitution(ctx context.Context, in backend.InstitutionInput) error
	UpdateInstitution(ctx context.Context, id uint64, in backend.InstitutionInput) error
	AddAreaMonitoring(ctx context.Context, in backend.AreaMonitoringInput) error
	UpdateAreaMonitoring(ctx context.Context, in backend.AreaMonitoringInput) error
	AddOutreachCamp(ctx context.Context, in backend.OutreachCampInput) error
	UpdateOutreachCamp(ctx context.Context, id uint64, in backend.OutreachCampInput) error
	ReportArea(ctx context.Context, in backend.ReportedAreaInput) error
	UpdateAreaCampaigns(ctx context.Context, region string, campaigns []string) error
}

type OutreachService struct {
	store OutreachStore
}

func NewOutreachService(store OutreachStore) *OutreachService {
	return &OutreachService{store: store}
}

// Location is the optional coordinate pair entered on outreach forms.
type Location struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (l Location) coordinates() (*backend.Coordinates, error) {
	if l.Latitude == nil && l.Longitude == nil {
		return nil, nil
	}
	if l.Latitude == nil || l.Longitude == nil {
		return nil, NewInvalidError("Please enter both latitude and longitude")
	}
	if *l.Latitude < -90 || *l.Latitude > 90 {
		return nil, NewInvalidError("Latitude must be between -90 and 90")
	}
	if *l.Longitude < -180 || *l.Longitude > 180 {
		return nil, NewInvalidError("Longitude must be between -180 and 180")
	}
	return &backend.Coordinates{Latitude: *l.Latitude, Longitude: *l.Longitude}, nil
}

func requireFields(values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return NewInvalidError("Please fill in all required fields")
		}
	}
	return nil
}

func rating(v uint64, def uint64, what string) (uint64, error) {
	if v == 0 {
		return def, nil
	}
	if v > 5 {
		return 0, NewInvalidError(fmt.Sprintf("%s must be between 1 and 5", what))
	}
	return v, nil
}

type InstitutionForm struct {
	Name                 string   `json:"name"`
	InstitutionType      string   `json:"institution_type"`
	Region               string   `json:"region"`
	ContactInfo          string   `json:"contact_info"`
	InfrastructureStatus string   `json:"infrastructure_status"`
	AwarenessRating      uint64   `json:"awareness_rating"`
	Campaigns            string   `json:"campaigns"`
	Location             Location `json:"location"`
}

func (f InstitutionForm) Input() (backend.InstitutionInput, error) {
	if err := requireFields(f.Name, f.InstitutionType, f.Region); err != nil {
		return backend.InstitutionInput{}, err
	}
	r, err := rating(f.AwarenessRating, DefaultAwarenessRating, "Awareness rating")
	if err != nil {
		return backend.InstitutionInput{}, err
	}
	coords, err := f.Location.coordinates()
	if err != nil {
		return backend.InstitutionInput{}, err
	}
	return backend.InstitutionInput{
		Name:                 strings.TrimSpace(f.Name),
		InstitutionType:      strings.TrimSpace(f.InstitutionType),
		Region:               strings.TrimSpace(f.Region),
		ContactInfo:          strings.TrimSpace(f.ContactInfo),
		InfrastructureStatus: strings.TrimSpace(f.InfrastructureStatus),
		AwarenessRating:      r,
		RelatedCampaigns:     ParseCampaigns(f.Campaigns),
		Coordinates:          coords,
	}, nil
}

type AreaForm struct {
	RegionName         string   `json:"region_name"`
	ConnectivityStatus string   `json:"connectivity_status"`
	AccessLevel        uint64   `json:"access_level"`
	Description        string   `json:"description"`
	Campaigns          string   `json:"campaigns"`
	Location           Location `json:"location"`
}

func (f AreaForm) Input() (backend.AreaMonitoringInput, error) {
	if err := requireFields(f.RegionName, f.ConnectivityStatus); err != nil {
		return backend.AreaMonitoringInput{}, err
	}
	lvl, err := rating(f.AccessLevel, DefaultAccessLevel, "Access level")
	if err != nil {
		return backend.AreaMonitoringInput{}, err
	}
	coords, err := f.Location.coordinates()
	if err != nil {
		return backend.AreaMonitoringInput{}, err
	}
	return backend.AreaMonitoringInput{
		RegionName:         strings.TrimSpace(f.RegionName),
		ConnectivityStatus: strings.TrimSpace(f.ConnectivityStatus),
		AccessLevel:        lvl,
		Description:        strings.TrimSpace(f.Description),
		LinkedCampaigns:    ParseCampaigns(f.Campaigns),
		Coordinates:        coords,
	}, nil
}

type CampForm struct {
	Name              string   `json:"name"`
	Location          string   `json:"location"`
	EventType         string   `json:"event_type"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	AssignedClinician string   `json:"assigned_clinician"`
	Status            string   `json:"status"`
	Description       string   `json:"description"`
	Position          Location `json:"position"`
}

func validCampStatus(s string) bool {
	for _, v := range CampStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (f CampForm) Input() (backend.OutreachCampInput, error) {
	if err := requireFields(f.Name, f.Location, f.EventType, f.StartDate, f.EndDate); err != nil {
		return backend.OutreachCampInput{}, err
	}
	start, err := ParseCampDate(f.StartDate)
	if err != nil {
		return backend.OutreachCampInput{}, err
	}
	end, err := ParseCampDate(f.EndDate)
	if err != nil {
		return backend.OutreachCampInput{}, err
	}
	if end < start {
		return backend.OutreachCampInput{}, NewInvalidError("End date must not be before start date")
	}
	status := strings.TrimSpace(f.Status)
	if status == "" {
		status = DefaultCampStatus
	}
	if !validCampStatus(status) {
		return backend.OutreachCampInput{}, NewInvalidError("Unknown camp status " + status)
	}
	var clinician *principal.Principal
	if strings.TrimSpace(f.AssignedClinician) != "" {
		p, err := ParsePrincipal(f.AssignedClinician)
		if err != nil {
			return backend.OutreachCampInput{}, err
		}
		clinician = &p
	}
	coords, err := f.Position.coordinates()
	if err != nil {
		return backend.OutreachCampInput{}, err
	}
	return backend.OutreachCampInput{
		Name:              strings.TrimSpace(f.Name),
		Location:          strings.TrimSpace(f.Location),
		EventType:         strings.TrimSpace(f.EventType),
		StartDate:         start,
		EndDate:           end,
		AssignedClinician: clinician,
		Status:            status,
		Description:       strings.TrimSpace(f.Description),
		Coordinates:       coords,
	}, nil
}

type ReportForm struct {
	RegionName             string   `json:"region_name"`
	ConnectivityStatus     string   `json:"connectivity_status"`
	Description            string   `json:"description"`
	Campaigns              string   `json:"campaigns"`
	HasMentalHealthSupport bool     `json:"has_mental_health_support"`
	Location               Location `json:"location"`
}

func (f ReportForm) Input() (backend.ReportedAreaInput, error) {
	if err := requireFields(f.RegionName, f.ConnectivityStatus, f.Description); err != nil {
		return backend.ReportedAreaInput{}, err
	}
	coords, err := f.Location.coordinates()
	if err != nil {
		return backend.ReportedAreaInput{}, err
	}
	return backend.ReportedAreaInput{
		RegionName:             strings.TrimSpace(f.RegionName),
		ConnectivityStatus:     strings.TrimSpace(f.ConnectivityStatus),
		Description:            strings.TrimSpace(f.Description),
		LinkedCampaigns:        ParseCampaigns(f.Campaigns),
		HasMentalHealthSupport: f.HasMentalHealthSupport,
		Coordinates:            coords,
	}, nil
}

func (s *OutreachService) loggedIn(msg string) error {
	if !s.store.Caller().Authenticated() {
		return NewUnauthorizedError(msg)
	}
	return nil
}

func (s *OutreachService) AddInstitution(ctx context.Context, f InstitutionForm) error {
	in, err := f.Input()
	if err != nil {
		return err
	}
	return s.store.AddInstitution(ctx, in)
}

func (s *OutreachService) UpdateInstitution(ctx context.Context, id uint64, f InstitutionForm) error {
	in, err := f.Input()
	if err != nil {
		return err
	}
	return s.store.UpdateInstitution(ctx, id, in)
}

func (s *OutreachService) AddArea(ctx context.Context, f AreaForm) error {
	in, err := f.Input()
	if err != nil {
		return err
	}
	return s.store.AddAreaMonitoring(ctx, in)
}

// UpdateArea replaces the monitoring record keyed by the form's region.
func (s *OutreachService) UpdateArea(ctx context.Context, f AreaForm) error {
	in, err := f.Input()
	if err != nil {
		return err
	}
	return s.store.UpdateAreaMonitoring(ctx, in)
}

func (s *OutreachService) AddCamp(ctx context.Context, f CampForm) error {
	in, err := f.Input()
	if err != nil {
		return err
	}
	return s.store.AddOutreachCamp(ctx, in)
}

func (s *OutreachService) UpdateCamp(ctx context.Context, id uint64, f CampForm) error {
	in, err := f.Input()
	if err != nil {
		return err
	}
	return s.store.UpdateOutreachCamp(ctx, id, in)
}

func (s *OutreachService) ReportArea(ctx context.Context, f ReportForm) error {
	if err := s.loggedIn("Please login to report an area"); err != nil {
		return err
	}
	in, err := f.Input()
	if err != nil {
		return err
	}
	return s.store.ReportArea(ctx, in)
}

func (s *OutreachService) UpdateCampaigns(ctx context.Context, region, campaigns string) error {
	if err := requireFields(region); err != nil {
		return err
	}
	return s.store.UpdateAreaCampaigns(ctx, strings.TrimSpace(region), ParseCampaigns(campaigns))
}

func (s *OutreachService) Institution(ctx context.Context, id uint64) (*backend.Institution, error) {
	in, err := s.store.Institution(ctx, id)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, NewNotFoundError("Institution not found")
	}
	return in, nil
}

func (s *OutreachService) Area(ctx context.Context, region string) (*backend.AreaMonitoring, error) {
	a, err := s.store.AreaMonitoringByRegion(ctx, region)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("Area not found")
	}
	return a, nil
}

func (s *OutreachService) Camp(ctx context.Context, id uint64) (*backend.OutreachCamp, error) {
	c, err := s.store.OutreachCamp(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("Camp not found")
	}
	return c, nil
}

func (s *OutreachService) ReportedArea(ctx context.Context, region string) (*backend.ReportedArea, error) {
	r, err := s.store.ReportedArea(ctx, region)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, NewNotFoundError("Reported area not found")
	}
	return r, nil
}

func (s *OutreachService) ReportedAreas(ctx context.Context) ([]backend.ReportedArea, error) {
	return s.store.ReportedAreas(ctx)
}

// Overview is everything the outreach dashboard shows at once.
type Overview struct {
	Summary       DashboardSummary         `json:"summary"`
	Institutions  []backend.Institution    `json:"institutions"`
	Areas         []backend.AreaMonitoring `json:"areas"`
	Camps         []backend.OutreachCamp   `json:"camps"`
	ReportedAreas []backend.ReportedArea   `json:"reported_areas"`
	Markers       []MapMarker              `json:"markers"`
}

// Dashboard fetches the outreach lists and analytics concurrently.
func (s *OutreachService) Dashboard(ctx context.Context) (*Overview, error) {
	var (
		ov        Overview
		analytics *backend.DashboardAnalytics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ov.Institutions, err = s.store.Institutions(gctx)
		return err
	})
	g.Go(func() (err error) {
		ov.Areas, err = s.store.AreaMonitoring(gctx)
		return err
	})
	g.Go(func() (err error) {
		ov.Camps, err = s.store.OutreachCamps(gctx)
		return err
	})
	g.Go(func() (err error) {
		ov.ReportedAreas, err = s.store.ReportedAreas(gctx)
		return err
	})
	g.Go(func() (err error) {
		analytics, err = s.store.DashboardAnalytics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load outreach dashboard: %w", err)
	}
	var a backend.DashboardAnalytics
	if analytics != nil {
		a = *analytics
	}
	ov.Summary = Summarize(a, ov.Institutions, ov.Areas, ov.Camps)
	ov.Markers = BuildMarkers(ov.Institutions, ov.Areas, ov.Camps, ov.ReportedAreas)
	return &ov, nil
}

// Map returns only the located markers.
func (s *OutreachService) Map(ctx context.Context) ([]MapMarker, error) {
	ov, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	return ov.Markers, nil
}
