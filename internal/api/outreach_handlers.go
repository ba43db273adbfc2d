package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/db"
	"github.com/soaringjerry/supportportal/internal/queries"
	"github.com/soaringjerry/supportportal/internal/services"
)

// outreachRead answers a GET with whatever fn loads.
func outreachRead[T any](rt *Router, w http.ResponseWriter, r *http.Request, fn func(context.Context, *services.OutreachService) (T, error)) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	v, err := fn(r.Context(), services.NewOutreachService(c))
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// outreachWrite decodes a form of type F and applies it.
func outreachWrite[F any](rt *Router, w http.ResponseWriter, r *http.Request, action services.Action, method, target string, status int, fn func(context.Context, *services.OutreachService, F) error) {
	var form F
	if err := decodeJSON(w, r, &form); err != nil {
		rt.writeError(w, r, action, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, action, err)
		return
	}
	if rt.mutate(w, r, action, method, target, func() error {
		return fn(r.Context(), services.NewOutreachService(c), form)
	}) {
		writeJSON(w, status, map[string]any{"ok": true})
	}
}

func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request) {
	outreachRead(rt, w, r, func(ctx context.Context, s *services.OutreachService) (*services.Overview, error) {
		return s.Dashboard(ctx)
	})
}

func (rt *Router) handleMap(w http.ResponseWriter, r *http.Request) {
	outreachRead(rt, w, r, func(ctx context.Context, s *services.OutreachService) (map[string]any, error) {
		markers, err := s.Map(ctx)
		return map[string]any{"markers": markers}, err
	})
}

func (rt *Router) handleAddInstitution(w http.ResponseWriter, r *http.Request) {
	outreachWrite(rt, w, r, services.ActionAddInstitution, "addInstitution", "", http.StatusCreated,
		func(ctx context.Context, s *services.OutreachService, f services.InstitutionForm) error {
			return s.AddInstitution(ctx, f)
		})
}

func (rt *Router) handleInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	outreachRead(rt, w, r, func(ctx context.Context, s *services.OutreachService) (*backend.Institution, error) {
		return s.Institution(ctx, id)
	})
}

func (rt *Router) handleUpdateInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, services.ActionUpdateInstitution, err)
		return
	}
	outreachWrite(rt, w, r, services.ActionUpdateInstitution, "updateInstitution", r.PathValue("id"), http.StatusOK,
		func(ctx context.Context, s *services.OutreachService, f services.InstitutionForm) error {
			return s.UpdateInstitution(ctx, id, f)
		})
}

func (rt *Router) handleAddArea(w http.ResponseWriter, r *http.Request) {
	outreachWrite(rt, w, r, services.ActionAddAreaMonitoring, "addAreaMonitoring", "", http.StatusCreated,
		func(ctx context.Context, s *services.OutreachService, f services.AreaForm) error {
			return s.AddArea(ctx, f)
		})
}

func (rt *Router) handleArea(w http.ResponseWriter, r *http.Request) {
	outreachRead(rt, w, r, func(ctx context.Context, s *services.OutreachService) (*backend.AreaMonitoring, error) {
		return s.Area(ctx, r.PathValue("region"))
	})
}

// PUT /api/outreach/areas/{region}: the path names the area being updated.
func (rt *Router) handleUpdateArea(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	outreachWrite(rt, w, r, services.ActionUpdateAreaMonitoring, "updateAreaMonitoring", region, http.StatusOK,
		func(ctx context.Context, s *services.OutreachService, f services.AreaForm) error {
			f.RegionName = region
			return s.UpdateArea(ctx, f)
		})
}

func (rt *Router) handleAddCamp(w http.ResponseWriter, r *http.Request) {
	outreachWrite(rt, w, r, services.ActionAddCamp, "addOutreachCamp", "", http.StatusCreated,
		func(ctx context.Context, s *services.OutreachService, f services.CampForm) error {
			return s.AddCamp(ctx, f)
		})
}

func (rt *Router) handleCamp(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	outreachRead(rt, w, r, func(ctx context.Context, s *services.OutreachService) (*backend.OutreachCamp, error) {
		return s.Camp(ctx, id)
	})
}

func (rt *Router) handleUpdateCamp(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		rt.writeError(w, r, services.ActionUpdateCamp, err)
		return
	}
	outreachWrite(rt, w, r, services.ActionUpdateCamp, "updateOutreachCamp", r.PathValue("id"), http.StatusOK,
		func(ctx context.Context, s *services.OutreachService, f services.CampForm) error {
			return s.UpdateCamp(ctx, id, f)
		})
}

func (rt *Router) handleReportedAreas(w http.ResponseWriter, r *http.Request) {
	outreachRead(rt, w, r, func(ctx context.Context, s *services.OutreachService) (map[string]any, error) {
		areas, err := s.ReportedAreas(ctx)
		return map[string]any{"reported_areas": areas}, err
	})
}

func (rt *Router) handleReportArea(w http.ResponseWriter, r *http.Request) {
	outreachWrite(rt, w, r, services.ActionReportArea, "reportArea", "", http.StatusCreated,
		func(ctx context.Context, s *services.OutreachService, f services.ReportForm) error {
			return s.ReportArea(ctx, f)
		})
}

func (rt *Router) handleReportedArea(w http.ResponseWriter, r *http.Request) {
	outreachRead(rt, w, r, func(ctx context.Context, s *services.OutreachService) (*backend.ReportedArea, error) {
		return s.ReportedArea(ctx, r.PathValue("region"))
	})
}

type campaignsRequest struct {
	Campaigns string `json:"campaigns"`
}

// PUT /api/outreach/reported/{region}/campaigns {campaigns: "a, b"}
func (rt *Router) handleUpdateCampaigns(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	outreachWrite(rt, w, r, services.ActionUpdateCampaigns, "updateAreaCampaigns", region, http.StatusOK,
		func(ctx context.Context, s *services.OutreachService, f campaignsRequest) error {
			return s.UpdateCampaigns(ctx, region, f.Campaigns)
		})
}

// GET /api/outreach/export/{kind}, kind one of institutions, areas, camps,
// reported, with an optional .csv suffix.
func (rt *Router) handleOutreachExport(w http.ResponseWriter, r *http.Request) {
	kind := strings.TrimSuffix(r.PathValue("kind"), ".csv")
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	b, err := exportOutreach(r.Context(), c, kind)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeCSV(w, kind+".csv", b)
}

func exportOutreach(ctx context.Context, c *queries.Client, kind string) ([]byte, error) {
	switch kind {
	case "institutions":
		list, err := c.Institutions(ctx)
		if err != nil {
			return nil, err
		}
		return services.ExportInstitutionsCSV(list)
	case "areas":
		list, err := c.AreaMonitoring(ctx)
		if err != nil {
			return nil, err
		}
		return services.ExportAreasCSV(list)
	case "camps":
		list, err := c.OutreachCamps(ctx)
		if err != nil {
			return nil, err
		}
		return services.ExportCampsCSV(list)
	case "reported":
		list, err := c.ReportedAreas(ctx)
		if err != nil {
			return nil, err
		}
		return services.ExportReportedAreasCSV(list)
	}
	return nil, services.NewNotFoundError("unknown export " + kind)
}

// GET /api/admin/active-users
func (rt *Router) handleActiveUsers(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	users, err := services.NewAdminService(c).ActiveUsers(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active_users": users})
}

// POST /api/admin/roles {principal, role}
func (rt *Router) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var form services.RoleForm
	if err := decodeJSON(w, r, &form); err != nil {
		rt.writeError(w, r, services.ActionAssignRole, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionAssignRole, err)
		return
	}
	if rt.mutate(w, r, services.ActionAssignRole, "assignCallerUserRole", form.Principal, func() error {
		return services.NewAdminService(c).AssignRole(r.Context(), form)
	}) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "toast": "Role assigned successfully"})
	}
}

// GET /api/app-url
func (rt *Router) handleAppURL(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	res := services.NewResourcesService(c, rt.publicURL)
	writeJSON(w, http.StatusOK, map[string]any{"url": res.AppURL(r.Context()), "share": res.Share(r.Context())})
}

// PUT /api/admin/app-url {url}
func (rt *Router) handleSetAppURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, services.ActionSetAppURL, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionSetAppURL, err)
		return
	}
	if rt.mutate(w, r, services.ActionSetAppURL, "setAppUrl", req.URL, func() error {
		return services.NewAdminService(c).SetAppURL(r.Context(), req.URL)
	}) {
		ok(w)
	}
}

// GET /api/admin/audit?principal=&action=&limit=
func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	if !c.Caller().Authenticated() {
		rt.writeError(w, r, services.ActionLoad, services.NewUnauthorizedError("Please login to view the audit log"))
		return
	}
	// The audit log lives here rather than in the actor, so the admin check
	// has to happen here too.
	admin, err := c.IsCallerAdmin(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	if !admin {
		rt.writeError(w, r, services.ActionLoad, services.NewForbiddenError("Only admins can view the audit log"))
		return
	}
	entries, err := rt.store.ListAudit(r.Context(), auditFilter(r))
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func auditFilter(r *http.Request) db.AuditFilter {
	q := r.URL.Query()
	f := db.AuditFilter{Principal: q.Get("principal"), Action: q.Get("action")}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = n
	}
	return f
}
