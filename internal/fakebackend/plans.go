// ABOUTME: Plan and portfolio handlers for the fake backend
// ABOUTME: Daily plans are keyed by date, monthly plans by month

package fakebackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/markalston/maarif-planner/internal/models"
)

func planType(r *http.Request) (models.PlanType, bool) {
	typ, err := models.ParsePlanType(chi.URLParam(r, "type"))
	return typ, err == nil
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	typ, ok := planType(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	owner := userIDFromContext(r.Context())
	from := r.URL.Query().Get("from_date")
	to := r.URL.Query().Get("to_date")

	s.mu.Lock()
	out := []models.Plan{}
	for _, sp := range s.plans[typ] {
		if sp.owner != owner {
			continue
		}
		if typ == models.PlanDaily && from != "" && to != "" {
			if sp.plan.Date < from || sp.plan.Date > to {
				continue
			}
		}
		p := sp.plan
		p.PlanJSON = nil
		out = append(out, p)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].Date+out[i].Month, out[j].Date+out[j].Month
		if ki != kj {
			return ki > kj
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	typ, ok := planType(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	s.mu.Lock()
	sp, found := s.plans[typ][chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !found || sp.owner != userIDFromContext(r.Context()) {
		writeError(w, http.StatusNotFound, "Plan not found")
		return
	}
	writeJSON(w, http.StatusOK, sp.plan)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	typ, ok := planType(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	var body models.NewPlan
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if len(body.PlanJSON) == 0 || string(body.PlanJSON) == "null" {
		writeError(w, http.StatusUnprocessableEntity, "planJson is required")
		return
	}

	plan := models.Plan{
		ID:        uuid.NewString(),
		AgeBand:   body.AgeBand,
		Title:     body.Title,
		CreatedAt: s.now().UTC().Format(time.RFC3339Nano),
		PlanJSON:  body.PlanJSON,
	}

	var message string
	switch typ {
	case models.PlanDaily:
		if _, err := time.Parse("2006-01-02", body.Date); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid date format. Use YYYY-MM-DD format.")
			return
		}
		plan.Date = body.Date
		message = "Daily plan created successfully"
		if plan.Title == "" {
			plan.Title = fmt.Sprintf("Daily plan - %s", body.Date)
		}
	case models.PlanMonthly:
		if _, err := time.Parse("2006-01", body.Month); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid month format. Use YYYY-MM format.")
			return
		}
		plan.Month = body.Month
		message = "Monthly plan created successfully"
		if plan.Title == "" {
			plan.Title = fmt.Sprintf("Monthly plan - %s", body.Month)
		}
	}

	s.mu.Lock()
	s.plans[typ][plan.ID] = &storedPlan{owner: userIDFromContext(r.Context()), plan: plan}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.Created{ID: plan.ID, Message: message})
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	typ, ok := planType(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	id := chi.URLParam(r, "id")
	owner := userIDFromContext(r.Context())

	s.mu.Lock()
	sp, found := s.plans[typ][id]
	if found && sp.owner == owner {
		delete(s.plans[typ], id)
		for pid, ph := range s.photos {
			if ph.planID == id {
				delete(s.photos, pid)
			}
		}
	}
	s.mu.Unlock()

	if !found || sp.owner != owner {
		writeError(w, http.StatusNotFound, "Plan not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Plan deleted successfully"})
}

func (s *Server) ownsDailyPlan(owner, planID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.plans[models.PlanDaily][planID]
	return ok && sp.owner == owner
}

func (s *Server) handleListPortfolio(w http.ResponseWriter, r *http.Request) {
	owner := userIDFromContext(r.Context())
	planID := chi.URLParam(r, "id")
	if !s.ownsDailyPlan(owner, planID) {
		writeError(w, http.StatusNotFound, "Plan not found")
		return
	}

	s.mu.Lock()
	out := []models.PortfolioPhoto{}
	for _, ph := range s.photos {
		if ph.planID == planID && ph.owner == owner {
			out = append(out, ph.photo)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt > out[j].UploadedAt })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddPortfolio(w http.ResponseWriter, r *http.Request) {
	owner := userIDFromContext(r.Context())
	planID := chi.URLParam(r, "id")
	if !s.ownsDailyPlan(owner, planID) {
		writeError(w, http.StatusNotFound, "Plan not found")
		return
	}

	var body models.NewPortfolioPhoto
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	if body.ActivityTitle == "" || body.PhotoBase64 == "" {
		writeError(w, http.StatusUnprocessableEntity, "activityTitle and photoBase64 are required")
		return
	}

	photo := models.PortfolioPhoto{
		ID:            uuid.NewString(),
		ActivityTitle: body.ActivityTitle,
		PhotoBase64:   body.PhotoBase64,
		Description:   body.Description,
		UploadedAt:    s.now().UTC().Format(time.RFC3339Nano),
	}

	s.mu.Lock()
	s.photos[photo.ID] = &storedPhoto{owner: owner, planID: planID, photo: photo}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.Created{ID: photo.ID, Message: "Portfolio photo added successfully"})
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	owner := userIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	ph, found := s.photos[id]
	if found && ph.owner == owner {
		delete(s.photos, id)
	}
	s.mu.Unlock()

	if !found || ph.owner != owner {
		writeError(w, http.StatusNotFound, "Portfolio photo not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Portfolio photo deleted successfully"})
}
