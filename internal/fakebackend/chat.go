// ABOUTME: Scripted planning assistant for the fake backend
// ABOUTME: Finalizes a plan once the conversation names a date

package fakebackend

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/markalston/maarif-planner/internal/models"
)

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	s.mu.Lock()
	s.chatLog = append(s.chatLog, req)
	chat := s.chat
	s.mu.Unlock()

	reply, err := chat(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "AI service error: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply)
}

// defaultChat asks for a date until one appears in the message or the
// history, then answers with a finalized plan for that date.
func (s *Server) defaultChat(req models.ChatRequest) (json.RawMessage, error) {
	date := datePattern.FindString(req.Message)
	for i := len(req.History) - 1; date == "" && i >= 0; i-- {
		date = datePattern.FindString(req.History[i].Content)
	}

	ageBand := req.AgeBand
	if !ageBand.Valid() {
		ageBand = models.DefaultAgeBand
	}
	planType := req.PlanType
	if planType == "" {
		planType = models.PlanDaily
	}

	if date == "" {
		return json.Marshal(map[string]any{
			"finalize":          false,
			"type":              planType,
			"ageBand":           ageBand,
			"message":           "Which day should this plan be for? Please give a date as YYYY-MM-DD.",
			"followUpQuestions": []string{"Which date is the plan for?"},
			"missingFields":     []string{"date"},
		})
	}

	return json.Marshal(map[string]any{
		"finalize": true,
		"type":     planType,
		"ageBand":  ageBand,
		"date":     date,
		"theme":    "Seasons",
		"message":  "Your plan for " + date + " is ready.",
		"domainOutcomes": []map[string]any{
			{"code": "MAB.1", "indicators": []string{"Counts objects up to 10"}},
		},
		"conceptualSkills": []string{"counting", "comparing"},
		"dispositions":     []string{"curiosity"},
		"blocks": map[string]any{
			"startOfDay": "Morning circle and greeting song",
			"activities": []map[string]any{
				{
					"title":     "Leaf counting",
					"location":  "garden",
					"duration":  "30 minutes",
					"materials": []string{"leaves", "baskets"},
					"steps":     []string{"Collect leaves", "Count them together"},
				},
			},
			"assessment": []string{"Observe counting accuracy"},
		},
		"notes": "Generated by the development backend.",
	})
}
