// ABOUTME: Curriculum matrix search for the fake backend
// ABOUTME: Case-insensitive substring match over a small seeded catalogue

package fakebackend

import (
	"net/http"
	"strings"

	"github.com/markalston/maarif-planner/internal/models"
)

var seedMatrix = []models.MatrixResult{
	{Code: "MAB.1", Title: "Counting objects", AgeBand: models.AgeBand48to60, Description: "Counts objects up to 10 and says how many."},
	{Code: "MAB.3", Title: "Comparing quantities", AgeBand: models.AgeBand60to72, Description: "Compares groups of objects as more, fewer or equal."},
	{Code: "TADB.1", Title: "Listening", AgeBand: models.AgeBand36to48, Description: "Listens to stories and answers simple questions."},
	{Code: "TADB.2", Title: "Storytelling", AgeBand: models.AgeBand60to72, Description: "Retells a story in order."},
	{Code: "FBAB.1", Title: "Observing nature", AgeBand: models.AgeBand48to60, Description: "Observes seasonal change in plants and weather."},
	{Code: "SBAB.2", Title: "Family and community", AgeBand: models.AgeBand36to48, Description: "Names family members and community helpers."},
	{Code: "HSAB.1", Title: "Balance and movement", AgeBand: models.AgeBand60to72, Description: "Keeps balance while walking on a line."},
	{Code: "SNAB.1", Title: "Colour mixing", AgeBand: models.AgeBand48to60, Description: "Mixes paint to make new colours."},
	{Code: "MHB.1", Title: "Rhythm", AgeBand: models.AgeBand36to48, Description: "Claps along to a steady beat."},
}

func (s *Server) handleMatrixSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	ageBand := models.AgeBand(r.URL.Query().Get("ageBand"))

	s.mu.Lock()
	entries := s.matrix
	wrap := s.wrapMatrix
	s.mu.Unlock()

	results := []models.MatrixResult{}
	for _, e := range entries {
		if ageBand != "" && e.AgeBand != ageBand {
			continue
		}
		haystack := strings.ToLower(e.Code + " " + e.Title + " " + e.Description)
		if query == "" || strings.Contains(haystack, query) {
			results = append(results, e)
		}
	}

	if wrap {
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
		return
	}
	writeJSON(w, http.StatusOK, results)
}
