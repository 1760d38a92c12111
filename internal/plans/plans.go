// ABOUTME: Plan collection and detail operations over the API client
// ABOUTME: Every view re-fetches; nothing is cached between calls

package plans

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/models"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoActivities means the plan has nothing to attach a photo to.
	ErrNoActivities = errors.New("this plan has no activities")
	// ErrActivityRequired means no activity title was chosen for a photo.
	ErrActivityRequired = errors.New("choose an activity for the photo")
	// ErrPortfolioDailyOnly means a photo was attached to a monthly plan.
	ErrPortfolioDailyOnly = errors.New("portfolio photos can only be added to daily plans")
	// ErrNotImage means the uploaded bytes are not a recognized image.
	ErrNotImage = errors.New("file is not an image")
)

// Service fetches and mutates plans.
type Service struct {
	client *client.Client
}

func NewService(c *client.Client) *Service {
	return &Service{client: c}
}

// Calendar fetches the daily plans dated inside m.
func (s *Service) Calendar(ctx context.Context, m Month) (*CalendarPage, error) {
	from, to := m.Bounds()
	plans, err := s.client.ListDailyPlans(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &CalendarPage{Month: m, Plans: plans}, nil
}

// List fetches the full collection for tab, keeping only items that carry
// the tab's key field.
func (s *Service) List(ctx context.Context, tab models.PlanType) ([]models.Plan, error) {
	plans, err := s.client.ListPlans(ctx, tab)
	if err != nil {
		return nil, err
	}
	return FilterTab(plans, tab), nil
}

// FilterTab keeps daily items with a date or monthly items with a month.
func FilterTab(plans []models.Plan, tab models.PlanType) []models.Plan {
	out := make([]models.Plan, 0, len(plans))
	for _, p := range plans {
		if (tab == models.PlanDaily && p.Date != "") || (tab == models.PlanMonthly && p.Month != "") {
			out = append(out, p)
		}
	}
	return out
}

// Delete removes the plan and returns the re-fetched collection for its
// tab. The local list is never edited in place.
func (s *Service) Delete(ctx context.Context, typ models.PlanType, id string) ([]models.Plan, error) {
	if err := s.client.DeletePlan(ctx, typ, id); err != nil {
		return nil, err
	}
	slog.Info("Deleted plan", "type", typ, "id", id)
	return s.List(ctx, typ)
}

// Detail is a plan with its decoded content and, for daily plans, its
// portfolio.
type Detail struct {
	Plan      models.Plan
	Content   models.PlanContent
	Portfolio []models.PortfolioPhoto
}

// Type is the plan's type.
func (d *Detail) Type() models.PlanType { return d.Plan.Type() }

// CanAddPhoto reports whether photos can be attached.
func (d *Detail) CanAddPhoto() error {
	if d.Type() != models.PlanDaily {
		return ErrPortfolioDailyOnly
	}
	if len(d.Content.ActivityTitles()) == 0 {
		return ErrNoActivities
	}
	return nil
}

// Detail loads the plan and, for daily plans, its portfolio concurrently.
// A missing plan fails the whole load; a failing portfolio fetch does not,
// unless the session was rejected.
func (s *Service) Detail(ctx context.Context, typ models.PlanType, id string) (*Detail, error) {
	g, gctx := errgroup.WithContext(ctx)

	var plan *models.Plan
	g.Go(func() error {
		p, err := s.client.GetPlan(gctx, typ, id)
		if err != nil {
			return err
		}
		plan = p
		return nil
	})

	var portfolio []models.PortfolioPhoto
	if typ == models.PlanDaily {
		g.Go(func() error {
			photos, err := s.client.ListPortfolio(gctx, id)
			switch {
			case err == nil:
				portfolio = photos
			case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrNoSession):
				return err
			default:
				slog.Warn("failed to load portfolio", "plan_id", id, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Detail{
		Plan:      *plan,
		Content:   models.DecodePlanContent(plan.PlanJSON),
		Portfolio: portfolio,
	}, nil
}

// PhotoUpload is a new portfolio image.
type PhotoUpload struct {
	ActivityTitle string
	Image         []byte
	Description   string
}

// PhotoDataURI encodes image bytes as a data URI after sniffing the type.
func PhotoDataURI(image []byte) (string, error) {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w (detected %s)", ErrNotImage, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image), nil
}

// AddPhoto attaches an image to one of the plan's activities and returns
// the re-fetched portfolio.
func (s *Service) AddPhoto(ctx context.Context, d *Detail, up PhotoUpload) ([]models.PortfolioPhoto, error) {
	if err := d.CanAddPhoto(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(up.ActivityTitle) == "" {
		return nil, ErrActivityRequired
	}
	uri, err := PhotoDataURI(up.Image)
	if err != nil {
		return nil, err
	}

	var description *string
	if desc := strings.TrimSpace(up.Description); desc != "" {
		description = &desc
	}
	_, err = s.client.AddPortfolioPhoto(ctx, d.Plan.ID, &models.NewPortfolioPhoto{
		PlanID:        d.Plan.ID,
		ActivityTitle: up.ActivityTitle,
		PhotoBase64:   uri,
		Description:   description,
	})
	if err != nil {
		return nil, err
	}
	return s.client.ListPortfolio(ctx, d.Plan.ID)
}

// DeletePhoto removes a photo and returns the re-fetched portfolio.
func (s *Service) DeletePhoto(ctx context.Context, planID, photoID string) ([]models.PortfolioPhoto, error) {
	if err := s.client.DeletePortfolioPhoto(ctx, photoID); err != nil {
		return nil, err
	}
	return s.client.ListPortfolio(ctx, planID)
}
