// ABOUTME: Device-local profile edits
// ABOUTME: The backend has no profile update endpoint, so edits only touch the cached user

package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/session"
)

// ErrNoProfile is returned when no user is cached on this device.
var ErrNoProfile = errors.New("no profile stored on this device")

// ProfileEdit lists the fields to change. A nil field is left alone; an
// empty school or class clears it.
type ProfileEdit struct {
	Name      *string
	School    *string
	ClassName *string
	AgeBand   *string
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Apply returns the edited copy of u.
func (e ProfileEdit) Apply(u models.User) (models.User, error) {
	if e.Name != nil {
		name := strings.TrimSpace(*e.Name)
		if name == "" {
			return u, errors.New("name cannot be empty")
		}
		u.Name = name
	}
	if e.School != nil {
		u.School = optional(*e.School)
	}
	if e.ClassName != nil {
		u.ClassName = optional(*e.ClassName)
	}
	if e.AgeBand != nil {
		band, err := models.ParseAgeBand(*e.AgeBand)
		if err != nil {
			return u, err
		}
		u.AgeDefault = band
	}
	return u, nil
}

// UpdateProfile applies e to the cached user and stores the result. The
// next launch check overwrites it with the server's copy.
func UpdateProfile(ctx context.Context, sess *session.Store, e ProfileEdit) (*models.User, error) {
	user, err := sess.User(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoProfile
	}
	updated, err := e.Apply(*user)
	if err != nil {
		return nil, err
	}
	if err := sess.SaveUser(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
