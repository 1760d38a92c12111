// ABOUTME: Tests for device-local profile edits
// ABOUTME: Validates partial edits, clearing optional fields and the stored copy

package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/markalston/maarif-planner/internal/kvstore"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/session"
)

func ptr(s string) *string { return &s }

func TestProfileEdit_Apply(t *testing.T) {
	base := models.User{ID: "u1", Email: "a@example.com", Name: "Ayse", School: ptr("Sunrise"), ClassName: ptr("Bees"), AgeDefault: models.AgeBand48to60}

	tests := []struct {
		name    string
		edit    ProfileEdit
		want    models.User
		wantErr bool
	}{
		{
			name: "no changes",
			edit: ProfileEdit{},
			want: base,
		},
		{
			name: "rename trims",
			edit: ProfileEdit{Name: ptr("  Ayse K ")},
			want: models.User{ID: "u1", Email: "a@example.com", Name: "Ayse K", School: ptr("Sunrise"), ClassName: ptr("Bees"), AgeDefault: models.AgeBand48to60},
		},
		{
			name: "empty school clears it",
			edit: ProfileEdit{School: ptr(" ")},
			want: models.User{ID: "u1", Email: "a@example.com", Name: "Ayse", ClassName: ptr("Bees"), AgeDefault: models.AgeBand48to60},
		},
		{
			name: "age band accepts dashes",
			edit: ProfileEdit{AgeBand: ptr("36-48")},
			want: models.User{ID: "u1", Email: "a@example.com", Name: "Ayse", School: ptr("Sunrise"), ClassName: ptr("Bees"), AgeDefault: models.AgeBand36to48},
		},
		{name: "empty name", edit: ProfileEdit{Name: ptr("")}, wantErr: true},
		{name: "bad age band", edit: ProfileEdit{AgeBand: ptr("12_24")}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.edit.Apply(base)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("user (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdateProfile_StoresLocally(t *testing.T) {
	ctx := context.Background()
	sess := session.New(kvstore.NewMemoryStore())

	if _, err := UpdateProfile(ctx, sess, ProfileEdit{Name: ptr("X")}); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("without a user: %v", err)
	}

	if err := sess.SetSession(ctx, "tok", models.User{ID: "u1", Name: "Ayse"}); err != nil {
		t.Fatal(err)
	}
	updated, err := UpdateProfile(ctx, sess, ProfileEdit{ClassName: ptr("Owls")})
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := sess.User(ctx)
	if diff := cmp.Diff(updated, stored); diff != "" {
		t.Errorf("stored (-returned +stored):\n%s", diff)
	}
	if stored.ClassName == nil || *stored.ClassName != "Owls" || stored.Name != "Ayse" {
		t.Errorf("stored = %+v", stored)
	}
	if tok, ok, _ := sess.Token(ctx); !ok || tok != "tok" {
		t.Error("profile edit must keep the session token")
	}
}
