// ABOUTME: Tests for the root command and global flag handling
// ABOUTME: Verifies API URL resolution order and output mode flags

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/markalston/maarif-planner/internal/auth"
	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/config"
)

func TestGetAPIURL_Default(t *testing.T) {
	apiURL = "" // Reset flag

	if url := GetAPIURL(nil); url != config.DefaultAPIURL {
		t.Errorf("expected default URL %s, got %s", config.DefaultAPIURL, url)
	}
}

func TestGetAPIURL_FromConfig(t *testing.T) {
	apiURL = ""

	url := GetAPIURL(&config.Config{APIURL: "http://backend.example.com"})
	if url != "http://backend.example.com" {
		t.Errorf("expected http://backend.example.com, got %s", url)
	}
}

func TestGetAPIURL_FlagOverridesConfig(t *testing.T) {
	apiURL = "http://flag-override.example.com"
	defer func() { apiURL = "" }()

	url := GetAPIURL(&config.Config{APIURL: "http://backend.example.com"})
	if url != "http://flag-override.example.com" {
		t.Errorf("expected flag to override config, got %s", url)
	}
}

func TestJSONOutput(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	if !IsJSONOutput() {
		t.Error("expected IsJSONOutput to return true")
	}
}

func TestReportError_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no session", client.ErrNoSession, 2},
		{"expired", client.ErrUnauthorized, 2},
		{"network", fmt.Errorf("%w: refused", client.ErrNetwork), 2},
		{"validation", &auth.ValidationError{Message: "Email is required"}, 1},
		{"api refusal", &client.APIError{StatusCode: 409, Detail: "Email already registered"}, 1},
		{"other", errors.New("boom"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := reportError(&buf, tt.err); got != tt.want {
				t.Errorf("exit code = %d, want %d", got, tt.want)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("Error: ")) {
				t.Errorf("output = %q", buf.String())
			}
		})
	}
}
