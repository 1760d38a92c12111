// ABOUTME: Data models for users, plans, chat and portfolio
// ABOUTME: JSON-serializable structures matching the planning backend

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AgeBand is a one-year child age bracket used for targeting and filtering.
type AgeBand string

const (
	AgeBand36to48 AgeBand = "36_48"
	AgeBand48to60 AgeBand = "48_60"
	AgeBand60to72 AgeBand = "60_72"

	DefaultAgeBand = AgeBand60to72
)

// AgeBands lists the closed set in ascending order.
var AgeBands = []AgeBand{AgeBand36to48, AgeBand48to60, AgeBand60to72}

func (a AgeBand) Valid() bool {
	switch a {
	case AgeBand36to48, AgeBand48to60, AgeBand60to72:
		return true
	}
	return false
}

// Label renders the band for people, e.g. "36-48 months".
func (a AgeBand) Label() string {
	switch a {
	case AgeBand36to48:
		return "36-48 months"
	case AgeBand48to60:
		return "48-60 months"
	case AgeBand60to72:
		return "60-72 months"
	case "":
		return "unspecified"
	}
	return string(a)
}

// ParseAgeBand accepts "36_48" or "36-48".
func ParseAgeBand(s string) (AgeBand, error) {
	b := AgeBand(s)
	if len(s) == 5 && s[2] == '-' {
		b = AgeBand(s[:2] + "_" + s[3:])
	}
	if !b.Valid() {
		return "", fmt.Errorf("invalid age band %q (want 36_48, 48_60 or 60_72)", s)
	}
	return b, nil
}

// PlanType distinguishes daily plans (keyed by date) from monthly plans
// (keyed by month).
type PlanType string

const (
	PlanDaily   PlanType = "daily"
	PlanMonthly PlanType = "monthly"
)

func ParsePlanType(s string) (PlanType, error) {
	switch PlanType(s) {
	case PlanDaily, PlanMonthly:
		return PlanType(s), nil
	}
	return "", fmt.Errorf("invalid plan type %q (want daily or monthly)", s)
}

// User is the profile returned by login, register and /auth/me.
type User struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	School     *string `json:"school"`
	ClassName  *string `json:"className"`
	AgeDefault AgeBand `json:"ageDefault,omitempty"`
}

// PreferredAgeBand falls back to DefaultAgeBand when the profile has none.
func (u *User) PreferredAgeBand() AgeBand {
	if u == nil || !u.AgeDefault.Valid() {
		return DefaultAgeBand
	}
	return u.AgeDefault
}

// AuthResponse is the body of a successful login or register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Plan is both the list projection and the detail record; PlanJSON is only
// populated by detail fetches.
type Plan struct {
	ID        string          `json:"id"`
	Date      string          `json:"date,omitempty"`
	Month     string          `json:"month,omitempty"`
	AgeBand   AgeBand         `json:"ageBand"`
	Title     string          `json:"title"`
	CreatedAt string          `json:"createdAt,omitempty"`
	PDFURL    *string         `json:"pdfUrl,omitempty"`
	PlanJSON  json.RawMessage `json:"planJson,omitempty"`
}

// Type infers the plan type from which key field is present.
func (p Plan) Type() PlanType {
	if p.Month != "" && p.Date == "" {
		return PlanMonthly
	}
	return PlanDaily
}

// NewPlan is the create body for both plan endpoints; exactly one of Date
// and Month is set.
type NewPlan struct {
	Date     string          `json:"date,omitempty"`
	Month    string          `json:"month,omitempty"`
	AgeBand  AgeBand         `json:"ageBand"`
	Title    string          `json:"title,omitempty"`
	PlanJSON json.RawMessage `json:"planJson"`
}

// Created is returned by create endpoints.
type Created struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is posted to /api/ai/chat with the client-held history.
type ChatRequest struct {
	Message  string        `json:"message"`
	History  []ChatMessage `json:"history"`
	AgeBand  AgeBand       `json:"ageBand"`
	PlanType PlanType      `json:"planType"`
}

// PortfolioPhoto is an image attached to an activity of a daily plan.
type PortfolioPhoto struct {
	ID            string  `json:"id"`
	ActivityTitle string  `json:"activityTitle"`
	PhotoBase64   string  `json:"photoBase64"`
	Description   *string `json:"description"`
	UploadedAt    string  `json:"uploadedAt"`
}

type NewPortfolioPhoto struct {
	PlanID        string  `json:"planId"`
	ActivityTitle string  `json:"activityTitle"`
	PhotoBase64   string  `json:"photoBase64"`
	Description   *string `json:"description"`
}

// MatrixResult covers both search response shapes: curriculum entries
// (code/title/description) and ranked hits (id/content/type/relevance).
type MatrixResult struct {
	Code        string  `json:"code,omitempty"`
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	AgeBand     AgeBand `json:"ageBand,omitempty"`
	Description string  `json:"description,omitempty"`
	Content     string  `json:"content,omitempty"`
	Type        string  `json:"type,omitempty"`
	Relevance   float64 `json:"relevance,omitempty"`
}

// Key returns the code when present, otherwise the id.
func (r MatrixResult) Key() string {
	if r.Code != "" {
		return r.Code
	}
	return r.ID
}

// ErrorResponse is the backend's error body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
