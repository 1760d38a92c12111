// ABOUTME: Defensive decoding of the opaque planJson document
// ABOUTME: Only known optional fields are read; shape mismatches degrade to empty

package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PlanContent is the readable projection of planJson.
type PlanContent struct {
	Finalize         bool            `json:"finalize,omitempty"`
	Type             string          `json:"type,omitempty"`
	AgeBand          AgeBand         `json:"ageBand,omitempty"`
	Date             string          `json:"date,omitempty"`
	Theme            string          `json:"theme,omitempty"`
	Duration         string          `json:"duration,omitempty"`
	DomainOutcomes   []DomainOutcome `json:"domainOutcomes,omitempty"`
	ConceptualSkills StringList      `json:"conceptualSkills,omitempty"`
	Dispositions     StringList      `json:"dispositions,omitempty"`
	Blocks           Blocks          `json:"blocks"`
	Differentiation  Differentiation `json:"differentiation"`
	Notes            Text            `json:"notes,omitempty"`
}

type DomainOutcome struct {
	Code       string     `json:"code"`
	Indicators StringList `json:"indicators,omitempty"`
	Notes      Text       `json:"notes,omitempty"`
}

type Blocks struct {
	StartOfDay      Text       `json:"startOfDay,omitempty"`
	LearningCenters StringList `json:"learningCenters,omitempty"`
	Activities      []Activity `json:"activities,omitempty"`
	MealsCleanup    StringList `json:"mealsCleanup,omitempty"`
	Assessment      StringList `json:"assessment,omitempty"`
}

type Activity struct {
	Title           string     `json:"title"`
	Location        string     `json:"location,omitempty"`
	Duration        string     `json:"duration,omitempty"`
	Materials       StringList `json:"materials,omitempty"`
	Steps           StringList `json:"steps,omitempty"`
	Mapping         StringList `json:"mapping,omitempty"`
	Objectives      StringList `json:"objectives,omitempty"`
	Differentiation Text       `json:"differentiation,omitempty"`
}

type Differentiation struct {
	Enrichment Text `json:"enrichment,omitempty"`
	Support    Text `json:"support,omitempty"`
}

// DecodePlanContent reads the known fields of raw. Each top-level field is
// decoded on its own so one malformed field does not hide the others.
func DecodePlanContent(raw json.RawMessage) PlanContent {
	var pc PlanContent
	if len(raw) == 0 {
		return pc
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return pc
	}

	decode := func(key string, dst any) {
		if v, ok := fields[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}

	decode("finalize", &pc.Finalize)
	decode("type", &pc.Type)
	decode("ageBand", &pc.AgeBand)
	decode("date", &pc.Date)
	decode("theme", &pc.Theme)
	decode("duration", &pc.Duration)
	decode("domainOutcomes", &pc.DomainOutcomes)
	decode("conceptualSkills", &pc.ConceptualSkills)
	decode("dispositions", &pc.Dispositions)
	decode("differentiation", &pc.Differentiation)
	decode("notes", &pc.Notes)

	if b, ok := fields["blocks"]; ok {
		var blockFields map[string]json.RawMessage
		if json.Unmarshal(b, &blockFields) == nil {
			get := func(key string, dst any) {
				if v, ok := blockFields[key]; ok {
					_ = json.Unmarshal(v, dst)
				}
			}
			get("startOfDay", &pc.Blocks.StartOfDay)
			get("learningCenters", &pc.Blocks.LearningCenters)
			get("activities", &pc.Blocks.Activities)
			get("mealsCleanup", &pc.Blocks.MealsCleanup)
			get("assessment", &pc.Blocks.Assessment)
		}
	}
	return pc
}

// ActivityTitles lists the non-empty activity titles in order.
func (pc PlanContent) ActivityTitles() []string {
	var titles []string
	for _, a := range pc.Blocks.Activities {
		if a.Title != "" {
			titles = append(titles, a.Title)
		}
	}
	return titles
}

// StringList accepts a JSON array of scalars or a single scalar.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var t Text
		if err := t.UnmarshalJSON(data); err != nil {
			return err
		}
		if t != "" {
			*l = StringList{string(t)}
		}
		return nil
	}
	out := make(StringList, 0, len(items))
	for _, item := range items {
		var t Text
		if err := t.UnmarshalJSON(item); err != nil {
			continue
		}
		if t != "" {
			out = append(out, string(t))
		}
	}
	*l = out
	return nil
}

// Text accepts a string, number, bool, array or object and flattens it to
// a single line of text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Text(flatten(v))
	return nil
}

func flatten(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return fmt.Sprint(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := flatten(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		// Common single-text wrappers first.
		for _, key := range []string{"text", "msg", "description", "title", "content"} {
			if s, ok := x[key].(string); ok {
				return s
			}
		}
		data, _ := json.Marshal(x)
		return string(data)
	}
	return fmt.Sprint(v)
}
