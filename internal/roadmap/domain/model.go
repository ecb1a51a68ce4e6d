package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// UserCredit is one ledger row.
type UserCredit struct {
	UserID  string `json:"user_id" dynamodbav:"user_id"`
	Credits int64  `json:"credits" dynamodbav:"credits"`
}

// GenerationRequest is the transient input of one workflow run.
type GenerationRequest struct {
	UserID       string `json:"user_id"`
	SkillName    string `json:"skill_name"`
	CurrentLevel string `json:"current_level"`
}

// Normalize trims surrounding whitespace from every field.
func (r GenerationRequest) Normalize() GenerationRequest {
	return GenerationRequest{
		UserID:       strings.TrimSpace(r.UserID),
		SkillName:    strings.TrimSpace(r.SkillName),
		CurrentLevel: strings.TrimSpace(r.CurrentLevel),
	}
}

// Valid reports whether all three fields are present.
func (r GenerationRequest) Valid() bool {
	return r.UserID != "" && r.SkillName != "" && r.CurrentLevel != ""
}

// RoadmapDocument is parsed from untrusted model output. Every field may be
// missing.
type RoadmapDocument struct {
	SkillName Text   `json:"skill_name"`
	Steps     []Step `json:"roadmap_steps"`
}

// UnmarshalJSON accepts "steps" when the model ignores the "roadmap_steps" key.
func (d *RoadmapDocument) UnmarshalJSON(data []byte) error {
	var raw struct {
		SkillName    Text   `json:"skill_name"`
		RoadmapSteps []Step `json:"roadmap_steps"`
		Steps        []Step `json:"steps"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.SkillName = raw.SkillName
	d.Steps = raw.RoadmapSteps
	if len(d.Steps) == 0 {
		d.Steps = raw.Steps
	}
	return nil
}

type Step struct {
	StepNumber    StepNumber `json:"step_number"`
	Title         Text       `json:"title"`
	Description   Text       `json:"description"`
	EstimatedTime Text       `json:"estimated_time"`
	Resources     []Resource `json:"resources"`
}

type Resource struct {
	Name Text `json:"name"`
	URL  Text `json:"url"`
	Type Text `json:"type"`
}

// Text decodes any JSON scalar as its literal text. Objects, arrays and
// null decode as empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[', 'n':
		*t = ""
	default:
		// numbers and booleans keep their JSON spelling
		*t = Text(data)
	}
	return nil
}

// StepNumber decodes from a JSON number or a numeric string. Anything else
// decodes as zero.
type StepNumber int

func (n *StepNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			*n = 0
			return nil
		}
		*n = StepNumber(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = 0
		return nil
	}
	*n = StepNumber(int(f))
	return nil
}

// PublishedArtifact references a stored roadmap. The object outlives the URL.
type PublishedArtifact struct {
	ObjectKey string    `json:"object_key"`
	AccessURL string    `json:"access_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GenerationResult is returned after a settled workflow.
type GenerationResult struct {
	Artifact   PublishedArtifact `json:"artifact"`
	NewBalance int64             `json:"new_credit_balance"`
}

// SettledEvent is emitted once credit has been deducted for an artifact.
type SettledEvent struct {
	UserID     string    `json:"user_id"`
	SkillName  string    `json:"skill_name"`
	ObjectKey  string    `json:"object_key"`
	NewBalance int64     `json:"new_balance"`
	RequestID  string    `json:"request_id,omitempty"`
	SettledAt  time.Time `json:"settled_at"`
}
