package publisher

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var roadmapTemplate = template.Must(template.ParseFS(templateFS, "templates/roadmap.html.tmpl"))

const defaultSkill = "Skill"

type roadmapView struct {
	Skill       string
	GeneratedOn string
	Steps       []domain.Step
}

// Render produces a self-contained HTML page for doc. Every field comes
// from the model, so all interpolation goes through html/template.
func Render(doc *domain.RoadmapDocument, now time.Time) ([]byte, error) {
	view := roadmapView{
		Skill:       defaultSkill,
		GeneratedOn: now.Format("2006-01-02"),
	}
	if doc != nil {
		if doc.SkillName != "" {
			view.Skill = string(doc.SkillName)
		}
		view.Steps = doc.Steps
	}

	var buf bytes.Buffer
	if err := roadmapTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render roadmap: %w", err)
	}
	return buf.Bytes(), nil
}
