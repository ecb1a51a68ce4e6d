package inference

import "fmt"

const systemPrompt = "You are an expert career counselor and resource curator. " +
	"Your goal is to create a hyper-curated, actionable learning roadmap for a specific skill. " +
	"You must provide specific, high-quality resources (real links if known, or realistic placeholders). " +
	"You must strictly follow the JSON schema provided and answer with a single JSON object."

// schemaHint is the only shape guidance the model gets; nothing enforces it.
const schemaHint = `{"skill_name": string, "roadmap_steps": [{"step_number": integer, "title": string, ` +
	`"description": string, "estimated_time": string, "resources": [{"name": string, "url": string, "type": string}]}]}`

func userPrompt(skillName, currentLevel string) string {
	return fmt.Sprintf(
		"Create a learning roadmap for '%s' starting at a '%s' level. "+
			"Include 3-5 distinct steps. For each step, provide a title, description, estimated time, and 2-3 specific resources. "+
			"Respond with JSON matching this schema: %s",
		skillName, currentLevel, schemaHint,
	)
}
