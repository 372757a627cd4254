package loam

// FlowMetadata is the frontmatter of a flow document. Steps and rule tables
// stay generic here and are decoded by yamlflow.DecodeMap, so a flow reads
// the same whether it lives in a YAML file or a Markdown note.
type FlowMetadata struct {
	ID              string `json:"id" mapstructure:"id"`
	Title           string `json:"title" mapstructure:"title"`
	Description     string `json:"description" mapstructure:"description"`
	Entry           string `json:"entry" mapstructure:"entry"`
	Steps           []any  `json:"steps" mapstructure:"steps"`
	Recommendations []any  `json:"recommendations" mapstructure:"recommendations"`
}

// IsFlow reports whether the document declares any steps. Other notes in
// the repository (READMEs, drafts) are ignored.
func (m FlowMetadata) IsFlow() bool {
	return len(m.Steps) > 0
}

func (m FlowMetadata) toMap(id, body string) map[string]any {
	raw := map[string]any{
		"id":    id,
		"entry": m.Entry,
		"steps": m.Steps,
	}
	if m.Title != "" {
		raw["title"] = m.Title
	}
	desc := m.Description
	if desc == "" {
		desc = body
	}
	if desc != "" {
		raw["description"] = desc
	}
	if len(m.Recommendations) > 0 {
		raw["recommendations"] = m.Recommendations
	}
	return raw
}
