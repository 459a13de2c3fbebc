package openai

import (
	"encoding/json"
	"fmt"

	"github.com/foduucom/themeconv/core"
)

const shortcodeResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "param": {"type": "array"},
    "template": {"type": "string"},
    "queryScript": {"type": "string"}
  },
  "required": ["name", "param", "template", "queryScript"],
  "additionalProperties": false
}`

// DefaultPrompt is the system prompt used when no prompt file is supplied.
var DefaultPrompt = fmt.Sprintf(`You convert one HTML section of a website theme into a reusable mustache shortcode.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "name" must equal the Component Key you are given.
- "template" is the section markup with every piece of editable content (headings, paragraphs, link text,
  link targets, image sources, alt text) replaced by a mustache variable such as {{title}}.
- Repeated items (cards, list entries, slides) become a mustache section such as {{#items}}...{{/items}}.
- "param" lists every variable the template uses. Each entry is an object with "name", "type", and "default",
  where "default" is the original content taken from the input.
- "queryScript" is a JavaScript snippet that returns the data object for the template, or "" if none is needed.
- Keep all classes, structure, and attributes other than the replaced content exactly as given.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`,
	shortcodeResponseSchema)

// buildUserMessage renders the per-fragment request text.
func buildUserMessage(fragment core.Fragment) (string, error) {
	data, err := json.MarshalIndent(fragment, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Component Key: %s\n\nComponent Data:\n%s", fragment.Name, data), nil
}
