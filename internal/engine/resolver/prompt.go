package resolver

import "strings"

const promptTemplate = "Below is {{LANG}} source code. Every identifier has been replaced by a marker " +
	"of the form `«id|name»`, where `id` is a unique integer and `name` is the original identifier text.\n" +
	"\n" +
	"For each identifier, find the identifier(s) that are its definition or declaration: the " +
	"target(s) an IDE's \"Jump to Definition\" would navigate to.\n" +
	"\n" +
	"A reference may resolve to more than one target. In C, for example, a function may have a " +
	"forward declaration and a later definition in the same file; include both. Return only " +
	"direct declaration or definition sites, never other references to the same name.\n" +
	"\n" +
	"Respond with **only** JSON in exactly this structure (no commentary):\n" +
	"\n" +
	"```json\n" +
	"{\n" +
	"  \"definitions\": [\n" +
	"    [<reference_id>, <definition_id>],\n" +
	"    [<reference_id>, <definition_id>]\n" +
	"  ],\n" +
	"  \"external\": [<id>, <id>],\n" +
	"  \"errors\": [\n" +
	"    {\"id\": <id>, \"reason\": \"...\"}\n" +
	"  ]\n" +
	"}\n" +
	"```\n" +
	"\n" +
	"Fields:\n" +
	"- `definitions`: [reference_id, definition_id] pairs where both identifiers appear in this " +
	"file. A reference_id may appear in several pairs when it resolves to several declaration or " +
	"definition sites. Omit identifiers that are themselves definitions.\n" +
	"- `external`: identifiers defined outside this file (standard library, imports, other modules).\n" +
	"- `errors`: identifiers that cannot be resolved for any other reason, with a short explanation.\n" +
	"\n" +
	"```{{LANG}}\n" +
	"{{SOURCE}}\n" +
	"```"

// BuildPrompt renders the resolution prompt for annotated source in lang.
func BuildPrompt(annotated, lang string) string {
	r := strings.NewReplacer("{{LANG}}", lang)
	head, tail, _ := strings.Cut(promptTemplate, "{{SOURCE}}")
	// The source is spliced in last so that markers inside it are never
	// mistaken for template placeholders.
	return r.Replace(head) + annotated + r.Replace(tail)
}
