package mcpserver

// DocumentFormatContract describes the canonical document format that
// LLM consumers should follow when authoring corpus documents.
const DocumentFormatContract = `# Ansuz Document Format Contract

Every document in an Ansuz workspace MUST follow this structure.

## Structure

` + "```" + `markdown
---
Name: Order Processing              # REQUIRED - becomes the document id
Type: Playbook                      # OPTIONAL - scalar or YAML list
Description: How orders move.       # OPTIONAL
Extends: Base Process               # OPTIONAL - parent document(s)
Tags:                               # OPTIONAL - YAML list
  - fulfillment
---

[Shipping]: ./logistics/shipping.busy.md#dispatch
[Rates]: tax-rates.busy.md

## Local Definitions

### Priority Order
_Extends: Order_

An order flagged for same-day handling.

## Operations

### Process Order

Inputs:
- order id

1. Look up the [Priority Order] rules.
2. Dispatch via [Shipping].

Checklist:
- [ ] confirmation sent
` + "```" + `

## Rules

1. **YAML front matter is mandatory** and the ` + "`" + `Name` + "`" + ` field is required.
   The document id is the lowercased name with spaces and dashes replaced
   by underscores (` + "`" + `Order Processing` + "`" + ` -> ` + "`" + `order_processing` + "`" + `).
2. **Imports** are reference-style link definitions placed on their own
   line: ` + "`" + `[Label]: path#anchor` + "`" + `. The path resolves against the
   workspace; the anchor is a heading slug in the target document.
3. **Local Definitions** live under a ` + "`" + `## Local Definitions` + "`" + ` section
   (aliases: ` + "`" + `Definitions` + "`" + `, ` + "`" + `Glossary` + "`" + `). Each subheading becomes a
   definition. Inheritance is declared with an ` + "`" + `_Extends: Parent_` + "`" + ` line
   or with the ` + "`" + `[Title][Parent]` + "`" + ` heading form.
4. **Operations** live under a ` + "`" + `## Operations` + "`" + ` section. Numbered lines
   are steps; an unchecked task list is the checklist; ` + "`" + `Inputs:` + "`" + ` and
   ` + "`" + `Outputs:` + "`" + ` subsections or bullet blocks declare the interface.
5. **References** inside steps use square brackets: ` + "`" + `[Priority Order]` + "`" + `.
   A bracket naming another operation becomes a call; a bracket naming a
   definition pulls it into the execution context.
6. **Code fences are opaque.** Headings, imports and references inside
   fenced blocks are ignored.
7. **Encoding** is UTF-8; file names end with ` + "`" + `.busy.md` + "`" + ` or ` + "`" + `.md` + "`" + `.
`
