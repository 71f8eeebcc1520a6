package mcpserver

// NoteFormatURI is the resource URI of NoteFormatContract.
const NoteFormatURI = "paranote://note-format"

// NoteFormatContract describes the Markdown note conventions the parser
// understands, for LLM consumers writing or editing notes.
const NoteFormatContract = `# paranote Note Format

Notes are UTF-8 Markdown files (` + "`" + `.md` + "`" + `) inside a PARA vault:
` + "`" + `Projects/` + "`" + `, ` + "`" + `Areas/` + "`" + `, ` + "`" + `Resources/` + "`" + `, ` + "`" + `Archive/` + "`" + ` and ` + "`" + `Inbox/` + "`" + `.
A sub-folder of ` + "`" + `Projects/` + "`" + ` is one project (e.g. ` + "`" + `Projects/website/` + "`" + `).

## Structure

` + "```" + `markdown
---
title: Weekly sync 2025-01-20     # OPTIONAL, falls back to the file path
tags: [meeting, website]           # OPTIONAL, list or single string
created: 2025-01-20                # OPTIONAL, used for stale action items
category: projects                 # OPTIONAL, overrides the suggested category
project: website                   # OPTIONAL, set by the link command
---

Attendees: Alice, Bob, carol@example.com

- [ ] Draft the launch post @alice due: 2025-02-01 [high]
- [x] Book the venue
` + "```" + `

## Rules

1. **Frontmatter** is an optional YAML mapping between two ` + "`" + `---` + "`" + ` lines at the top.
   Anything that is not a mapping is rejected in strict mode.
2. **Action items** are checklist lines ` + "`" + `- [ ] text` + "`" + ` or ` + "`" + `- [x] text` + "`" + `, optionally
   followed by ` + "`" + `@assignee` + "`" + `, ` + "`" + `due: <date>` + "`" + ` and a ` + "`" + `[priority]` + "`" + ` of high, medium or low,
   in that order.
3. **Attendees** follow an ` + "`" + `Attendees:` + "`" + ` or ` + "`" + `Participants:` + "`" + ` label, separated by commas,
   semicolons or list bullets. Placeholders such as TBD are ignored.
4. **Dates** are written ` + "`" + `YYYY-MM-DD` + "`" + `, optionally with a time.
5. **Tags** come from the frontmatter ` + "`" + `tags` + "`" + ` field and inline ` + "`" + `#hashtags` + "`" + `.
6. **Category** is suggested from keywords (deadline, milestone, sprint for projects;
   routine, maintain, ongoing for areas; reference, tutorial, research for resources).
   A ` + "`" + `category` + "`" + ` or ` + "`" + `para` + "`" + ` frontmatter value always wins.
7. **Frontmatter updates** replace whole values and keep the body byte-for-byte;
   a timestamped backup is written to ` + "`" + `.backups/` + "`" + ` first.
`
