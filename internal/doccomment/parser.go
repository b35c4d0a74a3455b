// Package doccomment turns a free-text documentation block attached to a
// route into a structured EndpointDoc.
//
// The block starts with a one-line summary followed by description
// paragraphs. Three sections are recognized:
//
//	# Parameters
//	- id (path): The user ID
//
//	# Request Body
//	Content-Type: application/json
//	The user to create.
//
//	# Responses
//	- 200: OK
//	- 404:
//	  description: User not found
//	  content:
//	    application/json:
//	      schema: NotFoundError
//
// Parsing never fails. Malformed lines are skipped and reported as warnings.
package doccomment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mark3labs/doc2openapi/internal/diag"
)

type sectionKind int

const (
	sectionPreamble sectionKind = iota
	sectionParameters
	sectionRequestBody
	sectionResponses
	sectionExtension
)

type line struct {
	no     int // 1-based, in the raw block
	indent int
	text   string // without indentation or trailing space
}

type block struct {
	kind  sectionKind
	title string
	lines []line
}

var (
	paramRe    = regexp.MustCompile(`^[-*]\s+([^\s(]+)\s*\(\s*([^)]*?)\s*\)\s*:\s*(.*)$`)
	responseRe = regexp.MustCompile(`^[-*]\s+(\d+)\s*:\s*(.*)$`)
)

// Parse converts one raw documentation block into an EndpointDoc. It is total:
// malformed input degrades to a best-effort record plus warnings.
func Parse(raw string) (EndpointDoc, []diag.Warning) {
	p := &parser{}
	doc := EndpointDoc{Responses: make(map[int]ResponseDoc)}
	for _, b := range split(raw) {
		switch b.kind {
		case sectionPreamble:
			p.preamble(&doc, b.lines)
		case sectionParameters:
			p.parameters(&doc, b.lines)
		case sectionRequestBody:
			p.requestBody(&doc, b)
		case sectionResponses:
			p.responses(&doc, b.lines)
		case sectionExtension:
			doc.Extensions = append(doc.Extensions, Section{Title: b.title, Body: joinVerbatim(b.lines)})
		}
	}
	if doc.Summary == "" {
		p.warn(0, "missing summary")
	}
	return doc, p.warnings
}

type parser struct {
	warnings []diag.Warning
}

func (p *parser) warn(no int, format string, args ...any) {
	p.warnings = append(p.warnings, diag.Warning{Line: no, Message: fmt.Sprintf(format, args...)})
}

// split dedents the block and cuts it at section headers.
func split(raw string) []block {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	rawLines := strings.Split(raw, "\n")

	lines := make([]line, 0, len(rawLines))
	minIndent := -1
	for i, r := range rawLines {
		r = strings.TrimRight(expandTabs(r), " ")
		text := strings.TrimLeft(r, " ")
		ind := len(r) - len(text)
		if text != "" && (minIndent < 0 || ind < minIndent) {
			minIndent = ind
		}
		lines = append(lines, line{no: i + 1, indent: ind, text: text})
	}
	if minIndent > 0 {
		for i := range lines {
			if lines[i].text != "" {
				lines[i].indent -= minIndent
			}
		}
	}

	blocks := []block{{kind: sectionPreamble}}
	for _, l := range lines {
		if kind, title, ok := header(l.text); ok {
			blocks = append(blocks, block{kind: kind, title: title})
			continue
		}
		cur := &blocks[len(blocks)-1]
		cur.lines = append(cur.lines, l)
	}
	return blocks
}

func expandTabs(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if !strings.Contains(s[:i], "\t") {
		return s
	}
	return strings.ReplaceAll(s[:i], "\t", "  ") + s[i:]
}

// header recognizes "# Title" lines. One or two leading hashes select the
// known sections; anything else becomes an extension section.
func header(text string) (sectionKind, string, bool) {
	if !strings.HasPrefix(text, "#") {
		return 0, "", false
	}
	hashes := len(text) - len(strings.TrimLeft(text, "#"))
	rest := text[hashes:]
	if !strings.HasPrefix(rest, " ") {
		return 0, "", false
	}
	title := strings.TrimSpace(rest)
	if title == "" {
		return 0, "", false
	}
	if hashes <= 2 {
		switch title {
		case "Parameters":
			return sectionParameters, title, true
		case "Request Body":
			return sectionRequestBody, title, true
		case "Responses":
			return sectionResponses, title, true
		}
	}
	return sectionExtension, title, true
}

func (p *parser) preamble(doc *EndpointDoc, lines []line) {
	var paragraphs []string
	var para []string
	flush := func() {
		if len(para) > 0 {
			paragraphs = append(paragraphs, strings.Join(para, " "))
			para = nil
		}
	}
	for _, l := range lines {
		if l.text == "" {
			flush()
			continue
		}
		if doc.Summary == "" {
			doc.Summary = l.text
			continue
		}
		para = append(para, l.text)
	}
	flush()
	doc.Description = strings.Join(paragraphs, "\n\n")
}

func (p *parser) parameters(doc *EndpointDoc, lines []line) {
	for _, l := range lines {
		if l.text == "" {
			continue
		}
		m := paramRe.FindStringSubmatch(l.text)
		if m == nil {
			p.warn(l.no, "malformed parameter line %q (want \"- name (location): description\")", l.text)
			continue
		}
		in := Location(strings.ToLower(m[2]))
		switch in {
		case InPath, InQuery, InHeader, InCookie:
		default:
			p.warn(l.no, "parameter %q has unknown location %q", m[1], m[2])
			continue
		}
		param := ParamDoc{Name: m[1], In: in, Description: strings.TrimSpace(m[3])}
		replaced := false
		for i := range doc.Parameters {
			if doc.Parameters[i].Name == param.Name && doc.Parameters[i].In == param.In {
				p.warn(l.no, "parameter %q (%s) documented twice; later entry wins", param.Name, param.In)
				doc.Parameters[i] = param
				replaced = true
				break
			}
		}
		if !replaced {
			doc.Parameters = append(doc.Parameters, param)
		}
	}
}

func (p *parser) requestBody(doc *EndpointDoc, b block) {
	if doc.RequestBody != nil {
		no := 0
		if len(b.lines) > 0 {
			no = b.lines[0].no - 1
		}
		p.warn(no, "request body documented twice; later section wins")
	}
	body := &RequestBodyDoc{ContentType: DefaultContentType}
	var desc []string
	for _, l := range b.lines {
		if l.text == "" {
			continue
		}
		if len(desc) == 0 {
			if v, ok := cutKey(l.text, "Content-Type"); ok {
				if v == "" {
					p.warn(l.no, "empty Content-Type; using %s", DefaultContentType)
				} else {
					body.ContentType = v
				}
				continue
			}
		}
		if v, ok := cutKey(l.text, "Schema"); ok {
			body.SchemaRef = v
			continue
		}
		desc = append(desc, l.text)
	}
	body.Description = strings.Join(desc, " ")
	doc.RequestBody = body
}

// cutKey matches "Key: value" case-insensitively on the key.
func cutKey(text, key string) (string, bool) {
	if len(text) <= len(key) || !strings.EqualFold(text[:len(key)], key) || text[len(key)] != ':' {
		return "", false
	}
	return strings.TrimSpace(text[len(key)+1:]), true
}

type responseEntry struct {
	doc   ResponseDoc
	no    int
	skip  bool
	lines []line
}

func (p *parser) responses(doc *EndpointDoc, lines []line) {
	base := -1
	var cur *responseEntry
	finish := func() {
		if cur == nil || cur.skip {
			return
		}
		if cur.doc.Elaborate && !p.elaborate(cur) {
			return
		}
		if _, dup := doc.Responses[cur.doc.Status]; dup {
			p.warn(cur.no, "response %d documented twice; later entry wins", cur.doc.Status)
		}
		doc.Responses[cur.doc.Status] = cur.doc
	}

	for _, l := range lines {
		if l.text == "" {
			continue
		}
		if base < 0 {
			base = l.indent
		}
		rel := l.indent - base
		if rel <= 0 {
			finish()
			cur = nil
			m := responseRe.FindStringSubmatch(l.text)
			if m == nil {
				p.warn(l.no, "malformed response line %q (want \"- <status>: description\")", l.text)
				cur = &responseEntry{skip: true}
				continue
			}
			status, err := strconv.Atoi(m[1])
			if err != nil || status < 100 || status > 599 {
				p.warn(l.no, "invalid status code %q", m[1])
				cur = &responseEntry{skip: true}
				continue
			}
			desc := strings.TrimSpace(m[2])
			cur = &responseEntry{no: l.no, doc: ResponseDoc{Status: status, Description: desc, Elaborate: desc == ""}}
			continue
		}
		switch {
		case cur == nil:
			p.warn(l.no, "indented line outside a response entry")
		case cur.skip:
		case !cur.doc.Elaborate:
			p.warn(l.no, "nested line under simple response %d ignored", cur.doc.Status)
		default:
			l.indent = rel
			cur.lines = append(cur.lines, l)
		}
	}
	finish()
}

type elaborateScope int

const (
	scopeNone elaborateScope = iota
	scopeContent
	scopeMedia
	scopeExamples
	scopeExample
)

// elaborate fills an elaborate response from its nested lines. Nesting is in
// strict two-space steps. It returns false when the entry must be dropped.
func (p *parser) elaborate(e *responseEntry) bool {
	r := &e.doc
	scope := scopeNone
	for _, l := range e.lines {
		if l.indent%2 != 0 {
			p.warn(l.no, "response %d: indentation must be a multiple of two spaces; entry dropped", r.Status)
			return false
		}
		level := l.indent / 2
		text := l.text
		item := strings.HasPrefix(text, "- ")
		if item {
			text = strings.TrimSpace(text[2:])
		}
		key, value, _ := strings.Cut(text, ":")
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))

		ok := true
		switch level {
		case 1:
			switch key {
			case "description":
				r.Description = value
				scope = scopeNone
			case "content":
				scope = scopeContent
			case "examples":
				scope = scopeExamples
			default:
				p.warn(l.no, "response %d: unknown key %q ignored", r.Status, key)
				scope = scopeNone
			}
		case 2:
			switch {
			case scope >= scopeContent && scope <= scopeMedia && !item && value == "":
				if r.ContentType != "" && r.ContentType != key {
					p.warn(l.no, "response %d: only one media type is supported; %q ignored", r.Status, key)
				} else {
					r.ContentType = key
				}
				scope = scopeMedia
			case scope >= scopeExamples && item && key == "name":
				r.Examples = append(r.Examples, Example{Name: value})
				scope = scopeExample
			default:
				ok = false
			}
		case 3:
			switch {
			case scope == scopeMedia && key == "schema":
				if r.SchemaRef == "" {
					r.SchemaRef = value
				}
			case scope == scopeMedia:
				p.warn(l.no, "response %d: unknown media key %q ignored", r.Status, key)
			case scope == scopeExample && key == "summary":
				r.Examples[len(r.Examples)-1].Summary = value
			case scope == scopeExample && key == "value":
				r.Examples[len(r.Examples)-1].Value = value
			case scope == scopeExample:
				p.warn(l.no, "response %d: unknown example key %q ignored", r.Status, key)
			default:
				ok = false
			}
		default:
			ok = false
		}
		if !ok {
			p.warn(l.no, "response %d: unexpected nesting of %q; entry dropped", r.Status, l.text)
			return false
		}
	}
	if r.Description == "" {
		p.warn(e.no, "response %d: elaborate entry without description; entry dropped", r.Status)
		return false
	}
	if r.SchemaRef != "" && r.ContentType == "" {
		r.ContentType = DefaultContentType
	}
	return true
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func joinVerbatim(lines []line) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.text == "" {
			out = append(out, "")
			continue
		}
		out = append(out, strings.Repeat(" ", l.indent)+l.text)
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}
