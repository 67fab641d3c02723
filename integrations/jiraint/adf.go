// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package jiraint

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ADF is the Atlassian Document Format, the rich text representation of Jira.
type ADF struct {
	Version int          `json:"version"`
	Type    string       `json:"type"`
	Content []ADFContent `json:"content"`
}

type ADFContent struct {
	Type    string             `json:"type"`
	Text    string             `json:"text,omitempty"`
	Marks   []ADFMark          `json:"marks,omitempty"`
	Content []ADFContent       `json:"content,omitempty"`
	Attrs   *ADFMarkAttributes `json:"attrs,omitempty"`
}

type ADFMark struct {
	Type  string             `json:"type"`
	Attrs *ADFMarkAttributes `json:"attrs,omitempty"`
}

type ADFMarkAttributes struct {
	Level    int    `json:"level,omitempty"`
	Href     string `json:"href,omitempty"`
	Language string `json:"language,omitempty"`
	Order    int    `json:"order,omitempty"`
}

func NewADF(content ...ADFContent) ADF {
	if content == nil {
		content = []ADFContent{}
	}
	return ADF{Version: 1, Type: "doc", Content: content}
}

func textNode(text string, marks ...ADFMark) ADFContent {
	return ADFContent{Type: "text", Text: text, Marks: marks}
}

// ADFToHTML renders the document as HTML.
func ADFToHTML(doc ADF) string {
	var b strings.Builder
	for _, n := range doc.Content {
		renderADFNode(&b, n)
	}
	return b.String()
}

func renderADFNode(b *strings.Builder, n ADFContent) {
	children := func() {
		for _, c := range n.Content {
			renderADFNode(b, c)
		}
	}

	switch n.Type {
	case "text":
		renderADFText(b, n)
	case "paragraph":
		b.WriteString("<p>")
		children()
		b.WriteString("</p>")
	case "heading":
		level := 1
		if n.Attrs != nil && n.Attrs.Level >= 1 && n.Attrs.Level <= 6 {
			level = n.Attrs.Level
		}
		fmt.Fprintf(b, "<h%d>", level)
		children()
		fmt.Fprintf(b, "</h%d>", level)
	case "bulletList":
		b.WriteString("<ul>")
		children()
		b.WriteString("</ul>")
	case "orderedList":
		if n.Attrs != nil && n.Attrs.Order > 1 {
			fmt.Fprintf(b, `<ol start="%d">`, n.Attrs.Order)
		} else {
			b.WriteString("<ol>")
		}
		children()
		b.WriteString("</ol>")
	case "listItem":
		b.WriteString("<li>")
		children()
		b.WriteString("</li>")
	case "blockquote":
		b.WriteString("<blockquote>")
		children()
		b.WriteString("</blockquote>")
	case "codeBlock":
		if n.Attrs != nil && n.Attrs.Language != "" {
			fmt.Fprintf(b, `<pre><code class="language-%s">`, html.EscapeString(n.Attrs.Language))
		} else {
			b.WriteString("<pre><code>")
		}
		for _, c := range n.Content {
			b.WriteString(html.EscapeString(c.Text))
		}
		b.WriteString("</code></pre>")
	case "hardBreak":
		b.WriteString("<br>")
	case "rule":
		b.WriteString("<hr>")
	default:
		children()
	}
}

func renderADFText(b *strings.Builder, n ADFContent) {
	var open, closing []string
	for _, m := range n.Marks {
		switch m.Type {
		case "strong":
			open, closing = append(open, "<strong>"), append(closing, "</strong>")
		case "em":
			open, closing = append(open, "<em>"), append(closing, "</em>")
		case "underline":
			open, closing = append(open, "<u>"), append(closing, "</u>")
		case "strike":
			open, closing = append(open, "<s>"), append(closing, "</s>")
		case "code":
			open, closing = append(open, "<code>"), append(closing, "</code>")
		case "link":
			href := ""
			if m.Attrs != nil {
				href = m.Attrs.Href
			}
			open, closing = append(open, fmt.Sprintf(`<a href="%s">`, html.EscapeString(href))), append(closing, "</a>")
		}
	}
	for _, o := range open {
		b.WriteString(o)
	}
	b.WriteString(html.EscapeString(n.Text))
	for i := len(closing) - 1; i >= 0; i-- {
		b.WriteString(closing[i])
	}
}

// HTMLToADF converts HTML into a document. Input without any markup is treated as
// plain text where blank lines separate paragraphs.
func HTMLToADF(s string) ADF {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewADF()
	}
	if !strings.Contains(s, "<") {
		return plainTextToADF(s)
	}

	nodes, err := xhtml.ParseFragment(strings.NewReader(s), &xhtml.Node{
		Type:     xhtml.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return plainTextToADF(s)
	}
	return NewADF(convertBlocks(nodes)...)
}

func plainTextToADF(s string) ADF {
	var content []ADFContent
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		para = strings.Trim(para, "\n")
		if para == "" {
			continue
		}
		var inline []ADFContent
		for i, line := range strings.Split(para, "\n") {
			if i > 0 {
				inline = append(inline, ADFContent{Type: "hardBreak"})
			}
			if line != "" {
				inline = append(inline, textNode(line))
			}
		}
		content = append(content, ADFContent{Type: "paragraph", Content: inline})
	}
	return NewADF(content...)
}

var inlineMarks = map[atom.Atom]string{
	atom.Strong: "strong",
	atom.B:      "strong",
	atom.Em:     "em",
	atom.I:      "em",
	atom.U:      "underline",
	atom.S:      "strike",
	atom.Strike: "strike",
	atom.Del:    "strike",
	atom.Code:   "code",
}

func isBlock(n *xhtml.Node) bool {
	if n.Type != xhtml.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Ul, atom.Ol, atom.Li, atom.Blockquote, atom.Pre, atom.Hr:
		return true
	}
	return false
}

func childNodes(n *xhtml.Node) []*xhtml.Node {
	var out []*xhtml.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// convertBlocks groups loose inline content into paragraphs.
func convertBlocks(nodes []*xhtml.Node) []ADFContent {
	var out, pending []ADFContent
	flush := func() {
		if len(pending) > 0 && !onlyWhitespace(pending) {
			out = append(out, ADFContent{Type: "paragraph", Content: pending})
		}
		pending = nil
	}

	for _, n := range nodes {
		if !isBlock(n) {
			pending = append(pending, convertInline(n, nil)...)
			continue
		}
		flush()
		out = append(out, convertBlock(n)...)
	}
	flush()
	return out
}

func convertBlock(n *xhtml.Node) []ADFContent {
	switch n.DataAtom {
	case atom.P:
		return []ADFContent{{Type: "paragraph", Content: convertInlineChildren(n, nil)}}
	case atom.Div:
		return convertBlocks(childNodes(n))
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		return []ADFContent{{Type: "heading", Attrs: &ADFMarkAttributes{Level: level}, Content: convertInlineChildren(n, nil)}}
	case atom.Ul, atom.Ol:
		list := ADFContent{Type: "bulletList"}
		if n.DataAtom == atom.Ol {
			list.Type = "orderedList"
			for _, a := range n.Attr {
				var start int
				if a.Key == "start" {
					if _, err := fmt.Sscanf(a.Val, "%d", &start); err == nil && start > 1 {
						list.Attrs = &ADFMarkAttributes{Order: start}
					}
				}
			}
		}
		for _, c := range childNodes(n) {
			if c.Type == xhtml.ElementNode && c.DataAtom == atom.Li {
				list.Content = append(list.Content, convertBlock(c)...)
			}
		}
		return []ADFContent{list}
	case atom.Li:
		return []ADFContent{{Type: "listItem", Content: convertBlocks(childNodes(n))}}
	case atom.Blockquote:
		return []ADFContent{{Type: "blockquote", Content: convertBlocks(childNodes(n))}}
	case atom.Pre:
		block := ADFContent{Type: "codeBlock"}
		for _, c := range childNodes(n) {
			if c.Type == xhtml.ElementNode && c.DataAtom == atom.Code {
				for _, a := range c.Attr {
					if a.Key == "class" && strings.HasPrefix(a.Val, "language-") {
						block.Attrs = &ADFMarkAttributes{Language: strings.TrimPrefix(a.Val, "language-")}
					}
				}
			}
		}
		if text := textContent(n); text != "" {
			block.Content = []ADFContent{textNode(text)}
		}
		return []ADFContent{block}
	case atom.Hr:
		return []ADFContent{{Type: "rule"}}
	}
	return nil
}

func convertInlineChildren(n *xhtml.Node, marks []ADFMark) []ADFContent {
	var out []ADFContent
	for _, c := range childNodes(n) {
		out = append(out, convertInline(c, marks)...)
	}
	return out
}

func convertInline(n *xhtml.Node, marks []ADFMark) []ADFContent {
	switch n.Type {
	case xhtml.TextNode:
		if n.Data == "" {
			return nil
		}
		return []ADFContent{textNode(n.Data, append([]ADFMark(nil), marks...)...)}
	case xhtml.ElementNode:
		if n.DataAtom == atom.Br {
			return []ADFContent{{Type: "hardBreak"}}
		}
		if mark, ok := inlineMarks[n.DataAtom]; ok {
			return convertInlineChildren(n, withMark(marks, ADFMark{Type: mark}))
		}
		if n.DataAtom == atom.A {
			href := ""
			for _, a := range n.Attr {
				if a.Key == "href" {
					href = a.Val
				}
			}
			return convertInlineChildren(n, withMark(marks, ADFMark{Type: "link", Attrs: &ADFMarkAttributes{Href: href}}))
		}
		return convertInlineChildren(n, marks)
	}
	return nil
}

func withMark(marks []ADFMark, m ADFMark) []ADFMark {
	out := make([]ADFMark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}

func textContent(n *xhtml.Node) string {
	if n.Type == xhtml.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func onlyWhitespace(nodes []ADFContent) bool {
	for _, n := range nodes {
		if n.Type != "text" || strings.TrimSpace(n.Text) != "" {
			return false
		}
	}
	return true
}

// EditorNode is the JSON document produced by the rich text editor of the web application.
type EditorNode struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []EditorMark   `json:"marks,omitempty"`
	Content []EditorNode   `json:"content,omitempty"`
}

type EditorMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// editor mark name -> adf mark name
var editorMarks = map[string]string{
	"bold":      "strong",
	"italic":    "em",
	"underline": "underline",
	"strike":    "strike",
	"code":      "code",
	"link":      "link",
}

// editor node name -> adf node name
var editorNodes = map[string]string{
	"doc":            "doc",
	"paragraph":      "paragraph",
	"text":           "text",
	"heading":        "heading",
	"bulletList":     "bulletList",
	"orderedList":    "orderedList",
	"listItem":       "listItem",
	"blockquote":     "blockquote",
	"codeBlock":      "codeBlock",
	"hardBreak":      "hardBreak",
	"horizontalRule": "rule",
}

func reverse(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

var (
	adfMarks = reverse(editorMarks)
	adfNodes = reverse(editorNodes)
)

// EditorToADF converts an editor document. Unknown nodes are unwrapped, unknown marks dropped.
func EditorToADF(doc EditorNode) ADF {
	return NewADF(editorChildrenToADF(doc.Content)...)
}

func editorChildrenToADF(nodes []EditorNode) []ADFContent {
	var out []ADFContent
	for _, n := range nodes {
		t, ok := editorNodes[n.Type]
		if !ok {
			out = append(out, editorChildrenToADF(n.Content)...)
			continue
		}
		c := ADFContent{Type: t, Text: n.Text, Content: editorChildrenToADF(n.Content)}
		switch t {
		case "heading":
			c.Attrs = &ADFMarkAttributes{Level: intAttr(n.Attrs, "level")}
		case "codeBlock":
			if lang, _ := n.Attrs["language"].(string); lang != "" {
				c.Attrs = &ADFMarkAttributes{Language: lang}
			}
		case "orderedList":
			if start := intAttr(n.Attrs, "start"); start > 1 {
				c.Attrs = &ADFMarkAttributes{Order: start}
			}
		}
		for _, m := range n.Marks {
			name, ok := editorMarks[m.Type]
			if !ok {
				continue
			}
			mark := ADFMark{Type: name}
			if name == "link" {
				href, _ := m.Attrs["href"].(string)
				mark.Attrs = &ADFMarkAttributes{Href: href}
			}
			c.Marks = append(c.Marks, mark)
		}
		out = append(out, c)
	}
	return out
}

// ADFToEditor converts a Jira document into the editor representation.
func ADFToEditor(doc ADF) EditorNode {
	return EditorNode{Type: "doc", Content: adfChildrenToEditor(doc.Content)}
}

func adfChildrenToEditor(nodes []ADFContent) []EditorNode {
	var out []EditorNode
	for _, n := range nodes {
		t, ok := adfNodes[n.Type]
		if !ok {
			out = append(out, adfChildrenToEditor(n.Content)...)
			continue
		}
		e := EditorNode{Type: t, Text: n.Text, Content: adfChildrenToEditor(n.Content)}
		if n.Attrs != nil {
			switch n.Type {
			case "heading":
				e.Attrs = map[string]any{"level": n.Attrs.Level}
			case "codeBlock":
				e.Attrs = map[string]any{"language": n.Attrs.Language}
			case "orderedList":
				e.Attrs = map[string]any{"start": n.Attrs.Order}
			}
		}
		for _, m := range n.Marks {
			name, ok := adfMarks[m.Type]
			if !ok {
				continue
			}
			mark := EditorMark{Type: name}
			if m.Attrs != nil && m.Attrs.Href != "" {
				mark.Attrs = map[string]any{"href": m.Attrs.Href}
			}
			e.Marks = append(e.Marks, mark)
		}
		out = append(out, e)
	}
	return out
}

func intAttr(attrs map[string]any, key string) int {
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// DescriptionToADF accepts either an editor document as JSON or HTML.
func DescriptionToADF(description string) ADF {
	trimmed := strings.TrimSpace(description)
	if strings.HasPrefix(trimmed, "{") {
		var doc EditorNode
		if err := json.Unmarshal([]byte(trimmed), &doc); err == nil && doc.Type == "doc" {
			return EditorToADF(doc)
		}
	}
	return HTMLToADF(description)
}
