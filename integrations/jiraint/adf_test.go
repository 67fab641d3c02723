// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package jiraint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestADFToHTML(t *testing.T) {
	t.Run("it should render marks and block nodes", func(t *testing.T) {
		doc := NewADF(
			ADFContent{Type: "heading", Attrs: &ADFMarkAttributes{Level: 2}, Content: []ADFContent{textNode("Title")}},
			ADFContent{Type: "paragraph", Content: []ADFContent{
				textNode("bold", ADFMark{Type: "strong"}),
				textNode(" and "),
				textNode("link", ADFMark{Type: "link", Attrs: &ADFMarkAttributes{Href: "https://example.com"}}),
			}},
			ADFContent{Type: "bulletList", Content: []ADFContent{
				{Type: "listItem", Content: []ADFContent{{Type: "paragraph", Content: []ADFContent{textNode("one")}}}},
			}},
			ADFContent{Type: "codeBlock", Attrs: &ADFMarkAttributes{Language: "go"}, Content: []ADFContent{textNode("a < b")}},
		)

		assert.Equal(t,
			`<h2>Title</h2><p><strong>bold</strong> and <a href="https://example.com">link</a></p><ul><li><p>one</p></li></ul><pre><code class="language-go">a &lt; b</code></pre>`,
			ADFToHTML(doc))
	})
}

func TestHTMLToADF(t *testing.T) {
	t.Run("it should survive a round trip through html", func(t *testing.T) {
		in := `<h2>Title</h2><p><strong>bold</strong> and <em>italic</em> <u>under</u> <s>gone</s> <code>x</code></p><ol><li><p>first</p></li></ol><blockquote><p>quote</p></blockquote><pre><code class="language-go">fmt.Println()</code></pre>`
		assert.Equal(t, in, ADFToHTML(HTMLToADF(in)))
	})

	t.Run("it should wrap loose inline content into paragraphs", func(t *testing.T) {
		doc := HTMLToADF(`hello <b>world</b><p>next</p>`)
		require.Len(t, doc.Content, 2)
		assert.Equal(t, "paragraph", doc.Content[0].Type)
		assert.Equal(t, "strong", doc.Content[0].Content[1].Marks[0].Type)
	})

	t.Run("it should treat plain text as paragraphs", func(t *testing.T) {
		doc := HTMLToADF("line one\nline two\n\nsecond")
		require.Len(t, doc.Content, 2)
		assert.Equal(t, "hardBreak", doc.Content[0].Content[1].Type)
		assert.Equal(t, "second", doc.Content[1].Content[0].Text)
	})

	t.Run("it should produce an empty document for empty input", func(t *testing.T) {
		doc := HTMLToADF("  ")
		assert.Equal(t, "doc", doc.Type)
		assert.Empty(t, doc.Content)
	})
}

func TestEditorConversion(t *testing.T) {
	editorJSON := `{"type":"doc","content":[
		{"type":"heading","attrs":{"level":3},"content":[{"type":"text","text":"Steps"}]},
		{"type":"paragraph","content":[
			{"type":"text","text":"click","marks":[{"type":"bold"},{"type":"italic"}]},
			{"type":"text","text":"here","marks":[{"type":"link","attrs":{"href":"https://example.com"}}]}
		]},
		{"type":"horizontalRule"}
	]}`

	t.Run("it should map editor marks onto adf marks", func(t *testing.T) {
		doc := DescriptionToADF(editorJSON)
		require.Len(t, doc.Content, 3)
		assert.Equal(t, 3, doc.Content[0].Attrs.Level)
		assert.Equal(t, []ADFMark{{Type: "strong"}, {Type: "em"}}, doc.Content[1].Content[0].Marks)
		assert.Equal(t, "https://example.com", doc.Content[1].Content[1].Marks[0].Attrs.Href)
		assert.Equal(t, "rule", doc.Content[2].Type)
	})

	t.Run("it should convert back into the editor format", func(t *testing.T) {
		var original EditorNode
		require.NoError(t, json.Unmarshal([]byte(editorJSON), &original))

		back := ADFToEditor(EditorToADF(original))
		assert.Equal(t, "doc", back.Type)
		assert.Equal(t, "horizontalRule", back.Content[2].Type)
		assert.Equal(t, "bold", back.Content[1].Content[0].Marks[0].Type)
		assert.Equal(t, map[string]any{"href": "https://example.com"}, back.Content[1].Content[1].Marks[0].Attrs)
		assert.Equal(t, map[string]any{"level": 3}, back.Content[0].Attrs)
	})
}
