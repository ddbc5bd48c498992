package notify

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags は抽出時に改行として扱うタグ。
var blockTags = map[string]bool{
	"p":  true,
	"br": true,
	"li": true,
	"ul": true,
	"ol": true,
}

// htmlToPlainText はHTML本文からテキストのみを抽出する。
// ブロック要素は改行に変換し、連続する空白行は1つにまとめる。
// パースに失敗した場合は入力をそのまま返す。
func htmlToPlainText(htmlBody string) string {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return htmlBody
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	lines := strings.Split(sb.String(), "\n")
	var out []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
