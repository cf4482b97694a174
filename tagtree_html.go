package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML outlines are nested lists:
//
//	<ul><li><span class="name">root</span><ul><li>...</li></ul><span class="data">text</span></li></ul>

const (
	htmlNameClass = "name"
	htmlDataClass = "data"
)

// ErrHTMLNullChar is returned when a name or data holds U+0000, which HTML
// parsers drop from text.
var ErrHTMLNullChar = errors.New("html outline cannot carry a NUL character")

func encodeHTML(e ExportNode) (string, error) {
	if path, ok := findNullChar(e, ""); ok {
		return "", fmt.Errorf("encode html: %w (node %q)", ErrHTMLNullChar, path)
	}

	list := htmlElement(atom.Ul)
	list.AppendChild(htmlItem(e))

	var buf bytes.Buffer
	if err := html.Render(&buf, list); err != nil {
		return "", fmt.Errorf("encode html: %w", err)
	}
	return buf.String(), nil
}

func htmlItem(e ExportNode) *html.Node {
	item := htmlElement(atom.Li)
	item.AppendChild(htmlSpan(htmlNameClass, e.Name))

	if len(e.Children) > 0 {
		list := htmlElement(atom.Ul)
		for _, child := range e.Children {
			list.AppendChild(htmlItem(child))
		}
		item.AppendChild(list)
	}

	if e.Data != "" {
		item.AppendChild(htmlSpan(htmlDataClass, e.Data))
	}
	return item
}

// findNullChar reports the slash separated name path of the first node whose
// name or data contains a NUL.
func findNullChar(e ExportNode, parent string) (string, bool) {
	path := parent + "/" + e.Name
	if strings.ContainsRune(e.Name, 0) || strings.ContainsRune(e.Data, 0) {
		return path, true
	}
	for _, child := range e.Children {
		if found, ok := findNullChar(child, path); ok {
			return found, true
		}
	}
	return "", false
}

func htmlElement(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

func htmlSpan(class, text string) *html.Node {
	span := htmlElement(atom.Span)
	span.Attr = []html.Attribute{{Key: "class", Val: class}}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return span
}

func decodeHTML(text string) (ExportNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return ExportNode{}, fmt.Errorf("decode html: %w", err)
	}

	root := doc.Find("ul").First().ChildrenFiltered("li").First()
	if root.Length() == 0 {
		return ExportNode{}, errors.New("decode html: no outline list found")
	}
	return decodeHTMLItem(root), nil
}

func decodeHTMLItem(item *goquery.Selection) ExportNode {
	e := ExportNode{
		Name: item.ChildrenFiltered("span." + htmlNameClass).First().Text(),
	}
	if data := item.ChildrenFiltered("span." + htmlDataClass); data.Length() > 0 {
		e.Data = data.First().Text()
	}
	item.ChildrenFiltered("ul").ChildrenFiltered("li").Each(func(_ int, child *goquery.Selection) {
		e.Children = append(e.Children, decodeHTMLItem(child))
	})
	return e
}
