package vdom

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

var selfClosing = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9-]*)((?:\s+(?:[^<>"'/]|/[^>]|"[^"]*"|'[^']*')*)?)\s*/>`)

// expandSelfClosing rewrites <tag .../> into <tag ...></tag> for non-void tags.
func expandSelfClosing(markup string) string {
	if !strings.Contains(markup, "/>") {
		return markup
	}
	return selfClosing.ReplaceAllStringFunc(markup, func(m string) string {
		sub := selfClosing.FindStringSubmatch(m)
		tag, attrs := sub[1], strings.TrimRight(sub[2], " \t\r\n")
		if IsVoidElement(tag) {
			return "<" + tag + attrs + ">"
		}
		return "<" + tag + attrs + "></" + tag + ">"
	})
}

// Parse parses a markup fragment into detached nodes, as if it were the
// content of a <body> element. Comments and doctypes are dropped.
func Parse(markup string) ([]*VNode, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(expandSelfClosing(markup)), context)
	if err != nil {
		return nil, err
	}
	nodes := make([]*VNode, 0, len(parsed))
	for _, p := range parsed {
		if n := convert(p); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// ParseInto parses markup and appends the resulting nodes to parent.
func ParseInto(parent *VNode, markup string) error {
	nodes, err := Parse(markup)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

func convert(h *html.Node) *VNode {
	switch h.Type {
	case html.TextNode:
		return Text(h.Data)
	case html.ElementNode:
		n := &VNode{Kind: KindElement, Tag: h.Data, Props: make(Props, len(h.Attr))}
		for _, a := range h.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			n.Props[key] = a.Val
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c); child != nil {
				n.AppendChild(child)
			}
		}
		return n
	default:
		return nil
	}
}
