package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/sipa-dev/sipa/pkg/vdom"
)

// RendererConfig configures the markup renderer.
type RendererConfig struct {
	// Pretty enables indented output. Pretty output is not stable across
	// whitespace-sensitive comparisons and is meant for display only.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string
}

// Renderer serialises vdom trees.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

var compact = NewRenderer(RendererConfig{})

// String returns the outer markup of node.
func String(node *vdom.VNode) string {
	s, _ := compact.RenderToString(node)
	return s
}

// Inner returns the markup of node's children.
func Inner(node *vdom.VNode) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range node.Children {
		_ = compact.renderNode(&b, c, 0, false)
	}
	return b.String()
}

// Nodes returns the concatenated markup of nodes.
func Nodes(nodes []*vdom.VNode) string {
	var b strings.Builder
	for _, n := range nodes {
		_ = compact.renderNode(&b, n, 0, false)
	}
	return b.String()
}

// RenderToString renders a tree to a string.
func (r *Renderer) RenderToString(node *vdom.VNode) (string, error) {
	var b strings.Builder
	if err := r.RenderToWriter(&b, node); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderToWriter streams a tree to the given writer.
func (r *Renderer) RenderToWriter(w io.Writer, node *vdom.VNode) error {
	return r.renderNode(w, node, 0, false)
}

// renderNode dispatches rendering based on node kind.
func (r *Renderer) renderNode(w io.Writer, node *vdom.VNode, depth int, raw bool) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case vdom.KindElement:
		return r.renderElement(w, node, depth)
	case vdom.KindText:
		text := node.Text
		if !raw {
			text = escapeHTML(text)
		}
		_, err := io.WriteString(w, text)
		return err
	case vdom.KindDocument:
		for _, c := range node.Children {
			if err := r.renderNode(w, c, depth, false); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown node kind: %d", node.Kind)
	}
}

// renderElement renders an element with its attributes and children.
func (r *Renderer) renderElement(w io.Writer, node *vdom.VNode, depth int) error {
	tag := node.Tag

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "<"+tag); err != nil {
		return err
	}
	if err := r.renderAttributes(w, node); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if vdom.IsVoidElement(tag) {
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	hasBlockChildren := r.config.Pretty && len(node.Children) > 0 && !isInlineElement(tag)
	if hasBlockChildren {
		io.WriteString(w, "\n")
	}

	raw := isRawText(tag)
	for _, child := range node.Children {
		if err := r.renderNode(w, child, depth+1, raw); err != nil {
			return err
		}
	}

	if hasBlockChildren {
		r.writeIndent(w, depth)
	}
	if _, err := io.WriteString(w, "</"+tag+">"); err != nil {
		return err
	}
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}
	return nil
}

// renderAttributes renders attributes in sorted order. Keys starting with
// "_" are internal and skipped.
func (r *Renderer) renderAttributes(w io.Writer, node *vdom.VNode) error {
	for _, key := range node.AttrKeys() {
		if strings.HasPrefix(key, "_") {
			continue
		}
		value := node.Props[key]
		if value == nil {
			continue
		}

		if b, ok := value.(bool); ok && isBooleanAttr(key) {
			if b {
				if _, err := io.WriteString(w, " "+key); err != nil {
					return err
				}
			}
			continue
		}

		s := vdom.PropString(value)
		if s == "" {
			if _, err := io.WriteString(w, " "+key); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, key, escapeAttr(s)); err != nil {
			return err
		}
	}
	return nil
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(r.config.Indent, depth))
}
