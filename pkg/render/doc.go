// Package render serialises sipa visual trees to markup.
//
// Components keep their rendered state as a vdom tree; the markup string a
// component exposes is produced here:
//
//	html := render.String(node)          // outer markup of node
//	inner := render.Inner(node)          // markup of node's children only
//
// Attributes are written in sorted order so that two serialisations of equal
// trees are byte-identical. Text and attribute values are escaped; children
// of <script> and <style> are written verbatim.
//
// A Renderer with Pretty set indents block elements, which the inspector uses
// for human-readable output.
package render
