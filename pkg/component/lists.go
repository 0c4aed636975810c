package component

import (
	serrors "github.com/sipa-dev/sipa/internal/errors"
	"github.com/sipa-dev/sipa/pkg/vdom"
)

// fillLists fills every list container of root with the root nodes of the
// members bound to it. Members keep their nodes; the container's template
// content is discarded.
func (p *renderPass) fillLists(root *vdom.VNode) error {
	i := p.i
	containers := vdom.FindAll(root, func(n *vdom.VNode) bool {
		_, ok := n.Attr(AttrList)
		return ok && n.IsElement()
	}, p.isBoundary)

	for _, c := range containers {
		key, _ := c.Attr(AttrList)
		if key == "" {
			return serrors.New("S103").WithComponent(i.typ.tag).WithDetail("empty sipa-list attribute")
		}
		p.lists[key] = true

		var members []*Instance
		if raw, ok := i.attrs[key]; ok && raw != nil {
			list, ok := raw.([]*Instance)
			if !ok {
				return serrors.New("S103").WithComponent(i.typ.tag).
					WithDetailf("attribute %q holds %T", key, raw)
			}
			members = list
		}

		detachChildren(c)
		for _, m := range members {
			if m == nil || m.state >= StateDestroying || m.node == nil || m == i {
				continue
			}
			if _, dup := p.listed[m]; dup {
				continue
			}
			if err := p.claim(m.Alias(), m); err != nil {
				return err
			}
			p.listed[m] = key
			c.Embed(m.node)
		}
	}
	return nil
}
