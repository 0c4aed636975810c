package inspect

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sipa-dev/sipa/pkg/component"
)

// InstanceInfo describes one instance.
type InstanceInfo struct {
	ID         uint64         `json:"id"`
	Type       string         `json:"type"`
	Alias      string         `json:"alias"`
	State      string         `json:"state"`
	Visible    bool           `json:"visible"`
	Classes    []string       `json:"classes,omitempty"`
	Parent     uint64         `json:"parent,omitempty"`
	Children   []uint64       `json:"children,omitempty"`
	Attributes map[string]any `json:"attributes"`
	Markup     string         `json:"markup,omitempty"`
}

func describe(i *component.Instance, withMarkup bool) InstanceInfo {
	info := InstanceInfo{
		ID:         i.ID(),
		Type:       i.Type().Tag(),
		Alias:      i.Alias(),
		State:      i.State().String(),
		Visible:    i.Visible(),
		Classes:    i.Classes(),
		Attributes: make(map[string]any),
	}
	if p := i.Parent(); p != nil {
		info.Parent = p.ID()
	}
	for _, c := range i.Children() {
		info.Children = append(info.Children, c.ID())
	}
	sort.Slice(info.Children, func(a, b int) bool { return info.Children[a] < info.Children[b] })

	for k, v := range i.Attributes() {
		info.Attributes[k] = jsonValue(v)
	}
	if withMarkup {
		info.Markup = i.Markup()
	}
	return info
}

// jsonValue replaces instances by their identities and values JSON cannot
// encode by their printed form.
func jsonValue(v any) any {
	switch val := v.(type) {
	case *component.Instance:
		return map[string]uint64{"instance": val.ID()}
	case []*component.Instance:
		ids := make([]uint64, 0, len(val))
		for _, m := range val {
			if m != nil {
				ids = append(ids, m.ID())
			}
		}
		return map[string][]uint64{"instances": ids}
	case component.Attributes:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = jsonValue(x)
		}
		return out
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return v
}
