package component

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// Templ adapts a templ component constructor into a TemplateFunc.
//
//	templ Card(title string) {
//	    <h2>{ title }</h2><slot/>
//	}
//
//	component.Define("CardView", component.Templ(func(a component.Attributes) templ.Component {
//	    return Card(a["title"].(string))
//	}))
func Templ(fn func(Attributes) templ.Component) TemplateFunc {
	return func(a Attributes) (string, error) {
		var b strings.Builder
		if err := fn(a).Render(context.Background(), &b); err != nil {
			return "", err
		}
		return b.String(), nil
	}
}
