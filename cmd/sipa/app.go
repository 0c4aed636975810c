package main

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/sipa-dev/sipa/pkg/component"
	"github.com/sipa-dev/sipa/pkg/hooks"
	"github.com/sipa-dev/sipa/pkg/page"
	"github.com/sipa-dev/sipa/pkg/state"
)

// The demo views are hand-written templ.ComponentFunc values, nested by
// rendering one component inside another, and reach the engine through
// component.Templ.

// registerDemo registers the demo layout and pages on nav.
func registerDemo(eng *component.Engine, nav *page.Navigator) error {
	eng.Register(component.Define("TodoItem", component.Templ(todoItem),
		component.WithDefaults(component.Attributes{"label": "", "done": false}),
		component.KeyBy("label")))

	nav.AddLayout("shell", eng.Register(component.Define("AppShell", component.Templ(shell))))

	pages := []struct {
		name string
		def  *component.Spec
	}{
		{page.IndexPage, component.Define("TodoPage", component.Templ(todoPage),
			component.WithDefaults(component.Attributes{"filter": "all"}))},
		{"about", component.Define("AboutPage", component.Templ(aboutPage))},
	}
	for _, p := range pages {
		if err := nav.AddPage(p.name, eng.Register(p.def), "shell"); err != nil {
			return err
		}
	}

	store := nav.Store()
	nav.Hooks().MustOn(hooks.ShowPage, func(ctx context.Context, e hooks.Event) error {
		var visits int
		if _, err := store.Get(ctx, state.Persistent, "visits", &visits); err != nil {
			return err
		}
		return store.Set(ctx, state.Persistent, "visits", visits+1)
	})
	return nil
}

func shell(component.Attributes) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<header><a href="/">Todos</a> <a href="/about">About</a></header>`+
			`<main sipa-list="page"></main>`)
		return err
	})
}

var demoTodos = []struct {
	label string
	done  bool
}{
	{"Write the engine", true},
	{"Write the inspector", true},
	{"Ship it", false},
}

func todoPage(a component.Attributes) templ.Component {
	filter, _ := a["filter"].(string)
	var rows []templ.Component
	for _, t := range demoTodos {
		if (filter == "done" && !t.done) || (filter == "open" && t.done) {
			continue
		}
		rows = append(rows, todoRow(t.label, t.done))
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>Todos (%s)</h1><ul>`, templ.EscapeString(filter)); err != nil {
			return err
		}
		for _, row := range rows {
			if err := row.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
}

// todoRow declares a todo-item child; the engine adopts it on render.
func todoRow(label string, done bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<li><todo-item label="%s" done="%t"></todo-item></li>`,
			templ.EscapeString(label), done)
		return err
	})
}

func todoItem(a component.Attributes) templ.Component {
	label, _ := a["label"].(string)
	done := fmt.Sprint(a["done"]) == "true"
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		mark := " "
		if done {
			mark = "x"
		}
		_, err := fmt.Fprintf(w, `<span class="todo">[%s] %s</span>`, mark, templ.EscapeString(label))
		return err
	})
}

func aboutPage(component.Attributes) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<h1>About</h1><p>Rendered by the sipa component engine.</p>`)
		return err
	})
}
