// Package page loads pages into layouts and fires the application hooks in
// navigation order.
//
// A layout is a component whose template holds a page container:
//
//	shell := eng.Register(component.Define("Shell", func(a component.Attributes) (string, error) {
//	    return `<header>Todo</header><main sipa-list="page"></main>`, nil
//	}))
//	nav := page.New(eng, page.Config{Root: doc})
//	nav.AddLayout("shell", shell)
//	nav.AddPage("todos", todos, "shell")
//	err := nav.Load(ctx, "todos", map[string]any{"filter": "open"})
//
// Loading page B while page A is shown fires DestroyPage for A, then
// DestroyLayout and InitLayout when the two pages use different layouts,
// then InitPage and ShowPage for B. The first load fires no destroy hooks.
//
// A Navigator must be used from the goroutine that owns its engine.
package page
