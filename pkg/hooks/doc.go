// Package hooks provides the application-wide hook dispatcher used by page
// navigation.
//
// Hooks are registered per type and fired in registration order:
//
//	d := hooks.NewDispatcher(nil)
//	d.MustOn(hooks.InitPage, func(ctx context.Context, e hooks.Event) error {
//	    log.Printf("page %s loaded with id=%d", e.Page, e.Int("id"))
//	    return nil
//	})
//
// A navigation from page A to page B fires, in order: DestroyPage for A,
// DestroyLayout and InitLayout when the layout changes, InitPage and
// ShowPage for B.
package hooks
