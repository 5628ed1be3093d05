// Package tagging implements the domain containers of the tagging client:
// App (root), Project and Image (children).
//
// App owns the only state.Store. Project and Image are state.Child values
// whose notifications forward to that store, so a view observes a project's
// images or an image's tags by subscribing to the root with a selector that
// traverses currentProject or currentProject.currentImage:
//
//	app := tagging.NewApp(client)
//	_ = app.Store().Subscribe(id, onTags, tagging.SelTags)
//	app.LoadProjects(ctx, false)
//	p := app.OpenProject(ctx, "cats")
//	img, _ := p.SelectImage(ctx, "001.png")
//	img.AddTag("tabby")
//	img.SaveTags(ctx)
//
// Network failures never escape as errors: they set ErrorLoading or
// ErrorSaving on the container that issued the request, log a warning, and
// wait for an explicit Retry. Loads are guarded so a second call while one is
// in flight is ignored unless refresh is set. Responses are applied in
// arrival order; a slow response can overwrite a newer one.
//
// Image keeps its caption text and uncategorized tag list in ttlcache
// caches without expiry. Every tag mutation, tag load and category reload
// clears them.
package tagging
