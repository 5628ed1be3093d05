// Package bind connects bubbletea views to state containers.
//
// A Binding registers one subscriber on Mount and removes it on Unmount.
// Each mount gets a fresh ULID-based id, so a late delivery for an earlier
// registration is dropped instead of overwriting the current view.
//
// Deliveries arrive on the container's dispatch path, which may be inside
// the program's Update. Calling Program.Send there would block, so a binding
// keeps the newest update in a one-slot channel and the view pulls it with
// Listen:
//
//	b := bind.New("tags", tagging.SelTags)
//	_ = b.Mount(app.Store())
//	return b.Listen()
//
//	case bind.UpdateMsg:
//		m.tags = msg.Update
//		return m, b.Listen()
package bind
