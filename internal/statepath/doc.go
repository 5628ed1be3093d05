// Package statepath names locations inside a container's state tree.
//
// # Overview
//
// A Path is the parsed form of a dotted/indexed locator such as
// "currentProject.images[3]" or "currentProject.currentImage.tags". Views use
// paths to declare which parts of a snapshot they care about; the state package
// uses them to decide whether a subscriber needs an update and to build the
// partial payload it receives.
//
// # Schemas
//
// Go has no structural type-level path enumeration, so a Schema is derived at
// runtime from the snapshot struct:
//
//	schema := statepath.SchemaOf[tagging.AppSnapshot]()
//	schema.Paths()          // every legal path, indices shown as "[]"
//	schema.Validate(p)      // reject typos before they reach a subscription
//	schema.Project(p1, p2)  // the merged shape selected by p1 and p2
//
// Field names come from json tags, the same names the snapshot uses once it is
// converted to a tree. Selector constants declared by packages are checked
// against their schema in tests, so call sites never carry unchecked strings.
//
// # Grammar
//
//	path    = "*" | segment { "." segment }
//	segment = name [ "[" [ digits ] "]" ]
//
// An empty index ("[]") is symbolic and only appears in enumerated paths.
package statepath
