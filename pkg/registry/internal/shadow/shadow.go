// Package registry declares types whose printed names collide with types of
// the same name in pkg/registry tests.
package registry

// Order prints as "registry.Order".
type Order struct {
	ID int
}
