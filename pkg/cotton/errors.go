package cotton

import "fmt"

// IncompleteDynamicComponentError is returned when a dynamic component tag
// (<c-component>) has no "is" attribute naming its target. It is an
// authoring error and is never retried.
type IncompleteDynamicComponentError struct {
	Name string
}

func (e *IncompleteDynamicComponentError) Error() string {
	return fmt.Sprintf("cotton: <c-%s> must be accompanied by an \"is\" attribute", e.Name)
}
