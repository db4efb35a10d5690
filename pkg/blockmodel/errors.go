package blockmodel

import (
	"errors"
	"strings"

	"github.com/Faultbox/cubemodel/pkg/resource"
)

// Resolution errors.
var (
	ErrMalformedDocument            = errors.New("malformed model document")
	ErrMissingParent                = errors.New("missing parent model")
	ErrUnresolvableTextureReference = errors.New("unresolvable texture reference")
)

// ResolveError records which model was being resolved when an error occurred
// and the parent chain walked so far (requested model first).
type ResolveError struct {
	ID    resource.Identifier
	Chain []resource.Identifier
	Err   error
}

func (e *ResolveError) Error() string {
	var b strings.Builder
	b.WriteString("resolving ")
	b.WriteString(e.ID.String())
	if len(e.Chain) > 1 {
		b.WriteString(" (chain ")
		for i, id := range e.Chain {
			if i > 0 {
				b.WriteString(" -> ")
			}
			b.WriteString(id.String())
		}
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Depth returns how many documents of the chain had been reached.
func (e *ResolveError) Depth() int {
	return len(e.Chain)
}
