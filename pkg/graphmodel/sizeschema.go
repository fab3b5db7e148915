package graphmodel

import (
	"fmt"

	"github.com/pimwalk/corepipe/pkg/corepiperr"
)

// SizeSchema is the explicit per-type attribute size layout a graph
// loader attaches to each archetype type. It replaces the dynamic
// attribute introspection (dir()/getattr on attribute names) the source
// system used to infer per-attribute byte widths.
type SizeSchema struct {
	TypeName       string
	AttributeSizes map[string]int
	AttributeOrder []string // deterministic iteration order for AttributeSizes.
}

// TotalSize sums every attribute's declared byte width.
func (s SizeSchema) TotalSize() int {
	total := 0
	for _, name := range s.AttributeOrder {
		total += s.AttributeSizes[name]
	}

	return total
}

// SizeCalculator computes the byte size of a NodeArchetype from a
// registered per-type schema rather than from introspecting the payload.
type SizeCalculator struct {
	schemas map[string]SizeSchema
}

// NewSizeCalculator creates an empty calculator.
func NewSizeCalculator() *SizeCalculator {
	return &SizeCalculator{schemas: make(map[string]SizeSchema)}
}

// Register attaches a size schema to a node type name.
func (c *SizeCalculator) Register(schema SizeSchema) {
	c.schemas[schema.TypeName] = schema
}

// SizeOf returns the declared schema size for a node's type, falling
// back to the node's own payload length when no schema was registered
// for that type. It returns a LookupError-kind error only when the
// schema exists but disagrees with the payload it was handed, since
// that signals the loader produced an inconsistent archetype.
func (c *SizeCalculator) SizeOf(node NodeArchetype) (int, error) {
	schema, ok := c.schemas[node.TypeName]
	if !ok {
		return node.SizeBytes(), nil
	}

	declared := schema.TotalSize()
	if declared != node.SizeBytes() {
		return 0, corepiperr.New(corepiperr.KindLookup,
			fmt.Sprintf("node %d: schema %q declares %d bytes, payload has %d", node.ID, node.TypeName, declared, node.SizeBytes()))
	}

	return declared, nil
}

// Schema returns the registered schema for a type name, if any.
func (c *SizeCalculator) Schema(typeName string) (SizeSchema, bool) {
	schema, ok := c.schemas[typeName]

	return schema, ok
}
