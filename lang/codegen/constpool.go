package codegen

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/runtime"
)

// ConstPool is the growable, deduplicated table of literal values
// addressed by 16-bit index that spec.md §4.2 specifies: duplicate
// detection uses runtime.Value.Equal (numeric bit-pattern equality for
// floats, value equality for interned strings). Strings get a dedicated
// swiss.Map fast path since they are by far the most common repeated
// constant in real programs (format strings, field names); other kinds
// fall back to a linear scan, which is fine at the constant-pool sizes a
// single compilation unit produces.
type ConstPool struct {
	values    []runtime.Value
	strings   *swiss.Map[string, uint16]
}

// NewConstPool returns an empty ConstPool.
func NewConstPool() *ConstPool {
	return &ConstPool{strings: swiss.NewMap[string, uint16](16)}
}

// Intern adds v if not already present and returns its stable index.
func (p *ConstPool) Intern(v runtime.Value) (uint16, error) {
	if v.Kind == ast.STRING {
		if idx, ok := p.strings.Get(v.Str()); ok {
			return idx, nil
		}
		idx, err := p.append(v)
		if err != nil {
			return 0, err
		}
		p.strings.Put(v.Str(), idx)
		return idx, nil
	}
	for i, existing := range p.values {
		if existing.Equal(v) {
			return uint16(i), nil
		}
	}
	return p.append(v)
}

func (p *ConstPool) append(v runtime.Value) (uint16, error) {
	if len(p.values) >= 1<<16 {
		return 0, fmt.Errorf("codegen: constant pool exhausted (more than 65536 distinct constants)")
	}
	p.values = append(p.values, v)
	return uint16(len(p.values) - 1), nil
}

// Get returns the value at idx (panics if out of range, which would be a
// compiler bug: every index handed out came from Intern).
func (p *ConstPool) Get(idx uint16) runtime.Value { return p.values[idx] }

// Values returns every interned value in index order, for finalisation
// into a runtime.Chunk.
func (p *ConstPool) Values() []runtime.Value {
	out := make([]runtime.Value, len(p.values))
	copy(out, p.values)
	return out
}

// Len returns the number of distinct constants interned so far.
func (p *ConstPool) Len() int { return len(p.values) }
