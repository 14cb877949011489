package dsformat

import "fmt"

// Pipeline records Formatter operations and runs them in order.
//
// Example:
//
//	p := dsformat.NewPipeline().
//		NormalizeText("document", "").
//		Hash("document", "hash").
//		UUID("uuid")
//	if err := p.Run(formatter); err != nil {
//		return err
//	}
type Pipeline struct {
	steps []pipelineStep
}

type pipelineStep struct {
	name string
	run  func(*Formatter) error
}

// NewPipeline creates an empty pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Steps returns the recorded step names in order
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}

// Len returns the number of recorded steps
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Run applies every step to f in order and stops at the first failure.
// Steps completed before the failure stay applied.
func (p *Pipeline) Run(f *Formatter) error {
	for i, s := range p.steps {
		if err := s.run(f); err != nil {
			return fmt.Errorf("pipeline step %d (%s): %w", i+1, s.name, err)
		}
	}
	return nil
}

func (p *Pipeline) add(name string, run func(*Formatter) error) *Pipeline {
	p.steps = append(p.steps, pipelineStep{name: name, run: run})
	return p
}

// Hash records Formatter.Hash
func (p *Pipeline) Hash(column, hashColumn string) *Pipeline {
	return p.add("Hash", func(f *Formatter) error { return f.Hash(column, hashColumn) })
}

// UUID records Formatter.UUID
func (p *Pipeline) UUID(uuidColumn string) *Pipeline {
	return p.add("UUID", func(f *Formatter) error { return f.UUID(uuidColumn) })
}

// Apply records Formatter.Apply
func (p *Pipeline) Apply(hashColumn, uuidColumn string) *Pipeline {
	return p.add("Apply", func(f *Formatter) error { return f.Apply(hashColumn, uuidColumn) })
}

// NormalizeText records Formatter.NormalizeText
func (p *Pipeline) NormalizeText(column, normalizedColumn string) *Pipeline {
	return p.add("NormalizeText", func(f *Formatter) error { return f.NormalizeText(column, normalizedColumn) })
}

// FilterRows records Formatter.FilterRows
func (p *Pipeline) FilterRows(predicate func(Row) bool) *Pipeline {
	return p.add("FilterRows", func(f *Formatter) error { return f.FilterRows(predicate) })
}

// RenameColumn records Formatter.RenameColumn
func (p *Pipeline) RenameColumn(old, name string) *Pipeline {
	return p.add("RenameColumn", func(f *Formatter) error { return f.RenameColumn(old, name) })
}

// DropColumn records Formatter.DropColumn
func (p *Pipeline) DropColumn(column string) *Pipeline {
	return p.add("DropColumn", func(f *Formatter) error { return f.DropColumn(column) })
}

// AddConstantColumn records Formatter.AddConstantColumn
func (p *Pipeline) AddConstantColumn(column string, value any) *Pipeline {
	return p.add("AddConstantColumn", func(f *Formatter) error { return f.AddConstantColumn(column, value) })
}

// ConvertColumnType records Formatter.ConvertColumnType
func (p *Pipeline) ConvertColumnType(column string, kind Kind) *Pipeline {
	return p.add("ConvertColumnType", func(f *Formatter) error { return f.ConvertColumnType(column, kind) })
}

// FillMissing records Formatter.FillMissing
func (p *Pipeline) FillMissing(column string, value any) *Pipeline {
	return p.add("FillMissing", func(f *Formatter) error { return f.FillMissing(column, value) })
}
