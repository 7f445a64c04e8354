package filter

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-fast5/internal/message"
)

// Pipeline runs chunk data through an ordered list of filters. A nil stage
// stands for an optional filter that is not available; it keeps its slot so
// chunk filter masks still line up with the message.
type Pipeline struct {
	stages []Filter
}

// Of builds a pipeline that encodes with filters in the given order.
func Of(filters ...Filter) *Pipeline {
	return &Pipeline{stages: filters}
}

// NewPipeline builds the decoding pipeline described by fp. A nil message
// yields an empty pipeline.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for i, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline stage %d", i)
		}
		p.stages = append(p.stages, f)
	}
	return p, nil
}

// Decode undoes the pipeline, last stage first. Bit i of mask excludes
// stage i, as recorded per chunk by the writer.
func (p *Pipeline) Decode(input []byte, mask uint32) ([]byte, error) {
	data := input
	for i := len(p.stages) - 1; i >= 0; i-- {
		f := p.stages[i]
		if f == nil || (i < 32 && mask&(1<<i) != 0) {
			continue
		}
		out, err := f.Decode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "%s decode", Name(f.ID()))
		}
		data = out
	}
	return data, nil
}

// Encode runs every stage in order.
func (p *Pipeline) Encode(input []byte) ([]byte, error) {
	data := input
	for _, f := range p.stages {
		if f == nil {
			continue
		}
		out, err := f.Encode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "%s encode", Name(f.ID()))
		}
		data = out
	}
	return data, nil
}

// Message describes the pipeline for a dataset header. It is nil for an
// empty pipeline.
func (p *Pipeline) Message() *message.FilterPipeline {
	if p.Empty() {
		return nil
	}
	fp := &message.FilterPipeline{Version: 2}
	for _, f := range p.stages {
		if f != nil {
			fp.Filters = append(fp.Filters, f.Info())
		}
	}
	return fp
}

// Empty reports whether no stage would touch the data.
func (p *Pipeline) Empty() bool { return p.Len() == 0 }

// Len counts the usable stages.
func (p *Pipeline) Len() int {
	n := 0
	for _, f := range p.stages {
		if f != nil {
			n++
		}
	}
	return n
}
