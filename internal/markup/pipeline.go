package markup

// Stage transforms one stream into another.
type Stage func(Stream) Stream

// Pipeline chains stages over a parsed source. Stages run lazily: nothing is
// tokenized until the resulting stream is pulled.
type Pipeline struct {
	stages []Stage
}

// NewPipeline returns an empty pipeline.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// WikiPipeline builds the standard chain: heading ids, wikilink shortening and
// link decoration, in that order.
func WikiPipeline(opts ...DecorateOption) *Pipeline {
	return NewPipeline(
		TagHeadings,
		ShortenWikitext,
		func(s Stream) Stream { return DecorateLinks(s, opts...) },
	)
}

// Then appends a stage.
func (p *Pipeline) Then(stage Stage) *Pipeline {
	if stage != nil {
		p.stages = append(p.stages, stage)
	}
	return p
}

// Wrap applies every stage to s.
func (p *Pipeline) Wrap(s Stream) Stream {
	for _, stage := range p.stages {
		s = stage(s)
	}
	return s
}

// Run parses source and applies every stage.
func (p *Pipeline) Run(source []byte, opts ...ParseOption) Stream {
	return p.Wrap(Parse(source, opts...))
}
