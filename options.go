package entrygen

import "github.com/hashicorp/go-hclog"

type genOpts struct {
	logger hclog.Logger
}

// GeneratorOpt configures a generator.
type GeneratorOpt func(*genOpts)

// WithLogger sets the logger a generator reports each pass to.
func WithLogger(logger hclog.Logger) GeneratorOpt {
	return func(opts *genOpts) {
		opts.logger = logger
	}
}

func newGenOpts(opts []GeneratorOpt) genOpts {
	o := genOpts{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	return o
}
