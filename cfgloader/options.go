package cfgloader

// Options holds configuration options for Load and MustLoad.
type Options struct {
	// Silent disables printing the loaded config.
	Silent bool

	// Dir is the directory holding ${ENVIRONMENT}.yaml files. Default is ./config.
	Dir string
}

// Option is a functional option for configuring Load behavior.
type Option func(*Options)

// WithSilent disables config logging to stdout.
func WithSilent() Option {
	return func(o *Options) {
		o.Silent = true
	}
}

// WithDir overrides the directory config files are read from.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}
