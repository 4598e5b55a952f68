package finalize

// Option applies a configuration option to the Finalizer.
type Option func(*Finalizer)

// WithHalvedMakeupOnly halves the final grade when only a makeup score
// exists, reproducing the stricter variant of the workflow.
func WithHalvedMakeupOnly(halve bool) Option {
	return func(f *Finalizer) {
		f.halveMakeupOnly = halve
	}
}

// WithChangeEpsilon sets the threshold below which the original and
// makeup scores are considered equivalent.
func WithChangeEpsilon(epsilon float64) Option {
	return func(f *Finalizer) {
		if epsilon >= 0 {
			f.changeEpsilon = epsilon
		}
	}
}
