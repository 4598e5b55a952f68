package scan

// Option applies a configuration option to the Scanner.
type Option func(*Scanner)

// WithPolicy selects the scoring policy.
func WithPolicy(p Policy) Option {
	return func(s *Scanner) {
		s.policy = p
	}
}
