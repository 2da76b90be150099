package linear

// LassoOption configures a Lasso.
type LassoOption func(*Lasso)

// WithAlpha sets the L1 penalty strength.
func WithAlpha(alpha float64) LassoOption {
	return func(l *Lasso) {
		l.Alpha = alpha
	}
}

// WithMaxIter sets the maximum number of coordinate-descent sweeps.
func WithMaxIter(n int) LassoOption {
	return func(l *Lasso) {
		l.MaxIter = n
	}
}

// WithTol sets the convergence tolerance on coefficient updates.
func WithTol(tol float64) LassoOption {
	return func(l *Lasso) {
		l.Tol = tol
	}
}
