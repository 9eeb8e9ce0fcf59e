package ports

// Randomness used for tie-breaks and placeholder scores. Injected so tests can seed it.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}
