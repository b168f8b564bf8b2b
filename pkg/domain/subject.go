package domain

// Subject is the verified caller identity produced by the identity provider.
// Email is the natural key every ownership check compares against.
type Subject struct {
	UID   string
	Email string
}
