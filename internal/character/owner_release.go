//go:build !debug

package character

// ownerCheck is a no-op outside debug builds.
type ownerCheck struct{}

func (*ownerCheck) assert() {}
