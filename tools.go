//go:build tools

package tools

// Mocks in internal/mocks are generated from .mockery.yaml with an
// installed mockery binary: go generate -tags tools .
//go:generate mockery
