// Package dynamo provides the primitives shared by every simulation package.
//
// The package defines:
//
//   - [State]: vector representing the unknowns of a control volume
//   - [System]: interface for ODE right-hand sides (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [FlowRatio]: mass and enthalpy flow exchanged through a connector
//   - [Properties]: endpoint snapshot read by connectors
//
// Errors returned anywhere in the module wrap one of [ErrConfiguration],
// [ErrInvariant], [ErrNumericalDomain] or [ErrSampleCapacity], so callers can
// classify them with errors.Is.
//
// # Thread Safety
//
// Nothing in the simulation core is safe for concurrent use. A System and
// everything it owns must be driven from a single goroutine.
package dynamo
