// Package common holds helpers shared by several services.
//
// It provides a gRPC health probe client with timeouts, host identity
// detection for naming published artifacts, and a guard against two simulators
// sharing one document store on the same machine.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
