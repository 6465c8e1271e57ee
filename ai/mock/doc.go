// Package mock provides test doubles for the ai interfaces. The doubles
// produce deterministic output by default and allow custom behavior
// injection via function fields.
package mock
