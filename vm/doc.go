// Package vm implements the kelp reduction machine.
//
// This package contains:
//   - Block term representation and composition
//   - The three-region machine state (code, data, sink) with fuel
//   - The combinator rewrite-rule table
//   - The driver loop
//   - CBOR snapshot encoding for blocks and machines
package vm
