// Package event defines the core domain types for match event processing.
//
// It contains the raw record shapes stored in the relational store, the
// typed payload model decoded from the nested source JSON, and the flat
// row produced by the flattening pipeline.
package event
