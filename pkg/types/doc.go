// Package types defines the core data structures for the workflow execution engine.
//
// This package contains all the fundamental types used throughout the engine,
// including:
//   - Workflow, Step and input/output definitions
//   - Execution plans, run state and step outcomes
//   - Validation results, run events and engine errors
package types
