// Package types provides shared type definitions used across dialogic
// packages. This package exists to break import cycles between the
// scenario core, the prompt composer, and the store. Types in this
// package should be foundational data structures with no complex
// dependencies.
package types

// UserProfile describes the learner. All fields are required and immutable
// for the duration of a session once set.
type UserProfile struct {
	Language     string `json:"language"`
	BaseLanguage string `json:"baseLanguage"`
	Level        string `json:"level"`
	Interests    string `json:"interests"`
}

// MistakeLogEntry pairs a user input with the feedback it received. The
// JSON keys match the schema the prompt instructs the model with.
type MistakeLogEntry struct {
	UserInput string `json:"user_input"`
	Feedback  string `json:"feedback"`
}
