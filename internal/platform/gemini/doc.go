// Package gemini implements the vision.Verifier interface using Google's
// Gemini API. Every call declares a closed response schema (all fields
// required, no extras), and responses are decoded strictly: any shape
// mismatch fails the call rather than propagating partial data.
package gemini
