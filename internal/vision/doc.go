// Package vision provides the interface and error taxonomy for the external
// vision model that classifies and compares meal photos. It abstracts the
// details of the model API integration (Gemini), allowing the verification
// endpoints to be exercised against a deterministic mock.
package vision
