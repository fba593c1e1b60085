// Package storage defines the contract with the image object store and the
// signed-upload handshake. Uploads are not content-addressed: every upload
// mints a fresh storage key, namespaced under the owning user so the API can
// enforce ownership by inspecting the key alone.
package storage
