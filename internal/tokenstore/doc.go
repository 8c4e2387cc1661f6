// Package tokenstore provides persistent storage abstractions for the OAuth
// token artifact.
//
// Two backends are supported:
//   - File: local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential
//     Manager, Linux Secret Service)
//
// The artifact is stored as an opaque string payload; encoding and decoding is
// the caller's concern. A store holds at most one artifact, and writes are
// atomic: a reader sees either the previous payload or the new one, never a
// partial write.
package tokenstore
