// Package hash provides helpers for hashing and verifying secrets.
//
// One-time codes are stored only as slow, salted digests (Argon2id by default,
// bcrypt as an alternative) and verified by comparing the submitted plaintext
// against the stored digest.
package hash
