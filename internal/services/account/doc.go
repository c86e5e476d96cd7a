// Package account registers and authenticates decrypted credentials
// against an AccountStore.
//
// Store failures are reported as domain.ErrStoreUnavailable and always
// come with a negative result.
package account
