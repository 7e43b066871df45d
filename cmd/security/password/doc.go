// Package password hashes and verifies member passwords with Argon2id.
//
// Hashes use the PHC string format
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<lanes>$<salt>$<key>
//
// with unpadded standard base64. Stored hashes are untrusted input: Verify
// rejects encodings whose cost parameters are far above the configured ones.
package password
