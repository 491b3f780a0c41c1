// Package password hashes and verifies account passwords with argon2id.
//
// Hashes are stored as PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The package owns hashing only. It never stores passwords and never logs
// plaintext; the stores call [Argon2.Verify] and the engine calls
// [Argon2.Hash] at signup.
package password
