// Package password hashes and verifies administrator passwords with argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so the
// Guard can rehash on the next successful login. [Argon2.DummyHash] gives login a
// real hash to verify against when the username is unknown.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other adminGate package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
