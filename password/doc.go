// Package password hashes and verifies the passwords held by the development
// auth server's user directory.
//
// Hashes use Argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The dashboard client never hashes anything; plaintext goes to the remote
// auth server over the login call. Only the stub server in internal/stub
// stores hashes.
package password
