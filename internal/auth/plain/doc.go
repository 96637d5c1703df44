// Package plain provides static username/password verification for
// SASL PLAIN authentication.
//
// Credentials are loaded once from a JSON file, an array of objects:
//
//	[
//	  {"username": "alice", "password": "secret"},
//	  {"username": "bob", "password": "$2a$10$..."}
//	]
//
// Passwords starting with a bcrypt prefix ($2a$, $2b$, $2y$) are
// verified as bcrypt hashes; everything else is compared in constant
// time as plaintext.
//
// The verifier is stateless after construction and is entirely
// separate from the ACL decision engine: authenticating a principal
// and authorizing its requests are independent concerns.
package plain
