// Package auth issues and validates HS256 access tokens and hashes user
// passwords with bcrypt.
package auth
