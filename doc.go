// Package accounts provides credential management for a media web
// application: account registration, password authentication, and
// access/refresh token issuance.
//
// Registration saga:
//   - RegisterAccountHandler runs the creation pipeline: validate input,
//     check username/email uniqueness, upload the avatar (and optional
//     cover image) to the media store, then persist the account. The
//     media store and the account store fail independently and share no
//     transaction, so every uploaded asset is deleted best-effort when a
//     later step fails. Uploads happen after the uniqueness pre-check
//     and before the insert to keep the compensation window small.
//
// Tokens:
//   - TokenService signs short-lived access tokens (subject, username,
//     email) and longer-lived refresh tokens (subject only) with a
//     process-wide HS256 key. Each account stores a single refresh
//     token, replaced on every login and rotation; presenting a stale
//     refresh token fails validation.
//
// The HTTP controller is a thin JSON adapter. Routing, CORS, and body
// limits belong to the embedding application.
package accounts
