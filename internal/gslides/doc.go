// Package gslides wraps the Google Slides and Drive APIs used by the cloud
// deck target.
//
// Every call goes through a token-bucket rate limiter and a bounded
// exponential backoff. Only rate limiting, 5xx responses and transient
// network failures are retried; authentication failures return immediately
// so the caller can surface them as credential problems.
//
// Credentials are resolved from a reference string:
//
//	env:NAME        access token read from the NAME environment variable
//	path/token.json OAuth token (access_token, refresh_token, optional
//	                client_id/client_secret for refreshing)
//	path/key.json   service-account key ("type": "service_account")
//
// An empty reference falls back to MD2DECK_CLOUD_TOKEN.
package gslides
