// Command dubber batch-processes video locators into dubbed media files:
// translated audio is fetched, mixed over the source video, and the result
// filed into category output directories with an idempotency ledger and a
// retryable failure journal.
package main
