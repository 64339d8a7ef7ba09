// Package batch turns a raw set of locators into a supervised pipeline run:
// normalization, ledger dedupe, dispatch, and the end-of-run summary.
package batch
