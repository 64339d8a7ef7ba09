// Package translate resolves translated video titles through the public
// Google Translate endpoint. The service is strictly best-effort: any
// failure (network, quota, malformed response) returns the original text
// unchanged so a missing translation can never fail an item.
package translate
