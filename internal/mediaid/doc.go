// Package mediaid normalizes arbitrary YouTube locators into a canonical
// watch URL plus the stable 11-character video id, and classifies each
// locator as short-form or long-form. Normalization is a pure function: the
// same underlying video always yields the same id regardless of how the
// locator was written.
package mediaid
