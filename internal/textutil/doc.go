// Package textutil provides small text helpers shared across the pipeline,
// primarily filename sanitization for video titles coming back from external
// metadata tools.
package textutil
