// Package pipeline drives one video through the dubbing stages (translated
// audio fetch, title resolution, source download, audio mix, persistence)
// and runs many videos through a bounded worker pool. Failures are contained
// at the item boundary: one failed video journals its reason and never
// affects the batch or other in-flight items.
package pipeline
