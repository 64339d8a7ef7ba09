// Package services defines the shared error taxonomy and context annotations
// used by the external tool clients and the pipeline driver. Stage failures
// are tagged with sentinel errors so the driver can derive a journal reason
// without inspecting message text.
package services
