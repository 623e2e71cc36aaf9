// Package report produces the outputs handed to the narrative and archival
// collaborators: a free-text summary of the group statistics, a JSON report
// document and an encoded raster snapshot.
//
// Narrative generation goes through the Narrator interface. OllamaNarrator
// talks to an Ollama server; any failure is replaced by FallbackNarrative so
// a missing model never blocks a report.
package report
