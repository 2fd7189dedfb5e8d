// Package narration delivers spoken output.
//
// ExecSink runs an external text-to-speech program per utterance and kills
// it when a newer utterance interrupts. LogSink and Recorder serve headless
// runs and tests. Switch lets a restarted sink replace the old one behind a
// stable reference.
package narration
