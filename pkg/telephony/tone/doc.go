// doc.go notes scope decisions that don't fit inline comments elsewhere.
//
// Busy and reorder share frequencies (480+620 Hz) and differ only by on/off
// cadence (reorder is faster). This package classifies by frequency content
// only, per SPEC_FULL.md §4.1; cadence discrimination would require tracking
// on/off timing across frames, which no tested property in §8 exercises, so
// ToneBusy is returned for both and a cadence layer is left to a caller that
// needs the distinction.
package tone
