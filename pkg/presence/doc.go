// Package presence hides the published activity after a period without user
// interaction and restores it on the next interaction.
//
// # Visibility
//
// A Controller remembers the last activity it published. Each publish or
// interaction schedules a hide after the idle threshold; when it fires the
// on-screen activity is cleared but still remembered, and the next
// interaction publishes it again.
//
//	Visible --(idle threshold elapses)--> Hidden
//	Hidden  --(interaction or publish)--> Visible
//	any     --(Clear)-->                  Cleared
//
// # Generations
//
// Every cancellation bumps a generation counter. A scheduled hide captures
// the generation it was scheduled under and does nothing if the counter has
// moved by the time it fires, so a hide already in flight can never clear an
// activity that was refreshed after it was armed.
//
// # Threshold
//
// The idle threshold is read through an accessor at every scheduling
// decision. A threshold of zero or less disables hiding.
package presence
