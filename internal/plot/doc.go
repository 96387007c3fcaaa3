// Package plot implements the narrative model tracked by the plot CLI.
//
// A plot is made of entities (characters, places, anything that can
// experience something), events (named happenings over an interval of
// time) and experiences (what an event meant for one entity). Each kind of
// record lives in its own schema.Schema, so every mutation goes through a
// transaction of the graph engine.
//
// Experiences are validated by a chain of constraints over the entity's
// timeline before they are merged into the outer transaction:
//   - an experience must continue from the profile of the previous one
//   - an entity cannot experience overlapping events
//   - an entity cannot experience the same event twice
//   - two terminal experiences cannot be adjacent
//
// Write guards are taken in the order entities, then experiences. Events
// are read while the experiences guard is held, so the events guard is
// never held while waiting on another schema.
package plot
