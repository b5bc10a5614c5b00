// Package domain defines the entities and state machine vocabulary for
// interactive challenge sessions: the event session lifecycle, the
// append-only step timeline, AI-interpreted tasks, difficulty settings,
// dice roll results, and penalty records.
package domain
