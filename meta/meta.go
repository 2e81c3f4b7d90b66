// meta/meta.go
package meta

// MAX_DECODE_DEPTH bounds the nesting of serialized aggregates.
const MAX_DECODE_DEPTH = 512

// MAX_ENTRY_SIZE caps the inflated size of a single archive entry (bytes).
const MAX_ENTRY_SIZE = 256 << 20

// CAPTURE_THRESHOLD is the capture points needed to flip a property.
const CAPTURE_THRESHOLD = 20

// MAX_HP is the internal health of an undamaged unit.
const MAX_HP = 100

// DEFAULT_INCOME is the funds granted per income property when a game sets none.
const DEFAULT_INCOME = 1000

// SEAM_HP is the health of an intact pipe seam.
const SEAM_HP = 99

// REPAIR_HP is the internal health restored on an owned property at turn start.
const REPAIR_HP = 20

// DEFAULT_STEP_INTERVAL_MS is the pacing between actions during playback.
const DEFAULT_STEP_INTERVAL_MS = 500

// UPDATE_BUFFER is the capacity of a playback update stream.
const UPDATE_BUFFER = 64
