// Package tasks distributes portal items to reviewers and tracks how long they stay unresolved.
//
// # Core Operations
//
// A [Tracker] holds the rules and performs no I/O. Each operation works on a [models.Sheet] and queues writes:
//
//  1. [Tracker.Ingest] : fold one account's current items into the sheet
//     - Skips items already tracked for the account
//     - Adds the account to the label of a row that tracks the item for another account ("Sulpak+ARG")
//     - Appends anything else, assigned by the [Balancer] to the least loaded reviewer
//     - Flags new rows with the [Classifier] (brand token or non-standard id)
//
//  2. [Tracker.Sweep] : stamp today's date on the account's rows whose item left the portal
//
//  3. [Tracker.DeriveResolution] : recompute the days-to-resolution column
//
// # Engine
//
// [Engine.Sync] runs one account cycle against a [Store]: load, ingest, commit, sweep, derive, commit. A store
// that cannot be read degrades to an empty sheet; a store that cannot be written is logged and reported in the
// [SyncResult], and the next account still runs.
//
// # Daily Run
//
// [DailyRun] extracts every (account, category) pair through an [Extractor], syncs the tracked category, renders
// the summary and delivers it with a [services.Notifier]. [DailyRun.Serve] repeats this at the configured time.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
