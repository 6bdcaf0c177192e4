// Package media keeps a local, offline copy of catalog videos.
//
// A catalog load is reconciled against the filesystem and published as one
// atomic set of items into a Store. The Manager is the only writer of the
// downloaded flag and of the transfer progress afterwards: it downloads a
// video into a temporary part file, renames it into place once complete and
// removes it on request. Operations on the same item are mutually exclusive,
// operations on different items are independent. Every state change,
// progress update and user-facing notification is delivered to Store
// subscribers as an Event.
package media
