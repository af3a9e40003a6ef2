// Package core provides the business logic for spreadsheet-driven order entry.
//
// This package holds all domain logic independent of any UI or transport
// layer. The web handlers and the orderctl CLI both drive it through [Service].
//
// # State
//
// Everything the application remembers lives under three keys of a [Store]:
//
//   - uploadedFileNames: names of every accepted upload, in upload order
//   - fileData: the parsed rows of each file, as [FileRecord] values
//   - shops: the committed orders, as a [Ledger]
//
// Each key holds one JSON document that is read and rewritten whole. The
// service serializes these read-modify-write cycles so concurrent uploads and
// commits never lose each other's writes.
//
// # Uploads
//
// [Service.StartUploads] lists accepted file names immediately and parses
// each file in the background through a [Parser]. Parses are bounded by an
// [UploadLimiter]. Callers poll [Service.UploadStatus] or block on
// [Service.WaitForUpload].
//
// # Orders
//
// Each browser session owns an [OrderBuilder]. Items are picked from search
// results, edited or deleted, and finally committed with
// [Service.CommitOrder], which merges them into the ledger entry of the
// customer with the same name.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Codes are listed in error_messages.go.
package core
