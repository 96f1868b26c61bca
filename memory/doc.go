// Package memory provides the conversation memory: per-key, append-only turn
// logs backed by a durable store, with a token-bounded view for model context.
//
// Persistence model:
//   - The store file is the system of record; memory is rebuilt from it on Open.
//   - Every key's log is rewritten wholesale on Persist, atomically (temp file + rename).
//   - The file is pretty-printed JSON so users can read and own their data.
//   - A corrupt store is moved aside and replaced by an empty log rather than
//     stopping the process.
package memory
