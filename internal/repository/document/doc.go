// Package document persists the environment Document.
//
// FileRepository is the canonical store: it writes a temporary sibling file
// and renames it over the canonical path, so readers see either the previous
// or the new complete document. RedisRepository mirrors the same bytes into
// a Redis key for consumers that cannot read the local disk.
package document
