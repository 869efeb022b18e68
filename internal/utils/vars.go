package utils

const DefaultBufferSize = 1024 * 1024 * 4 // 4MB buffer

const ToolUserAgent = "ffgrab/1337"

// DefaultConnections is the segment count for parallel range fetches.
// Above 5 connections the HTTP client switches to high-thread-mode.
const DefaultConnections = 16

// MaxConnections caps the configurable segment count.
const MaxConnections = 64
