// Package groups registers the client, campaign and economics entity groups
// with the core registry. Import this package to ensure all groups are
// registered.
package groups

// Each group file uses init() to register its definition.
