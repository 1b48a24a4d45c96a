// Package fixture loads scan scenario descriptions into memengine
// snapshots. Scenarios are commented JSON (hujson) documents by default, or
// optionally a SQLite corpus for fuzz/benchmark seeding.
package fixture
