// Package events defines the events published on the internal bus.
//
//   - SolveEvent: a solve request finished, timed out or was rejected
//   - CatalogRefreshEvent: a catalog refresh attempt completed
package events
