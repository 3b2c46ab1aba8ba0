// Package registry exposes the set of versions already published for a
// package, as recorded by the external registry.
package registry

import "time"

// FetchFunc queries a registry for a package's version-to-publish-time
// table. npm.ViewPublishTimes is the production implementation.
type FetchFunc func(pkg string) (map[string]time.Time, error)

// Non-version bookkeeping keys in the registry's time table.
var bookkeepingKeys = []string{"created", "modified"}

// ListPublished returns the published version set for a package.
//
// Query failure of any kind (network, registry error, package never
// published) yields an empty set instead of an error: a first-ever publish
// must not be blocked by a missing ledger, and a missed duplicate is still
// caught by the registry's own rejection of version reuse.
func ListPublished(fetch FetchFunc, pkg string) map[string]time.Time {
	table, err := fetch(pkg)
	if err != nil {
		return map[string]time.Time{}
	}

	published := make(map[string]time.Time, len(table))
	for version, at := range table {
		published[version] = at
	}
	for _, key := range bookkeepingKeys {
		delete(published, key)
	}
	return published
}
