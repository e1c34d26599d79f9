package duc

// Reconciliation is the symmetric-difference result between the hashes a
// repository currently reports and the hashes already present in the
// cache: what the ingestion pipeline must add, and what the cache store
// must delete.
type Reconciliation struct {
	ToAdd    []string
	ToDelete []string
}

// Reconcile computes to_delete = cacheHashes − repoHashes and to_add =
// repoHashes − cacheHashes. The order of both slices is unspecified.
func Reconcile(repoHashes []string, cacheHashes map[string]struct{}) Reconciliation {
	repoSet := make(map[string]struct{}, len(repoHashes))
	for _, h := range repoHashes {
		repoSet[h] = struct{}{}
	}

	var r Reconciliation
	for _, h := range repoHashes {
		if _, ok := cacheHashes[h]; !ok {
			r.ToAdd = append(r.ToAdd, h)
		}
	}
	for h := range cacheHashes {
		if _, ok := repoSet[h]; !ok {
			r.ToDelete = append(r.ToDelete, h)
		}
	}
	return r
}
