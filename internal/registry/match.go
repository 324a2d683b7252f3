package registry

// Similarity counts positionally agreeing segments between a candidate
// path and a registered path. The comparison is index by index, not a
// subsequence or edit-distance match; downstream tooling depends on
// its exact behavior under recursion, so it must not be "improved".
func Similarity(candidate, registered []string) int {
	if len(candidate) == 0 || len(registered) == 0 {
		return 0
	}
	n := len(candidate)
	if len(registered) < n {
		n = len(registered)
	}
	score := 0
	for i := 0; i < n; i++ {
		if candidate[i] == registered[i] {
			score++
		}
	}
	return score
}

// FindMatching resolves the task responsible for the candidate path.
//
// Active tasks are consulted most recent first and a full-length match
// wins immediately. When the best active score is weak (under half the
// candidate length), the search widens to the remaining registered
// paths, preferring higher ids on ties. Failing both, the most
// recently activated task is returned, and finally 0, which callers
// treat as "drop the event".
func (p *Paths) FindMatching(candidate []string, tasks *Tasks) TaskID {
	if len(candidate) == 0 {
		id, _ := tasks.LastActive()
		return id
	}
	// Snapshot the active set before taking the path lock; no two
	// registry locks are ever held at once.
	active := reverse(tasks.Active())
	if !p.mu.TryLock() {
		id, _ := tasks.LastActive()
		return id
	}

	var best TaskID
	bestScore := 0
	for _, id := range active {
		registered, ok := p.paths[id]
		if !ok {
			continue
		}
		score := Similarity(candidate, registered)
		if score > bestScore || score == len(candidate) {
			bestScore = score
			best = id
		}
		if score == len(candidate) {
			break
		}
	}

	if bestScore < len(candidate)/2 {
		checked := make(map[TaskID]struct{}, len(active))
		for _, id := range active {
			checked[id] = struct{}{}
		}
		for id, registered := range p.paths {
			if _, ok := checked[id]; ok {
				continue
			}
			score := Similarity(candidate, registered)
			if score == 0 {
				continue
			}
			if score > bestScore || (score == bestScore && id > best) {
				bestScore = score
				best = id
			}
		}
	}
	p.mu.Unlock()

	if best != 0 {
		return best
	}
	id, _ := tasks.LastActive()
	return id
}

func reverse(ids []TaskID) []TaskID {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}
