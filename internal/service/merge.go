package service

import "time"

// mergeDecision is the outcome of the per-entity conflict rule. Each
// entity's decision depends only on its own fields and the matching local
// record, which is what makes merge order within a batch irrelevant.
type mergeDecision int

const (
	decisionCreateRemote mergeDecision = iota
	decisionRemoteDeletion
	decisionKeepLocal
	decisionTakeRemote
)

// decideMerge applies the conflict precedence:
//  1. remote deletion at/after the local update wins,
//  2. a local deletion at/after the remote update wins,
//  3. otherwise the strictly later writer wins the whole entity,
//  4. unknown entities are created from the remote record.
func decideMerge(exists bool, localUpdated time.Time, localDeleted *time.Time, remoteUpdated time.Time, remoteDeleted *time.Time) mergeDecision {
	if !exists {
		return decisionCreateRemote
	}
	if remoteDeleted != nil && !remoteDeleted.Before(localUpdated) {
		return decisionRemoteDeletion
	}
	if localDeleted != nil && !localDeleted.Before(remoteUpdated) {
		return decisionKeepLocal
	}
	if remoteUpdated.After(localUpdated) {
		return decisionTakeRemote
	}
	return decisionKeepLocal
}

func maxVersion(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
