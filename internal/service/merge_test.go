package service

import (
	"testing"
	"time"
)

func TestDecideMerge(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(offset time.Duration) time.Time { return base.Add(offset) }
	ptr := func(ts time.Time) *time.Time { return &ts }

	tests := []struct {
		name          string
		exists        bool
		localUpdated  time.Time
		localDeleted  *time.Time
		remoteUpdated time.Time
		remoteDeleted *time.Time
		want          mergeDecision
	}{
		{
			name:          "unknown entity is created",
			exists:        false,
			remoteUpdated: at(0),
			want:          decisionCreateRemote,
		},
		{
			name:          "newer remote edit wins",
			exists:        true,
			localUpdated:  at(0),
			remoteUpdated: at(time.Minute),
			want:          decisionTakeRemote,
		},
		{
			name:          "newer local edit survives",
			exists:        true,
			localUpdated:  at(time.Minute),
			remoteUpdated: at(0),
			want:          decisionKeepLocal,
		},
		{
			name:          "equal timestamps keep local",
			exists:        true,
			localUpdated:  at(0),
			remoteUpdated: at(0),
			want:          decisionKeepLocal,
		},
		{
			name:          "remote deletion after local edit wins",
			exists:        true,
			localUpdated:  at(0),
			remoteUpdated: at(time.Minute),
			remoteDeleted: ptr(at(time.Minute)),
			want:          decisionRemoteDeletion,
		},
		{
			name:          "remote deletion at the same instant still wins",
			exists:        true,
			localUpdated:  at(0),
			remoteUpdated: at(0),
			remoteDeleted: ptr(at(0)),
			want:          decisionRemoteDeletion,
		},
		{
			name:          "local edit after remote deletion resurrects",
			exists:        true,
			localUpdated:  at(time.Minute),
			remoteUpdated: at(0),
			remoteDeleted: ptr(at(0)),
			want:          decisionKeepLocal,
		},
		{
			name:          "local deletion beats older remote edit",
			exists:        true,
			localUpdated:  at(time.Minute),
			localDeleted:  ptr(at(time.Minute)),
			remoteUpdated: at(0),
			want:          decisionKeepLocal,
		},
		{
			name:          "local deletion at remote edit time still holds",
			exists:        true,
			localUpdated:  at(0),
			localDeleted:  ptr(at(time.Minute)),
			remoteUpdated: at(time.Minute),
			want:          decisionKeepLocal,
		},
		{
			name:          "remote edit strictly after local deletion resurrects",
			exists:        true,
			localUpdated:  at(0),
			localDeleted:  ptr(at(0)),
			remoteUpdated: at(time.Minute),
			want:          decisionTakeRemote,
		},
		{
			name:          "both deleted, later deletion dominates",
			exists:        true,
			localUpdated:  at(0),
			localDeleted:  ptr(at(0)),
			remoteUpdated: at(time.Minute),
			remoteDeleted: ptr(at(time.Minute)),
			want:          decisionRemoteDeletion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decideMerge(tt.exists, tt.localUpdated, tt.localDeleted, tt.remoteUpdated, tt.remoteDeleted)
			if got != tt.want {
				t.Errorf("decideMerge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaxVersion(t *testing.T) {
	if got := maxVersion(3, 7); got != 7 {
		t.Errorf("maxVersion(3, 7) = %d, want 7", got)
	}
	if got := maxVersion(7, 3); got != 7 {
		t.Errorf("maxVersion(7, 3) = %d, want 7", got)
	}
}
