package constant

const (
	// Topics on the in-process bus. The index consumer subscribes to both.
	TopicReindexNotes         = "NOTES_REINDEX"
	TopicRemoveNotesFromIndex = "NOTES_REMOVE_FROM_INDEX"

	// SyncEndpointPath is appended to the configured server base URL.
	SyncEndpointPath = "/sync"
)
