package config

const (
	// MaxNodeNameLength is the maximum length for folder and placement names.
	// Limited to 255 so names stay short and descriptive in listings.
	MaxNodeNameLength = 255

	// MaxDocumentNameLength is the maximum length for tracked document names.
	MaxDocumentNameLength = 255

	// MaxDocIDLength bounds external document ids assigned by the content producer.
	MaxDocIDLength = 512

	// MaxHierarchyDepth is the deepest a node may sit, root-level nodes being at
	// depth 1. Creates and moves past it are refused, so a longer ancestor chain
	// can only come from corrupt data and is reported as an invariant violation.
	MaxHierarchyDepth = 256

	// MaxSearchQueryLength is the longest accepted search string.
	MaxSearchQueryLength = 200

	// MaxCatalogLimit caps a document catalog page.
	MaxCatalogLimit = 100

	// MaxRetryAttempts caps RETRY_MAX_ATTEMPTS.
	MaxRetryAttempts = 10

	// MaxContentBytes bounds a single content snapshot pushed by the producer.
	MaxContentBytes = 16 << 20
)
