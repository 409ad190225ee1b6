package audithook

// Action constants for audit events.
const (
	// Catalog actions
	ActionIngredientAdded = "ingredient.added"

	// Stock actions
	ActionLotReceived     = "lot.received"
	ActionStockConsumed   = "stock.consumed"
	ActionStockLost       = "stock.lost"
	ActionStockReconciled = "stock.reconciled"
	ActionLowStock        = "stock.low"
	ActionLotsArchived    = "lots.archived"

	// Production actions
	ActionBatchProduced      = "batch.produced"
	ActionBatchRolledBack    = "batch.rolled_back"
	ActionBatchEdited        = "batch.edited"
	ActionFinishedGoodsDrawn = "finished_goods.drawn"

	// Persistence actions
	ActionSnapshotLoaded = "snapshot.loaded"
)

// Resource constants for audit events.
const (
	ResourceIngredient = "ingredient"
	ResourceLot        = "lot"
	ResourceBatch      = "batch"
	ResourceProfile    = "profile"
)

// Category constants for audit events.
const (
	CategoryCatalog    = "catalog"
	CategoryStock      = "stock"
	CategoryProduction = "production"
	CategoryData       = "data"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
