// Package larder provides a lot-based raw-material inventory ledger for Go
// applications that cook, bake or assemble from perishable stock.
//
// Larder is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Lot tracking with entry date, expiry, supplier reference and unit cost
//   - Expiry-first consumption with exact per-lot cost breakdowns
//   - An append-only movement journal that always adds up to current stock
//   - Production batches with exact rollback, editing and capacity checks
//   - A finished-goods pool with weighted average cost of goods sold
//   - Whole-ledger snapshots per profile on memory, SQLite, PostgreSQL,
//     MongoDB, Redis or S3 stores
//   - Audit and metrics plugins
//
// # Quick Start
//
// Create a larder with your preferred store:
//
//	import (
//	    "github.com/xraph/larder"
//	    "github.com/xraph/larder/store/sqlite"
//	)
//
//	s, err := sqlite.Open(ctx, "larder.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := larder.New(s, larder.WithProfile("bakery"))
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Ingredients are catalog entries. Quantities are kept in the base unit of
// the display unit (grams for kilograms, milliliters for liters):
//
//	flour, err := l.AddIngredient(ctx, larder.IngredientInput{
//	    Name:        "Flour",
//	    DisplayUnit: larder.Kilogram,
//	    MinStock:    decimal.NewFromInt(5000),
//	})
//
// Lots are received with a total price; the unit cost is derived from it:
//
//	lotID, err := l.ReceiveLot(ctx, flour.ID, stock.Receipt{
//	    Quantity: decimal.NewFromInt(25000),
//	    Price:    larder.MoneyFromInt(23500),
//	    Expiry:   &bestBefore,
//	})
//
// Consumption draws from the lot that expires first and reports which lots
// were used and at what cost:
//
//	c, err := l.Consume(ctx, flour.ID, decimal.NewFromInt(1200), "bread")
//
// Batches consume several ingredients at once, all or nothing, and can be
// rolled back exactly while none of their finished units were drawn:
//
//	b, err := l.ProduceBatch(ctx, larder.ProduceInput{
//	    Name:         "Baguette",
//	    Requirements: []larder.Requirement{{IngredientID: flour.ID, Quantity: decimal.NewFromInt(5), Unit: larder.Kilogram}},
//	    ProducedQty:  20,
//	    DeductStock:  true,
//	})
//
// # Persistence
//
// Every successful operation persists the whole ledger as one snapshot
// under the active profile before the change becomes visible. A failed
// save leaves the in-memory state untouched. Disable this with
// WithAutoSave(false) and call Save yourself.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	ing_01h2xcejqtf2nbrexx3vqjhp41    // Ingredient ID
//	lot_01h2xcejqtf2nbrexx3vqjhp41    // Lot ID
//	batch_01h455vb4pex5vsknk084sn02q  // Batch ID
//
// TypeIDs are K-sortable, so journal entries sort in creation order.
package larder
