// Package movement defines the append-only journal of stock movements.
//
// Each movement carries a Detail whose concrete type is fixed by the
// movement's Kind, so a RECEIPT can never carry a batch link and a
// CONSUME can never carry supplier data.
package movement

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/larder/id"
	"github.com/xraph/larder/ingredient"
	"github.com/xraph/larder/types"
)

// Kind is the movement category.
type Kind string

// Movement kinds.
const (
	KindReceipt   Kind = "RECEIPT"
	KindConsume   Kind = "CONSUME"
	KindLoss      Kind = "LOSS"
	KindReconcile Kind = "RECONCILE"
)

// Kinds lists every movement kind in display order.
var Kinds = []Kind{KindReceipt, KindConsume, KindLoss, KindReconcile}

// Movement is one journal entry. Quantity is signed in the ingredient's
// base unit: positive when stock comes in, negative when it goes out.
// CostImpact follows the same sign. A nil LotID means the movement hit the
// negative-balance pool.
type Movement struct {
	ID           id.MovementID   `json:"id"`
	At           time.Time       `json:"at"`
	Kind         Kind            `json:"kind"`
	IngredientID id.IngredientID `json:"ingredient_id"`
	LotID        id.LotID        `json:"lot_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostImpact   types.Money     `json:"cost_impact"`
	Reason       string          `json:"reason,omitempty"`
	Detail       Detail          `json:"-"`
}

// Detail is the kind-specific payload of a movement. It is implemented
// only by the types in this package.
type Detail interface {
	Kind() Kind
	sealed()
}

// Receipt details a RECEIPT movement.
type Receipt struct {
	Origin      ingredient.Origin `json:"origin"`
	SupplierRef string            `json:"supplier_ref,omitempty"`
	Price       types.Money       `json:"price"`
	Fees        types.Money       `json:"fees"`
	Expiry      *time.Time        `json:"expiry,omitempty"`
	// Received is the full incoming quantity, including any part that
	// settled a negative balance.
	Received decimal.Decimal `json:"received"`
}

// Consume details a CONSUME movement.
type Consume struct {
	BatchID id.BatchID `json:"batch_id"`
	// Reversal marks stock put back by a production rollback.
	Reversal bool `json:"reversal,omitempty"`
	// Settlement marks a negative balance paid off by a receipt.
	Settlement bool `json:"settlement,omitempty"`
}

// Loss details a LOSS movement.
type Loss struct {
	Cause string `json:"cause,omitempty"`
}

// Reconcile details a RECONCILE movement.
type Reconcile struct {
	Physical    decimal.Decimal `json:"physical"`
	Theoretical decimal.Decimal `json:"theoretical"`
	Delta       decimal.Decimal `json:"delta"`
}

func (Receipt) Kind() Kind   { return KindReceipt }
func (Consume) Kind() Kind   { return KindConsume }
func (Loss) Kind() Kind      { return KindLoss }
func (Reconcile) Kind() Kind { return KindReconcile }

func (Receipt) sealed()   {}
func (Consume) sealed()   {}
func (Loss) sealed()      {}
func (Reconcile) sealed() {}

// New builds a movement whose kind is taken from the detail.
func New(at time.Time, ingID id.IngredientID, lotID id.LotID, qty decimal.Decimal, cost types.Money, reason string, d Detail) *Movement {
	return &Movement{
		ID:           id.NewMovementID(),
		At:           at.UTC(),
		Kind:         d.Kind(),
		IngredientID: ingID,
		LotID:        lotID,
		Quantity:     qty,
		CostImpact:   cost,
		Reason:       reason,
		Detail:       d,
	}
}

// BatchID returns the production batch linked to a CONSUME movement.
func (m *Movement) BatchID() (id.BatchID, bool) {
	c, ok := m.Detail.(Consume)
	if !ok || c.BatchID.IsNil() {
		return id.Nil, false
	}

	return c.BatchID, true
}

type wireMovement struct {
	ID           id.MovementID   `json:"id"`
	At           time.Time       `json:"at"`
	Kind         Kind            `json:"kind"`
	IngredientID id.IngredientID `json:"ingredient_id"`
	LotID        id.LotID        `json:"lot_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostImpact   types.Money     `json:"cost_impact"`
	Reason       string          `json:"reason,omitempty"`
	Detail       json.RawMessage `json:"detail,omitempty"`
}

// MarshalJSON encodes the movement with its detail under "detail".
func (m Movement) MarshalJSON() ([]byte, error) {
	w := wireMovement{
		ID:           m.ID,
		At:           m.At,
		Kind:         m.Kind,
		IngredientID: m.IngredientID,
		LotID:        m.LotID,
		Quantity:     m.Quantity,
		CostImpact:   m.CostImpact,
		Reason:       m.Reason,
	}

	if m.Detail != nil {
		if m.Detail.Kind() != m.Kind {
			return nil, fmt.Errorf("movement: %s detail on %s movement", m.Detail.Kind(), m.Kind)
		}
		raw, err := json.Marshal(m.Detail)
		if err != nil {
			return nil, err
		}
		w.Detail = raw
	}

	return json.Marshal(w)
}

// UnmarshalJSON decodes the detail into the variant selected by kind.
func (m *Movement) UnmarshalJSON(data []byte) error {
	var w wireMovement
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	d, err := decodeDetail(w.Kind, w.Detail)
	if err != nil {
		return err
	}

	*m = Movement{
		ID:           w.ID,
		At:           w.At,
		Kind:         w.Kind,
		IngredientID: w.IngredientID,
		LotID:        w.LotID,
		Quantity:     w.Quantity,
		CostImpact:   w.CostImpact,
		Reason:       w.Reason,
		Detail:       d,
	}

	return nil
}

func decodeDetail(k Kind, raw json.RawMessage) (Detail, error) {
	var (
		d   Detail
		err error
	)

	switch k {
	case KindReceipt:
		var v Receipt
		err = unmarshalOptional(raw, &v)
		d = v
	case KindConsume:
		var v Consume
		err = unmarshalOptional(raw, &v)
		d = v
	case KindLoss:
		var v Loss
		err = unmarshalOptional(raw, &v)
		d = v
	case KindReconcile:
		var v Reconcile
		err = unmarshalOptional(raw, &v)
		d = v
	default:
		return nil, fmt.Errorf("movement: unknown kind %q", k)
	}

	if err != nil {
		return nil, fmt.Errorf("movement: decode %s detail: %w", k, err)
	}

	return d, nil
}

func unmarshalOptional(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	return json.Unmarshal(raw, v)
}
