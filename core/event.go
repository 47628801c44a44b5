package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ActionType ledger action
type ActionType string

const (
	ActionSupply            ActionType = "supply"
	ActionWithdraw          ActionType = "withdraw"
	ActionBorrow            ActionType = "borrow"
	ActionRepay             ActionType = "repay"
	ActionSetCollateral     ActionType = "set_collateral"
	ActionLiquidation       ActionType = "liquidation"
	ActionDeficit           ActionType = "deficit"
	ActionAddAsset          ActionType = "add_asset"
	ActionAddSpoke          ActionType = "add_spoke"
	ActionSetSpokeAsset     ActionType = "set_spoke_asset"
	ActionAddReserve        ActionType = "add_reserve"
	ActionReserveConfig     ActionType = "update_reserve_config"
	ActionDynamicConfig     ActionType = "update_dynamic_config"
	ActionLiquidationConfig ActionType = "update_liquidation_config"
	ActionLiquidityPremium  ActionType = "update_liquidity_premium"
)

// event extra keys
const (
	EventKeyShares          = "shares"
	EventKeyBaseRestored    = "base_restored"
	EventKeyPremiumRestored = "premium_restored"
	EventKeySeized          = "seized"
	EventKeyFee             = "fee"
	EventKeyBonus           = "bonus"
	EventKeyDeficit         = "deficit"
	EventKeyCollateral      = "collateral_reserve"
	EventKeyDebt            = "debt_reserve"
	EventKeyEnabled         = "enabled"
	EventKeyVersion         = "version"
	EventKeyPremium         = "premium"
)

// EventExtra structured payload attached to an event
type EventExtra map[string]interface{}

// Put put data
func (e EventExtra) Put(key string, value interface{}) {
	e[key] = value
}

// Format format as json bytes
func (e EventExtra) Format() []byte {
	bs, err := json.Marshal(e)
	if err != nil {
		return []byte("{}")
	}
	return bs
}

// Bool read a bool value
func (e EventExtra) Bool(key string) bool {
	return cast.ToBool(e[key])
}

// String read a string value
func (e EventExtra) String(key string) string {
	return cast.ToString(e[key])
}

// Decimal read a decimal value, zero when absent or malformed
func (e EventExtra) Decimal(key string) decimal.Decimal {
	d, _ := decimal.NewFromString(cast.ToString(e[key]))
	return d
}

// Event structured record emitted by every committed mutation
type Event struct {
	ID        uint64          `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	TraceID   string          `sql:"size:36;unique_index:event_trace_idx" json:"trace_id"`
	Action    ActionType      `sql:"size:32;index:idx_events_action" json:"action"`
	SpokeID   string          `sql:"size:36" json:"spoke_id,omitempty"`
	ReserveID string          `sql:"size:36;index:idx_events_reserve" json:"reserve_id,omitempty"`
	UserID    string          `sql:"size:36;index:idx_events_user" json:"user_id,omitempty"`
	Amount    decimal.Decimal `sql:"type:decimal(32,16)" json:"amount"`
	Data      types.JSONText  `sql:"type:TEXT" json:"data,omitempty"`
	CreatedAt time.Time       `sql:"default:CURRENT_TIMESTAMP;index:idx_events_created_at" json:"created_at"`
}

// SetExtra attach extra payload
func (e *Event) SetExtra(extra EventExtra) {
	data := []byte("{}")
	if extra != nil {
		data = extra.Format()
	}
	e.Data = data
}

// Extra parse the extra payload back
func (e *Event) Extra() EventExtra {
	extra := EventExtra{}
	_ = json.Unmarshal(e.Data, &extra)
	return extra
}

// IEventStore event store interface
type IEventStore interface {
	Create(ctx context.Context, tx *db.DB, event *Event) error
	List(ctx context.Context, fromID uint64, limit int) ([]*Event, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]*Event, error)
}
