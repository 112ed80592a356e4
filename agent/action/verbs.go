package action

import (
	"strings"
	"time"

	"github.com/sirawit-b/stocktalk/inventory"
)

// maxMovementUnits caps a single stock change. Anything larger is far more
// likely a misparsed quantity than a real wholesale movement.
const maxMovementUnits = 1_000_000

var verbMovements = map[string]inventory.MovementType{
	"add":      inventory.MovementInbound,
	"increase": inventory.MovementInbound,
	"receive":  inventory.MovementInbound,
	"restock":  inventory.MovementInbound,

	"remove":   inventory.MovementOutbound,
	"decrease": inventory.MovementOutbound,
	"sell":     inventory.MovementOutbound,
	"sold":     inventory.MovementOutbound,
	"ship":     inventory.MovementOutbound,

	"lost":    inventory.MovementDamaged,
	"lose":    inventory.MovementDamaged,
	"damage":  inventory.MovementDamaged,
	"damaged": inventory.MovementDamaged,

	"adjust": inventory.MovementAdjustment,
	"set":    inventory.MovementAdjustment,
	"update": inventory.MovementAdjustment,
}

// resolveMovement maps a spoken verb, or an explicit movement type from the
// interpreter, to a ledger movement type. absolute reports that the quantity
// names a target level instead of a delta.
func resolveMovement(verb, movementType string) (mt inventory.MovementType, absolute bool, ok bool) {
	if explicit := inventory.MovementType(strings.ToUpper(strings.TrimSpace(movementType))); inventory.ValidMovementTypes[explicit] {
		return explicit, explicit == inventory.MovementAdjustment, true
	}

	mt, ok = verbMovements[strings.ToLower(strings.TrimSpace(verb))]
	if !ok {
		return "", false, false
	}
	return mt, mt == inventory.MovementAdjustment, true
}

func movementReference(mt inventory.MovementType, now time.Time) string {
	prefix := "STOCK_MOVE_"
	switch mt {
	case inventory.MovementInbound:
		prefix = "STOCK_ADD_"
	case inventory.MovementOutbound, inventory.MovementDamaged:
		prefix = "STOCK_REMOVE_"
	case inventory.MovementAdjustment:
		prefix = "STOCK_ADJ_"
	}
	return prefix + now.Format("20060102_150405")
}
