package brain

import "strings"

const (
	StatusIdle             = "idle"
	StatusPickingUpBlocks  = "picking_up_blocks"
	StatusDepositItems     = "deposit_items"
	StatusStopDepositItems = "stop_deposit_items"

	StatusWalkingToTarget   = "walking_to_target"
	StatusBreaking          = "breaking"
	StatusPillaring         = "pillaring"
	StatusStoppingPillaring = "stopping_pillaring"

	StatusWalkingToPlant = "walking_to_plant"
	StatusPlanting       = "planting"

	StatusWalkingToPickUp   = "walking_to_pick_up"
	StatusStopPickingUpItem = "stop_picking_up_item"

	StatusRefreshCraftingRecipe = "refresh_crafting_recipe"
	StatusCrafting              = "crafting"
)

// No-work states share one handler; the suffix only says why.
const (
	noWorkPrefix = "no_work"

	StatusNoWork                   = "no_work"
	StatusNoWorkPath               = "no_work_path"
	StatusNoWorkTakingABreak       = "no_work_taking_a_break"
	StatusNoWorkNoWalkablePosition = "no_work_no_walkable_position"
	StatusNoWorkNoChest            = "no_work_no_chest"
	StatusNoWorkChestReserved      = "no_work_chest_reserved"
	StatusNoWorkNoWorkstation      = "no_work_no_workstation"
	StatusNoWorkUnknownStatus      = "no_work_unknown_status"
	StatusNoWorkAfterDeposit       = "no_work_after_deposit"
	StatusNoWorkNoLogs             = "no_work_no_logs"
	StatusNoWorkTooFar             = "no_work_too_far_from_log"
	StatusNoWorkUnbreakable        = "no_work_unbreakable"
	StatusNoWorkNoPlantingSite     = "no_work_no_planting_site"
	StatusNoWorkNoSapling          = "no_work_no_sapling"
	StatusNoWorkItemGone           = "no_work_item_gone"
	StatusNoWorkNoRecipe           = "no_work_no_recipe"
	StatusNoWorkMissingIngredients = "no_work_missing_ingredients"
)

var knownStatuses = map[string]bool{
	StatusIdle:                  true,
	StatusPickingUpBlocks:       true,
	StatusDepositItems:          true,
	StatusStopDepositItems:      true,
	StatusWalkingToTarget:       true,
	StatusBreaking:              true,
	StatusPillaring:             true,
	StatusStoppingPillaring:     true,
	StatusWalkingToPlant:        true,
	StatusPlanting:              true,
	StatusWalkingToPickUp:       true,
	StatusStopPickingUpItem:     true,
	StatusRefreshCraftingRecipe: true,
	StatusCrafting:              true,
}

// knownStatus reports whether s names a state of any profession. Anything
// else is reset to idle.
func knownStatus(s string) bool {
	return knownStatuses[s] || IsNoWork(s)
}

// IsNoWork reports whether s is one of the cooldown states.
func IsNoWork(s string) bool {
	return s == noWorkPrefix || strings.HasPrefix(s, noWorkPrefix+"_")
}

// nonAI lists the states in which an agent stands still under brain control.
func (b *Brain) nonAI(status string) bool {
	switch b.kind {
	case KindWoodcutter:
		return status == StatusBreaking || status == StatusPillaring || status == StatusStoppingPillaring
	case KindForester:
		return status == StatusPlanting
	case KindCrafter:
		return status == StatusCrafting
	}
	return false
}

// generic holds the states every profession handles the same way. It is
// consulted before the profession's own switch.
var generic map[string]func(*tick)

func init() {
	generic = map[string]func(*tick){
		StatusPickingUpBlocks:  (*tick).keepPickingUpBlocks,
		StatusDepositItems:     (*tick).keepDepositing,
		StatusStopDepositItems: (*tick).stopDepositing,
	}
}
