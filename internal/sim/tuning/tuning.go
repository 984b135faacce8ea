package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz               int   `yaml:"tick_rate_hz"`
	BrainEveryTicks          int   `yaml:"brain_every_ticks"`
	DepositRefreshEveryTicks int   `yaml:"deposit_refresh_every_ticks"`
	SnapshotEveryTicks       int   `yaml:"snapshot_every_ticks"`
	Seed                     int64 `yaml:"seed"`

	Worker     Worker     `yaml:"worker"`
	Woodcutter Woodcutter `yaml:"woodcutter"`
	Forester   Forester   `yaml:"forester"`
	Crafter    Crafter    `yaml:"crafter"`
	World      World      `yaml:"world"`
}

// Worker covers the states every profession shares.
type Worker struct {
	WalkSpeed            float64 `yaml:"walk_speed"`
	WalkCompletion       int     `yaml:"walk_completion"`
	ArriveDistSq         float64 `yaml:"arrive_dist_sq"`
	MaxWalkFailures      int     `yaml:"max_walk_failures"`
	WalkableSearchRadius int     `yaml:"walkable_search_radius"`
	NoWorkCooldownTicks  int     `yaml:"no_work_cooldown_ticks"`
	DepositChestRadius   int     `yaml:"deposit_chest_radius"`
	PickUpRadius         int     `yaml:"pick_up_radius"`
	PickUpMaxDY          int     `yaml:"pick_up_max_dy"`
	HomeDistSq           int     `yaml:"home_dist_sq"`
	MsPerTick            int     `yaml:"ms_per_tick"`
	DepositPauseMs       int     `yaml:"deposit_pause_ms"`
	PickUpPauseMs        int     `yaml:"pick_up_pause_ms"`
	InventorySize        int     `yaml:"inventory_size"`
	SlowTickMicros       int     `yaml:"slow_tick_micros"`
}

type Woodcutter struct {
	AgentRadius            int     `yaml:"agent_radius"`
	WorkstationRadius      int     `yaml:"workstation_radius"`
	ReachDistance          float64 `yaml:"reach_distance"`
	BreakReach             float64 `yaml:"break_reach"`
	DepositThreshold       int     `yaml:"deposit_threshold"`
	PillarMinHeight        int     `yaml:"pillar_min_height"`
	PillarHorizontalDistSq int     `yaml:"pillar_horizontal_dist_sq"`
	PillarCheckEveryTicks  int     `yaml:"pillar_check_every_ticks"`
	PillarScanRadius       int     `yaml:"pillar_scan_radius"`
	PillarLogScanRadius    int     `yaml:"pillar_log_scan_radius"`
	PillarLogScanHeight    int     `yaml:"pillar_log_scan_height"`
	PillarBlock            string  `yaml:"pillar_block"`
	RaycastStep            float64 `yaml:"raycast_step"`
	EyeHeight              float64 `yaml:"eye_height"`
}

type Forester struct {
	SearchRadius        int `yaml:"search_radius"`
	WorkstationRadiusSq int `yaml:"workstation_radius_sq"`
	Spacing             int `yaml:"spacing"`
	PlantPauseMs        int `yaml:"plant_pause_ms"`
}

type Crafter struct {
	DefaultOutput string `yaml:"default_output"`
	Saturation    int    `yaml:"saturation"`
	CraftPauseMs  int    `yaml:"craft_pause_ms"`
}

// World is the host side: physics, pickup and growth.
type World struct {
	ChestSize             int `yaml:"chest_size"`
	PickupRadius          int `yaml:"pickup_radius"`
	ItemDespawnTicks      int `yaml:"item_despawn_ticks"`
	SaplingGrowEveryTicks int `yaml:"sapling_grow_every_ticks"`
	SaplingGrowPermille   int `yaml:"sapling_grow_permille"`
	DetourDepth           int `yaml:"detour_depth"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:               20,
		BrainEveryTicks:          2,
		DepositRefreshEveryTicks: 100,
		SnapshotEveryTicks:       6000,
		Seed:                     1337,
		Worker: Worker{
			WalkSpeed:            0.6,
			WalkCompletion:       1,
			ArriveDistSq:         9,
			MaxWalkFailures:      3,
			WalkableSearchRadius: 3,
			NoWorkCooldownTicks:  100,
			DepositChestRadius:   10,
			PickUpRadius:         20,
			PickUpMaxDY:          2,
			HomeDistSq:           30,
			MsPerTick:            50,
			DepositPauseMs:       1000,
			PickUpPauseMs:        1000,
			InventorySize:        8,
			SlowTickMicros:       500,
		},
		Woodcutter: Woodcutter{
			AgentRadius:            9,
			WorkstationRadius:      20,
			ReachDistance:          4.5,
			BreakReach:             6,
			DepositThreshold:       10,
			PillarMinHeight:        3,
			PillarHorizontalDistSq: 25,
			PillarCheckEveryTicks:  20,
			PillarScanRadius:       3,
			PillarLogScanRadius:    4,
			PillarLogScanHeight:    4,
			PillarBlock:            "DIRT",
			RaycastStep:            0.5,
			EyeHeight:              1.62,
		},
		Forester: Forester{
			SearchRadius:        9,
			WorkstationRadiusSq: 225,
			Spacing:             3,
			PlantPauseMs:        1000,
		},
		Crafter: Crafter{
			DefaultOutput: "OAK_PLANKS",
			Saturation:    10,
			CraftPauseMs:  5000,
		},
		World: World{
			ChestSize:             27,
			PickupRadius:          1,
			ItemDespawnTicks:      6000,
			SaplingGrowEveryTicks: 400,
			SaplingGrowPermille:   250,
			DetourDepth:           12,
		},
	}
}

// Load reads tuning.yaml on top of Defaults, so a file only needs the values
// it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0")
	case t.BrainEveryTicks <= 0:
		return fmt.Errorf("brain_every_ticks must be > 0")
	case t.DepositRefreshEveryTicks <= 0:
		return fmt.Errorf("deposit_refresh_every_ticks must be > 0")
	case t.Worker.MsPerTick <= 0:
		return fmt.Errorf("worker.ms_per_tick must be > 0")
	case t.Worker.MaxWalkFailures <= 0:
		return fmt.Errorf("worker.max_walk_failures must be > 0")
	case t.Worker.InventorySize <= 0:
		return fmt.Errorf("worker.inventory_size must be > 0")
	case t.Woodcutter.RaycastStep <= 0:
		return fmt.Errorf("woodcutter.raycast_step must be > 0")
	case t.Woodcutter.PillarCheckEveryTicks <= 0:
		return fmt.Errorf("woodcutter.pillar_check_every_ticks must be > 0")
	case t.Woodcutter.PillarCheckEveryTicks%t.BrainEveryTicks != 0:
		return fmt.Errorf("woodcutter.pillar_check_every_ticks must be a multiple of brain_every_ticks")
	case t.Forester.Spacing <= 0:
		return fmt.Errorf("forester.spacing must be > 0")
	case t.World.ChestSize <= 0:
		return fmt.Errorf("world.chest_size must be > 0")
	}
	return nil
}

// PauseTicks converts an action pause in milliseconds into ticks.
func (t Tuning) PauseTicks(ms int) uint64 {
	if ms <= 0 {
		return 0
	}
	return uint64(ms / t.Worker.MsPerTick)
}
