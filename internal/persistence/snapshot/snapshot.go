package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"settlers.ai/internal/sim/world/kernel/model"
)

const Version = 1

type Header struct {
	Version int      `json:"version"`
	Tick    uint64   `json:"tick"`
	Worlds  []string `json:"worlds"`
}

// SnapshotV1 is the full simulation state: every world plus the shared
// reservation pools.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Worlds       []WorldV1       `json:"worlds"`
	Reservations []ReservationV1 `json:"reservations"`
}

type WorldV1 struct {
	ID   string `json:"id"`
	Tick uint64 `json:"tick"`

	Seed             int64 `json:"seed"`
	BoundaryR        int   `json:"boundary_r"`
	MinY             int   `json:"min_y"`
	MaxY             int   `json:"max_y"`
	GroundY          int   `json:"ground_y"`
	SpawnClearRadius int   `json:"spawn_clear_radius,omitempty"`
	TreePermille     int   `json:"tree_permille,omitempty"`

	// Palette is the block palette the chunk ids refer to.
	Palette []string `json:"palette"`

	Chunks     []ChunkV1      `json:"chunks"`
	Agents     []AgentV1      `json:"agents"`
	Containers []ContainerV1  `json:"containers"`
	Items      []ItemEntityV1 `json:"items,omitempty"`
	Frames     []FrameV1      `json:"frames,omitempty"`
	Saplings   []model.Vec3i  `json:"saplings,omitempty"`

	NextItemID uint64 `json:"next_item_id"`
}

type ChunkV1 struct {
	CX   int    `json:"cx"`
	CY   int    `json:"cy"`
	CZ   int    `json:"cz"`
	Runs []byte `json:"runs"`
}

type AgentV1 struct {
	ID          string            `json:"id"`
	Profession  string            `json:"profession"`
	Workstation *model.Vec3i      `json:"workstation,omitempty"`
	Pos         model.Vec3f       `json:"pos"`
	Yaw         float64           `json:"yaw"`
	Pitch       float64           `json:"pitch"`
	Inventory   []model.ItemStack `json:"inventory"`
	Held        string            `json:"held,omitempty"`
	AIDisabled  bool              `json:"ai_disabled,omitempty"`
	Dead        bool              `json:"dead,omitempty"`
	Memory      model.Memory      `json:"memory"`
	Walk        *WalkV1           `json:"walk,omitempty"`
}

type WalkV1 struct {
	Target     model.Vec3i `json:"target"`
	Speed      float64     `json:"speed"`
	Completion int         `json:"completion"`
	Progress   float64     `json:"progress"`
}

type ContainerV1 struct {
	Type  string            `json:"type"`
	Pos   model.Vec3i       `json:"pos"`
	Slots []model.ItemStack `json:"slots"`
}

type ItemEntityV1 struct {
	ID          string      `json:"id"`
	Pos         model.Vec3i `json:"pos"`
	Item        string      `json:"item"`
	Count       int         `json:"count"`
	CreatedTick uint64      `json:"created_tick"`
	ExpiresTick uint64      `json:"expires_tick"`
}

type FrameV1 struct {
	Pos  model.Vec3i `json:"pos"`
	Item string      `json:"item"`
}

type ReservationV1 struct {
	Pool  string      `json:"pool"`
	World string      `json:"world"`
	Pos   model.Vec3i `json:"pos"`
	Agent string      `json:"agent"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding: the same state always produces the same bytes.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("snapshot: cbor encoder: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("snapshot: cbor decoder: " + err.Error())
	}
}

// Encode writes a JSON header line followed by the CBOR body, zstd compressed.
func Encode(w io.Writer, snap SnapshotV1) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := encMode.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("cbor encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func Decode(r io.Reader) (SnapshotV1, error) {
	var snap SnapshotV1
	dec, err := zstd.NewReader(r)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	// The header is repeated in the body; the line exists for tools that
	// only want to peek.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("snapshot header: %w", err)
	}
	if err := decMode.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("cbor decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot version %d not supported", snap.Header.Version)
	}
	return snap, nil
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return SnapshotV1{}, err
	}
	defer f.Close()
	return Decode(f)
}

// ReadHeader reads only the header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("snapshot header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("snapshot header: %w", err)
	}
	return h, nil
}

// FileName is the conventional snapshot name for a tick.
func FileName(dir string, tick uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%012d.snap.zst", tick))
}
