package engine

// CellKind is the occupancy tag of a grid cell
type CellKind string

const (
	Space  CellKind = "space"
	Wall   CellKind = "wall"
	Person CellKind = "person"
	Box    CellKind = "box"

	// Validation constants
	MinGridSize         = 3
	MaxGridSize         = 50
	MaxBulkMoves        = 50
	WebSocketBufferSize = 256
)

// CellKinds lists the closed vocabulary of cell kinds in a stable order
var CellKinds = []CellKind{Space, Wall, Person, Box}

// Direction is a move intent
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every direction in the order possible moves are reported
var Directions = []Direction{Up, Down, Left, Right}

// TransitionKind classifies the outcome of resolving a move intent
type TransitionKind string

const (
	Blocked TransitionKind = "blocked"
	Step    TransitionKind = "step"
	Push    TransitionKind = "push"
)

// Transition is the structured outcome of a move. Renderers apply it
// incrementally instead of redrawing the board.
//
// For a blocked transition PersonFrom and PersonTo both hold the unchanged
// person index. BoxFrom and BoxTo are -1 unless Kind is Push.
type Transition struct {
	Kind       TransitionKind `json:"kind"`
	Direction  Direction      `json:"direction"`
	PersonFrom int            `json:"person_from"`
	PersonTo   int            `json:"person_to"`
	BoxFrom    int            `json:"box_from"`
	BoxTo      int            `json:"box_to"`
}

// Level is a named puzzle definition. Either Layout (text rows) or Grid is set.
type Level struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Layout      []string `json:"layout,omitempty"`
	Grid        *Grid    `json:"grid,omitempty"`
}

// GameState represents the complete state of one play session
type GameState struct {
	Grid           *Grid       `json:"grid"`
	Moves          int         `json:"moves"`
	Pushes         int         `json:"pushes"`
	Solved         bool        `json:"solved"`
	Message        string      `json:"message"`
	LevelName      string      `json:"level_name"`
	LastTransition *Transition `json:"last_transition,omitempty"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper views (not required for core game logic)
	Board         []string `json:"board,omitempty"`
	BoxesOnTarget int      `json:"boxes_on_target"`
	TotalTargets  int      `json:"total_targets"`
}

// MoveHistoryEntry represents a single move attempt in the session history
type MoveHistoryEntry struct {
	Action     Direction      `json:"action"`
	Kind       TransitionKind `json:"kind"`
	FromIndex  int            `json:"from_index"`
	ToIndex    int            `json:"to_index"`
	BoxTo      int            `json:"box_to,omitempty"`
	Timestamp  int64          `json:"timestamp"`
	Success    bool           `json:"success"`
	MoveNumber int            `json:"move_number"`
}
