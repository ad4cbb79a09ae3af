package types

import "time"

// Difficulty classifies how hard a problem is. Harder problems award
// more points on first acceptance.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// BasePoints returns the point value awarded for a first accepted
// submission of a problem with this difficulty. Unknown difficulties
// fall back to the Easy value.
func (d Difficulty) BasePoints() int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	default:
		return 10
	}
}

// Problem represents a practice problem in the BrainJam Arena bank.
// The grading core reads problems; authoring tooling writes them.
type Problem struct {
	// ID is the unique identifier of the problem.
	ID int `json:"id" db:"id"`

	// Title is the human-readable name of the problem.
	Title string `json:"title" db:"title"`

	// Statement contains the full problem text, including input/output
	// specifications and examples.
	Statement string `json:"statement" db:"statement"`

	// Difficulty is the Easy/Medium/Hard classification used for
	// point awarding.
	Difficulty Difficulty `json:"difficulty" db:"difficulty"`

	// TimeLimitMs is the maximum allowed execution time per test case,
	// expressed in milliseconds. Zero means the execution backend's
	// default applies; the limit is enforced by the backend, not here.
	TimeLimitMs int64 `json:"time_limit_ms" db:"time_limit_ms"`

	// MemoryLimitKb is the maximum allowed memory usage per test case,
	// expressed in kilobytes. Zero means the backend default applies.
	MemoryLimitKb int64 `json:"memory_limit_kb" db:"memory_limit_kb"`

	// Tags are free-form labels associated with the problem, used for
	// categorization, filtering, and search.
	Tags []string `json:"tags" db:"tags"`

	// CreatedAt is the timestamp at which the problem was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the problem.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TestCase represents a single input/output pair used to grade a
// submission. Test cases are read-only during grading.
type TestCase struct {
	// ID is the unique identifier of the test case.
	ID int `json:"id" db:"id"`

	// ProblemID is the identifier of the problem this case belongs to.
	ProblemID int `json:"problem_id" db:"problem_id"`

	// Input is the stdin fed to the user's program.
	Input string `json:"input" db:"input_data"`

	// ExpectedOutput is the output produced by a correct solution.
	ExpectedOutput string `json:"expected_output" db:"expected_output"`

	// IsSample indicates whether this case is visible to users before
	// submission. Non-sample cases are hidden to discourage hard-coded
	// solutions.
	IsSample bool `json:"is_sample" db:"is_sample"`

	// CaseOrder defines the execution order of this case within its
	// problem. Grading iterates cases by ascending order so verdicts
	// are reproducible.
	CaseOrder int `json:"case_order" db:"case_order"`
}
