package gpio

// FakeOutput is a test double that records line levels.
type FakeOutput struct {
	// Levels holds the last level set on each line.
	Levels map[int]bool

	// History contains every successful Set in order.
	History []Level

	// Errors makes Set fail for the given lines.
	Errors map[int]error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutput creates a FakeOutput with every line unset.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{
		Levels: make(map[int]bool),
		Errors: make(map[int]error),
	}
}

// Set records the level.
func (f *FakeOutput) Set(line int, high bool) error {
	if err := f.Errors[line]; err != nil {
		return err
	}
	f.Levels[line] = high
	f.History = append(f.History, Level{Line: line, High: high})
	return nil
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}
