package mocks

import (
	"fmt"

	"github.com/mcoot/partyhub/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// HexResults is a queue of results to return from Hex
	HexResults []string
	hexIndex   int

	// IDResults is a queue of results to return from ID (prefix is not applied)
	IDResults []string
	idIndex   int

	// Fallback counters once the queues run dry
	hexCounter int
	idCounter  int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Hex returns the next queued result, or a counter-based code of the right
// length if none remain
func (r *MockRandom) Hex(n int) string {
	if r.hexIndex < len(r.HexResults) {
		result := r.HexResults[r.hexIndex]
		r.hexIndex++
		return result
	}
	r.hexCounter++
	return fmt.Sprintf("%0*X", n*2, r.hexCounter)
}

// ID returns the next queued result, or prefix plus a counter if none remain
func (r *MockRandom) ID(prefix string) string {
	if r.idIndex < len(r.IDResults) {
		result := r.IDResults[r.idIndex]
		r.idIndex++
		return result
	}
	r.idCounter++
	return fmt.Sprintf("%s%d", prefix, r.idCounter)
}

// QueueHex adds values to the Hex result queue
func (r *MockRandom) QueueHex(values ...string) {
	r.HexResults = append(r.HexResults, values...)
}

// QueueID adds values to the ID result queue
func (r *MockRandom) QueueID(values ...string) {
	r.IDResults = append(r.IDResults, values...)
}

// Reset clears all queued results and counters
func (r *MockRandom) Reset() {
	r.HexResults = nil
	r.hexIndex = 0
	r.IDResults = nil
	r.idIndex = 0
	r.hexCounter = 0
	r.idCounter = 0
}
