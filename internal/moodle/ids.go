package moodle

// Identifiers are the per-quiz ids derived from the course-module id.
// Instance and slot ids are Base + 1-based slot number, so up to 499 slots
// stay clear of the next moduleid's range. Instance and slot bases live above
// instanceOffset, so they never meet an activity or quiz id while moduleid
// stays below MaxDisjointModuleID.
type Identifiers struct {
	ActivityID   int64
	QuizID       int64
	InstanceBase int64
	SlotBase     int64
}

const (
	instanceOffset = 10_000_000_000
	// MaxDisjointModuleID is the first moduleid whose activity id could
	// reach the instance range.
	MaxDisjointModuleID = instanceOffset / 10
)

// DeriveIdentifiers is injective over moduleid; values below 1 are clamped to 1.
func DeriveIdentifiers(moduleID int64) Identifiers {
	if moduleID < 1 {
		moduleID = 1
	}
	activity := moduleID * 10
	instance := instanceOffset + moduleID*1000
	return Identifiers{
		ActivityID:   activity,
		QuizID:       activity + 1,
		InstanceBase: instance,
		SlotBase:     instance + 500,
	}
}

func (ids Identifiers) InstanceID(slot int) int64 { return ids.InstanceBase + int64(slot) }
func (ids Identifiers) SlotID(slot int) int64     { return ids.SlotBase + int64(slot) }

// Namespace is one id space inside questions.xml.
type Namespace int

const (
	NSCategory Namespace = iota
	NSEntry
	NSVersion
	NSQuestion
	NSAnswer
	NSPlugin
	nsCount
)

var namespaceBase = [nsCount]int64{
	NSCategory: 1000,
	NSEntry:    12300000,
	NSVersion:  12550000,
	NSQuestion: 35640000,
	NSAnswer:   90000000,
	NSPlugin:   19000000,
}

// Allocator hands out increasing ids per namespace for one export run.
// It is not safe for concurrent use; each export builds its own.
type Allocator struct {
	issued [nsCount]int64
}

func NewAllocator() *Allocator { return &Allocator{} }

// Next returns the next unused id in ns.
func (a *Allocator) Next(ns Namespace) int64 {
	id := namespaceBase[ns] + a.issued[ns]
	a.issued[ns]++
	return id
}
