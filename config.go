package loom

// Config holds process-wide tuning knobs for every World in this process.
// Per-World behavior stays on World itself; Config is for cross-cutting
// hooks a host application wants wired in before it creates any World.
var Config config = config{}

// WorldEvents are optional callbacks invoked as a World's structure
// changes. Any field left nil is simply not called.
type WorldEvents struct {
	// OnArchetypeCreated fires when a new Archetype (and its backing Table)
	// is created, including the very first one in a World.
	OnArchetypeCreated func(id ArchetypeId, components []ComponentId)
	// OnEntityDespawned fires after an entity's storage has been torn down
	// and its slot freed.
	OnEntityDespawned func(entity Entity)
}

type config struct {
	events WorldEvents
}

// SetWorldEvents installs the process-wide structural event hooks.
func (c *config) SetWorldEvents(events WorldEvents) {
	c.events = events
}
