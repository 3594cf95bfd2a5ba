package ecs

// ExtractTarget is installed as a resource on the main world for the
// duration of a sub-app's extract call, letting systems (or the extract
// function itself, via GetResource[ExtractTarget]) reach the
// destination world without threading it through every signature.
// Removed unconditionally once extract returns so it never leaks into
// an ordinary schedule run (spec.md §4.6 step 1).
type ExtractTarget struct {
	World *World
}

// runExtract invokes sub.extract(main, sub.world) with ExtractTarget
// installed on main for the duration of the call; the deferred removal
// runs even if extract panics, so a recovered panic upstream never
// leaves ExtractTarget dangling on the main world.
func runExtract(main *World, sub *SubApp) {
	if sub.extract == nil {
		return
	}
	InsertResource(main, ExtractTarget{World: sub.world})
	defer RemoveResource[ExtractTarget](main)
	sub.extract(main, sub.world)
}
