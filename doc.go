// Package cogvm provides a tick-driven process scheduler paired with a
// tiered virtual-memory manager.
//
// Processes are cooperative units of work advanced one step per tick, with
// real-time deadline handling, priority / round-robin / fair-share dispatch,
// wait-for-graph deadlock detection and logical migration between nodes.
// Memory pages live in five tiers (sensory, working, episodic, semantic,
// procedural) with copy-on-write aliasing, importance-based eviction and
// consolidation that promotes working pages into longer-lived tiers.
//
// Hosts embed the high-level Service facade:
//
//	srv, _ := cogvm.New()
//	rt := srv.Runtime()
//	pid, _ := rt.Submit(ctx, "count", process.WithProgram("counter"),
//		process.WithInput(map[string]interface{}{"limit": 3}))
//	for i := 0; i < 8; i++ {
//		_ = rt.Tick(ctx)
//	}
//	proc, _ := rt.Process(ctx, pid)
//
// Programs are registered through the extension registry; see
// service/program for the builtins.
package cogvm
