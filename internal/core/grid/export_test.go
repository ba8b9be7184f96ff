package grid

// SetWalkLimit lowers the zone walk bound so tests can force an overflow.
func SetWalkLimit(g *Generator, n int) { g.limit = n }
