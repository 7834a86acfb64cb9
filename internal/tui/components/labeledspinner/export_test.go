package labeledspinner

import "time"

// RenderAt renders as if the clock read now.
func (ls Model) RenderAt(now time.Time) string {
	return ls.render(now)
}
