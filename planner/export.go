package planner

import (
	"fmt"
	"strings"
)

// FormatItinerary 将行程输出为文本，每段一行
func FormatItinerary(legs []Leg) string {
	if len(legs) == 0 {
		return "no itinerary found\n"
	}
	var sb strings.Builder
	for i, leg := range legs {
		fmt.Fprintf(&sb, "%d. %s-%s %-8s ", i+1, FormatSeconds(leg.Start), FormatSeconds(leg.End), leg.Kind)
		switch leg.Kind {
		case LEG_RIDE:
			name := leg.RouteShortName
			if leg.RouteLongName != "" {
				name += " (" + leg.RouteLongName + ")"
			}
			fmt.Fprintf(&sb, "%s -> %s by %s [trip %s]", leg.From.Name, leg.To.Name, name, leg.TripID)
		case LEG_WALK:
			fmt.Fprintf(&sb, "%s -> %s, %.0f m", leg.From.Name, leg.To.Name, leg.Distance)
		default:
			fmt.Fprintf(&sb, "at %s", leg.From.Name)
		}
		fmt.Fprintf(&sb, " (%ds)\n", leg.Duration)
	}
	return sb.String()
}
