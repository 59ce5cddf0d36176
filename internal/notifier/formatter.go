package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"PolicyPulse/internal/model"
)

// FormatShockAlert formats a newly detected policy-rate shock.
func FormatShockAlert(evt *model.ShockEvent) string {
	var b strings.Builder

	icon := "⚠️"
	if evt.Type == "Hike" {
		icon = "📈"
	} else if evt.Type == "Cut" {
		icon = "📉"
	}

	b.WriteString(fmt.Sprintf("%s <b>Rate shock detected</b> | %s\n\n", icon, evt.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Type: %s\n", evt.Type))
	b.WriteString(fmt.Sprintf("Rate change: %+.0f bp\n", evt.RateChangeBP))
	b.WriteString(fmt.Sprintf("S&P 500 same-day return: %+.2f%%\n", evt.Return*100))
	return b.String()
}

// FormatStatus formats the daemon refresh state for the /status command.
func FormatStatus(st *model.RefreshState) string {
	var b strings.Builder
	b.WriteString("🩺 <b>PolicyPulse status</b>\n\n")

	if len(st.LastRefreshAt) == 0 {
		b.WriteString("No refresh has run yet.\n")
	} else {
		studies := make([]string, 0, len(st.LastRefreshAt))
		for s := range st.LastRefreshAt {
			studies = append(studies, s)
		}
		sort.Strings(studies)
		for _, s := range studies {
			line := fmt.Sprintf("%s: refreshed %s", s, st.LastRefreshAt[s].Format("2006-01-02 15:04"))
			if obs, ok := st.LastObservation[s]; ok {
				line += fmt.Sprintf(", data through %s", obs.Format("2006-01-02"))
			}
			b.WriteString(line + "\n")
		}
	}

	if !st.LastShockDate.IsZero() {
		b.WriteString(fmt.Sprintf("\nLast shock: %s on %s", st.LastShockType, st.LastShockDate.Format("2006-01-02")))
		if st.ConsecutiveShockDays > 1 {
			b.WriteString(fmt.Sprintf(" (%d consecutive days)", st.ConsecutiveShockDays))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatRegressionDigest formats the headline numbers of a fitted model.
func FormatRegressionDigest(rec *model.RegressionRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s regression</b> | %s\n\n", rec.Study, time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Target: %s\n", rec.Target))
	se := "classic"
	if rec.Clustered {
		se = "clustered"
	}
	b.WriteString(fmt.Sprintf("n=%d, R²=%.4f, adj R²=%.4f (%s SE)\n\n", rec.Observations, rec.R2, rec.AdjR2, se))

	names := make([]string, 0, len(rec.Coefficients))
	for n := range rec.Coefficients {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		b.WriteString(fmt.Sprintf("  %s: %+.6f\n", n, rec.Coefficients[n]))
	}
	return b.String()
}

// FormatSimulationDigest formats one forward scenario outcome.
func FormatSimulationDigest(rec *model.SimulationRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔮 <b>Scenario: %s</b>\n\n", rec.Scenario))
	b.WriteString(fmt.Sprintf("Announcement: %+.0f bp\n", rec.AnnouncementBP))
	b.WriteString(fmt.Sprintf("Horizon: %d trading days\n", rec.DaysAhead))
	b.WriteString(fmt.Sprintf("Cumulative return: %+.2f%%\n", rec.FinalCumReturn*100))
	b.WriteString(fmt.Sprintf("Final index level: %.1f\n", rec.FinalLevel))
	return b.String()
}

// FormatHelp lists the commands the daemon understands.
func FormatHelp() string {
	return strings.Join([]string{
		"🤖 <b>PolicyPulse commands</b>",
		"",
		"/status — refresh state and last shock",
		"/shocks — recent shock classifications",
		"/refresh — rebuild the shocks dataset now",
		"/help — this message",
	}, "\n")
}
