package regress

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Summary renders a statsmodels-style coefficient table.
func (m *Model) Summary(w io.Writer) {
	se := "OLS"
	if m.Clustered {
		se = fmt.Sprintf("cluster-robust (%d clusters)", m.Clusters)
	}
	fmt.Fprintf(w, "\nOLS regression: %s\n", m.Target)
	fmt.Fprintf(w, "n=%d  R²=%.4f  adj R²=%.4f  SE: %s\n", m.N, m.R2, m.AdjR2, se)

	table := tablewriter.NewWriter(w)
	table.Header("Variable", "Coef", "Std Err", "t", "P>|t|")
	for j, name := range m.Names {
		table.Append(
			name,
			fmt.Sprintf("%.6f", m.Coef[j]),
			fmt.Sprintf("%.6f", m.StdErr[j]),
			fmt.Sprintf("%.3f", m.TStat[j]),
			fmt.Sprintf("%.4f", m.PValue[j]),
		)
	}
	table.Render()
}
