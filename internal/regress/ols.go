// Package regress fits ordinary-least-squares models with classic or
// cluster-robust standard errors.
package regress

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Model is a fitted OLS regression.
type Model struct {
	Target string
	Names  []string
	Coef   []float64
	StdErr []float64
	TStat  []float64
	PValue []float64

	N     int
	K     int
	R2    float64
	AdjR2 float64

	Clustered bool
	Clusters  int
}

// Fit estimates y = X.beta + u by OLS with classic (homoskedastic) standard
// errors. columns holds the design matrix column by column; names labels
// them in the same order.
func Fit(target string, y []float64, columns [][]float64, names []string) (*Model, error) {
	return fit(target, y, columns, names, nil)
}

// FitClustered estimates the same model with Liang-Zeger cluster-robust
// standard errors, clustering on groups (one label per observation).
func FitClustered(target string, y []float64, columns [][]float64, names []string, groups []string) (*Model, error) {
	if len(groups) != len(y) {
		return nil, fmt.Errorf("groups length %d does not match %d observations", len(groups), len(y))
	}
	return fit(target, y, columns, names, groups)
}

func fit(target string, y []float64, columns [][]float64, names []string, groups []string) (*Model, error) {
	n := len(y)
	k := len(columns)
	if k == 0 {
		return nil, fmt.Errorf("no regressors")
	}
	if len(names) != k {
		return nil, fmt.Errorf("%d names for %d columns", len(names), k)
	}
	if n <= k {
		return nil, fmt.Errorf("%d observations for %d regressors", n, k)
	}
	for i, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("column %s: length %d does not match %d observations", names[i], len(col), n)
		}
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("column %s contains non-finite values", names[i])
			}
		}
	}

	X := mat.NewDense(n, k, nil)
	for j, col := range columns {
		for i, v := range col {
			X.Set(i, j, v)
		}
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(X)
	beta := mat.NewVecDense(k, nil)
	if err := qr.SolveVecTo(beta, false, yv); err != nil {
		return nil, fmt.Errorf("singular design matrix: %w", err)
	}

	// Residuals and fit statistics.
	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(X, beta)
	resid := make([]float64, n)
	rss := 0.0
	for i := 0; i < n; i++ {
		resid[i] = y[i] - fitted.AtVec(i)
		rss += resid[i] * resid[i]
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	tss := 0.0
	for _, v := range y {
		tss += (v - mean) * (v - mean)
	}
	r2 := 0.0
	if tss > 0 {
		r2 = 1 - rss/tss
	}
	adj := 1 - (1-r2)*float64(n-1)/float64(n-k)

	// (X'X)^-1 is shared by both covariance estimators.
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("invert X'X: %w", err)
	}

	m := &Model{
		Target: target,
		Names:  append([]string(nil), names...),
		Coef:   make([]float64, k),
		StdErr: make([]float64, k),
		TStat:  make([]float64, k),
		PValue: make([]float64, k),
		N:      n,
		K:      k,
		R2:     r2,
		AdjR2:  adj,
	}
	for j := 0; j < k; j++ {
		m.Coef[j] = beta.AtVec(j)
	}

	var cov mat.Dense
	dof := float64(n - k)
	if groups == nil {
		sigma2 := rss / dof
		cov.Scale(sigma2, &xtxInv)
	} else {
		byGroup := map[string][]int{}
		for i, g := range groups {
			byGroup[g] = append(byGroup[g], i)
		}
		g := len(byGroup)
		if g < 2 {
			return nil, fmt.Errorf("clustered errors need at least 2 groups, got %d", g)
		}
		labels := make([]string, 0, g)
		for l := range byGroup {
			labels = append(labels, l)
		}
		sort.Strings(labels)

		meat := mat.NewDense(k, k, nil)
		score := mat.NewVecDense(k, nil)
		for _, l := range labels {
			score.Zero()
			for _, i := range byGroup[l] {
				for j := 0; j < k; j++ {
					score.SetVec(j, score.AtVec(j)+X.At(i, j)*resid[i])
				}
			}
			var outer mat.Dense
			outer.Outer(1, score, score)
			meat.Add(meat, &outer)
		}
		var sandwich mat.Dense
		sandwich.Mul(&xtxInv, meat)
		sandwich.Mul(&sandwich, &xtxInv)
		adjust := float64(g) / float64(g-1) * float64(n-1) / dof
		cov.Scale(adjust, &sandwich)

		m.Clustered = true
		m.Clusters = g
		dof = float64(g - 1)
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	for j := 0; j < k; j++ {
		m.StdErr[j] = math.Sqrt(cov.At(j, j))
		if m.StdErr[j] > 0 {
			m.TStat[j] = m.Coef[j] / m.StdErr[j]
		}
		m.PValue[j] = 2 * dist.CDF(-math.Abs(m.TStat[j]))
	}
	return m, nil
}

// Coefficient returns the estimate for the named regressor.
func (m *Model) Coefficient(name string) (float64, bool) {
	for j, n := range m.Names {
		if n == name {
			return m.Coef[j], true
		}
	}
	return 0, false
}

// Predict evaluates the linear predictor on a full feature map. Every model
// regressor must be present.
func (m *Model) Predict(features map[string]float64) (float64, error) {
	sum := 0.0
	for j, name := range m.Names {
		v, ok := features[name]
		if !ok {
			return 0, fmt.Errorf("missing feature %q", name)
		}
		sum += m.Coef[j] * v
	}
	return sum, nil
}

// CoefficientMap returns name -> estimate.
func (m *Model) CoefficientMap() map[string]float64 {
	out := make(map[string]float64, len(m.Names))
	for j, n := range m.Names {
		out[n] = m.Coef[j]
	}
	return out
}

// AddConstant returns an all-ones column for the intercept.
func AddConstant(n int) []float64 {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return ones
}

// Dummies expands a categorical into drop-first indicator columns named
// prefix_level, with levels in sorted order.
func Dummies(prefix string, labels []string) (columns [][]float64, names []string) {
	seen := map[string]struct{}{}
	var levels []string
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			levels = append(levels, l)
		}
	}
	sort.Strings(levels)
	for _, level := range levels[1:] {
		col := make([]float64, len(labels))
		for i, l := range labels {
			if l == level {
				col[i] = 1
			}
		}
		columns = append(columns, col)
		names = append(names, prefix+"_"+level)
	}
	return columns, names
}
