package metrics

import (
	"fmt"
	"strings"

	"github.com/oxhq/mclint/core"
)

// Weights in the execution-time model. Tuned against observed send-time
// latencies, not derived from anything principled.
const (
	weightCyclomatic = 0.10
	weightNesting    = 0.15
	weightLoop       = 0.25
	weightAPICall    = 0.05

	bytesPerVariable = 50
	bytesPerConcat   = 100
	bytesPerArrayOp  = 80
)

// Recommendation thresholds.
const (
	thresholdCyclomatic = 10
	thresholdNesting    = 4
	thresholdConcats    = 10
	thresholdMemoryKB   = 10 * 1024
	thresholdAPICalls   = 5
	thresholdLoop       = 5
)

// Calculator computes heuristic performance metrics from the same
// line-oriented scans the validators use.
type Calculator struct{}

// NewCalculator creates a metrics calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate produces the full performance report for one source unit.
func (c *Calculator) Calculate(code string, dialect core.Dialect) core.PerformanceMetrics {
	p := profileFor(dialect)
	lines := masked(code, p)

	complexity := c.complexity(lines, p)
	memory := c.memory(lines, p)
	apiCalls := c.apiCalls(lines, p)
	loopComplexity := c.loopComplexity(lines, p)

	execTime := p.baseTimePerLineMs * float64(complexity.LinesOfCode) *
		(1 + weightCyclomatic*float64(complexity.Cyclomatic) + weightNesting*float64(complexity.NestingDepth)) *
		(1 + weightLoop*float64(loopComplexity)) *
		(1 + weightAPICall*float64(apiCalls))
	execTime += p.apiOverheadMs * float64(apiCalls)

	m := core.PerformanceMetrics{
		Complexity:               complexity,
		MemoryUsage:              memory,
		EstimatedExecutionTimeMs: execTime,
		APICallCount:             apiCalls,
		LoopComplexity:           loopComplexity,
	}
	m.Recommendations = c.recommendations(m)
	return m
}

// complexity runs one block-tracking scan producing cyclomatic and
// cognitive complexity plus the maximum nesting depth.
func (c *Calculator) complexity(lines []string, p profile) core.ComplexityMetrics {
	cyclomatic := 1
	cognitive := 0
	loc := 0
	var nesting core.DepthTracker

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		loc++

		decisions := core.CountPattern(p.decisionRe, line)
		cyclomatic += decisions
		cognitive += decisions * (1 + nesting.Depth())
		cognitive += core.CountPattern(p.logicalRe, line)

		nesting.Open(core.CountPattern(p.blockOpenRe, line))
		nesting.Close(core.CountPattern(p.blockCloseRe, line))
	}

	return core.ComplexityMetrics{
		Cyclomatic:   cyclomatic,
		Cognitive:    cognitive,
		NestingDepth: nesting.Max(),
		LinesOfCode:  loc,
	}
}

func (c *Calculator) memory(lines []string, p profile) core.MemoryMetrics {
	var vars, concats, arrays int
	for _, line := range lines {
		vars += core.CountPattern(p.declRe, line)
		concats += core.CountPattern(p.concatRe, line)
		arrays += core.CountPattern(p.arrayRe, line)
	}

	estimated := float64(vars*bytesPerVariable+concats*bytesPerConcat+arrays*bytesPerArrayOp) * p.memoryMultiplier

	return core.MemoryMetrics{
		EstimatedBytes:       estimated,
		VariableCount:        vars,
		StringConcatenations: concats,
		ArrayOperations:      arrays,
	}
}

func (c *Calculator) apiCalls(lines []string, p profile) int {
	count := 0
	for _, line := range lines {
		count += core.CountPattern(p.apiRe, line)
	}
	return count
}

// loopComplexity weights each loop token by the nesting it sits in, so a
// loop inside a loop counts more than two siblings.
func (c *Calculator) loopComplexity(lines []string, p profile) int {
	total := 0
	var nesting core.DepthTracker

	for _, line := range lines {
		if n := core.CountPattern(p.loopRe, line); n > 0 {
			total += n * (1 + nesting.Depth())
		}
		nesting.Open(core.CountPattern(p.blockOpenRe, line))
		nesting.Close(core.CountPattern(p.blockCloseRe, line))
	}
	return total
}

func (c *Calculator) recommendations(m core.PerformanceMetrics) []core.Recommendation {
	recs := make([]core.Recommendation, 0, 4)

	if m.Complexity.Cyclomatic > thresholdCyclomatic {
		recs = append(recs, core.Recommendation{
			Kind:    core.RecommendRefactoring,
			Impact:  core.ImpactHigh,
			Message: fmt.Sprintf("cyclomatic complexity %d; split the logic into smaller units", m.Complexity.Cyclomatic),
		})
	}
	if m.Complexity.NestingDepth > thresholdNesting {
		recs = append(recs, core.Recommendation{
			Kind:    core.RecommendRefactoring,
			Impact:  core.ImpactMedium,
			Message: fmt.Sprintf("nesting depth %d; extract the inner blocks into functions", m.Complexity.NestingDepth),
		})
	}
	if m.MemoryUsage.StringConcatenations > thresholdConcats {
		recs = append(recs, core.Recommendation{
			Kind:    core.RecommendOptimization,
			Impact:  core.ImpactMedium,
			Message: fmt.Sprintf("%d string concatenations; build the output once from parts", m.MemoryUsage.StringConcatenations),
		})
	}
	if m.MemoryUsage.EstimatedBytes > thresholdMemoryKB {
		recs = append(recs, core.Recommendation{
			Kind:    core.RecommendOptimization,
			Impact:  core.ImpactMedium,
			Message: "estimated memory above 10 KB; review the data structures held per send",
		})
	}
	if m.APICallCount > thresholdAPICalls {
		recs = append(recs, core.Recommendation{
			Kind:    core.RecommendCaching,
			Impact:  core.ImpactHigh,
			Message: fmt.Sprintf("%d data/API calls; cache lookups or batch them", m.APICallCount),
		})
	}
	if m.LoopComplexity > thresholdLoop {
		recs = append(recs, core.Recommendation{
			Kind:    core.RecommendOptimization,
			Impact:  core.ImpactHigh,
			Message: fmt.Sprintf("loop complexity %d; rework the iteration strategy", m.LoopComplexity),
		})
	}

	return recs
}

func masked(code string, p profile) []string {
	lines := core.Lines(code)
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = core.MaskLiterals(line, p.lineComment)
	}
	return out
}
