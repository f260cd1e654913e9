package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mclint/core"
)

func TestEmptySource(t *testing.T) {
	c := NewCalculator()
	m := c.Calculate("", core.DialectSSJS)

	assert.Equal(t, 1, m.Complexity.Cyclomatic, "cyclomatic baseline is 1")
	assert.Equal(t, 0, m.Complexity.LinesOfCode)
	assert.Zero(t, m.EstimatedExecutionTimeMs)
	assert.Empty(t, m.Recommendations)
}

func TestCyclomaticCountsDecisions(t *testing.T) {
	c := NewCalculator()
	m := c.Calculate(`if (a) {
} else if (b) {
}
while (c) {
}`, core.DialectSSJS)

	// if, if (from else if), while, plus the baseline.
	assert.Equal(t, 4, m.Complexity.Cyclomatic)
}

func TestCognitiveWeighsNesting(t *testing.T) {
	c := NewCalculator()

	flat := c.Calculate("if (a) {\n}\nif (b) {\n}", core.DialectSSJS)
	nested := c.Calculate("if (a) {\nif (b) {\n}\n}", core.DialectSSJS)

	assert.Greater(t, nested.Complexity.Cognitive, flat.Complexity.Cognitive)
	assert.Equal(t, 2, nested.Complexity.NestingDepth)
	assert.Equal(t, 1, flat.Complexity.NestingDepth)
}

func TestLogicalOperatorsAddCognitiveLoad(t *testing.T) {
	c := NewCalculator()

	plain := c.Calculate("if (a) {\n}", core.DialectSSJS)
	compound := c.Calculate("if (a && b || c) {\n}", core.DialectSSJS)

	assert.Equal(t, compound.Complexity.Cyclomatic, plain.Complexity.Cyclomatic)
	assert.Equal(t, plain.Complexity.Cognitive+2, compound.Complexity.Cognitive)
}

func TestLoopComplexityWeighsNesting(t *testing.T) {
	c := NewCalculator()

	siblings := c.Calculate("for (i) {\n}\nfor (j) {\n}", core.DialectSSJS)
	nested := c.Calculate("for (i) {\nfor (j) {\n}\n}", core.DialectSSJS)

	assert.Equal(t, 2, siblings.LoopComplexity)
	assert.Equal(t, 3, nested.LoopComplexity, "inner loop counts 1+depth")
}

func TestAPICallCount(t *testing.T) {
	c := NewCalculator()
	m := c.Calculate(`var de = DataExtension.Init("X");
var rows = de.Rows.Retrieve();
var r = HTTP.Get(url);`, core.DialectSSJS)

	assert.Equal(t, 3, m.APICallCount)
}

func TestKeywordsInStringsDoNotCount(t *testing.T) {
	c := NewCalculator()
	m := c.Calculate(`var s = "if for while case";`, core.DialectSSJS)

	assert.Equal(t, 1, m.Complexity.Cyclomatic)
	assert.Equal(t, 0, m.LoopComplexity)
}

func TestInterpretedDialectCostsMore(t *testing.T) {
	c := NewCalculator()
	code := "SET @a = Concat(@b, @c)\nSET @d = Lookup(\"DE\", \"F\", \"K\", @a)"

	amp := c.Calculate(code, core.DialectAMPscript)
	sql := c.Calculate("SELECT a FROM b\nSELECT c FROM d", core.DialectSQL)

	assert.Greater(t, amp.MemoryUsage.EstimatedBytes, 0.0)
	// Same structural weight would still cost more in the interpreted dialect.
	assert.Greater(t, amp.EstimatedExecutionTimeMs, sql.EstimatedExecutionTimeMs)
}

func TestSQLDialectMetrics(t *testing.T) {
	c := NewCalculator()
	m := c.Calculate(`SELECT a, b
FROM T
WHERE x = 1 AND y = 2`, core.DialectSQL)

	assert.Equal(t, 1, m.APICallCount, "one SELECT")
	assert.GreaterOrEqual(t, m.Complexity.Cyclomatic, 2, "WHERE counts as a decision")
}

func TestRecommendationThresholds(t *testing.T) {
	c := NewCalculator()

	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("if (a) {\n}\n")
		b.WriteString(`var de = DataExtension.Init("X");` + "\n")
		b.WriteString("s += part;\n")
	}
	m := c.Calculate(b.String(), core.DialectSSJS)

	kinds := make(map[core.RecommendationKind]bool)
	for _, r := range m.Recommendations {
		kinds[r.Kind] = true
	}
	assert.True(t, kinds[core.RecommendRefactoring], "cyclomatic threshold crossed")
	assert.True(t, kinds[core.RecommendCaching], "api call threshold crossed")
	assert.True(t, kinds[core.RecommendOptimization], "concat threshold crossed")
}

func TestDeterminism(t *testing.T) {
	c := NewCalculator()
	code := `for (var i = 0; i < 10; i++) {
  var de = DataExtension.Init("X");
}`

	first := c.Calculate(code, core.DialectSSJS)
	second := c.Calculate(code, core.DialectSSJS)
	assert.Equal(t, first, second)
}

func TestUnknownDialectUsesFallback(t *testing.T) {
	c := NewCalculator()
	require.NotPanics(t, func() {
		m := c.Calculate("let x = 1", core.DialectJavaScript)
		assert.Equal(t, 1, m.MemoryUsage.VariableCount)
	})
}
