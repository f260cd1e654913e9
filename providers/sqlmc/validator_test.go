package sqlmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mclint/core"
)

func rulesOf(diags []core.Diagnostic) []string {
	rules := make([]string, 0, len(diags))
	for _, d := range diags {
		rules = append(rules, d.Rule)
	}
	return rules
}

func TestSelectStarIsValidHere(t *testing.T) {
	// SELECT * is the rule table's concern, not the validator's.
	v := New()
	result := v.Validate(`SELECT * FROM Subscribers`)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestDMLRejected(t *testing.T) {
	v := New()

	for _, stmt := range []string{
		`DELETE FROM Subscribers`,
		`UPDATE Subscribers SET Status = 'held'`,
		`DROP TABLE Subscribers`,
	} {
		result := v.Validate(stmt)
		require.False(t, result.Valid, stmt)
		assert.Equal(t, "sql-read-only", result.Errors[0].Rule, stmt)
	}
}

func TestNotASelect(t *testing.T) {
	v := New()
	result := v.Validate(`GRANT ALL ON Subscribers TO nobody`)

	require.False(t, result.Valid)
	assert.Equal(t, "sql-not-a-select", result.Errors[0].Rule)
}

func TestSelectWithoutFrom(t *testing.T) {
	v := New()
	result := v.Validate(`SELECT SubscriberKey, EmailAddress`)

	assert.Contains(t, rulesOf(result.Errors), "sql-missing-from")
}

func TestSubqueryBalancesFromCount(t *testing.T) {
	v := New()
	result := v.Validate(`SELECT s.SubscriberKey
FROM (SELECT SubscriberKey FROM _Subscribers) s`)

	assert.NotContains(t, rulesOf(result.Errors), "sql-missing-from")
}

func TestUnbalancedParens(t *testing.T) {
	v := New()
	result := v.Validate(`SELECT COUNT(SubscriberKey FROM _Open`)

	assert.Contains(t, rulesOf(result.Errors), "sql-unbalanced-paren")
}

func TestJoinWithoutOn(t *testing.T) {
	v := New()
	result := v.Validate(`SELECT a.Id FROM A a JOIN B b`)

	assert.Contains(t, rulesOf(result.Errors), "sql-join-without-on")

	withOn := v.Validate(`SELECT a.Id FROM A a JOIN B b ON a.Id = b.Id`)
	assert.NotContains(t, rulesOf(withOn.Errors), "sql-join-without-on")
}

func TestUnterminatedString(t *testing.T) {
	v := New()
	result := v.Validate(`SELECT Name FROM T WHERE Status = 'active`)

	assert.Contains(t, rulesOf(result.Errors), "sql-unterminated-string")
}

func TestLeadingWildcardWarning(t *testing.T) {
	v := New()
	result := v.Validate(`SELECT Name FROM T WHERE Email LIKE '%@example.com'`)

	require.True(t, result.Valid)
	found := false
	for _, d := range result.Warnings {
		if d.Rule == "sql-leading-wildcard" {
			found = true
			assert.Equal(t, core.CategoryPerformance, d.Category)
		}
	}
	assert.True(t, found)
}

func TestFunctionInWhereWarning(t *testing.T) {
	v := New()
	result := v.Validate(`SELECT Name FROM T WHERE UPPER(Email) = 'X@Y.COM'`)

	assert.Contains(t, rulesOf(result.Warnings), "sql-function-in-where")
}

func TestNotInSubqueryWarning(t *testing.T) {
	v := New()
	result := v.Validate(`SELECT Name FROM T WHERE Id NOT IN (SELECT Id FROM Unsubs)`)

	assert.Contains(t, rulesOf(result.Warnings), "sql-not-in-subquery")
}

func TestKeywordsInsideStringsIgnored(t *testing.T) {
	v := New()
	result := v.Validate(`SELECT Name FROM T WHERE Note = 'please DELETE me SELECT nothing'`)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestCommentsIgnored(t *testing.T) {
	v := New()
	result := v.Validate(`-- SELECT without from in a comment
SELECT Name FROM T`)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestEmptyAndMalformedInput(t *testing.T) {
	v := New()
	assert.NotPanics(t, func() {
		empty := v.Validate("")
		assert.True(t, empty.Valid)
		v.Validate("((((' \n\n )")
	})
}
