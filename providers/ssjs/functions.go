package ssjs

import "github.com/oxhq/mclint/providers/base"

// Free functions available to server-side scripts plus the JavaScript
// globals that survive on the platform runtime. Method calls (obj.Method)
// are never checked against this list.
var builtinFunctions = base.KnownSet(
	// Platform output
	"Write", "Redirect", "Stringify", "ParseJSON",
	// JS globals that exist in the sandbox
	"String", "Number", "Boolean", "Array", "Date", "RegExp", "Object",
	"parseInt", "parseFloat", "isNaN", "isFinite", "encodeURIComponent",
	"decodeURIComponent", "escape", "unescape",
	// Script-to-script
	"Eval", "Now", "GUID", "Output",
)

var keywordSet = base.KnownSet(
	"if", "else", "for", "while", "do", "switch", "case", "return",
	"function", "var", "new", "typeof", "delete", "try", "catch", "finally",
	"throw", "in",
)
