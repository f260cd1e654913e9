package ampscript

import "github.com/oxhq/mclint/providers/base"

// Core AMPscript function allow-list. Anything not listed and not matching
// the custom-identifier convention is reported as unknown rather than
// aborting the scan.
var knownFunctions = base.KnownSet(
	// String
	"Concat", "Substring", "Length", "Lowercase", "Uppercase", "ProperCase",
	"Trim", "Replace", "ReplaceList", "IndexOf", "Char", "Format",
	"RegExMatch", "StringToDate", "StringToHex",
	// Data extension
	"Lookup", "LookupRows", "LookupOrderedRows", "LookupOrderedRowsCS",
	"LookupRowsCS", "DataExtensionRowCount", "Field", "Row", "RowCount",
	"InsertDE", "UpdateDE", "UpsertDE", "DeleteDE", "UpdateData",
	"InsertData", "UpsertData", "DeleteData", "ClaimRow",
	// Subscriber / sending context
	"AttributeValue", "RequestParameter", "QueryParameter", "CloudPagesURL",
	"RedirectTo", "SetSmsConversationNextKeyword", "GetSendTime",
	// Math / logic
	"Add", "Subtract", "Multiply", "Divide", "Mod", "Random", "IIF", "IsNull",
	"Empty", "Not", "FormatNumber", "FormatCurrency",
	// Dates
	"Now", "DateAdd", "DateDiff", "DatePart", "SystemDateToLocalDate",
	"LocalDateToSystemDate", "FormatDate",
	// Utility / encoding
	"v", "Base64Encode", "Base64Decode", "URLEncode", "GUID", "MD5", "SHA256",
	"Iif", "Output", "OutputLine", "TreatAsContent", "ContentBlockByKey",
	"ContentBlockByID", "ContentBlockByName", "BuildRowsetFromString",
	"BuildRowsetFromXML", "BuildRowsetFromJSON", "BeginImpressionRegion",
	"EndImpressionRegion", "RaiseError", "HTTPGet", "HTTPPost",
)

// Statement keywords that look like calls in a lexical scan.
var keywordSet = base.KnownSet(
	"if", "elseif", "else", "endif", "for", "next", "do", "to", "downto",
	"set", "var", "and", "or", "not",
)
