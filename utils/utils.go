package utils

// UnitlinkVersion is stamped by the release build; source builds report
// "unknown".
var UnitlinkVersion string = "unknown"
