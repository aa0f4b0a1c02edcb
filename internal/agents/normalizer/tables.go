// internal/agents/normalizer/tables.go
package normalizer

import "regexp"

// locationRule maps a lower-cased substring to its canonical store name.
// Rules are evaluated in order so specific aliases win over generic ones.
type locationRule struct {
	match     string
	canonical string
}

var locationRules = []locationRule{
	{"101", "Apple Store Taipei 101"},
	{"xinyi", "Apple Store Xinyi"},
	{"apple store", "Apple Store"},
	{"online", "Online Store"},
	{"amazon", "Online Store"},
	{"website", "Online Store"},
	{"internet", "Online Store"},
	{"best buy", "Best Buy"},
	{"walmart", "Walmart"},
	{"costco", "Costco"},
	{"target", "Target"},
}

// reasonRule maps a lower-cased keyword to a canonical return reason.
// First match wins, so multi-word keywords come before the single words
// they contain.
type reasonRule struct {
	keyword   string
	canonical string
}

var reasonRules = []reasonRule{
	{"screen cracked", "Screen cracked out of the box"},
	{"usb port", "USB port not working"},
	{"dead pixels", "Screen has dead pixels"},
	{"not working", "Device not functioning properly"},
	{"unresponsive", "Touch screen unresponsive"},
	{"cracked", "Screen or housing damage"},
	{"broken", "Physical damage or defect"},
	{"battery", "Battery related issues"},
	{"charging", "Charging port or cable issues"},
	{"defective", "Manufacturing defect"},
	{"faulty", "Product malfunction"},
	{"overheating", "Device overheating issues"},
}

// productSpellings fixes brand capitalization after generic title-casing.
var productSpellings = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bapple tv\b`), "Apple TV"},
	{regexp.MustCompile(`(?i)\bapple watch\b`), "Apple Watch"},
	{regexp.MustCompile(`(?i)\biphone\b`), "iPhone"},
	{regexp.MustCompile(`(?i)\bipad\b`), "iPad"},
	{regexp.MustCompile(`(?i)\bmacbook\b`), "MacBook"},
	{regexp.MustCompile(`(?i)\bairpods\b`), "AirPods"},
	{regexp.MustCompile(`(?i)\btv\b`), "TV"},
	{regexp.MustCompile(`(?i)\busb\b`), "USB"},
}

// fillerWords are dropped from product descriptions before title-casing.
var fillerWords = map[string]bool{
	"a": true, "an": true, "my": true, "the": true,
	"this": true, "that": true,
}

var (
	numberPattern   = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)
	discountPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%\s*(?:off|discount)`)
	leadingPrepos   = regexp.MustCompile(`(?i)^(at|from|in)\s+`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)
